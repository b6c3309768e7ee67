package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"sigs.k8s.io/kustomize/kyaml/kio"
)

// ErrNoMatches is returned when a glob pattern matches no manifest files.
var ErrNoMatches = errors.New("no manifest files match pattern")

// Manifest is a single structured Kubernetes resource document. It is
// immutable once read; identity is (kind, apiVersion, namespace, name).
type Manifest struct {
	apiVersion string
	kind       string
	name       string
	namespace  string
	yaml       string
}

// APIVersion returns the document's apiVersion.
func (m Manifest) APIVersion() string { return m.apiVersion }

// Kind returns the document's kind.
func (m Manifest) Kind() string { return m.kind }

// Name returns metadata.name.
func (m Manifest) Name() string { return m.name }

// Namespace returns metadata.namespace, empty for cluster-scoped resources.
func (m Manifest) Namespace() string { return m.namespace }

// YAML returns the document serialized as YAML.
func (m Manifest) YAML() string { return m.yaml }

// String returns the manifest identity in kind/apiVersion/namespace/name form.
func (m Manifest) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", m.kind, m.apiVersion, m.namespace, m.name)
}

// Parse reads every document from multi-document YAML content.
// Documents without a kind or apiVersion are filtered out.
func Parse(data []byte) ([]Manifest, error) {
	reader := kio.ByteReader{
		Reader:                bytes.NewReader(data),
		OmitReaderAnnotations: true,
	}

	nodes, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("parse manifest documents: %w", err)
	}

	manifests := make([]Manifest, 0, len(nodes))

	for _, node := range nodes {
		apiVersion := node.GetApiVersion()
		kind := node.GetKind()

		if apiVersion == "" || kind == "" {
			continue
		}

		content, err := node.String()
		if err != nil {
			return nil, fmt.Errorf("serialize manifest document: %w", err)
		}

		manifests = append(manifests, Manifest{
			apiVersion: apiVersion,
			kind:       kind,
			name:       node.GetName(),
			namespace:  node.GetNamespace(),
			yaml:       content,
		})
	}

	return manifests, nil
}

// LoadFile parses all documents from a manifest file.
func LoadFile(path string) ([]Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest file: %w", err)
	}

	manifests, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return manifests, nil
}

// LoadGlob parses all documents from every file matching the glob pattern,
// in lexical file order. Returns ErrNoMatches if no file matches.
func LoadGlob(pattern string) ([]Manifest, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expand manifest glob: %w", err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, pattern)
	}

	sort.Strings(paths)

	var manifests []Manifest

	for _, path := range paths {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}

		manifests = append(manifests, loaded...)
	}

	return manifests, nil
}

// MarshalDocuments joins manifests into one multi-document YAML stream.
func MarshalDocuments(manifests []Manifest) string {
	var buf bytes.Buffer

	for i, m := range manifests {
		if i > 0 {
			buf.WriteString("---\n")
		}

		buf.WriteString(m.YAML())

		if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			buf.WriteString("\n")
		}
	}

	return buf.String()
}
