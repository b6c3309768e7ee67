// Package render builds kustomize overlays into flat manifest documents for
// the applier and the synth command.
package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/kustomize/api/krusty"
	"sigs.k8s.io/kustomize/api/types"
	"sigs.k8s.io/kustomize/kyaml/filesys"
)

// OutputSuffix is appended to the application name to form the rendered
// manifest file name.
const OutputSuffix = ".k8s.yaml"

// ErrEmptyAppName is returned when a rendered file name cannot be derived.
var ErrEmptyAppName = errors.New("application name must not be empty")

// Renderer builds kustomizations in-process.
type Renderer struct {
	kustomizer *krusty.Kustomizer
	fsys       filesys.FileSystem
}

// NewRenderer creates a Renderer operating on the real filesystem.
func NewRenderer() *Renderer {
	options := krusty.MakeDefaultOptions()
	options.LoadRestrictions = types.LoadRestrictionsNone

	return &Renderer{
		kustomizer: krusty.MakeKustomizer(options),
		fsys:       filesys.MakeFsOnDisk(),
	}
}

// Render builds the kustomization rooted at sourceDir and returns the
// resulting manifests as a single multi-document YAML stream.
func (r *Renderer) Render(sourceDir string) ([]byte, error) {
	resources, err := r.kustomizer.Run(r.fsys, sourceDir)
	if err != nil {
		return nil, fmt.Errorf("build kustomization %s: %w", sourceDir, err)
	}

	yamlBytes, err := resources.AsYaml()
	if err != nil {
		return nil, fmt.Errorf("serialize kustomization output: %w", err)
	}

	return yamlBytes, nil
}

// RenderToFile builds the kustomization and writes the output to
// <outputDir>/<appName>.k8s.yaml, creating outputDir if needed. Returns the
// path of the written file.
func (r *Renderer) RenderToFile(sourceDir, outputDir, appName string) (string, error) {
	if appName == "" {
		return "", ErrEmptyAppName
	}

	yamlBytes, err := r.Render(sourceDir)
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(outputDir, 0o755)
	if err != nil {
		return "", fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	path := filepath.Join(outputDir, appName+OutputSuffix)

	err = os.WriteFile(path, yamlBytes, 0o600)
	if err != nil {
		return "", fmt.Errorf("write rendered manifests: %w", err)
	}

	return path, nil
}

// CleanOutputDir removes previously rendered files so stale manifests from a
// renamed or deleted application never reach the cluster.
func CleanOutputDir(outputDir string) error {
	matches, err := filepath.Glob(filepath.Join(outputDir, "*"+OutputSuffix))
	if err != nil {
		return fmt.Errorf("glob rendered manifests: %w", err)
	}

	for _, match := range matches {
		err = os.Remove(match)
		if err != nil {
			return fmt.Errorf("remove stale manifest %s: %w", match, err)
		}
	}

	return nil
}
