package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kubestrap/kubestrap/pkg/manifest"
	"github.com/stretchr/testify/require"
)

const multiDoc = `apiVersion: v1
kind: Namespace
metadata:
  name: crossplane-system
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: crossplane
  namespace: crossplane-system
spec:
  replicas: 1
---
# a comment-only document is filtered out
---
apiVersion: pkg.crossplane.io/v1
kind: Provider
metadata:
  name: provider-gcp
`

func TestParse_SplitsDocumentsAndFiltersPartials(t *testing.T) {
	t.Parallel()

	manifests, err := manifest.Parse([]byte(multiDoc))
	require.NoError(t, err)
	require.Len(t, manifests, 3)

	require.Equal(t, "Namespace", manifests[0].Kind())
	require.Equal(t, "crossplane-system", manifests[0].Name())
	require.Empty(t, manifests[0].Namespace())

	require.Equal(t, "Deployment", manifests[1].Kind())
	require.Equal(t, "apps/v1", manifests[1].APIVersion())
	require.Equal(t, "crossplane-system", manifests[1].Namespace())

	require.Equal(t, "Provider", manifests[2].Kind())
}

func TestLoadGlob_NoMatchesReturnsSentinel(t *testing.T) {
	t.Parallel()

	_, err := manifest.LoadGlob(filepath.Join(t.TempDir(), "*.k8s.yaml"))

	require.ErrorIs(t, err, manifest.ErrNoMatches)
}

func TestLoadGlob_LoadsFilesInLexicalOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "b.k8s.yaml"), []byte(
		"apiVersion: v1\nkind: Namespace\nmetadata:\n  name: second\n",
	), 0o600)
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(dir, "a.k8s.yaml"), []byte(
		"apiVersion: v1\nkind: Namespace\nmetadata:\n  name: first\n",
	), 0o600)
	require.NoError(t, err)

	manifests, err := manifest.LoadGlob(filepath.Join(dir, "*.k8s.yaml"))
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	require.Equal(t, "first", manifests[0].Name())
	require.Equal(t, "second", manifests[1].Name())
}

func TestMarshalDocuments_RoundTripsThroughParse(t *testing.T) {
	t.Parallel()

	manifests, err := manifest.Parse([]byte(multiDoc))
	require.NoError(t, err)

	joined := manifest.MarshalDocuments(manifests)

	reparsed, err := manifest.Parse([]byte(joined))
	require.NoError(t, err)
	require.Len(t, reparsed, len(manifests))

	for i := range manifests {
		require.Equal(t, manifests[i].String(), reparsed[i].String())
	}
}
