package k8s_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kubestrap/kubestrap/pkg/k8s"
	"github.com/stretchr/testify/require"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://127.0.0.1:6443
  name: kind-test
contexts:
- context:
    cluster: kind-test
    user: kind-test
  name: kind-test
current-context: kind-test
users:
- name: kind-test
  user: {}
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config")
	err := os.WriteFile(path, []byte(testKubeconfig), 0o600)
	require.NoError(t, err)

	return path
}

func TestBuildRESTConfig_EmptyPathReturnsError(t *testing.T) {
	t.Parallel()

	_, err := k8s.BuildRESTConfig("", "")

	require.ErrorIs(t, err, k8s.ErrKubeconfigPathEmpty)
}

func TestBuildRESTConfig_UsesCurrentContext(t *testing.T) {
	t.Parallel()

	path := writeKubeconfig(t)

	cfg, err := k8s.BuildRESTConfig(path, "")

	require.NoError(t, err)
	require.Equal(t, "https://127.0.0.1:6443", cfg.Host)
}

func TestBuildRESTConfig_ExplicitContextOverridesCurrent(t *testing.T) {
	t.Parallel()

	const twoContexts = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://127.0.0.1:6443
  name: other
- cluster:
    server: https://127.0.0.1:7443
  name: kind-mgmt
contexts:
- context:
    cluster: other
    user: other
  name: other
- context:
    cluster: kind-mgmt
    user: kind-mgmt
  name: kind-mgmt
current-context: other
users:
- name: other
  user: {}
- name: kind-mgmt
  user: {}
`

	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(twoContexts), 0o600))

	cfg, err := k8s.BuildRESTConfig(path, "kind-mgmt")

	require.NoError(t, err)
	require.Equal(t, "https://127.0.0.1:7443", cfg.Host)
}

func TestBuildRESTConfig_UnknownContextFails(t *testing.T) {
	t.Parallel()

	path := writeKubeconfig(t)

	_, err := k8s.BuildRESTConfig(path, "does-not-exist")

	require.Error(t, err)
}

func TestNewClientset_FromKubeconfig(t *testing.T) {
	t.Parallel()

	path := writeKubeconfig(t)

	clientset, err := k8s.NewClientset(path, "kind-test")

	require.NoError(t, err)
	require.NotNil(t, clientset)
}

func TestDefaultKubeconfigPath_EndsWithKubeConfig(t *testing.T) {
	t.Parallel()

	path := k8s.DefaultKubeconfigPath()

	require.Equal(t, "config", filepath.Base(path))
}
