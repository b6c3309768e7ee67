package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kubestrap/kubestrap/pkg/svc/bootstrap"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"
)

func TestResolveCredentialsPath_ExplicitPathWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	explicit := filepath.Join(dir, "sa.json")
	require.NoError(t, os.WriteFile(explicit, []byte("{}"), 0o600))

	path, err := bootstrap.ResolveCredentialsPath(explicit, t.TempDir())

	require.NoError(t, err)
	require.Equal(t, explicit, path)
}

func TestResolveCredentialsPath_ExplicitPathMustExist(t *testing.T) {
	t.Parallel()

	_, err := bootstrap.ResolveCredentialsPath(filepath.Join(t.TempDir(), "missing.json"), "")

	require.ErrorIs(t, err, bootstrap.ErrCredentialsNotFound)
}

func TestResolveCredentialsPath_FallsBackToWorkDir(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	fallback := filepath.Join(workDir, "gcp-credentials.json")
	require.NoError(t, os.WriteFile(fallback, []byte("{}"), 0o600))

	path, err := bootstrap.ResolveCredentialsPath("", workDir)

	require.NoError(t, err)
	require.Equal(t, fallback, path)
}

func TestResolveCredentialsPath_NothingFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := bootstrap.ResolveCredentialsPath("", t.TempDir())

	require.ErrorIs(t, err, bootstrap.ErrCredentialsNotFound)
}

func TestSeed_CreatesNamespaceAndSecret(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600))

	clientset := k8sfake.NewSimpleClientset()
	seeder := bootstrap.NewSeeder(clientset)

	require.NoError(t, seeder.Seed(context.Background(), path))

	_, err := clientset.CoreV1().
		Namespaces().
		Get(context.Background(), bootstrap.CredentialsNamespace, metav1.GetOptions{})
	require.NoError(t, err)

	secret, err := clientset.CoreV1().
		Secrets(bootstrap.CredentialsNamespace).
		Get(context.Background(), bootstrap.CredentialsSecretName, metav1.GetOptions{})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"service_account"}`,
		string(secret.Data[bootstrap.CredentialsSecretKey]))
}

func TestSeed_ReplacesExistingSecret(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0o600))

	clientset := k8sfake.NewSimpleClientset()
	seeder := bootstrap.NewSeeder(clientset)

	require.NoError(t, seeder.Seed(context.Background(), path))

	require.NoError(t, os.WriteFile(path, []byte(`{"v":2}`), 0o600))
	require.NoError(t, seeder.Seed(context.Background(), path))

	secret, err := clientset.CoreV1().
		Secrets(bootstrap.CredentialsNamespace).
		Get(context.Background(), bootstrap.CredentialsSecretName, metav1.GetOptions{})
	require.NoError(t, err)
	require.JSONEq(t, `{"v":2}`, string(secret.Data[bootstrap.CredentialsSecretKey]))
}

func TestSeed_MissingFileFails(t *testing.T) {
	t.Parallel()

	seeder := bootstrap.NewSeeder(k8sfake.NewSimpleClientset())

	err := seeder.Seed(context.Background(), filepath.Join(t.TempDir(), "missing.json"))

	require.Error(t, err)
}
