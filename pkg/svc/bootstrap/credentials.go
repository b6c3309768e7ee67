package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	// CredentialsNamespace holds the seeded cloud credential secret.
	CredentialsNamespace = "crossplane-system"
	// CredentialsSecretName is the secret the provider config references.
	CredentialsSecretName = "gcp-creds"
	// CredentialsSecretKey is the secret data key holding the JSON key file.
	CredentialsSecretKey = "credentials"

	defaultCredentialsFile = "gcp-credentials.json"
	adcRelativePath        = ".config/gcloud/application_default_credentials.json"
)

// ResolveCredentialsPath locates the cloud credentials file to seed. An
// explicit path wins and must exist; otherwise the working directory and the
// gcloud application-default location are probed in that order.
func ResolveCredentialsPath(explicit, workDir string) (string, error) {
	if explicit != "" {
		_, err := os.Stat(explicit)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrCredentialsNotFound, explicit)
		}

		return explicit, nil
	}

	candidates := []string{filepath.Join(workDir, defaultCredentialsFile)}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, adcRelativePath))
	}

	for _, candidate := range candidates {
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: tried %v", ErrCredentialsNotFound, candidates)
}

// Seeder creates or replaces the cloud credential secret on the management
// cluster.
type Seeder struct {
	clientset kubernetes.Interface
}

// NewSeeder creates a Seeder using the given clientset.
func NewSeeder(clientset kubernetes.Interface) *Seeder {
	return &Seeder{clientset: clientset}
}

// Seed reads the credentials file at path and upserts it as a namespaced
// secret. Re-seeding replaces the secret's content, so repeated runs
// converge on the file's current state.
func (s *Seeder) Seed(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read credentials file: %w", err)
	}

	err = s.ensureNamespace(ctx)
	if err != nil {
		return err
	}

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      CredentialsSecretName,
			Namespace: CredentialsNamespace,
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{CredentialsSecretKey: data},
	}

	secrets := s.clientset.CoreV1().Secrets(CredentialsNamespace)

	_, err = secrets.Create(ctx, secret, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = secrets.Update(ctx, secret, metav1.UpdateOptions{})
	}

	if err != nil {
		return fmt.Errorf("upsert credentials secret: %w", err)
	}

	return nil
}

func (s *Seeder) ensureNamespace(ctx context.Context) error {
	namespace := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: CredentialsNamespace},
	}

	_, err := s.clientset.CoreV1().Namespaces().Create(ctx, namespace, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("ensure namespace %s: %w", CredentialsNamespace, err)
	}

	return nil
}
