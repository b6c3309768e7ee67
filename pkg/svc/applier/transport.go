package applier

import (
	"context"
	"fmt"
	"os"

	"github.com/kubestrap/kubestrap/pkg/client/kubectl"
	"github.com/kubestrap/kubestrap/pkg/k8s"
	"github.com/kubestrap/kubestrap/pkg/utils/runner"
	"k8s.io/cli-runtime/pkg/genericiooptions"
	"k8s.io/client-go/kubernetes"
)

// Transport applies manifest files to a cluster. Re-applying identical
// content is a no-op, so transports are safe to drive idempotently.
type Transport interface {
	// Ping verifies the cluster is reachable.
	Ping(ctx context.Context) error
	// ApplyFile applies a (possibly multi-document) manifest file.
	ApplyFile(ctx context.Context, path string, dryRun bool) error
}

// KubectlTransport applies manifests through kubectl's embedded apply
// command using server-side apply.
type KubectlTransport struct {
	client         *kubectl.Client
	clientset      kubernetes.Interface
	runner         runner.CommandRunner
	kubeconfigPath string
	kubeContext    string
}

var _ Transport = (*KubectlTransport)(nil)

// NewKubectlTransport creates a transport bound to a kubeconfig path and
// context. An empty context uses the kubeconfig's current context.
func NewKubectlTransport(kubeconfigPath, kubeContext string) (*KubectlTransport, error) {
	clientset, err := k8s.NewClientset(kubeconfigPath, kubeContext)
	if err != nil {
		return nil, fmt.Errorf("create transport clientset: %w", err)
	}

	ioStreams := genericiooptions.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}

	return &KubectlTransport{
		client:         kubectl.NewClient(ioStreams),
		clientset:      clientset,
		runner:         runner.NewCobraCommandRunner(os.Stdout, os.Stderr),
		kubeconfigPath: kubeconfigPath,
		kubeContext:    kubeContext,
	}, nil
}

// Ping verifies connectivity with a lightweight ServerVersion request.
func (t *KubectlTransport) Ping(ctx context.Context) error {
	_ = ctx

	_, err := t.clientset.Discovery().ServerVersion()
	if err != nil {
		return fmt.Errorf("query server version: %w", err)
	}

	return nil
}

// ApplyFile server-side applies the manifest file. With dryRun set, the
// request is evaluated by the API server but not persisted.
func (t *KubectlTransport) ApplyFile(ctx context.Context, path string, dryRun bool) error {
	cmd := t.client.CreateApplyCommand(t.kubeconfigPath, t.kubeContext)

	args := []string{
		"--filename", path,
		"--server-side",
		"--force-conflicts",
	}

	if dryRun {
		args = append(args, "--dry-run=server")
	}

	_, err := t.runner.Run(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("apply %s: %w", path, err)
	}

	return nil
}
