package kubectl

import (
	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/cli-runtime/pkg/genericiooptions"
	"k8s.io/kubectl/pkg/cmd/apply"
	cmdutil "k8s.io/kubectl/pkg/cmd/util"
)

// Client creates kubectl commands bound to a kubeconfig path and context.
type Client struct {
	ioStreams genericiooptions.IOStreams
}

// NewClient creates a kubectl client writing through the given IO streams.
func NewClient(ioStreams genericiooptions.IOStreams) *Client {
	return &Client{ioStreams: ioStreams}
}

// CreateApplyCommand returns kubectl's apply command configured for the given
// kubeconfig path and context. Empty values fall back to kubectl's default
// loading rules. Cobra commands are single-use; create a fresh one per
// invocation.
func (c *Client) CreateApplyCommand(kubeconfigPath, kubeContext string) *cobra.Command {
	kubeConfigFlags := genericclioptions.NewConfigFlags(true)

	if kubeconfigPath != "" {
		kubeConfigFlags.KubeConfig = &kubeconfigPath
	}

	if kubeContext != "" {
		kubeConfigFlags.Context = &kubeContext
	}

	factory := cmdutil.NewFactory(cmdutil.NewMatchVersionFlags(kubeConfigFlags))

	return apply.NewCmdApply("kubestrap", factory, c.ioStreams)
}
