package kubectl_test

import (
	"io"
	"testing"

	"github.com/kubestrap/kubestrap/pkg/client/kubectl"
	"github.com/stretchr/testify/require"
	"k8s.io/cli-runtime/pkg/genericiooptions"
)

func TestCreateApplyCommand_BuildsApplyCommand(t *testing.T) {
	t.Parallel()

	client := kubectl.NewClient(genericiooptions.IOStreams{
		In:     nil,
		Out:    io.Discard,
		ErrOut: io.Discard,
	})

	cmd := client.CreateApplyCommand("/tmp/kubeconfig", "kind-mgmt")

	require.NotNil(t, cmd)
	require.Equal(t, "apply", cmd.Name())
	require.NotNil(t, cmd.Flag("filename"))
	require.NotNil(t, cmd.Flag("server-side"))
}

func TestCreateApplyCommand_FreshCommandPerCall(t *testing.T) {
	t.Parallel()

	client := kubectl.NewClient(genericiooptions.IOStreams{Out: io.Discard, ErrOut: io.Discard})

	first := client.CreateApplyCommand("", "")
	second := client.CreateApplyCommand("", "")

	require.NotSame(t, first, second)
}
