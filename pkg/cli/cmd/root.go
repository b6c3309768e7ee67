// Package cmd assembles the kubestrap CLI commands.
package cmd

import (
	"fmt"

	"github.com/kubestrap/kubestrap/pkg/di"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with version info and subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	runtimeContainer := di.NewRuntime()

	cmd := &cobra.Command{
		Use:   "kubestrap",
		Short: "Kubestrap bootstraps multi-cluster GitOps platforms",
		Long: "Kubestrap bootstraps a cloud-managed Kubernetes cluster from a local " +
			"management cluster and hands continuous reconciliation over to a GitOps controller.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	cmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)

	cmd.AddCommand(NewInitCmd(runtimeContainer))
	cmd.AddCommand(NewBootstrapCmd(runtimeContainer))
	cmd.AddCommand(NewApplyCmd(runtimeContainer))
	cmd.AddCommand(NewSynthCmd(runtimeContainer))

	return cmd
}
