package cmd

import (
	"github.com/kubestrap/kubestrap/pkg/di"
	"github.com/kubestrap/kubestrap/pkg/io/configmanager"
	"github.com/kubestrap/kubestrap/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command, which scaffolds a kubestrap.yaml with
// default values.
func NewInitCmd(_ *di.Runtime) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a kubestrap.yaml project configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configmanager.Scaffold(outputDir)
			if err != nil {
				return err
			}

			notify.Successf(cmd.OutOrStdout(), "created '%s'", path)

			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", ".", "directory to write kubestrap.yaml into")

	return cmd
}
