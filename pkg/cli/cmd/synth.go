package cmd

import (
	"github.com/kubestrap/kubestrap/pkg/di"
	"github.com/kubestrap/kubestrap/pkg/io/configmanager"
	"github.com/kubestrap/kubestrap/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// NewSynthCmd creates the synth command, which renders a kustomize source
// directory into a flat manifest file under the output directory.
func NewSynthCmd(runtime *di.Runtime) *cobra.Command {
	var (
		appName   string
		sourceDir string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Render the workload manifests to the output directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := configmanager.NewConfigManager().LoadConfig()
			if err != nil {
				return err
			}

			return runtime.Invoke(func(injector di.Injector) error {
				renderer, err := di.ResolveRenderer(injector)
				if err != nil {
					return err
				}

				path, err := renderer.RenderToFile(
					valueOr(sourceDir, config.WorkloadSource),
					valueOr(outputDir, config.OutputDir),
					valueOr(appName, config.AppName),
				)
				if err != nil {
					return err
				}

				notify.Successf(cmd.OutOrStdout(), "rendered manifests to '%s'", path)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&appName, "app", "", "application name for the rendered file")
	cmd.Flags().StringVar(&sourceDir, "source", "", "kustomize source directory")
	cmd.Flags().StringVar(&outputDir, "output", "", "output directory for rendered manifests")

	return cmd
}
