package cmd

import (
	"github.com/kubestrap/kubestrap/pkg/di"
	"github.com/kubestrap/kubestrap/pkg/k8s"
	"github.com/kubestrap/kubestrap/pkg/manifest"
	"github.com/kubestrap/kubestrap/pkg/utils/notify"
	"github.com/spf13/cobra"
)

const defaultManifestGlob = "dist/*.k8s.yaml"

// NewApplyCmd creates the apply command, which runs the phased applier
// standalone over rendered manifest files.
func NewApplyCmd(_ *di.Runtime) *cobra.Command {
	var (
		fileGlob    string
		dryRun      bool
		kubeconfig  string
		kubeContext string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply rendered manifests in dependency-ordered phases",
		Long: "Apply classifies manifests into ordered phases (foundational, controllers, " +
			"providers, provider configs, workloads) and applies each phase with readiness " +
			"gating in between.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifests, err := manifest.LoadGlob(fileGlob)
			if err != nil {
				return err
			}

			phased, err := buildPhasedApplier(kubeconfig, kubeContext, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			err = phased.Apply(cmd.Context(), manifests, dryRun)
			if err != nil {
				return err
			}

			notify.Successf(cmd.OutOrStdout(), "applied %d manifests", len(manifests))

			return nil
		},
	}

	cmd.Flags().StringVar(&fileGlob, "file", defaultManifestGlob,
		"glob of manifest files to apply")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"classify and submit to the API server without persisting")
	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", k8s.DefaultKubeconfigPath(),
		"path to the kubeconfig file")
	cmd.Flags().StringVar(&kubeContext, "context", "",
		"kubeconfig context to apply to (default: current context)")

	return cmd
}
