package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kubestrap/kubestrap/pkg/client/argocd"
	"github.com/kubestrap/kubestrap/pkg/di"
	"github.com/kubestrap/kubestrap/pkg/io/configmanager"
	"github.com/kubestrap/kubestrap/pkg/k8s"
	"github.com/kubestrap/kubestrap/pkg/svc/bootstrap"
	"github.com/kubestrap/kubestrap/pkg/svc/cluster"
	kindprovisioner "github.com/kubestrap/kubestrap/pkg/svc/cluster/kind"
	"github.com/kubestrap/kubestrap/pkg/svc/discovery"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type bootstrapFlags struct {
	name            string
	project         string
	credentials     string
	kubeconfig      string
	skipKind        bool
	skipCredentials bool
	skipGKE         bool
}

// NewBootstrapCmd creates the bootstrap command, which runs the full
// bring-up workflow end to end.
func NewBootstrapCmd(runtime *di.Runtime) *cobra.Command {
	flags := &bootstrapFlags{}

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap the platform from a local cluster to the cloud",
		Long: "Bootstrap creates a local management cluster, seeds cloud credentials, " +
			"rolls out the resource-orchestration control plane, waits for the cloud " +
			"cluster it creates, then promotes that cluster to host the workloads and " +
			"triggers the initial GitOps sync.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBootstrap(cmd, runtime, flags)
		},
	}

	registerBootstrapFlags(cmd.Flags(), flags)

	return cmd
}

func registerBootstrapFlags(flagSet *pflag.FlagSet, flags *bootstrapFlags) {
	flagSet.StringVar(&flags.name, "name", "", "management cluster name")
	flagSet.StringVar(&flags.project, "project", "", "cloud project identifier")
	flagSet.StringVar(&flags.credentials, "credentials", "",
		"path to a cloud credentials file")
	flagSet.StringVar(&flags.kubeconfig, "kubeconfig", k8s.DefaultKubeconfigPath(),
		"path to the kubeconfig file")
	flagSet.BoolVar(&flags.skipKind, "skip-kind", false,
		"assume the management cluster already exists")
	flagSet.BoolVar(&flags.skipCredentials, "skip-credentials", false,
		"assume the credential secret is already seeded")
	flagSet.BoolVar(&flags.skipGKE, "skip-gke", false,
		"stop after the management plane, without waiting for the cloud cluster")
}

func runBootstrap(cmd *cobra.Command, runtime *di.Runtime, flags *bootstrapFlags) error {
	config, err := configmanager.NewConfigManager().LoadConfig()
	if err != nil {
		return err
	}

	name := valueOr(flags.name, config.ClusterName)

	opts := bootstrap.Options{
		ClusterName:       name,
		Project:           valueOr(flags.project, config.Project),
		CredentialsPath:   valueOr(flags.credentials, config.Credentials),
		WorkDir:           ".",
		ManagementContext: kindprovisioner.KubeContext(name),
		ManagementSource:  config.ManagementSource,
		WorkloadSource:    config.WorkloadSource,
		OutputDir:         config.OutputDir,
		AppName:           config.AppName,
		SkipLocalCluster:  flags.skipKind,
		SkipCredentials:   flags.skipCredentials,
		SkipTarget:        flags.skipGKE,
	}

	return runtime.Invoke(func(injector di.Injector) error {
		deps, err := buildBootstrapDeps(cmd, injector, flags.kubeconfig, opts.ManagementContext)
		if err != nil {
			return err
		}

		orchestrator := bootstrap.NewOrchestrator(
			opts, bootstrap.DefaultWaits(), deps, cmd.OutOrStdout())

		_, err = orchestrator.Run(cmd.Context())

		return err
	})
}

// buildBootstrapDeps wires the orchestrator's collaborators. Clients are
// built lazily per cluster handle because the clusters (and their kubeconfig
// contexts) come into existence during the run. Seeding and discovery always
// address the management cluster, never the kubeconfig's current context.
func buildBootstrapDeps(
	cmd *cobra.Command,
	injector di.Injector,
	kubeconfig, managementContext string,
) (bootstrap.Deps, error) {
	provisioner, err := di.ResolveProvisioner(injector)
	if err != nil {
		return bootstrap.Deps{}, err
	}

	renderer, err := di.ResolveRenderer(injector)
	if err != nil {
		return bootstrap.Deps{}, err
	}

	cloud, err := di.ResolveCloudClient(injector)
	if err != nil {
		return bootstrap.Deps{}, err
	}

	out := cmd.OutOrStdout()

	return bootstrap.Deps{
		Provisioner: provisioner,
		Renderer:    renderer,
		Cloud:       cloud,
		Seeder:      &lazySeeder{kubeconfig: kubeconfig, kubeContext: managementContext},
		Discoverer:  &lazyDiscoverer{kubeconfig: kubeconfig, kubeContext: managementContext},
		ApplierFor: func(handle cluster.Handle) (bootstrap.Applier, error) {
			return buildPhasedApplier(kubeconfig, handle.Context, out)
		},
		CheckerFor: func(handle cluster.Handle) (bootstrap.FunctionChecker, error) {
			return buildChecker(kubeconfig, handle.Context)
		},
		SyncerFor: func(handle cluster.Handle) (bootstrap.Syncer, error) {
			clientset, err := k8s.NewClientset(kubeconfig, handle.Context)
			if err != nil {
				return nil, fmt.Errorf("create clientset: %w", err)
			}

			dynamicClient, err := k8s.NewDynamicClient(kubeconfig, handle.Context)
			if err != nil {
				return nil, fmt.Errorf("create dynamic client: %w", err)
			}

			return argocd.NewSyncer(clientset, dynamicClient, argocd.DefaultWaitConfig(), out), nil
		},
	}, nil
}

// lazySeeder builds its clientset at seeding time: the management cluster's
// kubeconfig context does not exist until the cluster has been created.
type lazySeeder struct {
	kubeconfig  string
	kubeContext string
}

func (s *lazySeeder) Seed(ctx context.Context, path string) error {
	clientset, err := k8s.NewClientset(s.kubeconfig, s.kubeContext)
	if err != nil {
		return fmt.Errorf("create clientset: %w", err)
	}

	return bootstrap.NewSeeder(clientset).Seed(ctx, path)
}

// lazyDiscoverer builds its dynamic client on first use, after the
// management cluster exists.
type lazyDiscoverer struct {
	kubeconfig  string
	kubeContext string
	inner       *discovery.Discoverer
}

func (d *lazyDiscoverer) get() (*discovery.Discoverer, error) {
	if d.inner != nil {
		return d.inner, nil
	}

	dynamicClient, err := k8s.NewDynamicClient(d.kubeconfig, d.kubeContext)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}

	d.inner = discovery.NewDiscoverer(dynamicClient)

	return d.inner, nil
}

func (d *lazyDiscoverer) Discover(
	ctx context.Context,
	timeout time.Duration,
) (cluster.Handle, error) {
	discoverer, err := d.get()
	if err != nil {
		return cluster.Handle{}, err
	}

	return discoverer.Discover(ctx, timeout)
}

func (d *lazyDiscoverer) ClusterReady(ctx context.Context, name string) (bool, error) {
	discoverer, err := d.get()
	if err != nil {
		return false, err
	}

	return discoverer.ClusterReady(ctx, name)
}
