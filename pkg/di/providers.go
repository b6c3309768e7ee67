package di

import (
	"os"

	"github.com/kubestrap/kubestrap/pkg/client/gcloud"
	"github.com/kubestrap/kubestrap/pkg/svc/cluster"
	kindprovisioner "github.com/kubestrap/kubestrap/pkg/svc/cluster/kind"
	"github.com/kubestrap/kubestrap/pkg/svc/render"
	"github.com/kubestrap/kubestrap/pkg/utils/timer"
	"github.com/samber/do/v2"
)

// Dependency providers.

// NewRuntime constructs the shared runtime container used by the root command
// and tests. It registers default implementations for the timer, the local
// cluster provisioner, the manifest renderer, and the cloud client.
func NewRuntime() *Runtime {
	return New(
		provideTimer,
		provideProvisioner,
		provideRenderer,
		provideCloudClient,
	)
}

func provideTimer(i Injector) error {
	do.Provide(i, func(Injector) (timer.Timer, error) {
		return timer.New(), nil
	})

	return nil
}

func provideProvisioner(i Injector) error {
	do.Provide(i, func(Injector) (cluster.Provisioner, error) {
		return kindprovisioner.NewProvisioner(), nil
	})

	return nil
}

func provideRenderer(i Injector) error {
	do.Provide(i, func(Injector) (*render.Renderer, error) {
		return render.NewRenderer(), nil
	})

	return nil
}

func provideCloudClient(i Injector) error {
	do.Provide(i, func(Injector) (*gcloud.Client, error) {
		return gcloud.NewClient(os.Stderr), nil
	})

	return nil
}
