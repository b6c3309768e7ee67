package di

import (
	"fmt"

	"github.com/kubestrap/kubestrap/pkg/client/gcloud"
	"github.com/kubestrap/kubestrap/pkg/svc/cluster"
	"github.com/kubestrap/kubestrap/pkg/svc/render"
	"github.com/kubestrap/kubestrap/pkg/utils/timer"
	"github.com/samber/do/v2"
)

// Dependency resolvers.

// ResolveTimer retrieves the timer dependency from the injector.
func ResolveTimer(injector Injector) (timer.Timer, error) {
	tmr, err := do.Invoke[timer.Timer](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve timer dependency: %w", err)
	}

	return tmr, nil
}

// ResolveProvisioner retrieves the local cluster provisioner dependency from
// the injector.
func ResolveProvisioner(injector Injector) (cluster.Provisioner, error) {
	provisioner, err := do.Invoke[cluster.Provisioner](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve provisioner dependency: %w", err)
	}

	return provisioner, nil
}

// ResolveRenderer retrieves the manifest renderer dependency from the
// injector.
func ResolveRenderer(injector Injector) (*render.Renderer, error) {
	renderer, err := do.Invoke[*render.Renderer](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve renderer dependency: %w", err)
	}

	return renderer, nil
}

// ResolveCloudClient retrieves the cloud client dependency from the injector.
func ResolveCloudClient(injector Injector) (*gcloud.Client, error) {
	client, err := do.Invoke[*gcloud.Client](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve cloud client dependency: %w", err)
	}

	return client, nil
}
