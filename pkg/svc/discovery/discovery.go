// Package discovery resolves the target cluster's handle from the management
// cluster's managed-resource state.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kubestrap/kubestrap/pkg/k8s/readiness"
	"github.com/kubestrap/kubestrap/pkg/svc/cluster"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

// ErrDiscoveryTimeout is returned when no managed cluster resource appears
// within the discovery timeout. This is fatal to a bootstrap run.
var ErrDiscoveryTimeout = errors.New("timed out waiting for managed cluster resource")

const defaultPollInterval = 5 * time.Second

// ManagedClusterGVR is the managed GKE cluster resource tracked by the
// resource-orchestration control plane.
func ManagedClusterGVR() schema.GroupVersionResource {
	return schema.GroupVersionResource{
		Group:    "container.gcp.upbound.io",
		Version:  "v1beta2",
		Resource: "clusters",
	}
}

// Discoverer polls the management cluster for managed cluster resources.
type Discoverer struct {
	dynamic  dynamic.Interface
	interval time.Duration
}

// NewDiscoverer creates a Discoverer with the default polling interval.
func NewDiscoverer(dynamicClient dynamic.Interface) *Discoverer {
	return NewDiscovererWithInterval(dynamicClient, defaultPollInterval)
}

// NewDiscovererWithInterval creates a Discoverer with an explicit polling
// interval (for testing).
func NewDiscovererWithInterval(
	dynamicClient dynamic.Interface,
	interval time.Duration,
) *Discoverer {
	return &Discoverer{dynamic: dynamicClient, interval: interval}
}

// Discover polls until at least one managed cluster resource with a non-empty
// name exists, then builds its handle from the resource's spec fields.
// Returns ErrDiscoveryTimeout if none appears within timeout.
func (d *Discoverer) Discover(
	ctx context.Context,
	timeout time.Duration,
) (cluster.Handle, error) {
	var handle cluster.Handle

	outcome := readiness.Poll(ctx, d.interval, timeout, func(ctx context.Context) (bool, error) {
		list, err := d.dynamic.Resource(ManagedClusterGVR()).List(ctx, metav1.ListOptions{})
		if err != nil {
			return false, fmt.Errorf("list managed clusters: %w", err)
		}

		for i := range list.Items {
			candidate := handleFrom(&list.Items[i])
			if candidate.IsZero() {
				// Not found yet, keep polling.
				continue
			}

			handle = candidate

			return true, nil
		}

		return false, nil
	})

	if outcome == readiness.TimedOut {
		return cluster.Handle{}, fmt.Errorf("%w after %s", ErrDiscoveryTimeout, timeout)
	}

	return handle, nil
}

// ClusterReady reports whether the named managed cluster resource has the
// Ready condition set to True.
func (d *Discoverer) ClusterReady(ctx context.Context, name string) (bool, error) {
	obj, err := d.dynamic.Resource(ManagedClusterGVR()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return false, fmt.Errorf("get managed cluster %s: %w", name, err)
	}

	return readiness.ConditionTrue(obj, "Ready"), nil
}

// handleFrom reads the cluster's connectivity attributes directly from the
// resource's spec fields, without a separate API call.
func handleFrom(obj *unstructured.Unstructured) cluster.Handle {
	location, _, _ := unstructured.NestedString(obj.Object, "spec", "forProvider", "location")
	project, _, _ := unstructured.NestedString(obj.Object, "spec", "forProvider", "project")

	return cluster.Handle{
		Name:     obj.GetName(),
		Location: location,
		Project:  project,
	}
}
