// Package cluster defines the handle describing a Kubernetes control plane
// the orchestrator can target, plus the provisioner contract for local
// clusters.
package cluster

import "context"

// Handle describes a Kubernetes control plane the orchestrator can target.
// The management cluster's handle is known a priori; the target cluster's
// handle is discovered at runtime and is immutable once resolved.
type Handle struct {
	// Name is the cluster name.
	Name string
	// Location is the cloud location (region or zone), empty for local clusters.
	Location string
	// Project is the cloud project/account identifier, empty for local clusters.
	Project string
	// Context is the kubeconfig context addressing this cluster.
	Context string
}

// IsZero reports whether the handle carries no cluster identity.
func (h Handle) IsZero() bool {
	return h.Name == ""
}

// Provisioner creates and inspects local throwaway clusters.
type Provisioner interface {
	// Create provisions a cluster with the given name.
	Create(ctx context.Context, name string) error
	// Exists reports whether a cluster with the given name already exists.
	Exists(ctx context.Context, name string) (bool, error)
}
