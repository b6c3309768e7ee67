// Package applier applies a flat set of Kubernetes manifests in
// dependency-ordered phases with readiness gating between phases.
//
// Readiness timeouts inside a run are soft failures: they are logged as
// warnings and the run moves on, because a later reconciliation pass by the
// control plane or the GitOps controller self-heals transient ordering
// issues. The only hard-fail precondition is an unreachable cluster.
package applier
