// Package argocd drives Argo CD Application resources towards a synced state
// by requesting hard refreshes and submitting sync operations through the
// Kubernetes API.
package argocd
