// Package k8s provides shared helpers for constructing Kubernetes clients
// from kubeconfig files and contexts.
package k8s
