package cmd

import (
	"fmt"
	"io"

	"github.com/kubestrap/kubestrap/pkg/k8s"
	"github.com/kubestrap/kubestrap/pkg/k8s/readiness"
	"github.com/kubestrap/kubestrap/pkg/svc/applier"
)

// buildPhasedApplier wires a PhasedApplier against the cluster addressed by
// the kubeconfig path and context.
func buildPhasedApplier(
	kubeconfig, kubeContext string,
	out io.Writer,
) (*applier.PhasedApplier, error) {
	transport, err := applier.NewKubectlTransport(kubeconfig, kubeContext)
	if err != nil {
		return nil, err
	}

	checker, err := buildChecker(kubeconfig, kubeContext)
	if err != nil {
		return nil, err
	}

	return applier.NewPhasedApplier(transport, checker, applier.DefaultWaitConfig(), out), nil
}

// buildChecker wires a readiness checker against the cluster addressed by the
// kubeconfig path and context.
func buildChecker(kubeconfig, kubeContext string) (*readiness.Checker, error) {
	clientset, err := k8s.NewClientset(kubeconfig, kubeContext)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}

	apiExtensions, err := k8s.NewAPIExtensionsClientset(kubeconfig, kubeContext)
	if err != nil {
		return nil, fmt.Errorf("create apiextensions clientset: %w", err)
	}

	dynamicClient, err := k8s.NewDynamicClient(kubeconfig, kubeContext)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}

	return readiness.NewChecker(clientset, apiExtensions, dynamicClient), nil
}

// valueOr returns value when non-empty, fallback otherwise.
func valueOr(value, fallback string) string {
	if value != "" {
		return value
	}

	return fallback
}
