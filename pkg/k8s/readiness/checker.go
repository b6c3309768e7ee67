package readiness

import (
	"context"
	"fmt"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

// Crossplane package-manager resources inspected by the checker.
func providerGVR() schema.GroupVersionResource {
	return schema.GroupVersionResource{
		Group:    "pkg.crossplane.io",
		Version:  "v1",
		Resource: "providers",
	}
}

func functionGVR() schema.GroupVersionResource {
	return schema.GroupVersionResource{
		Group:    "pkg.crossplane.io",
		Version:  "v1",
		Resource: "functions",
	}
}

// Checker evaluates readiness predicates against live cluster state.
// Every method is safe to use as a Poll predicate: predictable
// absence-of-data conditions report ready rather than erroring.
type Checker struct {
	clientset     kubernetes.Interface
	apiExtensions apiextensionsclientset.Interface
	dynamic       dynamic.Interface
}

// NewChecker creates a Checker from the given clients.
func NewChecker(
	clientset kubernetes.Interface,
	apiExtensions apiextensionsclientset.Interface,
	dynamicClient dynamic.Interface,
) *Checker {
	return &Checker{
		clientset:     clientset,
		apiExtensions: apiExtensions,
		dynamic:       dynamicClient,
	}
}

// CRDsEstablished reports whether every CustomResourceDefinition in the
// cluster has the Established condition set to True.
func (c *Checker) CRDsEstablished(ctx context.Context) (bool, error) {
	crds, err := c.apiExtensions.ApiextensionsV1().
		CustomResourceDefinitions().
		List(ctx, metav1.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("list customresourcedefinitions: %w", err)
	}

	for i := range crds.Items {
		if !crdEstablished(&crds.Items[i]) {
			return false, nil
		}
	}

	return true, nil
}

// DeploymentsReady reports whether every Deployment in the cluster has at
// least as many ready replicas as desired. Deployments scaled to zero have
// nothing to wait for and are skipped.
func (c *Checker) DeploymentsReady(ctx context.Context) (bool, error) {
	deployments, err := c.clientset.AppsV1().
		Deployments(metav1.NamespaceAll).
		List(ctx, metav1.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("list deployments: %w", err)
	}

	for i := range deployments.Items {
		deployment := &deployments.Items[i]

		desired := int32(1)
		if deployment.Spec.Replicas != nil {
			desired = *deployment.Spec.Replicas
		}

		if desired == 0 {
			continue
		}

		if deployment.Status.ReadyReplicas < desired {
			return false, nil
		}
	}

	return true, nil
}

// ProvidersHealthy reports whether every Crossplane Provider has the Healthy
// condition set to True. Zero providers short-circuits to ready.
func (c *Checker) ProvidersHealthy(ctx context.Context) (bool, error) {
	return c.allConditionsTrue(ctx, providerGVR(), "Healthy")
}

// FunctionsReady reports whether every Crossplane Function has both the
// Installed and Healthy conditions set to True. Zero functions short-circuits
// to ready.
func (c *Checker) FunctionsReady(ctx context.Context) (bool, error) {
	return c.allConditionsTrue(ctx, functionGVR(), "Installed", "Healthy")
}

// HasFunctions reports whether any Crossplane Function resources exist.
// A missing Function CRD counts as "none exist".
func (c *Checker) HasFunctions(ctx context.Context) bool {
	list, err := c.dynamic.Resource(functionGVR()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return false
	}

	return len(list.Items) > 0
}

func (c *Checker) allConditionsTrue(
	ctx context.Context,
	gvr schema.GroupVersionResource,
	conditionTypes ...string,
) (bool, error) {
	list, err := c.dynamic.Resource(gvr).List(ctx, metav1.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("list %s: %w", gvr.Resource, err)
	}

	for i := range list.Items {
		for _, conditionType := range conditionTypes {
			if !ConditionTrue(&list.Items[i], conditionType) {
				return false, nil
			}
		}
	}

	return true, nil
}

// ConditionTrue reports whether the object's status.conditions contains a
// condition of the given type with status True.
func ConditionTrue(obj *unstructured.Unstructured, conditionType string) bool {
	conditions, found, _ := unstructured.NestedSlice(obj.Object, "status", "conditions")
	if !found {
		return false
	}

	for _, condition := range conditions {
		condMap, ok := condition.(map[string]any)
		if !ok {
			continue
		}

		condType, _, _ := unstructured.NestedString(condMap, "type")
		condStatus, _, _ := unstructured.NestedString(condMap, "status")

		if condType == conditionType && condStatus == "True" {
			return true
		}
	}

	return false
}

func crdEstablished(crd *apiextensionsv1.CustomResourceDefinition) bool {
	for _, condition := range crd.Status.Conditions {
		if condition.Type == apiextensionsv1.Established {
			return condition.Status == apiextensionsv1.ConditionTrue
		}
	}

	return false
}
