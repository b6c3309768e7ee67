package readiness_test

import (
	"context"
	"testing"

	"github.com/kubestrap/kubestrap/pkg/k8s/readiness"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsfake "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/fake"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	k8sfake "k8s.io/client-go/kubernetes/fake"
)

func newFakeDynamic(objects ...runtime.Object) *dynamicfake.FakeDynamicClient {
	scheme := runtime.NewScheme()
	listKinds := map[schema.GroupVersionResource]string{
		{Group: "pkg.crossplane.io", Version: "v1", Resource: "providers"}: "ProviderList",
		{Group: "pkg.crossplane.io", Version: "v1", Resource: "functions"}: "FunctionList",
	}

	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme, listKinds, objects...)
}

func newPackageResource(kind, name string, conditions ...map[string]any) *unstructured.Unstructured {
	conditionList := make([]any, 0, len(conditions))
	for _, condition := range conditions {
		conditionList = append(conditionList, any(condition))
	}

	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "pkg.crossplane.io/v1",
		"kind":       kind,
		"metadata":   map[string]any{"name": name},
		"status":     map[string]any{"conditions": conditionList},
	}}
}

func newCRD(name string, established apiextensionsv1.ConditionStatus) *apiextensionsv1.CustomResourceDefinition {
	return &apiextensionsv1.CustomResourceDefinition{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status: apiextensionsv1.CustomResourceDefinitionStatus{
			Conditions: []apiextensionsv1.CustomResourceDefinitionCondition{
				{Type: apiextensionsv1.Established, Status: established},
			},
		},
	}
}

func newDeployment(name string, desired, ready int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default"},
		Spec:       appsv1.DeploymentSpec{Replicas: &desired},
		Status:     appsv1.DeploymentStatus{ReadyReplicas: ready},
	}
}

func TestCRDsEstablished_AllEstablished(t *testing.T) {
	t.Parallel()

	checker := readiness.NewChecker(
		k8sfake.NewClientset(),
		apiextensionsfake.NewSimpleClientset(
			newCRD("providers.pkg.crossplane.io", apiextensionsv1.ConditionTrue),
			newCRD("clusters.container.gcp.upbound.io", apiextensionsv1.ConditionTrue),
		),
		newFakeDynamic(),
	)

	ready, err := checker.CRDsEstablished(context.Background())
	require.NoError(t, err)
	require.True(t, ready)
}

func TestCRDsEstablished_OneNotEstablished(t *testing.T) {
	t.Parallel()

	checker := readiness.NewChecker(
		k8sfake.NewClientset(),
		apiextensionsfake.NewSimpleClientset(
			newCRD("providers.pkg.crossplane.io", apiextensionsv1.ConditionTrue),
			newCRD("clusters.container.gcp.upbound.io", apiextensionsv1.ConditionFalse),
		),
		newFakeDynamic(),
	)

	ready, err := checker.CRDsEstablished(context.Background())
	require.NoError(t, err)
	require.False(t, ready)
}

func TestDeploymentsReady_AllReady(t *testing.T) {
	t.Parallel()

	checker := readiness.NewChecker(
		k8sfake.NewClientset(
			newDeployment("crossplane", 1, 1),
			newDeployment("crossplane-rbac-manager", 2, 2),
		),
		apiextensionsfake.NewSimpleClientset(),
		newFakeDynamic(),
	)

	ready, err := checker.DeploymentsReady(context.Background())
	require.NoError(t, err)
	require.True(t, ready)
}

func TestDeploymentsReady_NotAllReady(t *testing.T) {
	t.Parallel()

	checker := readiness.NewChecker(
		k8sfake.NewClientset(newDeployment("crossplane", 2, 1)),
		apiextensionsfake.NewSimpleClientset(),
		newFakeDynamic(),
	)

	ready, err := checker.DeploymentsReady(context.Background())
	require.NoError(t, err)
	require.False(t, ready)
}

func TestDeploymentsReady_ScaledToZeroIsSkipped(t *testing.T) {
	t.Parallel()

	checker := readiness.NewChecker(
		k8sfake.NewClientset(newDeployment("paused", 0, 0)),
		apiextensionsfake.NewSimpleClientset(),
		newFakeDynamic(),
	)

	ready, err := checker.DeploymentsReady(context.Background())
	require.NoError(t, err)
	require.True(t, ready)
}

func TestProvidersHealthy_NoProvidersShortCircuits(t *testing.T) {
	t.Parallel()

	checker := readiness.NewChecker(
		k8sfake.NewClientset(),
		apiextensionsfake.NewSimpleClientset(),
		newFakeDynamic(),
	)

	ready, err := checker.ProvidersHealthy(context.Background())
	require.NoError(t, err)
	require.True(t, ready)
}

func TestProvidersHealthy_UnhealthyProvider(t *testing.T) {
	t.Parallel()

	checker := readiness.NewChecker(
		k8sfake.NewClientset(),
		apiextensionsfake.NewSimpleClientset(),
		newFakeDynamic(
			newPackageResource("Provider", "provider-gcp",
				map[string]any{"type": "Healthy", "status": "False"},
			),
		),
	)

	ready, err := checker.ProvidersHealthy(context.Background())
	require.NoError(t, err)
	require.False(t, ready)
}

func TestFunctionsReady_RequiresInstalledAndHealthy(t *testing.T) {
	t.Parallel()

	checker := readiness.NewChecker(
		k8sfake.NewClientset(),
		apiextensionsfake.NewSimpleClientset(),
		newFakeDynamic(
			newPackageResource("Function", "function-patch-and-transform",
				map[string]any{"type": "Installed", "status": "True"},
				map[string]any{"type": "Healthy", "status": "True"},
			),
		),
	)

	ready, err := checker.FunctionsReady(context.Background())
	require.NoError(t, err)
	require.True(t, ready)
}

func TestHasFunctions_FalseWhenNoneExist(t *testing.T) {
	t.Parallel()

	checker := readiness.NewChecker(
		k8sfake.NewClientset(),
		apiextensionsfake.NewSimpleClientset(),
		newFakeDynamic(),
	)

	require.False(t, checker.HasFunctions(context.Background()))
}
