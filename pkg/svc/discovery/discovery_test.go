package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/kubestrap/kubestrap/pkg/svc/discovery"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
)

func newFakeDynamic(objects ...runtime.Object) *dynamicfake.FakeDynamicClient {
	scheme := runtime.NewScheme()
	listKinds := map[schema.GroupVersionResource]string{
		discovery.ManagedClusterGVR(): "ClusterList",
	}

	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme, listKinds, objects...)
}

func newManagedCluster(name, location, project string, ready bool) *unstructured.Unstructured {
	status := "False"
	if ready {
		status = "True"
	}

	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "container.gcp.upbound.io/v1beta2",
		"kind":       "Cluster",
		"metadata":   map[string]any{"name": name},
		"spec": map[string]any{
			"forProvider": map[string]any{
				"location": location,
				"project":  project,
			},
		},
		"status": map[string]any{
			"conditions": []any{
				map[string]any{"type": "Ready", "status": status},
			},
		},
	}}
}

func TestDiscover_ReturnsHandleFromSpecFields(t *testing.T) {
	t.Parallel()

	dyn := newFakeDynamic(newManagedCluster("c1", "us-west1-a", "acme-platform", false))
	discoverer := discovery.NewDiscovererWithInterval(dyn, time.Millisecond)

	handle, err := discoverer.Discover(context.Background(), time.Second)

	require.NoError(t, err)
	require.Equal(t, "c1", handle.Name)
	require.Equal(t, "us-west1-a", handle.Location)
	require.Equal(t, "acme-platform", handle.Project)
}

func TestDiscover_TimesOutWhenNoResourceAppears(t *testing.T) {
	t.Parallel()

	discoverer := discovery.NewDiscovererWithInterval(newFakeDynamic(), time.Millisecond)

	_, err := discoverer.Discover(context.Background(), 20*time.Millisecond)

	require.ErrorIs(t, err, discovery.ErrDiscoveryTimeout)
}

func TestDiscover_PollsUntilResourceAppears(t *testing.T) {
	t.Parallel()

	dyn := newFakeDynamic()
	discoverer := discovery.NewDiscovererWithInterval(dyn, time.Millisecond)

	go func() {
		time.Sleep(15 * time.Millisecond)

		_, err := dyn.Resource(discovery.ManagedClusterGVR()).Create(
			context.Background(),
			newManagedCluster("c1", "us-west1-a", "acme-platform", false),
			metav1.CreateOptions{},
		)
		if err != nil {
			panic(err)
		}
	}()

	start := time.Now()
	handle, err := discoverer.Discover(context.Background(), time.Second)

	require.NoError(t, err)
	require.Equal(t, "c1", handle.Name)
	// The resource appeared after several polls, not on the first.
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestClusterReady_ReflectsReadyCondition(t *testing.T) {
	t.Parallel()

	dyn := newFakeDynamic(newManagedCluster("c1", "us-west1-a", "acme-platform", true))
	discoverer := discovery.NewDiscovererWithInterval(dyn, time.Millisecond)

	ready, err := discoverer.ClusterReady(context.Background(), "c1")

	require.NoError(t, err)
	require.True(t, ready)
}

func TestClusterReady_FalseWhenConditionFalse(t *testing.T) {
	t.Parallel()

	dyn := newFakeDynamic(newManagedCluster("c1", "us-west1-a", "acme-platform", false))
	discoverer := discovery.NewDiscovererWithInterval(dyn, time.Millisecond)

	ready, err := discoverer.ClusterReady(context.Background(), "c1")

	require.NoError(t, err)
	require.False(t, ready)
}
