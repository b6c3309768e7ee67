package argocd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kubestrap/kubestrap/pkg/k8s/readiness"
	"github.com/kubestrap/kubestrap/pkg/utils/notify"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/util/retry"
)

const (
	// Namespace is where Argo CD and its Application resources live.
	Namespace = "argocd"

	repoServerDeployment = "argocd-repo-server"
	refreshAnnotation    = "argocd.argoproj.io/refresh"
	refreshHard          = "hard"
	syncStatusSynced     = "Synced"
)

// ApplicationGVR is the Argo CD Application custom resource.
func ApplicationGVR() schema.GroupVersionResource {
	return schema.GroupVersionResource{
		Group:    "argoproj.io",
		Version:  "v1alpha1",
		Resource: "applications",
	}
}

// WaitConfig bounds the waits performed during a sync.
type WaitConfig struct {
	PollInterval    time.Duration
	RepoServerReady time.Duration
	SyncTimeout     time.Duration
	RefreshPause    time.Duration
}

// DefaultWaitConfig returns the wait bounds used by bootstrap runs.
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{
		PollInterval:    10 * time.Second,
		RepoServerReady: 120 * time.Second,
		SyncTimeout:     300 * time.Second,
		RefreshPause:    2 * time.Second,
	}
}

// Syncer nudges an Argo CD Application until it reports Synced. Sync never
// fails a run: every degradation surfaces as a warning and polling continues
// until the timeout elapses.
type Syncer struct {
	clientset kubernetes.Interface
	dynamic   dynamic.Interface
	waits     WaitConfig
	out       io.Writer
}

// NewSyncer creates a Syncer writing progress messages to out.
func NewSyncer(
	clientset kubernetes.Interface,
	dynamicClient dynamic.Interface,
	waits WaitConfig,
	out io.Writer,
) *Syncer {
	if out == nil {
		out = io.Discard
	}

	return &Syncer{
		clientset: clientset,
		dynamic:   dynamicClient,
		waits:     waits,
		out:       out,
	}
}

// Sync waits for the Argo CD repo server, then polls the named Application
// until it reports Synced. When the application is out of sync with no
// operation in flight, a hard refresh followed by a sync operation is
// submitted. Returns the final outcome; a timeout is reported as a warning,
// never as an error.
func (s *Syncer) Sync(ctx context.Context, appName string) readiness.Outcome {
	notify.Activityf(s.out, "syncing application '%s'", appName)

	s.waitRepoServer(ctx)

	outcome := readiness.Poll(
		ctx,
		s.waits.PollInterval,
		s.waits.SyncTimeout,
		func(ctx context.Context) (bool, error) {
			return s.step(ctx, appName)
		},
	)

	if outcome == readiness.TimedOut {
		notify.Warningf(s.out,
			"application '%s' did not reach Synced within %s, continuing",
			appName, s.waits.SyncTimeout)

		return outcome
	}

	notify.Successf(s.out, "application '%s' is synced", appName)

	return outcome
}

// waitRepoServer blocks until the repo server has a ready replica. Sync
// operations submitted before that point stall on manifest generation, so it
// is worth the wait, but a timeout only warns.
func (s *Syncer) waitRepoServer(ctx context.Context) {
	outcome := readiness.Poll(
		ctx,
		s.waits.PollInterval,
		s.waits.RepoServerReady,
		func(ctx context.Context) (bool, error) {
			deployment, err := s.clientset.AppsV1().
				Deployments(Namespace).
				Get(ctx, repoServerDeployment, metav1.GetOptions{})
			if err != nil {
				return false, fmt.Errorf("get deployment %s: %w", repoServerDeployment, err)
			}

			return deployment.Status.ReadyReplicas >= 1, nil
		},
	)

	if outcome == readiness.TimedOut {
		notify.Warningf(s.out,
			"deployment '%s' not ready within %s, attempting sync anyway",
			repoServerDeployment, s.waits.RepoServerReady)
	}
}

// step performs one poll iteration: done when Synced, idle while an operation
// is in flight, otherwise it kicks off a fresh sync.
func (s *Syncer) step(ctx context.Context, appName string) (bool, error) {
	app, err := s.applications().Get(ctx, appName, metav1.GetOptions{})
	if err != nil {
		return false, fmt.Errorf("get application %s: %w", appName, err)
	}

	if syncStatus(app) == syncStatusSynced {
		return true, nil
	}

	if operationInFlight(app) {
		return false, nil
	}

	err = s.triggerSync(ctx, appName)
	if err != nil {
		notify.Warningf(s.out, "trigger sync for application '%s': %v", appName, err)
	}

	return false, nil
}

// triggerSync clears any stale operation state, requests a hard refresh so
// cached manifests are regenerated, and submits a sync operation.
func (s *Syncer) triggerSync(ctx context.Context, appName string) error {
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		app, err := s.applications().Get(ctx, appName, metav1.GetOptions{})
		if err != nil {
			return err
		}

		unstructured.RemoveNestedField(app.Object, "status", "operationState")

		annotations := app.GetAnnotations()
		if annotations == nil {
			annotations = map[string]string{}
		}

		annotations[refreshAnnotation] = refreshHard
		app.SetAnnotations(annotations)

		_, err = s.applications().Update(ctx, app, metav1.UpdateOptions{})

		return err
	})
	if err != nil {
		return fmt.Errorf("request hard refresh: %w", err)
	}

	// Give the application controller a moment to act on the refresh before
	// the sync operation lands.
	sleepCtx(ctx, s.waits.RefreshPause)

	err = retry.RetryOnConflict(retry.DefaultRetry, func() error {
		app, err := s.applications().Get(ctx, appName, metav1.GetOptions{})
		if err != nil {
			return err
		}

		err = unstructured.SetNestedMap(app.Object, syncOperation(), "operation")
		if err != nil {
			return err
		}

		_, err = s.applications().Update(ctx, app, metav1.UpdateOptions{})

		return err
	})
	if err != nil {
		return fmt.Errorf("submit sync operation: %w", err)
	}

	return nil
}

func (s *Syncer) applications() dynamic.ResourceInterface {
	return s.dynamic.Resource(ApplicationGVR()).Namespace(Namespace)
}

func syncOperation() map[string]any {
	return map[string]any{
		"sync": map[string]any{
			"syncOptions": []any{
				"CreateNamespace=true",
				"ServerSideApply=true",
				"SkipDryRunOnMissingResource=true",
				"RespectIgnoreDifferences=true",
			},
		},
	}
}

func syncStatus(app *unstructured.Unstructured) string {
	status, _, _ := unstructured.NestedString(app.Object, "status", "sync", "status")

	return status
}

// operationInFlight reports whether a sync operation is pending or running,
// in which case submitting another would conflict with the controller.
func operationInFlight(app *unstructured.Unstructured) bool {
	_, found, _ := unstructured.NestedMap(app.Object, "operation")
	if found {
		return true
	}

	phase, _, _ := unstructured.NestedString(app.Object, "status", "operationState", "phase")

	return phase == "Running" || phase == "Progressing"
}

func sleepCtx(ctx context.Context, duration time.Duration) {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
