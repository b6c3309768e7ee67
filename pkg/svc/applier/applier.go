package applier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kubestrap/kubestrap/pkg/k8s/readiness"
	"github.com/kubestrap/kubestrap/pkg/manifest"
	"github.com/kubestrap/kubestrap/pkg/utils/notify"
)

// ErrClusterUnreachable is returned when the apply transport cannot reach the
// cluster before any phase runs.
var ErrClusterUnreachable = errors.New("cluster is unreachable")

// Effort is the failure policy of a phase's apply call.
type Effort int

const (
	// BestEffort logs apply failures as warnings and continues.
	BestEffort Effort = iota
	// MustSucceed propagates apply failures to the caller.
	MustSucceed
)

// Policy describes how one phase's manifests are applied.
type Policy struct {
	// Effort is the failure policy for the phase's apply call.
	Effort Effort
	// RetryOnce re-applies once after a grace period when the first apply
	// fails, accommodating CRDs installed moments earlier that are still
	// propagating.
	RetryOnce bool
}

// PolicyFor returns the apply policy for a phase. Providers must exist before
// anything depending on them, so only that phase hard-fails.
func PolicyFor(phase manifest.Phase) Policy {
	switch phase {
	case manifest.PhaseProviders:
		return Policy{Effort: MustSucceed}
	case manifest.PhaseWorkloads:
		return Policy{Effort: BestEffort, RetryOnce: true}
	case manifest.PhaseFoundational, manifest.PhaseControllers, manifest.PhaseProviderConfigs:
		return Policy{Effort: BestEffort}
	default:
		return Policy{Effort: BestEffort}
	}
}

// StatusChecker evaluates the readiness predicates consulted between phases.
// *readiness.Checker satisfies this.
type StatusChecker interface {
	CRDsEstablished(ctx context.Context) (bool, error)
	DeploymentsReady(ctx context.Context) (bool, error)
	ProvidersHealthy(ctx context.Context) (bool, error)
}

// WaitConfig holds the polling interval and per-boundary timeouts.
// The retry delay and timeouts are tunable; the defaults mirror how long the
// respective controllers usually take to converge.
type WaitConfig struct {
	PollInterval       time.Duration
	CRDEstablish       time.Duration
	DeploymentsReady   time.Duration
	CRDRecheck         time.Duration
	ProvidersHealthy   time.Duration
	WorkloadRetryDelay time.Duration
}

// DefaultWaitConfig returns the default wait configuration.
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{
		PollInterval:       5 * time.Second,
		CRDEstablish:       60 * time.Second,
		DeploymentsReady:   120 * time.Second,
		CRDRecheck:         120 * time.Second,
		ProvidersHealthy:   300 * time.Second,
		WorkloadRetryDelay: 30 * time.Second,
	}
}

// PhasedApplier partitions manifests into ordered phases and applies each
// phase with readiness gating in between.
type PhasedApplier struct {
	transport Transport
	checker   StatusChecker
	waits     WaitConfig
	out       io.Writer
}

// NewPhasedApplier creates a PhasedApplier. A nil out defaults to os.Stdout.
func NewPhasedApplier(
	transport Transport,
	checker StatusChecker,
	waits WaitConfig,
	out io.Writer,
) *PhasedApplier {
	if out == nil {
		out = os.Stdout
	}

	return &PhasedApplier{
		transport: transport,
		checker:   checker,
		waits:     waits,
		out:       out,
	}
}

// Apply classifies manifests into phases and applies them in order.
// Empty phases are skipped entirely, including their readiness wait.
// With dryRun set, all readiness waiting and the workload retry are disabled
// but the classification/application pass still runs.
func (a *PhasedApplier) Apply(
	ctx context.Context,
	manifests []manifest.Manifest,
	dryRun bool,
) error {
	err := a.transport.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClusterUnreachable, err)
	}

	buckets := manifest.Partition(manifests)

	for _, phase := range manifest.Phases() {
		bucket := buckets[phase]
		if len(bucket) == 0 {
			continue
		}

		err := a.applyPhase(ctx, phase, bucket, dryRun)
		if err != nil {
			return err
		}

		if !dryRun {
			a.waitAfterPhase(ctx, phase)
		}
	}

	return nil
}

func (a *PhasedApplier) applyPhase(
	ctx context.Context,
	phase manifest.Phase,
	bucket []manifest.Manifest,
	dryRun bool,
) error {
	notify.Activityf(a.out, "applying phase %s (%d manifests)", phase, len(bucket))

	policy := PolicyFor(phase)

	err := a.applyBucket(ctx, phase, bucket, dryRun)
	if err == nil {
		return nil
	}

	if policy.RetryOnce && !dryRun {
		notify.Warningf(
			a.out,
			"phase %s apply failed, retrying once in %s: %v",
			phase, a.waits.WorkloadRetryDelay, err,
		)

		if !sleepCtx(ctx, a.waits.WorkloadRetryDelay) {
			return nil
		}

		err = a.applyBucket(ctx, phase, bucket, dryRun)
		if err == nil {
			return nil
		}
	}

	if policy.Effort == MustSucceed {
		return fmt.Errorf("apply phase %s: %w", phase, err)
	}

	notify.Warningf(a.out, "phase %s applied with errors: %v", phase, err)

	return nil
}

// applyBucket serializes the bucket to a temp file and applies it in one
// transport call, matching the apply tool's whole-batch semantics.
func (a *PhasedApplier) applyBucket(
	ctx context.Context,
	phase manifest.Phase,
	bucket []manifest.Manifest,
	dryRun bool,
) error {
	tmpFile, err := os.CreateTemp("", fmt.Sprintf("kubestrap-%s-*.yaml", phase))
	if err != nil {
		return fmt.Errorf("create temp manifest file: %w", err)
	}

	defer func() { _ = os.Remove(tmpFile.Name()) }()
	defer func() { _ = tmpFile.Close() }()

	const manifestFilePerms = 0o600

	err = os.WriteFile(tmpFile.Name(), []byte(manifest.MarshalDocuments(bucket)), manifestFilePerms)
	if err != nil {
		return fmt.Errorf("write temp manifest file: %w", err)
	}

	return a.transport.ApplyFile(ctx, tmpFile.Name(), dryRun)
}

// waitAfterPhase runs the readiness waits defined for the boundary after the
// given phase. Timeouts degrade to warnings, never abort the run.
func (a *PhasedApplier) waitAfterPhase(ctx context.Context, phase manifest.Phase) {
	switch phase {
	case manifest.PhaseFoundational:
		a.waitWarn(ctx, "CRDs established", a.waits.CRDEstablish, a.checker.CRDsEstablished)
	case manifest.PhaseControllers:
		a.waitWarn(ctx, "deployments ready", a.waits.DeploymentsReady, a.checker.DeploymentsReady)
		// Controllers frequently install their own CRDs.
		a.waitWarn(ctx, "CRDs established", a.waits.CRDRecheck, a.checker.CRDsEstablished)
	case manifest.PhaseProviders:
		a.waitWarn(ctx, "providers healthy", a.waits.ProvidersHealthy, a.checker.ProvidersHealthy)
	case manifest.PhaseProviderConfigs, manifest.PhaseWorkloads:
		// Convergence happens on a later reconciliation pass.
	}
}

func (a *PhasedApplier) waitWarn(
	ctx context.Context,
	what string,
	timeout time.Duration,
	predicate readiness.Predicate,
) {
	notify.Activityf(a.out, "waiting for %s", what)

	outcome := readiness.Poll(ctx, a.waits.PollInterval, timeout, predicate)
	if outcome == readiness.TimedOut {
		notify.Warningf(a.out, "timed out waiting for %s after %s, continuing", what, timeout)

		return
	}

	notify.Successf(a.out, "%s", what)
}

// sleepCtx sleeps for d, returning false if ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
