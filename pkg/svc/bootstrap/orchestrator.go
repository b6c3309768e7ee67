// Package bootstrap drives the full cluster bring-up workflow: local
// management cluster, credential seeding, management-plane rollout, target
// cluster discovery and promotion, workload rollout, and the GitOps sync
// handoff.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kubestrap/kubestrap/pkg/client/gcloud"
	"github.com/kubestrap/kubestrap/pkg/k8s/readiness"
	"github.com/kubestrap/kubestrap/pkg/manifest"
	"github.com/kubestrap/kubestrap/pkg/svc/cluster"
	"github.com/kubestrap/kubestrap/pkg/svc/render"
	"github.com/kubestrap/kubestrap/pkg/utils/notify"
	"github.com/kubestrap/kubestrap/pkg/utils/timer"
)

// Applier applies a manifest set to the currently targeted cluster.
type Applier interface {
	Apply(ctx context.Context, manifests []manifest.Manifest, dryRun bool) error
}

// Discoverer resolves the target cluster from management-cluster state.
type Discoverer interface {
	Discover(ctx context.Context, timeout time.Duration) (cluster.Handle, error)
	ClusterReady(ctx context.Context, name string) (bool, error)
}

// CloudProvider answers status queries and activates access credentials for
// cloud-managed clusters.
type CloudProvider interface {
	ClusterStatus(ctx context.Context, handle cluster.Handle) (string, error)
	ActivateCredentials(ctx context.Context, handle cluster.Handle) error
}

// Syncer drives the GitOps application towards a synced state.
type Syncer interface {
	Sync(ctx context.Context, appName string) readiness.Outcome
}

// Renderer builds a manifest source directory into applyable documents.
type Renderer interface {
	Render(sourceDir string) ([]byte, error)
	RenderToFile(sourceDir, outputDir, appName string) (string, error)
}

// CredentialSeeder upserts the cloud credential secret on the management
// cluster.
type CredentialSeeder interface {
	Seed(ctx context.Context, path string) error
}

// FunctionChecker inspects composition-function plugins on a cluster.
type FunctionChecker interface {
	HasFunctions(ctx context.Context) bool
	FunctionsReady(ctx context.Context) (bool, error)
}

// Deps are the orchestrator's collaborators. Per-cluster collaborators are
// factories keyed by handle because the run targets two different control
// planes over its lifetime.
type Deps struct {
	Provisioner cluster.Provisioner
	Seeder      CredentialSeeder
	Renderer    Renderer
	Discoverer  Discoverer
	Cloud       CloudProvider
	ApplierFor  func(handle cluster.Handle) (Applier, error)
	CheckerFor  func(handle cluster.Handle) (FunctionChecker, error)
	SyncerFor   func(handle cluster.Handle) (Syncer, error)
}

// Options configure a bootstrap run.
type Options struct {
	// ClusterName names the local management cluster.
	ClusterName string
	// Project is the cloud project the target cluster is expected in. It
	// backfills a discovered handle without a project and flags a mismatch.
	Project string
	// CredentialsPath is an explicit credentials file path, empty to probe
	// default locations.
	CredentialsPath string
	// WorkDir anchors relative lookups (credentials file, manifest sources).
	WorkDir string
	// ManagementContext is the kubeconfig context of the management cluster.
	ManagementContext string
	// ManagementSource is the kustomize directory of the management plane.
	ManagementSource string
	// WorkloadSource is the kustomize directory of the workload plane.
	WorkloadSource string
	// OutputDir receives rendered workload manifests.
	OutputDir string
	// AppName names the GitOps application and the rendered output file.
	AppName string

	// SkipLocalCluster assumes the management cluster already exists.
	SkipLocalCluster bool
	// SkipCredentials assumes the credential secret is already seeded.
	SkipCredentials bool
	// SkipTarget stops after the management-plane rollout, leaving target
	// cluster creation to the control plane without waiting for it.
	SkipTarget bool
}

// Waits bounds the orchestrator's own polling loops. PhasedApplier carries
// its own wait configuration.
type Waits struct {
	Discovery             time.Duration
	TargetReady           time.Duration
	TargetReadyInterval   time.Duration
	FunctionsReady        time.Duration
	FunctionsPollInterval time.Duration
}

// DefaultWaits returns the wait bounds used by production runs.
func DefaultWaits() Waits {
	return Waits{
		Discovery:             60 * time.Second,
		TargetReady:           900 * time.Second,
		TargetReadyInterval:   30 * time.Second,
		FunctionsReady:        300 * time.Second,
		FunctionsPollInterval: 5 * time.Second,
	}
}

// Orchestrator sequences the bootstrap stages. Every stage's side effect is
// idempotent, so a failed run can be restarted from the beginning.
type Orchestrator struct {
	opts  Options
	waits Waits
	deps  Deps
	tmr   timer.Timer
	out   io.Writer
}

// NewOrchestrator creates an Orchestrator writing progress to out.
func NewOrchestrator(opts Options, waits Waits, deps Deps, out io.Writer) *Orchestrator {
	if out == nil {
		out = io.Discard
	}

	return &Orchestrator{
		opts:  opts,
		waits: waits,
		deps:  deps,
		tmr:   timer.New(),
		out:   out,
	}
}

// Run executes the bootstrap stages in order. The returned State reports the
// last completed stage and accumulated warnings, also when Run fails.
func (o *Orchestrator) Run(ctx context.Context) (*State, error) {
	notify.Titlef(o.out, "🚀", "bootstrapping '%s'", o.opts.ClusterName)

	state := NewState(cluster.Handle{
		Name:    o.opts.ClusterName,
		Context: o.opts.ManagementContext,
	})

	err := o.localClusterUp(ctx, state)
	if err != nil {
		return state, err
	}

	err = o.seedCredentials(ctx, state)
	if err != nil {
		return state, err
	}

	err = o.applyManagementPlane(ctx, state)
	if err != nil {
		return state, err
	}

	o.waitFunctions(ctx, state)

	if o.opts.SkipTarget {
		state.warn("target cluster stages skipped on request")
		state.advance(StageDone)
		notify.SuccessWithTimerf(o.out, o.tmr, "management plane bootstrapped, target skipped")

		return state, nil
	}

	err = o.discoverTarget(ctx, state)
	if err != nil {
		return state, err
	}

	err = o.waitTargetReady(ctx, state)
	if err != nil {
		return state, err
	}

	err = o.switchContext(ctx, state)
	if err != nil {
		return state, err
	}

	err = o.applyWorkloadPlane(ctx, state)
	if err != nil {
		return state, err
	}

	o.syncGitOps(ctx, state)

	state.advance(StageDone)
	notify.SuccessWithTimerf(o.out, o.tmr, "cluster '%s' bootstrapped", state.Target.Name)

	return state, nil
}

func (o *Orchestrator) localClusterUp(ctx context.Context, state *State) error {
	o.tmr.NewStage()

	if o.opts.SkipLocalCluster {
		notify.Infof(o.out, "skipping local cluster provisioning")
		state.advance(StageLocalClusterUp)

		return nil
	}

	exists, err := o.deps.Provisioner.Exists(ctx, o.opts.ClusterName)
	if err != nil {
		return fmt.Errorf("check local cluster: %w", err)
	}

	if exists {
		notify.Infof(o.out, "reusing existing local cluster '%s'", o.opts.ClusterName)
	} else {
		notify.Activityf(o.out, "creating local cluster '%s'", o.opts.ClusterName)

		err = o.deps.Provisioner.Create(ctx, o.opts.ClusterName)
		if err != nil {
			return fmt.Errorf("create local cluster: %w", err)
		}
	}

	state.advance(StageLocalClusterUp)

	return nil
}

func (o *Orchestrator) seedCredentials(ctx context.Context, state *State) error {
	o.tmr.NewStage()

	if o.opts.SkipCredentials {
		notify.Infof(o.out, "skipping credential seeding")
		state.advance(StageCredentialsSeeded)

		return nil
	}

	path, err := ResolveCredentialsPath(o.opts.CredentialsPath, o.opts.WorkDir)
	if err != nil {
		return err
	}

	notify.Activityf(o.out, "seeding cloud credentials from '%s'", path)

	err = o.deps.Seeder.Seed(ctx, path)
	if err != nil {
		return fmt.Errorf("seed credentials: %w", err)
	}

	state.advance(StageCredentialsSeeded)

	return nil
}

func (o *Orchestrator) applyManagementPlane(ctx context.Context, state *State) error {
	o.tmr.NewStage()
	notify.Activityf(o.out, "applying management plane from '%s'", o.opts.ManagementSource)

	manifests, err := o.renderManifests(o.opts.ManagementSource)
	if err != nil {
		return err
	}

	phased, err := o.deps.ApplierFor(state.Management)
	if err != nil {
		return fmt.Errorf("build applier for management cluster: %w", err)
	}

	err = phased.Apply(ctx, manifests, false)
	if err != nil {
		return fmt.Errorf("apply management plane: %w", err)
	}

	state.advance(StageManagementPlaneApplied)

	return nil
}

// waitFunctions waits for composition-function plugins to report Installed
// and Healthy after the management-plane rollout. Clusters without functions
// have nothing to wait for, and a timeout degrades to a warning.
func (o *Orchestrator) waitFunctions(ctx context.Context, state *State) {
	o.tmr.NewStage()

	checker, err := o.deps.CheckerFor(state.Management)
	if err != nil {
		state.warn("build checker for management cluster: %v", err)
		notify.Warningf(o.out, "cannot check functions: %v", err)
		state.advance(StageProvidersHealthy)

		return
	}

	if checker.HasFunctions(ctx) {
		notify.Activityf(o.out, "waiting for functions to become healthy")

		outcome := readiness.Poll(
			ctx,
			o.waits.FunctionsPollInterval,
			o.waits.FunctionsReady,
			checker.FunctionsReady,
		)

		if outcome == readiness.TimedOut {
			state.warn("functions not healthy within %s", o.waits.FunctionsReady)
			notify.Warningf(o.out,
				"functions not healthy within %s, continuing", o.waits.FunctionsReady)
		}
	}

	state.advance(StageProvidersHealthy)
}

func (o *Orchestrator) discoverTarget(ctx context.Context, state *State) error {
	o.tmr.NewStage()
	notify.Activityf(o.out, "discovering target cluster")

	handle, err := o.deps.Discoverer.Discover(ctx, o.waits.Discovery)
	if err != nil {
		return fmt.Errorf("discover target cluster: %w", err)
	}

	// Managed resources may omit the project when the provider config
	// defaults it; the configured project fills the gap. A conflicting
	// project is suspicious but not fatal, the cloud status query will
	// fail loudly if the handle is wrong.
	switch {
	case handle.Project == "":
		handle.Project = o.opts.Project
	case o.opts.Project != "" && handle.Project != o.opts.Project:
		state.warn("discovered cluster '%s' is in project '%s', expected '%s'",
			handle.Name, handle.Project, o.opts.Project)
		notify.Warningf(o.out, "discovered cluster '%s' is in project '%s', expected '%s'",
			handle.Name, handle.Project, o.opts.Project)
	}

	handle.Context = gcloud.KubeContext(handle)
	state.Target = handle
	state.advance(StageTargetClusterDiscovered)
	notify.Successf(o.out, "discovered target cluster '%s' in %s", handle.Name, handle.Location)

	return nil
}

// waitTargetReady polls a dual condition: the management plane's tracked
// resource reporting Ready, or a direct cloud status query reporting RUNNING.
// Either satisfies readiness. Unlike the applier's internal waits, a timeout
// here is fatal.
func (o *Orchestrator) waitTargetReady(ctx context.Context, state *State) error {
	o.tmr.NewStage()
	notify.Activityf(o.out, "waiting for target cluster '%s' to become ready", state.Target.Name)

	outcome := readiness.Poll(
		ctx,
		o.waits.TargetReadyInterval,
		o.waits.TargetReady,
		func(ctx context.Context) (bool, error) {
			ready, err := o.deps.Discoverer.ClusterReady(ctx, state.Target.Name)
			if err == nil && ready {
				return true, nil
			}

			status, statusErr := o.deps.Cloud.ClusterStatus(ctx, state.Target)
			if statusErr == nil && status == gcloud.StatusRunning {
				return true, nil
			}

			return false, err
		},
	)

	if outcome == readiness.TimedOut {
		return fmt.Errorf("%w within %s", ErrTargetNotReady, o.waits.TargetReady)
	}

	state.advance(StageTargetClusterReady)

	return nil
}

func (o *Orchestrator) switchContext(ctx context.Context, state *State) error {
	o.tmr.NewStage()
	notify.Activityf(o.out, "activating credentials for '%s'", state.Target.Name)

	err := o.deps.Cloud.ActivateCredentials(ctx, state.Target)
	if err != nil {
		return fmt.Errorf("activate target credentials: %w", err)
	}

	state.advance(StageContextSwitched)

	return nil
}

func (o *Orchestrator) applyWorkloadPlane(ctx context.Context, state *State) error {
	o.tmr.NewStage()
	notify.Activityf(o.out, "applying workload plane from '%s'", o.opts.WorkloadSource)

	// Stale output from a previous run must never reach the cluster.
	err := render.CleanOutputDir(o.opts.OutputDir)
	if err != nil {
		return err
	}

	path, err := o.deps.Renderer.RenderToFile(
		o.opts.WorkloadSource, o.opts.OutputDir, o.opts.AppName)
	if err != nil {
		return err
	}

	manifests, err := manifest.LoadFile(path)
	if err != nil {
		return err
	}

	phased, err := o.deps.ApplierFor(state.Target)
	if err != nil {
		return fmt.Errorf("build applier for target cluster: %w", err)
	}

	err = phased.Apply(ctx, manifests, false)
	if err != nil {
		return fmt.Errorf("apply workload plane: %w", err)
	}

	state.advance(StageWorkloadPlaneApplied)

	return nil
}

// syncGitOps hands continuous reconciliation over to the GitOps controller.
// Non-convergence is a warning, never a failed bootstrap.
func (o *Orchestrator) syncGitOps(ctx context.Context, state *State) {
	o.tmr.NewStage()

	syncer, err := o.deps.SyncerFor(state.Target)
	if err != nil {
		state.warn("build syncer for target cluster: %v", err)
		notify.Warningf(o.out, "cannot sync gitops application: %v", err)
		state.advance(StageGitOpsSynced)

		return
	}

	outcome := syncer.Sync(ctx, o.opts.AppName)
	if outcome == readiness.TimedOut {
		state.warn("application '%s' did not converge", o.opts.AppName)
	}

	state.advance(StageGitOpsSynced)
}

func (o *Orchestrator) renderManifests(sourceDir string) ([]manifest.Manifest, error) {
	data, err := o.deps.Renderer.Render(sourceDir)
	if err != nil {
		return nil, err
	}

	manifests, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse rendered manifests: %w", err)
	}

	return manifests, nil
}
