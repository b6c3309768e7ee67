package bootstrap

// Stage identifies how far a bootstrap run has progressed. Stages advance
// linearly; a failed run reports the last stage it completed.
type Stage int

const (
	StageInit Stage = iota
	StageLocalClusterUp
	StageCredentialsSeeded
	StageManagementPlaneApplied
	StageProvidersHealthy
	StageTargetClusterDiscovered
	StageTargetClusterReady
	StageContextSwitched
	StageWorkloadPlaneApplied
	StageGitOpsSynced
	StageDone
)

var stageNames = map[Stage]string{
	StageInit:                    "init",
	StageLocalClusterUp:          "local cluster up",
	StageCredentialsSeeded:       "credentials seeded",
	StageManagementPlaneApplied:  "management plane applied",
	StageProvidersHealthy:        "providers healthy",
	StageTargetClusterDiscovered: "target cluster discovered",
	StageTargetClusterReady:      "target cluster ready",
	StageContextSwitched:         "context switched",
	StageWorkloadPlaneApplied:    "workload plane applied",
	StageGitOpsSynced:            "gitops synced",
	StageDone:                    "done",
}

// String returns a human-readable stage name.
func (s Stage) String() string {
	name, ok := stageNames[s]
	if !ok {
		return "unknown"
	}

	return name
}
