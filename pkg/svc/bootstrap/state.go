package bootstrap

import (
	"fmt"

	"github.com/kubestrap/kubestrap/pkg/svc/cluster"
)

// State is the run-time state of a bootstrap run. It lives only in process
// memory; a restarted run always begins again from StageInit.
type State struct {
	// Stage is the last stage the run completed.
	Stage Stage
	// Management is the local bootstrap cluster's handle, known a priori.
	Management cluster.Handle
	// Target is the cloud cluster's handle, zero until discovered.
	Target cluster.Handle
	// Warnings accumulates non-fatal degradations encountered along the way.
	Warnings []string
}

// NewState creates a State at StageInit targeting the given management
// cluster.
func NewState(management cluster.Handle) *State {
	return &State{Stage: StageInit, Management: management}
}

func (s *State) advance(stage Stage) {
	s.Stage = stage
}

func (s *State) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}
