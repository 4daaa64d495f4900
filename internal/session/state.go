// Package session holds the client-side focus session: the task being
// decomposed, the active plan, the step pointer and the completion streak.
package session

import (
	"errors"

	"github.com/yungbote/neurathon-mate/internal/domain"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRequesting Phase = "requesting"
	PhaseActive     Phase = "active"
	PhaseComplete   Phase = "complete"
)

// OverviewPosition is the pointer value before the first step, where the
// roadmap and total time are shown.
const OverviewPosition = -1

var (
	ErrEmptyTask     = errors.New("task is empty")
	ErrInFlight      = errors.New("a request is already in flight")
	ErrInvalidAction = errors.New("action not allowed in current phase")
	ErrNotPersisted  = errors.New("state applied but not saved")
)

type State struct {
	Phase    Phase
	Task     string
	Plan     domain.Plan
	Position int
	Outcome  string
	Streak   int
	Profile  domain.Profile
}

func initialState(profile domain.Profile, streak int) State {
	return State{
		Phase:    PhaseIdle,
		Position: OverviewPosition,
		Streak:   streak,
		Profile:  profile,
	}
}

// OnOverview reports whether an active plan is showing its roadmap.
func (s State) OnOverview() bool {
	return s.Phase == PhaseActive && s.Position == OverviewPosition
}

// CurrentStep returns the step under the pointer, if any.
func (s State) CurrentStep() (domain.Step, bool) {
	if s.Phase != PhaseActive || s.Position < 0 || s.Position >= len(s.Plan.Steps) {
		return domain.Step{}, false
	}
	return s.Plan.Steps[s.Position], true
}

// Progress is the fraction of steps reached, 0 on the overview.
func (s State) Progress() float64 {
	n := len(s.Plan.Steps)
	switch {
	case s.Phase == PhaseComplete:
		return 1
	case s.Phase != PhaseActive || n == 0 || s.Position < 0:
		return 0
	}
	return float64(s.Position+1) / float64(n)
}
