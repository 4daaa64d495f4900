package session

import (
	"strings"

	"github.com/yungbote/neurathon-mate/internal/decompose"
	"github.com/yungbote/neurathon-mate/internal/domain"
)

// Action is anything the store can reduce.
type Action interface {
	apply(State) (State, error)
}

type SetTask struct{ Task string }

type Start struct{}

type Received struct {
	Plan    domain.Plan
	Outcome string
}

// Failed substitutes the fallback plan for a request that did not complete.
type Failed struct{ Err error }

type Advance struct{}

type Back struct{}

type Reset struct{}

type UpdateProfile struct{ Profile domain.Profile }

type ToggleFont struct{}

func (a SetTask) apply(s State) (State, error) {
	if s.Phase == PhaseRequesting {
		return s, ErrInFlight
	}
	s.Task = a.Task
	return s, nil
}

func (Start) apply(s State) (State, error) {
	switch s.Phase {
	case PhaseRequesting:
		return s, ErrInFlight
	case PhaseIdle:
	default:
		return s, ErrInvalidAction
	}
	if strings.TrimSpace(s.Task) == "" {
		return s, ErrEmptyTask
	}
	s.Phase = PhaseRequesting
	return s, nil
}

func (a Received) apply(s State) (State, error) {
	if s.Phase != PhaseRequesting {
		return s, ErrInvalidAction
	}
	plan := a.Plan.Clone()
	outcome := a.Outcome
	if !plan.Active() {
		plan = decompose.Fallback()
		outcome = string(decompose.KindMalformedOutput)
	}
	return activate(s, plan, outcome), nil
}

func (a Failed) apply(s State) (State, error) {
	if s.Phase != PhaseRequesting {
		return s, ErrInvalidAction
	}
	return activate(s, decompose.Fallback(), string(decompose.KindUpstream)), nil
}

func activate(s State, plan domain.Plan, outcome string) State {
	s.Phase = PhaseActive
	s.Plan = plan
	s.Position = OverviewPosition
	s.Outcome = outcome
	return s
}

func (Advance) apply(s State) (State, error) {
	if s.Phase != PhaseActive {
		return s, ErrInvalidAction
	}
	if s.Position >= len(s.Plan.Steps)-1 {
		s.Phase = PhaseComplete
		s.Streak++
		return s, nil
	}
	s.Position++
	return s, nil
}

func (Back) apply(s State) (State, error) {
	if s.Phase != PhaseActive {
		return s, ErrInvalidAction
	}
	if s.Position > OverviewPosition {
		s.Position--
	}
	return s, nil
}

func (Reset) apply(s State) (State, error) {
	s.Phase = PhaseIdle
	s.Task = ""
	s.Plan = domain.Plan{}
	s.Position = OverviewPosition
	s.Outcome = ""
	return s, nil
}

func (a UpdateProfile) apply(s State) (State, error) {
	s.Profile = a.Profile
	return s, nil
}

func (ToggleFont) apply(s State) (State, error) {
	s.Profile.Preferences.FontType = s.Profile.Preferences.FontType.Toggle()
	return s, nil
}

// Reduce applies a to s. Rejected actions return s unchanged with an error.
func Reduce(s State, a Action) (State, error) {
	next, err := a.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}
