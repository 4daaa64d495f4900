package decompose

import (
	"errors"
	"fmt"
)

// Kind classifies why a decompose call was answered with the fallback plan.
// The HTTP contract is identical for every kind; the distinction only
// reaches logs, metrics and the call log.
type Kind string

const (
	KindOK              Kind = "ok"
	KindInvalidInput    Kind = "invalid_input"
	KindUpstream        Kind = "upstream"
	KindMalformedOutput Kind = "malformed_output"
	KindThrottled       Kind = "throttled"
)

var (
	ErrEmptyTask = errors.New("task is empty")
	ErrNoSteps   = errors.New("plan has no steps")
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the kind carried by err, KindOK for nil and KindUpstream
// for anything unclassified.
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	var de *Error
	if errors.As(err, &de) && de.Kind != "" {
		return de.Kind
	}
	return KindUpstream
}
