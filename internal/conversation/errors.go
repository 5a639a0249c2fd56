package conversation

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPhase = errors.New("operation is not allowed in the current phase")
	ErrOutOfRange   = errors.New("question index out of range")
	// ErrDispatchDiscarded is returned when a free-form answer arrives after
	// it was superseded by another question or by a restart.
	ErrDispatchDiscarded = errors.New("dispatch result discarded")
	ErrRevealCancelled   = errors.New("reveal cancelled")
	// ErrSessionRestarted is returned when the session was restarted while
	// its answers were being evaluated.
	ErrSessionRestarted = errors.New("session restarted")
)

type InvalidPhaseError struct {
	Op    string
	Phase Phase
}

func (e *InvalidPhaseError) Error() string {
	return fmt.Sprintf("%s: not allowed in phase %s", e.Op, e.Phase)
}

func (e *InvalidPhaseError) Is(target error) bool {
	return target == ErrInvalidPhase
}

type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("question index %d out of range [0, %d)", e.Index, e.Len)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// DispatchFailure wraps a provider error from a free-form question.
type DispatchFailure struct {
	Err error
}

func (e *DispatchFailure) Error() string {
	return fmt.Sprintf("free-form dispatch failed: %v", e.Err)
}

func (e *DispatchFailure) Unwrap() error {
	return e.Err
}
