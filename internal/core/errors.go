package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a fatal build-time validation failure. It is
	// never raised once a run has started ticking.
	ErrConfiguration = errors.New("core: invalid configuration")

	// ErrDomain marks an illegal cell value produced during a tick.
	ErrDomain = errors.New("core: domain violation")

	// ErrCancelled reports a cooperative stop requested through the run
	// context. Snapshots emitted before the stop remain valid.
	ErrCancelled = errors.New("core: run cancelled")

	// ErrState reports a scheduler method called from the wrong state.
	ErrState = errors.New("core: invalid scheduler state")
)

// DomainError reports the grid, cell, and tick at which an illegal value
// appeared. It aborts only the run that produced it.
type DomainError struct {
	Grid  string
	X, Y  int
	Step  int
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("core: grid %q cell (%d,%d) holds %g at step %d", e.Grid, e.X, e.Y, e.Value, e.Step)
}

func (e *DomainError) Unwrap() error { return ErrDomain }
