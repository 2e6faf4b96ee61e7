// Package bootstrap brings the organizer store from a file on disk to a
// ready, migrated and repaired handle exactly once per process.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// State is the lifecycle position of a Sequencer.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "not_started"
	}
}

// Sequencer runs an initialization function at most once at a time and at
// most once successfully. Concurrent callers share the in-flight run. A
// failed run leaves the sequencer in StateFailed until the next call, which
// moves it back to StateNotStarted and starts a new run.
type Sequencer struct {
	run    func(context.Context) error
	logger *slog.Logger
	group  singleflight.Group

	mu       sync.Mutex
	state    State
	attempts int
}

// NewSequencer returns a sequencer for run.
func NewSequencer(run func(context.Context) error, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{run: run, logger: logger}
}

// State returns the current state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialize runs the initialization function, or joins the run already in
// flight, and returns its result. Once a run has succeeded Initialize
// returns nil immediately. Run failures match types.ErrInitialization and
// the underlying cause under errors.Is.
//
// If ctx ends first Initialize returns ctx.Err() while the shared run keeps
// going for the other callers; the run itself never sees ctx's cancellation.
func (s *Sequencer) Initialize(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateCompleted:
		s.mu.Unlock()
		return nil
	case StateFailed:
		s.state = StateNotStarted
		s.logger.Info("retrying initialization after earlier failure", "attempts", s.attempts)
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("initialize", func() (any, error) {
		return nil, s.runOnce(runCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sequencer) runOnce(ctx context.Context) error {
	s.mu.Lock()
	// A run that finished between the caller's check and this flight.
	if s.state == StateCompleted {
		s.mu.Unlock()
		return nil
	}
	s.state = StateInProgress
	s.attempts++
	attempt := s.attempts
	s.mu.Unlock()

	err := s.run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.logger.Error("initialization failed", "attempt", attempt, "error", err)
		return fmt.Errorf("%w: %w", types.ErrInitialization, err)
	}
	s.state = StateCompleted
	return nil
}
