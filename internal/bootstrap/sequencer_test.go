package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSequencer_ConcurrentCallersShareOneRun(t *testing.T) {
	var runs atomic.Int32
	release := make(chan struct{})
	seq := NewSequencer(func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	}, quietLogger())

	const callers = 16
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = seq.Initialize(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StateInProgress, seq.State())
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, StateCompleted, seq.State())

	require.NoError(t, seq.Initialize(context.Background()))
	assert.Equal(t, int32(1), runs.Load(), "completed is terminal")
}

func TestSequencer_RetriesAfterFailure(t *testing.T) {
	boom := errors.New("disk full")
	var runs atomic.Int32
	seq := NewSequencer(func(context.Context) error {
		if runs.Add(1) == 1 {
			return boom
		}
		return nil
	}, quietLogger())

	assert.Equal(t, StateNotStarted, seq.State())

	err := seq.Initialize(context.Background())
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, types.ErrInitialization)
	assert.Equal(t, StateFailed, seq.State())

	require.NoError(t, seq.Initialize(context.Background()))
	assert.Equal(t, StateCompleted, seq.State())
	assert.Equal(t, int32(2), runs.Load())
}

func TestSequencer_FailedResetsToNotStartedOnNextCall(t *testing.T) {
	var runs atomic.Int32
	seq := NewSequencer(func(context.Context) error {
		runs.Add(1)
		return errors.New("locked")
	}, quietLogger())

	require.Error(t, seq.Initialize(context.Background()))
	assert.Equal(t, StateFailed, seq.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, seq.Initialize(ctx), context.Canceled)
	assert.Equal(t, StateNotStarted, seq.State())
	assert.Equal(t, int32(1), runs.Load())

	err := seq.Initialize(context.Background())
	require.ErrorIs(t, err, types.ErrInitialization)
	assert.Equal(t, StateFailed, seq.State())
	assert.Equal(t, int32(2), runs.Load())
}

func TestSequencer_CallerCancellationDoesNotStopRun(t *testing.T) {
	release := make(chan struct{})
	runErr := make(chan error, 1)
	seq := NewSequencer(func(ctx context.Context) error {
		<-release
		runErr <- ctx.Err()
		return nil
	}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- seq.Initialize(ctx) }()

	require.Eventually(t, func() bool { return seq.State() == StateInProgress }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	assert.NoError(t, <-runErr)
	require.Eventually(t, func() bool { return seq.State() == StateCompleted }, time.Second, time.Millisecond)
	assert.NoError(t, seq.Initialize(context.Background()))
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateNotStarted: "not_started",
		StateInProgress: "in_progress",
		StateCompleted:  "completed",
		StateFailed:     "failed",
	}
	for s, want := range tests {
		assert.Equal(t, want, s.String())
	}
}
