package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scouthq/paperscout/internal/domain"
	"github.com/scouthq/paperscout/internal/logger"
)

func TestRunNowUnknownTrigger(t *testing.T) {
	s := New(logger.New(nil))
	_, err := s.RunNow(context.Background(), "nope", time.Second)
	assert.ErrorIs(t, err, domain.ErrUnknownTrigger)
}

func TestRunNowReturnsSummary(t *testing.T) {
	s := New(logger.New(nil))
	s.Register("work", func(ctx context.Context) (*RunSummary, error) {
		return &RunSummary{Fetched: 7}, nil
	})

	summary, err := s.RunNow(context.Background(), "work", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "work", summary.Triggered)
	assert.Equal(t, 7, summary.Fetched)

	status := s.Status()
	require.Contains(t, status, "work")
	assert.False(t, status["work"].Running)
	require.NotNil(t, status["work"].LastRun)
	assert.Equal(t, 7, status["work"].LastRun.Summary.Fetched)
}

func TestRunNowRejectsOverlap(t *testing.T) {
	s := New(logger.New(nil))
	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once
	s.Register("slow", func(ctx context.Context) (*RunSummary, error) {
		startedOnce.Do(func() { close(started) })
		<-release
		return &RunSummary{}, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.RunNow(context.Background(), "slow", 0)
		assert.NoError(t, err)
	}()

	<-started
	_, err := s.RunNow(context.Background(), "slow", 0)
	assert.ErrorIs(t, err, domain.ErrTriggerRunning)

	close(release)
	<-done

	// Free again after the first run finished.
	_, err = s.RunNow(context.Background(), "slow", 0)
	assert.NoError(t, err)
}

func TestRunRecordsError(t *testing.T) {
	s := New(logger.New(nil))
	s.Register("broken", func(ctx context.Context) (*RunSummary, error) {
		return nil, errors.New("boom")
	})

	_, err := s.RunNow(context.Background(), "broken", time.Second)
	require.Error(t, err)

	record := s.Status()["broken"].LastRun
	require.NotNil(t, record)
	assert.Equal(t, "boom", record.Error)
}

func TestRunContainsPanics(t *testing.T) {
	s := New(logger.New(nil))
	s.Register("panicky", func(ctx context.Context) (*RunSummary, error) {
		panic("kaboom")
	})
	s.Register("fine", func(ctx context.Context) (*RunSummary, error) {
		return &RunSummary{}, nil
	})

	_, err := s.RunNow(context.Background(), "panicky", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// Other triggers keep working.
	_, err = s.RunNow(context.Background(), "fine", time.Second)
	assert.NoError(t, err)
}

func TestRunNowAppliesTimeout(t *testing.T) {
	s := New(logger.New(nil))
	s.Register("ctx-aware", func(ctx context.Context) (*RunSummary, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := s.RunNow(context.Background(), "ctx-aware", 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUntilNext(t *testing.T) {
	now := time.Date(2026, 3, 10, 5, 30, 0, 0, time.UTC)

	assert.Equal(t, 30*time.Minute, untilNext(now, 6, 0))
	// Already past today's slot: wait for tomorrow.
	assert.Equal(t, 23*time.Hour+30*time.Minute, untilNext(now, 5, 0))
	// Exactly at the slot counts as past.
	assert.Equal(t, 24*time.Hour, untilNext(now, 5, 30))
}
