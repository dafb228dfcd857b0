package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls int32
	ttl   time.Duration
	n     int
	err   error
}

func (f *fakeSweeper) SweepIdle(_ context.Context, ttl time.Duration) (int, error) {
	atomic.AddInt32(&f.calls, 1)
	f.ttl = ttl
	return f.n, f.err
}

func TestNewSessionSweeper_RejectsBadSchedule(t *testing.T) {
	_, err := NewSessionSweeper(&fakeSweeper{}, "whenever", time.Minute, nil)
	assert.Error(t, err)
}

func TestSessionSweeper_SweepNow(t *testing.T) {
	f := &fakeSweeper{n: 3}
	s, err := NewSessionSweeper(f, "@every 1h", 30*time.Minute, nil)
	require.NoError(t, err)

	n, err := s.SweepNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 30*time.Minute, f.ttl)

	at, last := s.LastRun()
	assert.False(t, at.IsZero())
	assert.Equal(t, 3, last)
}

func TestSessionSweeper_SweepNowError(t *testing.T) {
	f := &fakeSweeper{err: errors.New("db locked")}
	s, err := NewSessionSweeper(f, "@every 1h", time.Minute, nil)
	require.NoError(t, err)

	_, err = s.SweepNow(context.Background())
	assert.Error(t, err)
	at, _ := s.LastRun()
	assert.True(t, at.IsZero())
}

func TestSessionSweeper_RunStopsWithContext(t *testing.T) {
	f := &fakeSweeper{}
	s, err := NewSessionSweeper(f, "@every 1s", time.Minute, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(1500 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&f.calls), int32(1))
}
