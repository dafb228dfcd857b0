// Package worker runs background jobs on a cron schedule.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	applog "expenseadvisor/internal/log"
)

// IdleSweeper drops sessions idle for longer than a TTL.
type IdleSweeper interface {
	SweepIdle(ctx context.Context, ttl time.Duration) (int, error)
}

// SessionSweeper periodically removes idle sessions so their ledgers are
// released even when the browser never returns.
type SessionSweeper struct {
	cron     *cron.Cron
	sweeper  IdleSweeper
	ttl      time.Duration
	schedule string
	logger   *applog.Logger

	mu      sync.Mutex
	lastRun time.Time
	lastN   int
}

// NewSessionSweeper validates schedule and returns a stopped sweeper.
func NewSessionSweeper(sweeper IdleSweeper, schedule string, ttl time.Duration, logger *applog.Logger) (*SessionSweeper, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &SessionSweeper{
		cron:     cron.New(),
		sweeper:  sweeper,
		ttl:      ttl,
		schedule: schedule,
		logger:   logger.WithComponent(applog.ComponentScheduler),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("register sweep job %q: %w", schedule, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running sweep to finish.
func (s *SessionSweeper) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("Session sweeper started", "schedule", s.schedule, "session_ttl", s.ttl)

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("Session sweeper stopped")
	return nil
}

// SweepNow runs one sweep immediately.
func (s *SessionSweeper) SweepNow(ctx context.Context) (int, error) {
	n, err := s.sweeper.SweepIdle(ctx, s.ttl)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastN = n
	s.mu.Unlock()
	return n, nil
}

// LastRun reports when the last successful sweep ran and how many sessions it removed.
func (s *SessionSweeper) LastRun() (time.Time, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastN
}

func (s *SessionSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.SweepNow(ctx)
	if err != nil {
		s.logger.Error("Session sweep failed", applog.FieldOperation, applog.OpSweep, applog.FieldError, err)
		return
	}
	if n > 0 {
		s.logger.Info("Idle sessions swept", applog.FieldOperation, applog.OpSweep, "removed", n)
	}
}
