package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expenseadvisor/internal/core"
	"expenseadvisor/internal/metrics"
	"expenseadvisor/internal/sessions"
)

// EventPublisher receives ledger events. The AMQP client implements it.
type EventPublisher interface {
	PublishExpenseAppended(ctx context.Context, sessionID string, e core.ExpenseEntry) error
	Close() error
}

// View is the read model rendered after every mutation.
type View struct {
	SessionID  string
	Entries    []core.ExpenseEntry
	Budget     core.BudgetSettings
	Status     core.BudgetStatus
	ByCategory []core.CategoryAmount
	ByDate     []core.DateAmount
}

// LedgerService orchestrates ledger operations over a session store and an
// optional event publisher.
type LedgerService struct {
	store     sessions.Store
	publisher EventPublisher
	now       func() time.Time
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithPublisher enables expense.appended events.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(store sessions.Store, opts ...Option) *LedgerService {
	s := &LedgerService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the session for id, starting a new one when id is empty,
// unknown or expired. created reports whether a new session was started.
func (s *LedgerService) Resolve(ctx context.Context, id string) (sess *sessions.Session, created bool, err error) {
	if id != "" {
		sess, err = s.store.Get(ctx, id)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, sessions.ErrSessionNotFound) {
			return nil, false, fmt.Errorf("load session: %w", err)
		}
	}

	sess, err = s.store.Create(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}
	s.refreshGauge(ctx)
	slog.DebugContext(ctx, "Session started", "session_id", sess.ID)
	return sess, true, nil
}

// AddExpense appends e to the session's ledger. A zero Date is stamped with
// today's date. Event publication is best effort: the append stands even
// when publishing fails.
func (s *LedgerService) AddExpense(ctx context.Context, sessionID string, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	if e.Date.IsZero() {
		e.Date = core.Today(s.now())
	}
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}

	if err := s.store.AppendExpense(ctx, sessionID, e); err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("append expense: %w", err)
	}
	metrics.ExpenseAppended(e.Category.String())

	if err := s.publish(ctx, sessionID, e); err != nil {
		metrics.PublishFailed()
		slog.ErrorContext(ctx, "Failed to publish expense appended event",
			"session_id", sessionID, "error", err)
	}

	return e, nil
}

func (s *LedgerService) publish(ctx context.Context, sessionID string, e core.ExpenseEntry) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishExpenseAppended(ctx, sessionID, e)
}

// UpdateBudget replaces the session's budget settings.
func (s *LedgerService) UpdateBudget(ctx context.Context, sessionID string, b core.BudgetSettings) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.store.SetBudget(ctx, sessionID, b); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

// Snapshot builds the read model for the session. It never mutates the ledger.
func (s *LedgerService) Snapshot(ctx context.Context, sessionID string) (View, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return View{}, fmt.Errorf("snapshot: %w", err)
	}
	return NewView(sess), nil
}

// NewView derives the read model from a session snapshot.
func NewView(sess *sessions.Session) View {
	return View{
		SessionID:  sess.ID,
		Entries:    sess.Ledger.Entries(),
		Budget:     sess.Budget,
		Status:     core.Evaluate(sess.Ledger, sess.Budget),
		ByCategory: sess.Ledger.TotalsByCategory(),
		ByDate:     sess.Ledger.TotalsByDate(),
	}
}

// SweepIdle drops sessions idle for longer than ttl.
func (s *LedgerService) SweepIdle(ctx context.Context, ttl time.Duration) (int, error) {
	n, err := s.store.Sweep(ctx, s.now().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	metrics.SessionsSwept(n)
	s.refreshGauge(ctx)
	return n, nil
}

// Ping checks that the store answers.
func (s *LedgerService) Ping(ctx context.Context) error {
	_, err := s.store.Count(ctx)
	return err
}

func (s *LedgerService) refreshGauge(ctx context.Context) {
	n, err := s.store.Count(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to count sessions", "error", err)
		return
	}
	metrics.SetActiveSessions(n)
}

// Close closes both the store and the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	return errors.Join(errs...)
}
