// Package sessions defines the per-session context object and the port
// through which the HTTP layer reads and mutates it.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"expenseadvisor/internal/core"
)

var ErrSessionNotFound = errors.New("session not found")

// Session owns one ledger and the budget settings last submitted for it.
// Its lifetime is the browser session: when it expires, its ledger is gone.
type Session struct {
	ID        string
	Ledger    *core.Ledger
	Budget    core.BudgetSettings
	CreatedAt time.Time
	LastSeen  time.Time
}

// New returns an empty session with a fresh random ID.
func New(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Ledger:    core.NewLedger(),
		CreatedAt: now,
		LastSeen:  now,
	}
}

// Snapshot returns a deep copy that callers may read without holding any lock.
func (s *Session) Snapshot() *Session {
	cp := *s
	cp.Ledger = s.Ledger.Clone()
	return &cp
}

// ValidID reports whether id looks like a session ID issued by New.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Ports for session storage adapters.
type (
	// Store keeps sessions for their lifetime. Mutations of one session are
	// serialized by the store; sessions never share state.
	Store interface {
		Create(ctx context.Context) (*Session, error)
		// Get returns a snapshot and marks the session as seen.
		Get(ctx context.Context, id string) (*Session, error)
		AppendExpense(ctx context.Context, id string, e core.ExpenseEntry) error
		SetBudget(ctx context.Context, id string, b core.BudgetSettings) error
		Delete(ctx context.Context, id string) error
		// Sweep drops sessions last seen before idleBefore and returns how many went away.
		Sweep(ctx context.Context, idleBefore time.Time) (int, error)
		Count(ctx context.Context) (int, error)
		Close() error
	}
)
