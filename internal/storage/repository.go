package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"

	"expenseadvisor/internal/core"
	"expenseadvisor/internal/sessions"

	_ "modernc.org/sqlite"
)

// DefaultDSN is a process-local shared in-memory database: it disappears
// with the process, so sessions never outlive the server. Every store opened
// with it in the same process shares one database; tests pass their own DSN.
const DefaultDSN = "file:expenseadvisor?mode=memory&cache=shared"

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// SessionStore keeps sessions and their ledgers in SQLite.
type SessionStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time

	schemaVersion uint

	// one writer at a time keeps seq allocation and read-modify-write consistent
	mu sync.Mutex
}

// Option configures a SessionStore.
type Option func(*SessionStore)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) { s.now = now }
}

// NewSessionStore opens dsn, applies migrations and returns the store.
// Sessions idle for longer than ttl are treated as gone even before a sweep.
func NewSessionStore(dsn string, ttl time.Duration, opts ...Option) (*SessionStore, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	if path := filePath(dsn); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps a shared in-memory database alive and
	// serializes writers at the driver level
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateUp(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SessionStore{db: db, ttl: ttl, now: time.Now, schemaVersion: version}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// filePath returns the on-disk path for plain file DSNs and "" for
// in-memory or URI forms.
func filePath(dsn string) string {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return ""
	}
	return dsn
}

func (s *SessionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SchemaVersion is the migration version applied when the store opened.
func (s *SessionStore) SchemaVersion() uint {
	return s.schemaVersion
}

// Ping reports whether the database answers.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SessionStore) Create(ctx context.Context) (*sessions.Session, error) {
	sess := sessions.New(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := builder.Insert("sessions").
		Columns("id", "income_cents", "savings_cents", "created_at", "last_seen").
		Values(sess.ID, 0, 0, sess.CreatedAt.UnixMilli(), sess.LastSeen.UnixMilli()).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Get loads the session with its ledger in insertion order.
func (s *SessionStore) Get(ctx context.Context, id string) (*sessions.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	defer rollback(ctx, tx)

	if err := s.touch(ctx, tx, id); err != nil {
		return nil, err
	}

	var (
		sess                  = &sessions.Session{ID: id}
		income, savings       int64
		createdAt, lastSeenAt int64
	)
	err = builder.Select("income_cents", "savings_cents", "created_at", "last_seen").
		From("sessions").
		Where(sq.Eq{"id": id}).
		RunWith(tx).QueryRowContext(ctx).
		Scan(&income, &savings, &createdAt, &lastSeenAt)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.Budget = core.BudgetSettings{
		MonthlyIncome: core.Money{Cents: income},
		SavingsGoal:   core.Money{Cents: savings},
	}
	sess.CreatedAt = time.UnixMilli(createdAt).UTC()
	sess.LastSeen = time.UnixMilli(lastSeenAt).UTC()

	entries, err := s.entries(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	sess.Ledger, err = core.NewLedgerFrom(entries)
	if err != nil {
		return nil, fmt.Errorf("rebuild ledger for session %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) entries(ctx context.Context, tx *sql.Tx, id string) ([]core.ExpenseEntry, error) {
	rows, err := builder.Select("date", "category", "description", "amount_cents").
		From("ledger_entries").
		Where(sq.Eq{"session_id": id}).
		OrderBy("seq").
		RunWith(tx).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseEntry
	for rows.Next() {
		var (
			date, category, desc string
			cents                int64
		)
		if err := rows.Scan(&date, &category, &desc, &cents); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("scan entry date %q: %w", date, err)
		}
		out = append(out, core.ExpenseEntry{
			Date:        d,
			Category:    core.Category(category),
			Description: desc,
			Amount:      core.Money{Cents: cents},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

// AppendExpense validates e and stores it after the session's last entry.
func (s *SessionStore) AppendExpense(ctx context.Context, id string, e core.ExpenseEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append expense: %w", err)
	}
	defer rollback(ctx, tx)

	if err := s.touch(ctx, tx, id); err != nil {
		return err
	}

	var next, totalCents int64
	err = builder.Select("COALESCE(MAX(seq), 0) + 1", "COALESCE(SUM(amount_cents), 0)").
		From("ledger_entries").
		Where(sq.Eq{"session_id": id}).
		RunWith(tx).QueryRowContext(ctx).Scan(&next, &totalCents)
	if err != nil {
		return fmt.Errorf("next seq: %w", err)
	}
	// same bound as Ledger.Append, so a stored ledger always loads back
	if _, err := (core.Money{Cents: totalCents}).CheckedAdd(e.Amount); err != nil {
		return err
	}

	_, err = builder.Insert("ledger_entries").
		Columns("session_id", "seq", "date", "category", "description", "amount_cents").
		Values(id, next, e.Date.String(), e.Category.String(), e.Description, e.Amount.Cents).
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append expense: %w", err)
	}
	return nil
}

func (s *SessionStore) SetBudget(ctx context.Context, id string, b core.BudgetSettings) error {
	if err := b.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := builder.Update("sessions").
		Set("income_cents", b.MonthlyIncome.Cents).
		Set("savings_cents", b.SavingsGoal.Cents).
		Set("last_seen", s.now().UnixMilli()).
		Where(sq.Eq{"id": id}).
		Where(sq.GtOrEq{"last_seen": s.cutoff()}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return requireOne(res)
}

// Delete removes the session and its ledger. Unknown IDs are not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := builder.Delete("ledger_entries").Where(sq.Eq{"session_id": id}).RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	if _, err := builder.Delete("sessions").Where(sq.Eq{"id": id}).RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return tx.Commit()
}

// Sweep deletes every session last seen before idleBefore, with its entries.
func (s *SessionStore) Sweep(ctx context.Context, idleBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	defer rollback(ctx, tx)

	cutoff := idleBefore.UnixMilli()
	_, err = builder.Delete("ledger_entries").
		Where(sq.Expr("session_id IN (SELECT id FROM sessions WHERE last_seen < ?)", cutoff)).
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep entries: %w", err)
	}

	res, err := builder.Delete("sessions").
		Where(sq.Lt{"last_seen": cutoff}).
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return int(n), nil
}

func (s *SessionStore) Count(ctx context.Context) (int, error) {
	var n int
	err := builder.Select("COUNT(*)").From("sessions").
		RunWith(s.db).QueryRowContext(ctx).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// touch refreshes last_seen for a live session, or reports it missing.
func (s *SessionStore) touch(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := builder.Update("sessions").
		Set("last_seen", s.now().UnixMilli()).
		Where(sq.Eq{"id": id}).
		Where(sq.GtOrEq{"last_seen": s.cutoff()}).
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return requireOne(res)
}

// cutoff is the oldest last_seen that still counts as alive.
func (s *SessionStore) cutoff() int64 {
	if s.ttl <= 0 {
		return 0
	}
	return s.now().Add(-s.ttl).UnixMilli()
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sessions.ErrSessionNotFound
	}
	return nil
}

func rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.WarnContext(ctx, "Transaction rollback failed", "error", err)
	}
}

var _ sessions.Store = (*SessionStore)(nil)
