package memory

import (
	"context"
	"sync"
	"time"

	"expenseadvisor/internal/cache"
	"expenseadvisor/internal/core"
	"expenseadvisor/internal/sessions"
)

// Config bounds the in-memory store.
type Config struct {
	MaxSessions int
	IdleTTL     time.Duration
}

// Store keeps sessions in an LRU cache with a sliding idle expiry.
type Store struct {
	mu    sync.Mutex
	items cache.Expiring[*sessions.Session]
	now   func() time.Time
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	now     func() time.Time
	onEvict func(id string)
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

// WithEvictHook reports sessions dropped by capacity or expiry.
func WithEvictHook(fn func(id string)) Option {
	return func(o *storeOptions) { o.onEvict = fn }
}

func New(cfg Config, opts ...Option) *Store {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}

	cacheOpts := []cache.Option[*sessions.Session]{cache.WithClock[*sessions.Session](o.now)}
	if o.onEvict != nil {
		hook := o.onEvict
		cacheOpts = append(cacheOpts, cache.WithEvictHook(func(id string, _ *sessions.Session) { hook(id) }))
	}

	return &Store{
		items: cache.NewLRUCache(cfg.MaxSessions, cfg.IdleTTL, cacheOpts...),
		now:   o.now,
	}
}

func (s *Store) Create(_ context.Context) (*sessions.Session, error) {
	sess := sessions.New(s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Set(sess.ID, sess)
	return sess.Snapshot(), nil
}

func (s *Store) Get(_ context.Context, id string) (*sessions.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.touch(id)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// AppendExpense appends to the session's ledger.
func (s *Store) AppendExpense(_ context.Context, id string, e core.ExpenseEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.touch(id)
	if err != nil {
		return err
	}
	return sess.Ledger.Append(e)
}

func (s *Store) SetBudget(_ context.Context, id string, b core.BudgetSettings) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.touch(id)
	if err != nil {
		return err
	}
	sess.Budget = b
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Delete(id)
	return nil
}

// Sweep drops expired sessions and those idle since before idleBefore.
func (s *Store) Sweep(_ context.Context, idleBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.items.CleanExpired()
	n += s.items.DeleteFunc(func(_ string, sess *sessions.Session) bool {
		return sess.LastSeen.Before(idleBefore)
	})
	return n, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	return s.items.Size(), nil
}

func (s *Store) Close() error {
	return nil
}

// touch looks a session up and restarts its idle timer. Callers hold s.mu.
func (s *Store) touch(id string) (*sessions.Session, error) {
	sess, ok := s.items.Get(id)
	if !ok {
		return nil, sessions.ErrSessionNotFound
	}
	sess.LastSeen = s.now()
	s.items.Set(id, sess)
	return sess, nil
}

var _ sessions.Store = (*Store)(nil)
