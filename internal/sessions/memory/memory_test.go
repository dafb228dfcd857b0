package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseadvisor/internal/core"
	"expenseadvisor/internal/sessions"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(max int, ttl time.Duration) (*Store, *clock) {
	clk := &clock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	return New(Config{MaxSessions: max, IdleTTL: ttl}, WithClock(clk.Now)), clk
}

func TestStore_AppendAndGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(10, time.Hour)

	sess, err := s.Create(ctx)
	require.NoError(t, err)
	assert.True(t, sessions.ValidID(sess.ID))

	e := core.ExpenseEntry{Date: core.NewDate(2025, 3, 14), Category: core.Food, Description: "Lunch", Amount: core.Money{Cents: 25000}}
	require.NoError(t, s.AppendExpense(ctx, sess.ID, e))
	require.NoError(t, s.SetBudget(ctx, sess.ID, core.BudgetSettings{MonthlyIncome: core.Money{Cents: 100000}}))

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.ExpenseEntry{e}, got.Ledger.Entries())
	assert.Equal(t, int64(100000), got.Budget.MonthlyIncome.Cents)
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(10, time.Hour)
	sess, err := s.Create(ctx)
	require.NoError(t, err)

	snap, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NoError(t, snap.Ledger.Append(core.ExpenseEntry{Date: core.NewDate(2025, 1, 1), Category: core.Other}))

	fresh, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Ledger.Len())
}

func TestStore_SessionsDoNotShareLedgers(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(10, time.Hour)
	a, _ := s.Create(ctx)
	b, _ := s.Create(ctx)

	require.NoError(t, s.AppendExpense(ctx, a.ID, core.ExpenseEntry{Date: core.NewDate(2025, 1, 1), Category: core.Bills, Amount: core.Money{Cents: 500}}))

	gotB, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, gotB.Ledger.Len())
}

func TestStore_UnknownSession(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(10, time.Hour)

	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
	assert.ErrorIs(t, s.AppendExpense(ctx, "nope", core.ExpenseEntry{}), sessions.ErrSessionNotFound)
	assert.ErrorIs(t, s.SetBudget(ctx, "nope", core.BudgetSettings{}), sessions.ErrSessionNotFound)
}

func TestStore_RejectsNegativeBudget(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(10, time.Hour)
	sess, _ := s.Create(ctx)

	err := s.SetBudget(ctx, sess.ID, core.BudgetSettings{SavingsGoal: core.Money{Cents: -1}})
	assert.ErrorIs(t, err, core.ErrNegativeBudget)
}

func TestStore_IdleExpiry(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(10, 30*time.Minute)
	sess, _ := s.Create(ctx)

	clk.Advance(20 * time.Minute)
	_, err := s.Get(ctx, sess.ID)
	require.NoError(t, err, "use within the ttl keeps the session alive")

	clk.Advance(20 * time.Minute)
	_, err = s.Get(ctx, sess.ID)
	require.NoError(t, err, "ttl slides on every access")

	clk.Advance(31 * time.Minute)
	_, err = s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestStore_Sweep(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(10, time.Hour)
	old, _ := s.Create(ctx)
	clk.Advance(10 * time.Minute)
	recent, _ := s.Create(ctx)

	n, err := s.Sweep(ctx, clk.Now().Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Get(ctx, old.ID)
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
	_, err = s.Get(ctx, recent.ID)
	assert.NoError(t, err)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_CapacityEvictsLeastRecent(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	var evicted []string
	s := New(Config{MaxSessions: 2, IdleTTL: time.Hour},
		WithClock(clk.Now),
		WithEvictHook(func(id string) { evicted = append(evicted, id) }))

	a, _ := s.Create(ctx)
	b, _ := s.Create(ctx)
	_, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	_, _ = s.Create(ctx)

	assert.Equal(t, []string{b.ID}, evicted)
	_, err = s.Get(ctx, a.ID)
	assert.NoError(t, err)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(10, time.Hour)
	sess, _ := s.Create(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AppendExpense(ctx, sess.ID, core.ExpenseEntry{Date: core.NewDate(2025, 1, 1), Category: core.Food, Amount: core.Money{Cents: 100}})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Ledger.Len())
	assert.Equal(t, int64(5000), got.Ledger.TotalSpend().Cents)
}
