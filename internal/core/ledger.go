package core

import (
	"fmt"
	"sort"
)

// Ledger is the ordered, append-only collection of expenses for one session.
// Duplicate entries are allowed. A Ledger is not safe for concurrent use; the
// session store serializes access to it.
type Ledger struct {
	entries []ExpenseEntry
	total   Money
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// NewLedgerFrom rebuilds a ledger from stored entries, preserving their order.
func NewLedgerFrom(entries []ExpenseEntry) (*Ledger, error) {
	l := &Ledger{entries: make([]ExpenseEntry, 0, len(entries))}
	for i, e := range entries {
		if err := l.Append(e); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return l, nil
}

// Append adds e at the end of the ledger. It is the only mutation path.
// An entry that would push the total past the int64 range is refused with
// ErrInvalidAmount and the ledger is left unchanged.
func (l *Ledger) Append(e ExpenseEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	total, err := l.total.CheckedAdd(e.Amount)
	if err != nil {
		return err
	}
	l.entries = append(l.entries, e)
	l.total = total
	return nil
}

// Entries returns a copy of the entries in insertion order.
func (l *Ledger) Entries() []ExpenseEntry {
	out := make([]ExpenseEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{entries: l.Entries(), total: l.total}
}

// TotalSpend is the sum of every amount; an empty ledger totals zero.
func (l *Ledger) TotalSpend() Money {
	return l.total
}

// TotalsByCategory sums amounts per category. Only categories with at least
// one entry are present, ordered by category name.
func (l *Ledger) TotalsByCategory() []CategoryAmount {
	sums := make(map[Category]Money)
	for _, e := range l.entries {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}
	out := make([]CategoryAmount, 0, len(sums))
	for c, m := range sums {
		out = append(out, CategoryAmount{Category: c, Amount: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// TotalsByDate sums amounts per calendar date, oldest date first.
func (l *Ledger) TotalsByDate() []DateAmount {
	sums := make(map[string]*DateAmount)
	for _, e := range l.entries {
		key := e.Date.String()
		da, ok := sums[key]
		if !ok {
			da = &DateAmount{Date: e.Date}
			sums[key] = da
		}
		da.Amount = da.Amount.Add(e.Amount)
	}
	out := make([]DateAmount, 0, len(sums))
	for _, da := range sums {
		out = append(out, *da)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.String() < out[j].Date.String() })
	return out
}
