// Package core holds the expense domain: categories, dates and cent-based
// money, the append-only Ledger with its totals, and the budget comparison.
package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Bills         Category = "Bills"
	Other         Category = "Other"
)

const dateLayout = "2006-01-02"

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// ExpenseEntry is one recorded expense.
	ExpenseEntry struct {
		Date        Date
		Category    Category
		Description string // may be empty
		Amount      Money
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDescription = errors.New("description must be a single line")
	ErrNegativeBudget     = errors.New("budget values must not be negative")
)

// Categories returns the fixed category set in form order.
func Categories() []Category {
	return []Category{Food, Transport, Entertainment, Bills, Other}
}

// ParseCategory maps a form value to one of the fixed categories.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case Food, Transport, Entertainment, Bills, Other:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the calendar date of now, as seen in now's location.
func Today(now time.Time) Date {
	y, m, d := now.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the ledger invariants. An empty description and a zero
// amount are both accepted; a description holding CR or LF is not, since
// it could not be read back from the CSV export unchanged.
func (e ExpenseEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if strings.ContainsAny(e.Description, "\r\n") {
		return ErrInvalidDescription
	}
	return e.Amount.Validate()
}
