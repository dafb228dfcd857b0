// Package export serializes a ledger to the downloadable CSV format.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"expenseadvisor/internal/core"
)

const (
	FileName    = "weekly_expenses.csv"
	ContentType = "text/csv"
)

// Header is the fixed first row of every export.
var Header = []string{"Date", "Category", "Description", "Amount"}

var ErrBadHeader = errors.New("unexpected csv header")

// WriteCSV writes the header and one row per entry, in insertion order.
func WriteCSV(w io.Writer, entries []core.ExpenseEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range entries {
		row := []string{e.Date.String(), e.Category.String(), e.Description, e.Amount.String()}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV back into entries.
func ReadCSV(r io.Reader) ([]core.ExpenseEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range Header {
		if head[i] != Header[i] {
			return nil, fmt.Errorf("%w: %v", ErrBadHeader, head)
		}
	}

	var out []core.ExpenseEntry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		e, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, e)
	}
}

func parseRow(rec []string) (core.ExpenseEntry, error) {
	date, err := core.ParseDate(rec[0])
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	cat, err := core.ParseCategory(rec[1])
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	amount, err := core.ParseAmount(rec[3])
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	e := core.ExpenseEntry{Date: date, Category: cat, Description: rec[2], Amount: amount}
	return e, e.Validate()
}
