package core

// BudgetSettings holds the two externally supplied scalars used for the
// budget comparison. They are never stored inside a Ledger.
type BudgetSettings struct {
	MonthlyIncome Money
	SavingsGoal   Money
}

func (b BudgetSettings) Validate() error {
	if b.MonthlyIncome.Cents < 0 || b.SavingsGoal.Cents < 0 {
		return ErrNegativeBudget
	}
	return nil
}

// RemainingBudget is income minus savings goal. It is not clamped and may be negative.
func (b BudgetSettings) RemainingBudget() Money {
	return b.MonthlyIncome.Sub(b.SavingsGoal)
}

// Evaluate compares the ledger's total spend with the remaining budget.
func Evaluate(l *Ledger, b BudgetSettings) BudgetStatus {
	total := l.TotalSpend()
	remaining := b.RemainingBudget()
	return BudgetStatus{
		Total:      total,
		Remaining:  remaining,
		OverBudget: total.Cents > remaining.Cents,
	}
}
