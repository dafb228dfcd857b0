package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// DateAmount represents an amount aggregated by calendar date.
type DateAmount struct {
	Date   Date
	Amount Money
}

// BudgetStatus is the derived comparison between a ledger and BudgetSettings.
type BudgetStatus struct {
	Total      Money
	Remaining  Money
	OverBudget bool
}
