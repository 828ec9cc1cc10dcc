package models

// MonthlyItem is a single line in a month's ledger: an income entry or an
// expense entry inside one of the four buckets. Card-mirrored expenses carry
// the id of the card expense they mirror.
type MonthlyItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	Category      string  `json:"category,omitempty"`
	CardExpenseID string  `json:"cardExpenseId,omitempty"`
}

// MonthlyData is the full ledger document for one calendar month, the same
// shape the frontend reads: an incomes list plus the four expense buckets.
type MonthlyData struct {
	Month    string                   `json:"month"`
	Incomes  []MonthlyItem            `json:"incomes"`
	Expenses map[string][]MonthlyItem `json:"expenses"`
}

// MonthlySummary holds the derived totals for one month.
type MonthlySummary struct {
	Month         string             `json:"month"`
	TotalIncomes  float64            `json:"totalIncomes"`
	TotalExpenses float64            `json:"totalExpenses"`
	Balance       float64            `json:"balance"`
	Breakdown     map[string]float64 `json:"breakdown"`
}

// DashboardSummary aggregates the current month, card debt and investment
// progress into the single payload the dashboard renders.
type DashboardSummary struct {
	Month              string             `json:"month"`
	TotalIncomes       float64            `json:"totalIncomes"`
	TotalExpenses      float64            `json:"totalExpenses"`
	Balance            float64            `json:"balance"`
	TotalCardDebt      float64            `json:"totalCardDebt"`
	InvestmentTotal    float64            `json:"investmentTotal"`
	InvestmentProgress float64            `json:"investmentProgress"`
	ExpenseBreakdown   map[string]float64 `json:"expenseBreakdown"`
}
