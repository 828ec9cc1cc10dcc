package services

import (
	"time"

	"financeiro/backend/models"
)

// SummarizeMonth computes the derived totals for one month's ledger.
func SummarizeMonth(data models.MonthlyData) models.MonthlySummary {
	summary := models.MonthlySummary{
		Month:     data.Month,
		Breakdown: make(map[string]float64, len(models.ExpenseBuckets)),
	}

	for _, item := range data.Incomes {
		summary.TotalIncomes += item.Value
	}
	for _, bucket := range models.ExpenseBuckets {
		var total float64
		for _, item := range data.Expenses[bucket] {
			total += item.Value
		}
		summary.Breakdown[bucket] = total
		summary.TotalExpenses += total
	}

	summary.Balance = summary.TotalIncomes - summary.TotalExpenses
	return summary
}

// CopyFixedExpenses returns fresh copies of the previous month's fixed
// expenses that do not already exist (by name) in the current month. Copies
// get new ids and drop any card mirror link, since they are manual entries
// in the new month.
func CopyFixedExpenses(previousFixed, currentFixed []models.MonthlyItem) []models.MonthlyItem {
	existing := make(map[string]bool, len(currentFixed))
	for _, item := range currentFixed {
		existing[item.Name] = true
	}

	var copied []models.MonthlyItem
	for _, item := range previousFixed {
		if existing[item.Name] {
			continue
		}
		copied = append(copied, models.MonthlyItem{
			ID:       GenerateID(),
			Name:     item.Name,
			Value:    item.Value,
			Category: item.Category,
		})
	}
	return copied
}

// PreviousMonth returns the YYYY-MM key immediately before month.
func PreviousMonth(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return t.AddDate(0, -1, 0).Format("2006-01")
}
