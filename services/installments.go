package services

import (
	"fmt"
	"time"

	"financeiro/backend/models"
)

const dateLayout = "2006-01-02"

// MonthKey returns the YYYY-MM ledger key for a YYYY-MM-DD date string.
func MonthKey(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}

// ExpandInstallments generates the remaining installments of a purchase:
// one card expense per calendar month starting at the purchase date, from
// CurrentInstallment through TotalInstallments. Every record carries the
// per-installment value, a shared installment id and a " (k/n)" description
// suffix. Day-of-month overflow follows time.AddDate rollover. Degenerate
// counts yield an empty expansion.
func ExpandInstallments(purchase models.InstallmentPurchase) []models.CardExpense {
	if purchase.CurrentInstallment <= 0 || purchase.TotalInstallments <= 0 ||
		purchase.TotalInstallments < purchase.CurrentInstallment {
		return nil
	}

	start, err := time.Parse(dateLayout, purchase.StartDate)
	if err != nil {
		return nil
	}

	installmentID := GenerateID()
	var expenses []models.CardExpense
	for k := purchase.CurrentInstallment; k <= purchase.TotalInstallments; k++ {
		date := start.AddDate(0, k-purchase.CurrentInstallment, 0)
		expenses = append(expenses, models.CardExpense{
			ID:                GenerateID(),
			CardID:            purchase.CardID,
			Date:              date.Format(dateLayout),
			Description:       fmt.Sprintf("%s (%d/%d)", purchase.Description, k, purchase.TotalInstallments),
			Value:             purchase.Value,
			Category:          purchase.Category,
			Type:              purchase.Type,
			IsInstallment:     true,
			InstallmentID:     installmentID,
			TotalInstallments: purchase.TotalInstallments,
		})
	}
	return expenses
}

// CollapseInstallments removes every card expense sharing installmentID and
// reports which distinct months lost at least one record, so the caller
// knows which monthly ledger mirrors to purge. Editing an installment group
// is collapse followed by a fresh expansion.
func CollapseInstallments(allExpenses []models.CardExpense, installmentID string) (remaining []models.CardExpense, removedMonths []string) {
	seen := make(map[string]bool)
	for _, exp := range allExpenses {
		if exp.InstallmentID == installmentID && installmentID != "" {
			month := MonthKey(exp.Date)
			if !seen[month] {
				seen[month] = true
				removedMonths = append(removedMonths, month)
			}
			continue
		}
		remaining = append(remaining, exp)
	}
	return remaining, removedMonths
}

// MirrorItem builds the monthly ledger line that mirrors a card expense into
// the bucket selected by its type.
func MirrorItem(expense models.CardExpense) models.MonthlyItem {
	return models.MonthlyItem{
		ID:            GenerateID(),
		Name:          expense.Description,
		Value:         expense.Value,
		Category:      expense.Category,
		CardExpenseID: expense.ID,
	}
}
