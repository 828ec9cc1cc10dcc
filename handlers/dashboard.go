package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"financeiro/backend/database"
	"financeiro/backend/models"
	"financeiro/backend/services"
)

// GetDashboardSummary aggregates the current month's ledger, total card
// debt and investment progress into one payload.
func GetDashboardSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	data, err := loadMonthlyData(userID, month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	monthly := services.SummarizeMonth(data)

	var totalCardDebt float64
	err = database.DB.QueryRow(`
		SELECT COALESCE(SUM(value), 0) FROM card_expenses WHERE user_id = ?
	`, userID).Scan(&totalCardDebt)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	history, err := loadInvestmentHistory(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	investmentTotal := services.CurrentTotal(history)

	summary := models.DashboardSummary{
		Month:              month,
		TotalIncomes:       monthly.TotalIncomes,
		TotalExpenses:      monthly.TotalExpenses,
		Balance:            monthly.Balance,
		TotalCardDebt:      totalCardDebt,
		InvestmentTotal:    investmentTotal,
		InvestmentProgress: services.InvestmentProgress(investmentTotal),
		ExpenseBreakdown:   monthly.Breakdown,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
