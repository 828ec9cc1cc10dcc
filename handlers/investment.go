package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"time"

	"financeiro/backend/database"
	"financeiro/backend/models"
	"financeiro/backend/services"

	"github.com/gorilla/mux"
)

var yearMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

func loadInvestmentHistory(userID string) ([]models.ContributionEntry, error) {
	rows, err := database.DB.Query(`
		SELECT id, year_month, contribution, interest_earned, total
		FROM investment_entries
		WHERE user_id = ?
		ORDER BY year_month
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []models.ContributionEntry{}
	for rows.Next() {
		var e models.ContributionEntry
		if err := rows.Scan(&e.ID, &e.YearMonth, &e.Contribution, &e.InterestEarned, &e.Total); err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

// replaceInvestmentHistory rewrites the whole history in one transaction.
// Interest compounds over the full prefix, so every change is a full
// rewrite of the recalculated history.
func replaceInvestmentHistory(userID string, history []models.ContributionEntry) error {
	tx, err := database.DB.Begin()
	if err != nil {
		return err
	}
	_, err = tx.Exec("DELETE FROM investment_entries WHERE user_id = ?", userID)
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, e := range history {
		_, err = tx.Exec(`
			INSERT INTO investment_entries (id, user_id, year_month, contribution, interest_earned, total)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.ID, userID, e.YearMonth, e.Contribution, e.InterestEarned, e.Total)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func pushInvestments(r *http.Request, userID string, history []models.ContributionEntry) {
	if !mirror.Enabled() {
		return
	}
	if err := mirror.SaveInvestmentHistory(r.Context(), userID, history); err != nil {
		log.Printf("Warning: failed to mirror investment history: %v", err)
	}
}

func GetInvestmentHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	history, err := loadInvestmentHistory(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

// AddContribution appends a contribution and recomputes the whole history.
func AddContribution(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var entry models.ContributionEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if entry.Contribution <= 0 {
		http.Error(w, "contribution must be positive", http.StatusBadRequest)
		return
	}
	if !yearMonthPattern.MatchString(entry.YearMonth) {
		http.Error(w, "yearMonth must be YYYY-MM", http.StatusBadRequest)
		return
	}
	if entry.ID == "" {
		entry.ID = generateID()
	}
	// Derived fields are never accepted from the client.
	entry.InterestEarned = 0
	entry.Total = 0

	history, err := loadInvestmentHistory(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	recalculated := services.RecalculateHistory(append(history, entry))
	if err := replaceInvestmentHistory(userID, recalculated); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushInvestments(r, userID, recalculated)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recalculated)
}

// UpdateContribution replaces one entry's month and amount, then recomputes.
func UpdateContribution(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var entry models.ContributionEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if entry.Contribution <= 0 {
		http.Error(w, "contribution must be positive", http.StatusBadRequest)
		return
	}
	if !yearMonthPattern.MatchString(entry.YearMonth) {
		http.Error(w, "yearMonth must be YYYY-MM", http.StatusBadRequest)
		return
	}

	history, err := loadInvestmentHistory(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	found := false
	for i := range history {
		if history[i].ID == id {
			history[i].YearMonth = entry.YearMonth
			history[i].Contribution = entry.Contribution
			found = true
		}
	}
	if !found {
		http.Error(w, "contribution not found", http.StatusNotFound)
		return
	}

	recalculated := services.RecalculateHistory(history)
	if err := replaceInvestmentHistory(userID, recalculated); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushInvestments(r, userID, recalculated)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recalculated)
}

// DeleteContribution removes one entry and recomputes the rest.
func DeleteContribution(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	if !confirmDelete(w, r, "contribution", id) {
		return
	}

	history, err := loadInvestmentHistory(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	remaining := history[:0:0]
	for _, e := range history {
		if e.ID != id {
			remaining = append(remaining, e)
		}
	}

	recalculated := services.RecalculateHistory(remaining)
	if err := replaceInvestmentHistory(userID, recalculated); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushInvestments(r, userID, recalculated)
	w.WriteHeader(http.StatusOK)
}

// GetInvestmentProjection returns the current total, the goal progress and
// the monthly contribution still needed to hit the goal within the horizon.
func GetInvestmentProjection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	history, err := loadInvestmentHistory(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	currentTotal := services.CurrentTotal(history)
	projection := models.InvestmentProjection{
		CurrentTotal:         currentTotal,
		Progress:             services.InvestmentProgress(currentTotal),
		RequiredContribution: services.RequiredMonthlyContribution(history, currentTotal, time.Now()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projection)
}
