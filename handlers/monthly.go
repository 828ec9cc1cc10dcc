package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"financeiro/backend/database"
	"financeiro/backend/models"
	"financeiro/backend/services"

	"github.com/gorilla/mux"
)

// bucketIncomes is the pseudo-bucket holding a month's income lines next to
// the four expense buckets.
const bucketIncomes = "incomes"

func validItemBucket(bucket string) bool {
	return bucket == bucketIncomes || models.ValidBucket(bucket)
}

// loadMonthlyData reads one month's full ledger document.
func loadMonthlyData(userID, month string) (models.MonthlyData, error) {
	data := models.MonthlyData{
		Month:    month,
		Incomes:  []models.MonthlyItem{},
		Expenses: make(map[string][]models.MonthlyItem),
	}
	for _, bucket := range models.ExpenseBuckets {
		data.Expenses[bucket] = []models.MonthlyItem{}
	}

	rows, err := database.DB.Query(`
		SELECT id, bucket, name, value, category, card_expense_id
		FROM monthly_items
		WHERE user_id = ? AND month = ?
		ORDER BY rowid
	`, userID, month)
	if err != nil {
		return data, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.MonthlyItem
		var bucket string
		var category, cardExpenseID sql.NullString
		if err := rows.Scan(&item.ID, &bucket, &item.Name, &item.Value, &category, &cardExpenseID); err != nil {
			return data, err
		}
		if category.Valid {
			item.Category = category.String
		}
		if cardExpenseID.Valid {
			item.CardExpenseID = cardExpenseID.String
		}
		if bucket == bucketIncomes {
			data.Incomes = append(data.Incomes, item)
		} else {
			data.Expenses[bucket] = append(data.Expenses[bucket], item)
		}
	}

	return data, rows.Err()
}

// pushMonth mirrors one month document to Firestore, best effort.
func pushMonth(r *http.Request, userID, month string) {
	if !mirror.Enabled() {
		return
	}
	data, err := loadMonthlyData(userID, month)
	if err != nil {
		log.Printf("Warning: failed to load month %s for mirroring: %v", month, err)
		return
	}
	if err := mirror.SaveMonthlyData(r.Context(), userID, data); err != nil {
		log.Printf("Warning: failed to mirror month %s: %v", month, err)
	}
}

func GetMonthlyData(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	month := mux.Vars(r)["month"]

	data, err := loadMonthlyData(userID, month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func AddMonthlyItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	month := vars["month"]
	bucket := vars["bucket"]

	// Reject malformed keys like 2024-3 that no month view would read back.
	if !yearMonthPattern.MatchString(month) {
		http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
		return
	}
	if !validItemBucket(bucket) {
		http.Error(w, "invalid bucket: "+bucket, http.StatusBadRequest)
		return
	}

	var item models.MonthlyItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if item.Name == "" || item.Value < 0 {
		http.Error(w, "name and a non-negative value are required", http.StatusBadRequest)
		return
	}
	if item.Category != "" && !models.ValidCategory(item.Category) {
		http.Error(w, "invalid category: "+item.Category, http.StatusBadRequest)
		return
	}

	if item.ID == "" {
		item.ID = generateID()
	}
	// Manual entries never carry a mirror link.
	item.CardExpenseID = ""

	_, err := database.DB.Exec(`
		INSERT INTO monthly_items (id, user_id, month, bucket, name, value, category)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.ID, userID, month, bucket, item.Name, item.Value, item.Category)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushMonth(r, userID, month)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func UpdateMonthlyItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	month := vars["month"]
	bucket := vars["bucket"]
	id := vars["id"]

	if !validItemBucket(bucket) {
		http.Error(w, "invalid bucket: "+bucket, http.StatusBadRequest)
		return
	}

	var item models.MonthlyItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if item.Name == "" || item.Value < 0 {
		http.Error(w, "name and a non-negative value are required", http.StatusBadRequest)
		return
	}
	if item.Category != "" && !models.ValidCategory(item.Category) {
		http.Error(w, "invalid category: "+item.Category, http.StatusBadRequest)
		return
	}

	// Full-record replacement, never a partial patch.
	result, err := database.DB.Exec(`
		UPDATE monthly_items
		SET name = ?, value = ?, category = ?
		WHERE id = ? AND user_id = ? AND month = ? AND bucket = ?
	`, item.Name, item.Value, item.Category, id, userID, month, bucket)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	pushMonth(r, userID, month)
	w.WriteHeader(http.StatusOK)
}

func DeleteMonthlyItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	month := vars["month"]
	id := vars["id"]

	if !confirmDelete(w, r, "monthlyItem", id) {
		return
	}

	_, err := database.DB.Exec(`
		DELETE FROM monthly_items WHERE id = ? AND user_id = ? AND month = ?
	`, id, userID, month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushMonth(r, userID, month)
	w.WriteHeader(http.StatusOK)
}

// CopyFixedExpenses copies the previous month's fixed expenses into the
// given month, skipping names that already exist.
func CopyFixedExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	month := mux.Vars(r)["month"]
	previousMonth := services.PreviousMonth(month)

	current, err := loadMonthlyData(userID, month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	previous, err := loadMonthlyData(userID, previousMonth)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	copied := services.CopyFixedExpenses(previous.Expenses[models.BucketFixed], current.Expenses[models.BucketFixed])
	if len(copied) == 0 {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.MonthlyItem{})
		return
	}

	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, item := range copied {
		_, err = tx.Exec(`
			INSERT INTO monthly_items (id, user_id, month, bucket, name, value, category)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, item.ID, userID, month, models.BucketFixed, item.Name, item.Value, item.Category)
		if err != nil {
			tx.Rollback()
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushMonth(r, userID, month)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(copied)
}

// GetMonthlySummary returns the derived totals for a month, with the
// previous month's totals for comparison.
func GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	month := mux.Vars(r)["month"]

	data, err := loadMonthlyData(userID, month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	previous, err := loadMonthlyData(userID, services.PreviousMonth(month))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := struct {
		Current  models.MonthlySummary `json:"current"`
		Previous models.MonthlySummary `json:"previous"`
	}{
		Current:  services.SummarizeMonth(data),
		Previous: services.SummarizeMonth(previous),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
