package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"financeiro/backend/database"
	"financeiro/backend/models"
	"financeiro/backend/services"

	"github.com/gorilla/mux"
)

func TestAddMonthlyItem(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	reqBody := models.MonthlyItem{
		Name:     "Aluguel",
		Value:    1500,
		Category: "Housing",
	}
	req := NewAuthenticatedRequest("POST", "/monthly/2024-03/fixed", reqBody)
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03", "bucket": "fixed"})
	w := httptest.NewRecorder()

	AddMonthlyItem(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var response models.MonthlyItem
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if response.ID == "" {
		t.Error("Expected a generated id")
	}

	var count int
	err := database.DB.QueryRow(`
		SELECT COUNT(*) FROM monthly_items WHERE user_id = ? AND month = ? AND bucket = ? AND name = ?
	`, TestUserID, "2024-03", "fixed", "Aluguel").Scan(&count)
	if err != nil {
		t.Fatalf("Error checking item: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 item, got %d", count)
	}
}

func TestAddMonthlyItemInvalidBucket(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	req := NewAuthenticatedRequest("POST", "/monthly/2024-03/luxuries", models.MonthlyItem{Name: "X", Value: 1})
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03", "bucket": "luxuries"})
	w := httptest.NewRecorder()

	AddMonthlyItem(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestAddMonthlyItemInvalidMonth(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	for _, month := range []string{"2024-3", "202403", "March 2024", "2024-13x"} {
		reqBody := models.MonthlyItem{Name: "Aluguel", Value: 1500}
		req := NewAuthenticatedRequest("POST", "/monthly/"+url.PathEscape(month)+"/fixed", reqBody)
		req = mux.SetURLVars(req, map[string]string{"month": month, "bucket": "fixed"})
		w := httptest.NewRecorder()

		AddMonthlyItem(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected month %q rejected with %d, got %d", month, http.StatusBadRequest, w.Code)
		}
	}

	var count int
	database.DB.QueryRow("SELECT COUNT(*) FROM monthly_items WHERE user_id = ?", TestUserID).Scan(&count)
	if count != 0 {
		t.Errorf("Expected nothing filed under malformed month keys, got %d rows", count)
	}
}

func TestAddMonthlyItemInvalidCategory(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	reqBody := models.MonthlyItem{Name: "Mercado", Value: 100, Category: "Groceries"}
	req := NewAuthenticatedRequest("POST", "/monthly/2024-03/variable", reqBody)
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03", "bucket": "variable"})
	w := httptest.NewRecorder()

	AddMonthlyItem(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestGetMonthlyDataGroupsBuckets(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	items := []struct {
		bucket string
		name   string
		value  float64
	}{
		{"incomes", "Salário", 5000},
		{"fixed", "Aluguel", 1500},
		{"variable", "Mercado", 600},
	}
	for _, it := range items {
		_, err := database.DB.Exec(`
			INSERT INTO monthly_items (id, user_id, month, bucket, name, value, category)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, services.GenerateID(), TestUserID, "2024-03", it.bucket, it.name, it.value, "Other")
		if err != nil {
			t.Fatal(err)
		}
	}

	req := NewAuthenticatedRequest("GET", "/monthly/2024-03", nil)
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03"})
	w := httptest.NewRecorder()

	GetMonthlyData(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}

	var data models.MonthlyData
	if err := json.NewDecoder(w.Body).Decode(&data); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if len(data.Incomes) != 1 || data.Incomes[0].Name != "Salário" {
		t.Errorf("Expected 1 income, got %+v", data.Incomes)
	}
	if len(data.Expenses["fixed"]) != 1 {
		t.Errorf("Expected 1 fixed expense, got %d", len(data.Expenses["fixed"]))
	}
	if len(data.Expenses["superfluous"]) != 0 {
		t.Errorf("Expected empty superfluous bucket, got %d", len(data.Expenses["superfluous"]))
	}
}

func TestUpdateMonthlyItemNotFound(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	reqBody := models.MonthlyItem{Name: "Aluguel", Value: 1600}
	req := NewAuthenticatedRequest("PUT", "/monthly/2024-03/fixed/missing", reqBody)
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03", "bucket": "fixed", "id": "missing"})
	w := httptest.NewRecorder()

	UpdateMonthlyItem(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestDeleteMonthlyItemTwoPhase(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	_, err := database.DB.Exec(`
		INSERT INTO monthly_items (id, user_id, month, bucket, name, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`, "item-1", TestUserID, "2024-03", "fixed", "Aluguel", 1500)
	if err != nil {
		t.Fatal(err)
	}

	// First request: no token, delete must not run yet.
	req := NewAuthenticatedRequest("DELETE", "/monthly/2024-03/fixed/item-1", nil)
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03", "bucket": "fixed", "id": "item-1"})
	w := httptest.NewRecorder()

	DeleteMonthlyItem(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status code %d, got %d", http.StatusAccepted, w.Code)
	}
	var confirmation services.PendingConfirmation
	if err := json.NewDecoder(w.Body).Decode(&confirmation); err != nil {
		t.Fatalf("Error decoding confirmation: %v", err)
	}

	var count int
	database.DB.QueryRow("SELECT COUNT(*) FROM monthly_items WHERE id = 'item-1'").Scan(&count)
	if count != 1 {
		t.Fatal("Item deleted before confirmation")
	}

	// Second request: echo the token back.
	req = NewAuthenticatedRequest("DELETE", "/monthly/2024-03/fixed/item-1?confirm="+confirmation.Token, nil)
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03", "bucket": "fixed", "id": "item-1"})
	w = httptest.NewRecorder()

	DeleteMonthlyItem(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}
	database.DB.QueryRow("SELECT COUNT(*) FROM monthly_items WHERE id = 'item-1'").Scan(&count)
	if count != 0 {
		t.Error("Expected item deleted after confirmation")
	}
}

func TestDeleteMonthlyItemWrongToken(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	req := NewAuthenticatedRequest("DELETE", "/monthly/2024-03/fixed/item-1?confirm=bogus", nil)
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03", "bucket": "fixed", "id": "item-1"})
	w := httptest.NewRecorder()

	DeleteMonthlyItem(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestCopyFixedExpenses(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	for _, it := range []struct {
		month string
		name  string
		value float64
	}{
		{"2024-02", "Aluguel", 1500},
		{"2024-02", "Internet", 100},
		{"2024-03", "Aluguel", 1600},
	} {
		_, err := database.DB.Exec(`
			INSERT INTO monthly_items (id, user_id, month, bucket, name, value, category)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, services.GenerateID(), TestUserID, it.month, "fixed", it.name, it.value, "Housing")
		if err != nil {
			t.Fatal(err)
		}
	}

	req := NewAuthenticatedRequest("POST", "/monthly/2024-03/copy-fixed", nil)
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03"})
	w := httptest.NewRecorder()

	CopyFixedExpenses(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var copied []models.MonthlyItem
	if err := json.NewDecoder(w.Body).Decode(&copied); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if len(copied) != 1 || copied[0].Name != "Internet" {
		t.Fatalf("Expected only Internet copied, got %+v", copied)
	}

	var count int
	database.DB.QueryRow(`
		SELECT COUNT(*) FROM monthly_items WHERE user_id = ? AND month = '2024-03' AND bucket = 'fixed'
	`, TestUserID).Scan(&count)
	if count != 2 {
		t.Errorf("Expected 2 fixed items in 2024-03, got %d", count)
	}
}

func TestGetMonthlySummary(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	for _, it := range []struct {
		month  string
		bucket string
		value  float64
	}{
		{"2024-03", "incomes", 5000},
		{"2024-03", "fixed", 1500},
		{"2024-02", "incomes", 4800},
	} {
		_, err := database.DB.Exec(`
			INSERT INTO monthly_items (id, user_id, month, bucket, name, value)
			VALUES (?, ?, ?, ?, ?, ?)
		`, services.GenerateID(), TestUserID, it.month, it.bucket, "Item", it.value)
		if err != nil {
			t.Fatal(err)
		}
	}

	req := NewAuthenticatedRequest("GET", "/monthly/2024-03/summary", nil)
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03"})
	w := httptest.NewRecorder()

	GetMonthlySummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}

	var response struct {
		Current  models.MonthlySummary `json:"current"`
		Previous models.MonthlySummary `json:"previous"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if response.Current.Balance != 3500 {
		t.Errorf("Expected current balance 3500, got %f", response.Current.Balance)
	}
	if response.Previous.TotalIncomes != 4800 {
		t.Errorf("Expected previous incomes 4800, got %f", response.Previous.TotalIncomes)
	}
}

func TestMonthlyEndpointsRequireUser(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	req := httptest.NewRequest("GET", "/monthly/2024-03", nil)
	req = mux.SetURLVars(req, map[string]string{"month": "2024-03"})
	w := httptest.NewRecorder()

	GetMonthlyData(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, w.Code)
	}
}
