package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"financeiro/backend/database"
	"financeiro/backend/models"

	"github.com/gorilla/mux"
)

func insertTestParticipant(t *testing.T, id, name string, credit float64) {
	t.Helper()
	_, err := database.DB.Exec(`
		INSERT INTO participants (id, user_id, name, credit) VALUES (?, ?, ?, ?)
	`, id, TestUserID, name, credit)
	if err != nil {
		t.Fatal(err)
	}
}

func TestAddParticipant(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	req := NewAuthenticatedRequest("POST", "/participants", models.Participant{Name: "Ana", Credit: 20})
	w := httptest.NewRecorder()

	AddParticipant(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var p models.Participant
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if p.ID == "" || p.Name != "Ana" || p.Credit != 20 {
		t.Errorf("Unexpected participant payload: %+v", p)
	}
}

func TestAddGroupExpenseRejectsUnknownPayer(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()
	insertTestParticipant(t, "p1", "Ana", 0)

	req := NewAuthenticatedRequest("POST", "/group-expenses", models.GroupExpense{
		Description:     "Mercado",
		Amount:          100,
		PaidByID:        "ghost",
		ParticipantsIDs: []string{"p1"},
	})
	w := httptest.NewRecorder()

	AddGroupExpense(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestAddGroupExpenseRejectsUnknownMember(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()
	insertTestParticipant(t, "p1", "Ana", 0)

	req := NewAuthenticatedRequest("POST", "/group-expenses", models.GroupExpense{
		Description:     "Mercado",
		Amount:          100,
		PaidByID:        "p1",
		ParticipantsIDs: []string{"p1", "ghost"},
	})
	w := httptest.NewRecorder()

	AddGroupExpense(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestAddGroupExpenseRoundTrip(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()
	insertTestParticipant(t, "p1", "Ana", 0)
	insertTestParticipant(t, "p2", "Bruno", 0)

	req := NewAuthenticatedRequest("POST", "/group-expenses", models.GroupExpense{
		Description:     "Mercado",
		Amount:          100,
		PaidByID:        "p1",
		ParticipantsIDs: []string{"p1", "p2"},
	})
	w := httptest.NewRecorder()
	AddGroupExpense(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	req = NewAuthenticatedRequest("GET", "/group-expenses", nil)
	w = httptest.NewRecorder()
	GetGroupExpenses(w, req)

	var expenses []models.GroupExpense
	if err := json.NewDecoder(w.Body).Decode(&expenses); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("Expected 1 expense, got %d", len(expenses))
	}
	// The split membership survives the JSON column round trip.
	if len(expenses[0].ParticipantsIDs) != 2 || expenses[0].ParticipantsIDs[0] != "p1" {
		t.Errorf("Unexpected participants list: %v", expenses[0].ParticipantsIDs)
	}
}

func TestDeleteParticipantReferencedByExpense(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()
	insertTestParticipant(t, "p1", "Ana", 0)
	insertTestParticipant(t, "p2", "Bruno", 0)

	req := NewAuthenticatedRequest("POST", "/group-expenses", models.GroupExpense{
		Description:     "Mercado",
		Amount:          100,
		PaidByID:        "p1",
		ParticipantsIDs: []string{"p1", "p2"},
	})
	w := httptest.NewRecorder()
	AddGroupExpense(w, req)
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}

	// Bruno is only a split member, still blocked.
	req = NewAuthenticatedRequest("DELETE", "/participants/p2", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "p2"})
	w = httptest.NewRecorder()
	DeleteParticipant(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestDeleteParticipantUnreferenced(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()
	insertTestParticipant(t, "p1", "Ana", 0)

	req := NewAuthenticatedRequest("DELETE", "/participants/p1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "p1"})
	w := httptest.NewRecorder()
	DeleteParticipant(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status code %d, got %d", http.StatusAccepted, w.Code)
	}
	var confirmation struct {
		Token string `json:"token"`
	}
	json.NewDecoder(w.Body).Decode(&confirmation)

	req = NewAuthenticatedRequest("DELETE", "/participants/p1?confirm="+confirmation.Token, nil)
	req = mux.SetURLVars(req, map[string]string{"id": "p1"})
	w = httptest.NewRecorder()
	DeleteParticipant(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}
	var count int
	database.DB.QueryRow("SELECT COUNT(*) FROM participants WHERE user_id = ?", TestUserID).Scan(&count)
	if count != 0 {
		t.Errorf("Expected participant removed, got %d", count)
	}
}

func TestGetBalances(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()
	insertTestParticipant(t, "p1", "Ana", 0)
	insertTestParticipant(t, "p2", "Bruno", 0)

	req := NewAuthenticatedRequest("POST", "/group-expenses", models.GroupExpense{
		Description:     "Mercado",
		Amount:          100,
		PaidByID:        "p1",
		ParticipantsIDs: []string{"p1", "p2"},
	})
	w := httptest.NewRecorder()
	AddGroupExpense(w, req)
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}

	req = NewAuthenticatedRequest("GET", "/settlement/balances", nil)
	w = httptest.NewRecorder()
	GetBalances(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}

	var balances map[string]models.ParticipantBalance
	if err := json.NewDecoder(w.Body).Decode(&balances); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if math.Abs(balances["p1"].Balance-50) > 1e-6 {
		t.Errorf("Expected Ana balance 50, got %f", balances["p1"].Balance)
	}
	if math.Abs(balances["p2"].Balance+50) > 1e-6 {
		t.Errorf("Expected Bruno balance -50, got %f", balances["p2"].Balance)
	}
}

func TestGetSettlement(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()
	insertTestParticipant(t, "p1", "Ana", 0)
	insertTestParticipant(t, "p2", "Bruno", 30)
	insertTestParticipant(t, "p3", "Carla", 0)

	for _, e := range []models.GroupExpense{
		{Description: "Mercado", Amount: 90, PaidByID: "p1", ParticipantsIDs: []string{"p1", "p2", "p3"}},
	} {
		req := NewAuthenticatedRequest("POST", "/group-expenses", e)
		w := httptest.NewRecorder()
		AddGroupExpense(w, req)
		if w.Code != http.StatusOK {
			t.Fatal(w.Body.String())
		}
	}

	req := NewAuthenticatedRequest("GET", "/settlement", nil)
	w := httptest.NewRecorder()
	GetSettlement(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}

	var result models.SettlementResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	// Bruno's 30 shortfall is absorbed by his credit; Carla pays Ana.
	if len(result.CreditSettlements) != 1 || result.CreditSettlements[0].Name != "Bruno" {
		t.Errorf("Expected Bruno settled via credit, got %v", result.CreditSettlements)
	}
	if len(result.Transfers) != 1 {
		t.Fatalf("Expected 1 transfer, got %d", len(result.Transfers))
	}
	tr := result.Transfers[0]
	if tr.From != "Carla" || tr.To != "Ana" || math.Abs(tr.Amount-30) > 1e-6 {
		t.Errorf("Expected Carla pays Ana 30, got %+v", tr)
	}
}

func TestGetSettlementEmptyGroup(t *testing.T) {
	setupTestDB()
	defer database.DB.Close()

	req := NewAuthenticatedRequest("GET", "/settlement", nil)
	w := httptest.NewRecorder()
	GetSettlement(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}

	var result models.SettlementResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if len(result.Transfers) != 0 || len(result.CreditSettlements) != 0 {
		t.Errorf("Expected empty settlement, got %+v", result)
	}
}
