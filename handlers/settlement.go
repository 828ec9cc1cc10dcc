package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"financeiro/backend/database"
	"financeiro/backend/models"
	"financeiro/backend/services"

	"github.com/gorilla/mux"
)

func loadParticipants(userID string) ([]models.Participant, error) {
	rows, err := database.DB.Query(`
		SELECT id, name, credit FROM participants WHERE user_id = ? ORDER BY rowid
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Credit); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func loadGroupExpenses(userID string) ([]models.GroupExpense, error) {
	rows, err := database.DB.Query(`
		SELECT id, description, amount, paid_by_id, participants_ids
		FROM group_expenses WHERE user_id = ? ORDER BY rowid
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.GroupExpense{}
	for rows.Next() {
		var e models.GroupExpense
		var participantsJSON string
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.PaidByID, &participantsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(participantsJSON), &e.ParticipantsIDs); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func pushSettlement(r *http.Request, userID string) {
	if !mirror.Enabled() {
		return
	}
	participants, err := loadParticipants(userID)
	if err != nil {
		log.Printf("Warning: failed to load participants for mirroring: %v", err)
		return
	}
	expenses, err := loadGroupExpenses(userID)
	if err != nil {
		log.Printf("Warning: failed to load group expenses for mirroring: %v", err)
		return
	}
	if err := mirror.SaveSettlementGroup(r.Context(), userID, participants, expenses); err != nil {
		log.Printf("Warning: failed to mirror settlement group: %v", err)
	}
}

func GetParticipants(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	participants, err := loadParticipants(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(participants)
}

func AddParticipant(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var p models.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if p.ID == "" {
		p.ID = generateID()
	}

	_, err := database.DB.Exec(`
		INSERT INTO participants (id, user_id, name, credit) VALUES (?, ?, ?, ?)
	`, p.ID, userID, p.Name, p.Credit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushSettlement(r, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

func UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var p models.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	result, err := database.DB.Exec(`
		UPDATE participants SET name = ?, credit = ? WHERE id = ? AND user_id = ?
	`, p.Name, p.Credit, id, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		http.Error(w, "participant not found", http.StatusNotFound)
		return
	}

	pushSettlement(r, userID)
	w.WriteHeader(http.StatusOK)
}

// DeleteParticipant refuses to remove a participant referenced by any group
// expense, either as payer or as a split member.
func DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	expenses, err := loadGroupExpenses(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, e := range expenses {
		if e.PaidByID == id {
			http.Error(w, "participant has paid expenses and cannot be deleted", http.StatusConflict)
			return
		}
		for _, pid := range e.ParticipantsIDs {
			if pid == id {
				http.Error(w, "participant is involved in expenses and cannot be deleted", http.StatusConflict)
				return
			}
		}
	}

	if !confirmDelete(w, r, "participant", id) {
		return
	}

	_, err = database.DB.Exec("DELETE FROM participants WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushSettlement(r, userID)
	w.WriteHeader(http.StatusOK)
}

// validateGroupExpense checks the payer and every split member exist.
func validateGroupExpense(userID string, e models.GroupExpense) (string, bool) {
	if e.Description == "" || e.Amount <= 0 {
		return "description and a positive amount are required", false
	}
	if len(e.ParticipantsIDs) == 0 {
		return "at least one participant is required", false
	}

	known := make(map[string]bool)
	rows, err := database.DB.Query("SELECT id FROM participants WHERE user_id = ?", userID)
	if err != nil {
		return err.Error(), false
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err.Error(), false
		}
		known[id] = true
	}

	if !known[e.PaidByID] {
		return "unknown payer: " + e.PaidByID, false
	}
	for _, pid := range e.ParticipantsIDs {
		if !known[pid] {
			return "unknown participant: " + pid, false
		}
	}
	return "", true
}

func GetGroupExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	expenses, err := loadGroupExpenses(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(expenses)
}

func AddGroupExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var e models.GroupExpense
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg, valid := validateGroupExpense(userID, e); !valid {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if e.ID == "" {
		e.ID = generateID()
	}

	participantsJSON, err := json.Marshal(e.ParticipantsIDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_, err = database.DB.Exec(`
		INSERT INTO group_expenses (id, user_id, description, amount, paid_by_id, participants_ids)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, userID, e.Description, e.Amount, e.PaidByID, string(participantsJSON))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushSettlement(r, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(e)
}

func UpdateGroupExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var e models.GroupExpense
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg, valid := validateGroupExpense(userID, e); !valid {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	participantsJSON, err := json.Marshal(e.ParticipantsIDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := database.DB.Exec(`
		UPDATE group_expenses
		SET description = ?, amount = ?, paid_by_id = ?, participants_ids = ?
		WHERE id = ? AND user_id = ?
	`, e.Description, e.Amount, e.PaidByID, string(participantsJSON), id, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}

	pushSettlement(r, userID)
	w.WriteHeader(http.StatusOK)
}

func DeleteGroupExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	if !confirmDelete(w, r, "groupExpense", id) {
		return
	}

	result, err := database.DB.Exec("DELETE FROM group_expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}

	pushSettlement(r, userID)
	w.WriteHeader(http.StatusOK)
}

// GetBalances returns the per-participant reconciliation.
func GetBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	participants, err := loadParticipants(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	expenses, err := loadGroupExpenses(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	balances := services.ComputeBalances(participants, expenses)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balances)
}

// GetSettlement returns the transfer plan that zeroes the group's debts.
func GetSettlement(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	participants, err := loadParticipants(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	expenses, err := loadGroupExpenses(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result := services.ComputeSettlement(participants, expenses)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
