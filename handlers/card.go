package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"financeiro/backend/database"
	"financeiro/backend/models"
	"financeiro/backend/services"

	"github.com/gorilla/mux"
)

// CardWithExpenses is the per-card payload the card control screen renders.
type CardWithExpenses struct {
	models.Card
	Expenses []models.CardExpense `json:"expenses"`
	Total    float64              `json:"total"`
}

func loadCardExpenses(userID, cardID string) ([]models.CardExpense, error) {
	rows, err := database.DB.Query(`
		SELECT id, card_id, date, description, value, category, type,
		       is_installment, installment_id, total_installments
		FROM card_expenses
		WHERE user_id = ? AND card_id = ?
		ORDER BY date DESC
	`, userID, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.CardExpense{}
	for rows.Next() {
		var e models.CardExpense
		var category, installmentID sql.NullString
		var totalInstallments sql.NullInt64
		err := rows.Scan(&e.ID, &e.CardID, &e.Date, &e.Description, &e.Value,
			&category, &e.Type, &e.IsInstallment, &installmentID, &totalInstallments)
		if err != nil {
			return nil, err
		}
		if category.Valid {
			e.Category = category.String
		}
		if installmentID.Valid {
			e.InstallmentID = installmentID.String
		}
		if totalInstallments.Valid {
			e.TotalInstallments = int(totalInstallments.Int64)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// pushCard mirrors a card document plus the given months to Firestore in
// one batch, best effort.
func pushCard(r *http.Request, userID string, card models.Card, months []string) {
	if !mirror.Enabled() {
		return
	}
	expenses, err := loadCardExpenses(userID, card.ID)
	if err != nil {
		log.Printf("Warning: failed to load card %s for mirroring: %v", card.ID, err)
		return
	}
	monthDocs := make([]models.MonthlyData, 0, len(months))
	for _, month := range months {
		data, err := loadMonthlyData(userID, month)
		if err != nil {
			log.Printf("Warning: failed to load month %s for mirroring: %v", month, err)
			return
		}
		monthDocs = append(monthDocs, data)
	}
	if err := mirror.SaveCardAndMonths(r.Context(), userID, card, expenses, monthDocs); err != nil {
		log.Printf("Warning: failed to mirror card %s: %v", card.ID, err)
	}
}

func GetCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rows, err := database.DB.Query("SELECT id, name FROM cards WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	cards := []CardWithExpenses{}
	for rows.Next() {
		var c CardWithExpenses
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for i := range cards {
		expenses, err := loadCardExpenses(userID, cards[i].ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		cards[i].Expenses = expenses
		for _, e := range expenses {
			cards[i].Total += e.Value
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cards)
}

func AddCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var card models.Card
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if card.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if card.ID == "" {
		card.ID = generateID()
	}

	_, err := database.DB.Exec("INSERT INTO cards (id, user_id, name) VALUES (?, ?, ?)",
		card.ID, userID, card.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushCard(r, userID, card, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(card)
}

func UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var card models.Card
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if card.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	card.ID = id

	result, err := database.DB.Exec("UPDATE cards SET name = ? WHERE id = ? AND user_id = ?",
		card.Name, id, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}

	pushCard(r, userID, card, nil)
	w.WriteHeader(http.StatusOK)
}

// DeleteCard removes a card, all of its expenses and every ledger mirror
// they produced, in one transaction.
func DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	if !confirmDelete(w, r, "card", id) {
		return
	}

	expenses, err := loadCardExpenses(userID, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	months := distinctMonths(expenses)

	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, err = tx.Exec(`
		DELETE FROM monthly_items
		WHERE user_id = ? AND card_expense_id IN
			(SELECT id FROM card_expenses WHERE user_id = ? AND card_id = ?)
	`, userID, userID, id)
	if err == nil {
		_, err = tx.Exec("DELETE FROM card_expenses WHERE user_id = ? AND card_id = ?", userID, id)
	}
	if err == nil {
		_, err = tx.Exec("DELETE FROM cards WHERE id = ? AND user_id = ?", id, userID)
	}
	if err != nil {
		tx.Rollback()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if mirror.Enabled() {
		monthDocs := make([]models.MonthlyData, 0, len(months))
		for _, month := range months {
			data, loadErr := loadMonthlyData(userID, month)
			if loadErr != nil {
				log.Printf("Warning: failed to load month %s for mirroring: %v", month, loadErr)
				monthDocs = nil
				break
			}
			monthDocs = append(monthDocs, data)
		}
		if err := mirror.DeleteCard(r.Context(), userID, id, monthDocs); err != nil {
			log.Printf("Warning: failed to mirror card delete %s: %v", id, err)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// cardExpenseRequest is the add-expense payload. With Installments false a
// single charge is recorded; otherwise the purchase is expanded into its
// remaining installments.
type cardExpenseRequest struct {
	Date               string  `json:"date"`
	Description        string  `json:"description"`
	Value              float64 `json:"value"`
	Category           string  `json:"category"`
	Type               string  `json:"type"`
	Installments       bool    `json:"installments"`
	CurrentInstallment int     `json:"currentInstallment"`
	TotalInstallments  int     `json:"totalInstallments"`
}

// AddCardExpense records a card charge and its monthly ledger mirror(s).
// Installment purchases expand into one expense per month; all inserted
// rows, card side and ledger side, commit in a single transaction.
func AddCardExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	cardID := mux.Vars(r)["cardId"]

	var req cardExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Description == "" || req.Value <= 0 {
		http.Error(w, "description and a positive value are required", http.StatusBadRequest)
		return
	}
	if !models.ValidBucket(req.Type) {
		http.Error(w, "invalid expense type: "+req.Type, http.StatusBadRequest)
		return
	}
	if req.Category != "" && !models.ValidCategory(req.Category) {
		http.Error(w, "invalid category: "+req.Category, http.StatusBadRequest)
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		http.Error(w, "invalid date: "+req.Date, http.StatusBadRequest)
		return
	}

	var cardName string
	err := database.DB.QueryRow("SELECT name FROM cards WHERE id = ? AND user_id = ?", cardID, userID).Scan(&cardName)
	if err == sql.ErrNoRows {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var expenses []models.CardExpense
	if req.Installments {
		expenses = services.ExpandInstallments(models.InstallmentPurchase{
			CardID:             cardID,
			Description:        req.Description,
			Value:              req.Value,
			StartDate:          req.Date,
			CurrentInstallment: req.CurrentInstallment,
			TotalInstallments:  req.TotalInstallments,
			Category:           req.Category,
			Type:               req.Type,
		})
		if len(expenses) == 0 {
			http.Error(w, "invalid installment range", http.StatusBadRequest)
			return
		}
	} else {
		expenses = []models.CardExpense{{
			ID:          generateID(),
			CardID:      cardID,
			Date:        req.Date,
			Description: req.Description,
			Value:       req.Value,
			Category:    req.Category,
			Type:        req.Type,
		}}
	}

	if err := insertCardExpenses(userID, expenses); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushCard(r, userID, models.Card{ID: cardID, Name: cardName}, distinctMonths(expenses))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(expenses)
}

// insertCardExpenses writes card expenses and their ledger mirrors together.
func insertCardExpenses(userID string, expenses []models.CardExpense) error {
	tx, err := database.DB.Begin()
	if err != nil {
		return err
	}
	for _, e := range expenses {
		_, err = tx.Exec(`
			INSERT INTO card_expenses
				(id, user_id, card_id, date, description, value, category, type,
				 is_installment, installment_id, total_installments)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, userID, e.CardID, e.Date, e.Description, e.Value, e.Category, e.Type,
			e.IsInstallment, e.InstallmentID, e.TotalInstallments)
		if err != nil {
			tx.Rollback()
			return err
		}

		item := services.MirrorItem(e)
		_, err = tx.Exec(`
			INSERT INTO monthly_items (id, user_id, month, bucket, name, value, category, card_expense_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, item.ID, userID, services.MonthKey(e.Date), e.Type, item.Name, item.Value, item.Category, item.CardExpenseID)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// DeleteCardExpense removes a charge. Deleting any member of an installment
// group removes the whole group; every ledger mirror of the removed rows is
// purged in the same transaction.
func DeleteCardExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	cardID := vars["cardId"]
	id := vars["id"]

	if !confirmDelete(w, r, "cardExpense", id) {
		return
	}

	var cardName, installmentID string
	var isInstallment bool
	var nullInstallmentID sql.NullString
	err := database.DB.QueryRow(`
		SELECT c.name, e.is_installment, e.installment_id
		FROM card_expenses e JOIN cards c ON c.id = e.card_id
		WHERE e.id = ? AND e.user_id = ?
	`, id, userID).Scan(&cardName, &isInstallment, &nullInstallmentID)
	if err == sql.ErrNoRows {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if nullInstallmentID.Valid {
		installmentID = nullInstallmentID.String
	}

	all, err := loadCardExpenses(userID, cardID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var months []string
	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if isInstallment && installmentID != "" {
		_, months = services.CollapseInstallments(all, installmentID)
		_, err = tx.Exec(`
			DELETE FROM monthly_items
			WHERE user_id = ? AND card_expense_id IN
				(SELECT id FROM card_expenses WHERE user_id = ? AND installment_id = ?)
		`, userID, userID, installmentID)
		if err == nil {
			_, err = tx.Exec("DELETE FROM card_expenses WHERE user_id = ? AND installment_id = ?", userID, installmentID)
		}
	} else {
		for _, e := range all {
			if e.ID == id {
				months = []string{services.MonthKey(e.Date)}
			}
		}
		_, err = tx.Exec("DELETE FROM monthly_items WHERE user_id = ? AND card_expense_id = ?", userID, id)
		if err == nil {
			_, err = tx.Exec("DELETE FROM card_expenses WHERE id = ? AND user_id = ?", id, userID)
		}
	}
	if err != nil {
		tx.Rollback()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pushCard(r, userID, models.Card{ID: cardID, Name: cardName}, months)
	w.WriteHeader(http.StatusOK)
}

// UpdateCardExpense edits a charge. For an installment group the edit is
// collapse-then-expand: the old group and its mirrors are dropped and a
// fresh group is generated from the new parameters, re-minting every id.
func UpdateCardExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	cardID := vars["cardId"]
	id := vars["id"]

	var req cardExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Description == "" || req.Value <= 0 {
		http.Error(w, "description and a positive value are required", http.StatusBadRequest)
		return
	}
	if !models.ValidBucket(req.Type) {
		http.Error(w, "invalid expense type: "+req.Type, http.StatusBadRequest)
		return
	}
	if req.Category != "" && !models.ValidCategory(req.Category) {
		http.Error(w, "invalid category: "+req.Category, http.StatusBadRequest)
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		http.Error(w, "invalid date: "+req.Date, http.StatusBadRequest)
		return
	}

	var cardName string
	var isInstallment bool
	var nullInstallmentID sql.NullString
	err := database.DB.QueryRow(`
		SELECT c.name, e.is_installment, e.installment_id
		FROM card_expenses e JOIN cards c ON c.id = e.card_id
		WHERE e.id = ? AND e.user_id = ?
	`, id, userID).Scan(&cardName, &isInstallment, &nullInstallmentID)
	if err == sql.ErrNoRows {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var expenses []models.CardExpense
	if req.Installments {
		expenses = services.ExpandInstallments(models.InstallmentPurchase{
			CardID:             cardID,
			Description:        req.Description,
			Value:              req.Value,
			StartDate:          req.Date,
			CurrentInstallment: req.CurrentInstallment,
			TotalInstallments:  req.TotalInstallments,
			Category:           req.Category,
			Type:               req.Type,
		})
		if len(expenses) == 0 {
			http.Error(w, "invalid installment range", http.StatusBadRequest)
			return
		}
	} else {
		expenses = []models.CardExpense{{
			ID:          generateID(),
			CardID:      cardID,
			Date:        req.Date,
			Description: req.Description,
			Value:       req.Value,
			Category:    req.Category,
			Type:        req.Type,
		}}
	}

	all, err := loadCardExpenses(userID, cardID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var removedMonths []string
	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if isInstallment && nullInstallmentID.Valid {
		installmentID := nullInstallmentID.String
		_, removedMonths = services.CollapseInstallments(all, installmentID)
		_, err = tx.Exec(`
			DELETE FROM monthly_items
			WHERE user_id = ? AND card_expense_id IN
				(SELECT id FROM card_expenses WHERE user_id = ? AND installment_id = ?)
		`, userID, userID, installmentID)
		if err == nil {
			_, err = tx.Exec("DELETE FROM card_expenses WHERE user_id = ? AND installment_id = ?", userID, installmentID)
		}
	} else {
		for _, e := range all {
			if e.ID == id {
				removedMonths = []string{services.MonthKey(e.Date)}
			}
		}
		_, err = tx.Exec("DELETE FROM monthly_items WHERE user_id = ? AND card_expense_id = ?", userID, id)
		if err == nil {
			_, err = tx.Exec("DELETE FROM card_expenses WHERE id = ? AND user_id = ?", id, userID)
		}
	}

	for _, e := range expenses {
		if err != nil {
			break
		}
		_, err = tx.Exec(`
			INSERT INTO card_expenses
				(id, user_id, card_id, date, description, value, category, type,
				 is_installment, installment_id, total_installments)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, userID, e.CardID, e.Date, e.Description, e.Value, e.Category, e.Type,
			e.IsInstallment, e.InstallmentID, e.TotalInstallments)
		if err == nil {
			item := services.MirrorItem(e)
			_, err = tx.Exec(`
				INSERT INTO monthly_items (id, user_id, month, bucket, name, value, category, card_expense_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, item.ID, userID, services.MonthKey(e.Date), e.Type, item.Name, item.Value, item.Category, item.CardExpenseID)
		}
	}
	if err != nil {
		tx.Rollback()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	months := distinctMonths(expenses)
	seen := make(map[string]bool)
	for _, m := range months {
		seen[m] = true
	}
	for _, m := range removedMonths {
		if !seen[m] {
			months = append(months, m)
		}
	}

	pushCard(r, userID, models.Card{ID: cardID, Name: cardName}, months)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(expenses)
}

func distinctMonths(expenses []models.CardExpense) []string {
	seen := make(map[string]bool)
	var months []string
	for _, e := range expenses {
		month := services.MonthKey(e.Date)
		if !seen[month] {
			seen[month] = true
			months = append(months, month)
		}
	}
	return months
}
