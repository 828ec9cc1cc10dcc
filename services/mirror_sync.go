package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"financeiro/backend/database"
	"financeiro/backend/firesync"
	"financeiro/backend/models"
)

// MirrorAllUsers pushes the current month's ledger, the investment history,
// every card document and the settlement group of every known user to the
// Firestore mirror.
func MirrorAllUsers(ctx context.Context, mirror *firesync.Mirror) error {
	if !mirror.Enabled() {
		return nil
	}

	rows, err := database.DB.Query("SELECT id FROM users")
	if err != nil {
		return fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("error scanning user: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	month := time.Now().Format("2006-01")
	for _, userID := range userIDs {
		if err := mirrorUser(ctx, mirror, userID, month); err != nil {
			log.Printf("Warning: mirror sync failed for user %s: %v", userID, err)
		}
	}
	return nil
}

func mirrorUser(ctx context.Context, mirror *firesync.Mirror, userID, month string) error {
	data, err := loadMonth(userID, month)
	if err != nil {
		return err
	}
	if err := mirror.SaveMonthlyData(ctx, userID, data); err != nil {
		return err
	}

	history, err := loadHistory(userID)
	if err != nil {
		return err
	}
	if err := mirror.SaveInvestmentHistory(ctx, userID, history); err != nil {
		return err
	}

	// Months are already pushed above, so each card batch carries only the
	// card document itself.
	cards, err := loadCards(userID)
	if err != nil {
		return err
	}
	for _, card := range cards {
		expenses, err := loadCardExpenses(userID, card.ID)
		if err != nil {
			return err
		}
		if err := mirror.SaveCardAndMonths(ctx, userID, card, expenses, nil); err != nil {
			return err
		}
	}

	participants, err := loadParticipants(userID)
	if err != nil {
		return err
	}
	groupExpenses, err := loadGroupExpenses(userID)
	if err != nil {
		return err
	}
	return mirror.SaveSettlementGroup(ctx, userID, participants, groupExpenses)
}

func loadMonth(userID, month string) (models.MonthlyData, error) {
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
		if bucket == "incomes" {
			data.Incomes = append(data.Incomes, item)
		} else {
			data.Expenses[bucket] = append(data.Expenses[bucket], item)
		}
	}
	return data, rows.Err()
}

func loadHistory(userID string) ([]models.ContributionEntry, error) {
	rows, err := database.DB.Query(`
		SELECT id, year_month, contribution, interest_earned, total
		FROM investment_entries WHERE user_id = ? ORDER BY year_month
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

func loadCards(userID string) ([]models.Card, error) {
	rows, err := database.DB.Query("SELECT id, name FROM cards WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
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
