package services

import (
	"context"
	"database/sql"
	"testing"

	"financeiro/backend/database"

	_ "github.com/mattn/go-sqlite3"
)

func setupMirrorTestDB(t *testing.T) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	database.DB = db

	statements := []string{
		`CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT, name TEXT)`,
		`CREATE TABLE monthly_items (
			id TEXT PRIMARY KEY, user_id TEXT, month TEXT, bucket TEXT,
			name TEXT, value REAL, category TEXT, card_expense_id TEXT
		)`,
		`CREATE TABLE cards (id TEXT PRIMARY KEY, user_id TEXT, name TEXT)`,
		`CREATE TABLE card_expenses (
			id TEXT PRIMARY KEY, user_id TEXT, card_id TEXT, date TEXT,
			description TEXT, value REAL, category TEXT, type TEXT,
			is_installment BOOLEAN DEFAULT 0, installment_id TEXT, total_installments INTEGER
		)`,
		`CREATE TABLE investment_entries (
			id TEXT PRIMARY KEY, user_id TEXT, year_month TEXT,
			contribution REAL, interest_earned REAL DEFAULT 0, total REAL DEFAULT 0
		)`,
		`CREATE TABLE participants (id TEXT PRIMARY KEY, user_id TEXT, name TEXT, credit REAL DEFAULT 0)`,
		`CREATE TABLE group_expenses (
			id TEXT PRIMARY KEY, user_id TEXT, description TEXT, amount REAL,
			paid_by_id TEXT, participants_ids TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMirrorAllUsersDisabled(t *testing.T) {
	if err := MirrorAllUsers(context.Background(), nil); err != nil {
		t.Errorf("Expected nil mirror to be a no-op, got %v", err)
	}
}

func TestMirrorLoadersCoverAllDocuments(t *testing.T) {
	setupMirrorTestDB(t)
	defer database.DB.Close()

	const userID = "user-1"
	inserts := []struct {
		query string
		args  []interface{}
	}{
		{`INSERT INTO users (id, email, name) VALUES (?, ?, ?)`,
			[]interface{}{userID, "u@example.com", "User"}},
		{`INSERT INTO monthly_items (id, user_id, month, bucket, name, value) VALUES (?, ?, ?, ?, ?, ?)`,
			[]interface{}{"m1", userID, "2024-03", "fixed", "Aluguel", 1500.0}},
		{`INSERT INTO cards (id, user_id, name) VALUES (?, ?, ?)`,
			[]interface{}{"card-1", userID, "Nubank"}},
		{`INSERT INTO card_expenses (id, user_id, card_id, date, description, value, type) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			[]interface{}{"exp-1", userID, "card-1", "2024-03-10", "Jantar", 80.0, "variable"}},
		{`INSERT INTO investment_entries (id, user_id, year_month, contribution, interest_earned, total) VALUES (?, ?, ?, ?, ?, ?)`,
			[]interface{}{"inv-1", userID, "2024-01", 1000.0, 10.0, 1010.0}},
		{`INSERT INTO participants (id, user_id, name, credit) VALUES (?, ?, ?, ?)`,
			[]interface{}{"p1", userID, "Ana", 0.0}},
		{`INSERT INTO group_expenses (id, user_id, description, amount, paid_by_id, participants_ids) VALUES (?, ?, ?, ?, ?, ?)`,
			[]interface{}{"g1", userID, "Mercado", 100.0, "p1", `["p1"]`}},
	}
	for _, ins := range inserts {
		if _, err := database.DB.Exec(ins.query, ins.args...); err != nil {
			t.Fatal(err)
		}
	}

	data, err := loadMonth(userID, "2024-03")
	if err != nil {
		t.Fatal(err)
	}
	if len(data.Expenses["fixed"]) != 1 {
		t.Errorf("Expected 1 fixed item, got %d", len(data.Expenses["fixed"]))
	}

	history, err := loadHistory(userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Total != 1010 {
		t.Errorf("Unexpected history: %+v", history)
	}

	cards, err := loadCards(userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 || cards[0].Name != "Nubank" {
		t.Fatalf("Unexpected cards: %+v", cards)
	}

	expenses, err := loadCardExpenses(userID, cards[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(expenses) != 1 || expenses[0].Description != "Jantar" {
		t.Errorf("Unexpected card expenses: %+v", expenses)
	}

	participants, err := loadParticipants(userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(participants) != 1 || participants[0].Name != "Ana" {
		t.Errorf("Unexpected participants: %+v", participants)
	}

	groupExpenses, err := loadGroupExpenses(userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(groupExpenses) != 1 || len(groupExpenses[0].ParticipantsIDs) != 1 {
		t.Errorf("Unexpected group expenses: %+v", groupExpenses)
	}
}
