package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

func InitDB() error {
	var dbPath string
	if os.Getenv("FLY_APP_NAME") != "" {
		// We're running on Fly.io, use the mounted volume
		dbPath = filepath.Join("/data", "financeiro.db")
	} else if os.Getenv("TEST_DB") == "1" {
		// We're running tests, use in-memory database
		dbPath = ":memory:"
	} else {
		// Local development
		dbPath = "./financeiro.db"
	}

	var err error
	// Connection parameters to better handle concurrency
	dsn := dbPath + "?_journal=WAL&_timeout=10000&_busy_timeout=10000"
	DB, err = sql.Open("sqlite3", dsn)
	if err != nil {
		return err
	}

	DB.SetMaxOpenConns(5)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(time.Minute * 5)

	_, err = DB.Exec("PRAGMA journal_mode=WAL;")
	if err != nil {
		return err
	}

	_, err = DB.Exec("PRAGMA busy_timeout=5000;")
	if err != nil {
		return err
	}

	err = DB.Ping()
	if err != nil {
		return err
	}

	return CreateTables(DB)
}

// CreateTables creates the base schema. Tables added after the first
// release live in the migrations package instead.
func CreateTables(db *sql.DB) error {
	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL
	);
	`
	_, err := db.Exec(createUsersTable)
	if err != nil {
		return err
	}

	// One row per ledger line; bucket is 'incomes' or one of the four
	// expense buckets. card_expense_id links a mirrored card expense.
	createMonthlyItemsTable := `
	CREATE TABLE IF NOT EXISTS monthly_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		month TEXT NOT NULL,
		bucket TEXT NOT NULL,
		name TEXT NOT NULL,
		value REAL NOT NULL,
		category TEXT,
		card_expense_id TEXT
	);
	`
	_, err = db.Exec(createMonthlyItemsTable)
	if err != nil {
		return err
	}

	createCardsTable := `
	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL
	);
	`
	_, err = db.Exec(createCardsTable)
	if err != nil {
		return err
	}

	createCardExpensesTable := `
	CREATE TABLE IF NOT EXISTS card_expenses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		card_id TEXT NOT NULL,
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		value REAL NOT NULL,
		category TEXT,
		type TEXT NOT NULL,
		is_installment BOOLEAN NOT NULL DEFAULT 0,
		installment_id TEXT,
		total_installments INTEGER
	);
	`
	_, err = db.Exec(createCardExpensesTable)
	if err != nil {
		return err
	}

	return nil
}
