package migrations

import (
	"database/sql"
	"fmt"
)

// AddSettlementTables creates the shared-expense group tables. The
// participants list of a group expense is stored as a JSON array of
// participant ids, matching the document shape the frontend uses.
func AddSettlementTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS participants (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			credit REAL NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create participants table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS group_expenses (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			description TEXT NOT NULL,
			amount REAL NOT NULL,
			paid_by_id TEXT NOT NULL,
			participants_ids TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create group_expenses table: %w", err)
	}

	return nil
}
