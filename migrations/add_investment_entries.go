package migrations

import (
	"database/sql"
	"fmt"
)

// AddInvestmentEntries creates the contribution history table. interest and
// total are derived columns, rewritten on every full-history recompute.
func AddInvestmentEntries(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS investment_entries (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			year_month TEXT NOT NULL,
			contribution REAL NOT NULL,
			interest_earned REAL NOT NULL DEFAULT 0,
			total REAL NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create investment_entries table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_investment_entries_user
		ON investment_entries(user_id, year_month);
	`)
	if err != nil {
		return fmt.Errorf("failed to create investment_entries index: %w", err)
	}

	return nil
}
