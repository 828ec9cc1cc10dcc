package migrations

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"financeiro/backend/models"
	"financeiro/backend/services"
)

// SeedTestData seeds test data for development and PR environments
// This should only be called in non-production environments
func SeedTestData(db *sql.DB) error {
	// Check if we're in production - we should NEVER run this in production
	if os.Getenv("APP_ENV") == "production" || os.Getenv("ENV") == "production" {
		log.Println("Refusing to seed test data in production environment")
		return nil
	}

	// Only seed if explicitly requested or in dev/PR environment
	if os.Getenv("RESET_DB") != "true" &&
		os.Getenv("APP_ENV") != "development" &&
		os.Getenv("PR_DEPLOYMENT") != "true" {
		log.Println("Skipping test data seeding - not explicitly requested and not in dev/PR environment")
		return nil
	}

	log.Println("Seeding test data for development/PR environment...")

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// Clear existing data (make sure this is only done in dev)
	tables := []string{"monthly_items", "cards", "card_expenses", "investment_entries", "participants", "group_expenses"}
	for _, table := range tables {
		var exists int
		err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", table, err)
		}

		if exists > 0 {
			_, err = tx.Exec("DELETE FROM " + table)
			if err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
		}
	}

	const devUserID = "dev-user-1"

	_, err = tx.Exec(`
		INSERT OR IGNORE INTO users (id, email, name) VALUES (?, ?, ?)
	`, devUserID, "dev@example.com", "Dev User")
	if err != nil {
		return fmt.Errorf("failed to seed dev user: %w", err)
	}

	monthlyItems := []struct {
		id, month, bucket, name string
		value                   float64
		category                string
	}{
		{"seed-inc-1", "2025-08", "incomes", "Salário", 8500.00, ""},
		{"seed-fix-1", "2025-08", "fixed", "Aluguel", 2200.00, "Housing"},
		{"seed-fix-2", "2025-08", "fixed", "Internet", 120.00, "Housing"},
		{"seed-ess-1", "2025-08", "essential", "Supermercado", 950.00, "Food"},
		{"seed-var-1", "2025-08", "variable", "Combustível", 400.00, "Transport"},
		{"seed-sup-1", "2025-08", "superfluous", "Streaming", 55.90, "Leisure"},
	}
	for _, item := range monthlyItems {
		_, err = tx.Exec(`
			INSERT INTO monthly_items (id, user_id, month, bucket, name, value, category)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, item.id, devUserID, item.month, item.bucket, item.name, item.value, item.category)
		if err != nil {
			return fmt.Errorf("failed to seed monthly item %s: %w", item.id, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO cards (id, user_id, name) VALUES (?, ?, ?)
	`, "seed-card-1", devUserID, "Nubank")
	if err != nil {
		return fmt.Errorf("failed to seed card: %w", err)
	}

	// Derived columns come from the same recompute the API runs on every
	// history change, so the seeded dashboard shows a real total.
	history := services.RecalculateHistory([]models.ContributionEntry{
		{ID: "seed-inv-1", YearMonth: "2025-06", Contribution: 2000.00},
		{ID: "seed-inv-2", YearMonth: "2025-07", Contribution: 2000.00},
		{ID: "seed-inv-3", YearMonth: "2025-08", Contribution: 2500.00},
	})
	for _, e := range history {
		_, err = tx.Exec(`
			INSERT INTO investment_entries (id, user_id, year_month, contribution, interest_earned, total)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.ID, devUserID, e.YearMonth, e.Contribution, e.InterestEarned, e.Total)
		if err != nil {
			return fmt.Errorf("failed to seed contribution %s: %w", e.ID, err)
		}
	}

	participants := []struct {
		id, name string
		credit   float64
	}{
		{"seed-part-1", "Ana", 0},
		{"seed-part-2", "Bruno", 50.00},
		{"seed-part-3", "Carla", 0},
	}
	for _, p := range participants {
		_, err = tx.Exec(`
			INSERT INTO participants (id, user_id, name, credit) VALUES (?, ?, ?, ?)
		`, p.id, devUserID, p.name, p.credit)
		if err != nil {
			return fmt.Errorf("failed to seed participant %s: %w", p.id, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO group_expenses (id, user_id, description, amount, paid_by_id, participants_ids)
		VALUES (?, ?, ?, ?, ?, ?)
	`, "seed-gexp-1", devUserID, "Churrasco", 300.00, "seed-part-1", `["seed-part-1","seed-part-2","seed-part-3"]`)
	if err != nil {
		return fmt.Errorf("failed to seed group expense: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	log.Println("Test data seeded successfully")
	return nil
}
