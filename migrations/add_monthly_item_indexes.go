package migrations

import (
	"database/sql"
	"fmt"
)

// AddMonthlyItemIndexes speeds up the per-month document reads and the
// mirror purges done when card expenses are deleted.
func AddMonthlyItemIndexes(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_monthly_items_user_month
		ON monthly_items(user_id, month, bucket);
	`)
	if err != nil {
		return fmt.Errorf("failed to create monthly_items month index: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_monthly_items_card_expense
		ON monthly_items(card_expense_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create monthly_items mirror index: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_card_expenses_installment
		ON card_expenses(user_id, installment_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create card_expenses installment index: %w", err)
	}

	return nil
}
