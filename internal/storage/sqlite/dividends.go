package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

// GetDividend retrieves the income-percentage override for a creditor.
func (q *queries) GetDividend(ctx context.Context, account string) (*models.Dividend, error) {
	d := &models.Dividend{}
	err := q.db.QueryRowContext(ctx,
		"SELECT account, percentage FROM dividends WHERE account = ?", account,
	).Scan(&d.Account, &d.Percentage)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dividend for %s: %w", account, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dividend: %w", err)
	}
	return d, nil
}

// SetDividend inserts or updates the income-percentage override for a
// creditor.
func (q *queries) SetDividend(ctx context.Context, d *models.Dividend) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO dividends (account, percentage) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET percentage = excluded.percentage`,
		d.Account, d.Percentage,
	)
	if err != nil {
		return fmt.Errorf("failed to set dividend: %w", err)
	}
	return nil
}

// DeleteDividend removes the override, restoring the default percentage.
func (q *queries) DeleteDividend(ctx context.Context, account string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM dividends WHERE account = ?", account)
	if err != nil {
		return fmt.Errorf("failed to delete dividend: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("dividend for %s: %w", account, storage.ErrNotFound)
	}
	return nil
}
