package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

const creditorColumns = "account, active, free, free_memo, balance, cpu_staked, net_staked, cpu_unstaked, net_unstaked, uses_proxy, created_at, updated_at"

func scanCreditor(row interface{ Scan(...any) error }) (*models.Creditor, error) {
	c := &models.Creditor{}
	err := row.Scan(
		&c.Account, &c.Active, &c.Free, &c.FreeMemo, &c.Balance,
		&c.CpuStaked, &c.NetStaked, &c.CpuUnstaked, &c.NetUnstaked,
		&c.UsesProxy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCreditor inserts a new creditor record.
func (q *queries) CreateCreditor(ctx context.Context, c *models.Creditor) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO creditors (account, active, free, free_memo, balance,
			cpu_staked, net_staked, cpu_unstaked, net_unstaked, uses_proxy,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Account, c.Active, c.Free, c.FreeMemo, c.Balance,
		c.CpuStaked, c.NetStaked, c.CpuUnstaked, c.NetUnstaked, c.UsesProxy,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create creditor: %w", err)
	}
	return nil
}

// DeleteCreditor removes a creditor record.
func (q *queries) DeleteCreditor(ctx context.Context, account string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM creditors WHERE account = ?", account)
	if err != nil {
		return fmt.Errorf("failed to delete creditor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("creditor %s: %w", account, storage.ErrNotFound)
	}
	return nil
}

// GetCreditor retrieves a creditor by account.
func (q *queries) GetCreditor(ctx context.Context, account string) (*models.Creditor, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+creditorColumns+" FROM creditors WHERE account = ?", account)
	c, err := scanCreditor(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("creditor %s: %w", account, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get creditor: %w", err)
	}
	return c, nil
}

// UpdateCreditor writes every mutable field of the creditor record.
func (q *queries) UpdateCreditor(ctx context.Context, c *models.Creditor) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE creditors
		SET active = ?, free_memo = ?, balance = ?,
			cpu_staked = ?, net_staked = ?, cpu_unstaked = ?, net_unstaked = ?,
			uses_proxy = ?, updated_at = ?
		WHERE account = ?`,
		c.Active, c.FreeMemo, c.Balance,
		c.CpuStaked, c.NetStaked, c.CpuUnstaked, c.NetUnstaked,
		c.UsesProxy, c.UpdatedAt, c.Account,
	)
	if err != nil {
		return fmt.Errorf("failed to update creditor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("creditor %s: %w", c.Account, storage.ErrNotFound)
	}
	return nil
}

// ActiveCreditor returns the active creditor of the given tier, or
// storage.ErrNotFound if the tier has none.
func (q *queries) ActiveCreditor(ctx context.Context, free bool) (*models.Creditor, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+creditorColumns+" FROM creditors WHERE active = 1 AND free = ?", free)
	c, err := scanCreditor(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("active creditor (free=%v): %w", free, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active creditor: %w", err)
	}
	return c, nil
}

// ListCreditorsByAccount returns the creditors of one tier in account order.
func (q *queries) ListCreditorsByAccount(ctx context.Context, free bool) ([]*models.Creditor, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+creditorColumns+" FROM creditors WHERE free = ? ORDER BY account", free)
	if err != nil {
		return nil, fmt.Errorf("failed to list creditors: %w", err)
	}
	return collectCreditors(rows)
}

// ListCreditorsByUpdatedAt returns all creditors ordered by ascending
// updated_at (least recently touched first), the rotation scan order.
func (q *queries) ListCreditorsByUpdatedAt(ctx context.Context) ([]*models.Creditor, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+creditorColumns+" FROM creditors ORDER BY updated_at, account")
	if err != nil {
		return nil, fmt.Errorf("failed to list creditors: %w", err)
	}
	return collectCreditors(rows)
}

// SetCreditorProxy flips the safe-delegation routing flag.
func (q *queries) SetCreditorProxy(ctx context.Context, account string, usesProxy bool) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE creditors SET uses_proxy = ? WHERE account = ?", usesProxy, account)
	if err != nil {
		return fmt.Errorf("failed to set creditor proxy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("creditor %s: %w", account, storage.ErrNotFound)
	}
	return nil
}

func collectCreditors(rows *sql.Rows) ([]*models.Creditor, error) {
	defer rows.Close()

	var creditors []*models.Creditor
	for rows.Next() {
		c, err := scanCreditor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan creditor: %w", err)
		}
		creditors = append(creditors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate creditors: %w", err)
	}
	return creditors, nil
}
