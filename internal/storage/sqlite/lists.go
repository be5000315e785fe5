package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stakebank/stakebank/internal/storage"
)

// AddBlacklist adds an account to the blacklist.
func (q *queries) AddBlacklist(ctx context.Context, account string, now int64) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO blacklist (account, created_at) VALUES (?, ?)", account, now)
	if err != nil {
		return fmt.Errorf("failed to add blacklist entry: %w", err)
	}
	return nil
}

// RemoveBlacklist removes an account from the blacklist.
func (q *queries) RemoveBlacklist(ctx context.Context, account string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM blacklist WHERE account = ?", account)
	if err != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("blacklist entry %s: %w", account, storage.ErrNotFound)
	}
	return nil
}

// IsBlacklisted reports whether an account is blacklisted.
func (q *queries) IsBlacklisted(ctx context.Context, account string) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx,
		"SELECT 1 FROM blacklist WHERE account = ?", account).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return true, nil
}

// UpsertWhitelist inserts or updates a whitelist entry. The capacity
// overrides the free-tier concurrent-lease cap for the account.
func (q *queries) UpsertWhitelist(ctx context.Context, account string, capacity int64, now int64) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO whitelist (account, capacity, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET capacity = excluded.capacity, updated_at = excluded.updated_at`,
		account, capacity, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert whitelist entry: %w", err)
	}
	return nil
}

// RemoveWhitelist removes a whitelist entry.
func (q *queries) RemoveWhitelist(ctx context.Context, account string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM whitelist WHERE account = ?", account)
	if err != nil {
		return fmt.Errorf("failed to remove whitelist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("whitelist entry %s: %w", account, storage.ErrNotFound)
	}
	return nil
}

// WhitelistCapacity returns the whitelisted capacity for an account and
// whether an entry exists.
func (q *queries) WhitelistCapacity(ctx context.Context, account string) (int64, bool, error) {
	var capacity int64
	err := q.db.QueryRowContext(ctx,
		"SELECT capacity FROM whitelist WHERE account = ?", account).Scan(&capacity)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get whitelist capacity: %w", err)
	}
	return capacity, true, nil
}
