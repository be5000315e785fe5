package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

// GetFreelock retrieves the freelock for a beneficiary.
func (q *queries) GetFreelock(ctx context.Context, beneficiary string) (*models.Freelock, error) {
	lock := &models.Freelock{}
	err := q.db.QueryRowContext(ctx,
		"SELECT beneficiary, created_at, expire_at FROM freelocks WHERE beneficiary = ?",
		beneficiary,
	).Scan(&lock.Beneficiary, &lock.CreatedAt, &lock.ExpireAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("freelock for %s: %w", beneficiary, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get freelock: %w", err)
	}
	return lock, nil
}

// PutFreelock inserts or replaces the freelock for a beneficiary.
func (q *queries) PutFreelock(ctx context.Context, lock *models.Freelock) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO freelocks (beneficiary, created_at, expire_at)
		VALUES (?, ?, ?)
		ON CONFLICT(beneficiary) DO UPDATE SET created_at = excluded.created_at, expire_at = excluded.expire_at`,
		lock.Beneficiary, lock.CreatedAt, lock.ExpireAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put freelock: %w", err)
	}
	return nil
}

// DeleteFreelock removes the freelock for a beneficiary.
func (q *queries) DeleteFreelock(ctx context.Context, beneficiary string) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM freelocks WHERE beneficiary = ?", beneficiary)
	if err != nil {
		return fmt.Errorf("failed to delete freelock: %w", err)
	}
	return nil
}

// ExpiredFreelocks returns up to limit locks whose expiry has passed,
// oldest expiry first.
func (q *queries) ExpiredFreelocks(ctx context.Context, now int64, limit int) ([]*models.Freelock, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT beneficiary, created_at, expire_at FROM freelocks
		WHERE expire_at <= ? ORDER BY expire_at, beneficiary LIMIT ?`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired freelocks: %w", err)
	}
	defer rows.Close()

	var locks []*models.Freelock
	for rows.Next() {
		lock := &models.Freelock{}
		if err := rows.Scan(&lock.Beneficiary, &lock.CreatedAt, &lock.ExpireAt); err != nil {
			return nil, fmt.Errorf("failed to scan freelock: %w", err)
		}
		locks = append(locks, lock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate freelocks: %w", err)
	}
	return locks, nil
}
