package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

// CreateOperator inserts a new operator account.
func (q *queries) CreateOperator(ctx context.Context, op *models.Operator) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO operators (account, password_hash, created_at) VALUES (?, ?, ?)",
		op.Account, op.PasswordHash, op.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

// GetOperator retrieves an operator by account.
func (q *queries) GetOperator(ctx context.Context, account string) (*models.Operator, error) {
	op := &models.Operator{}
	err := q.db.QueryRowContext(ctx,
		"SELECT account, password_hash, created_at FROM operators WHERE account = ?",
		account,
	).Scan(&op.Account, &op.PasswordHash, &op.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("operator %s: %w", account, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return op, nil
}
