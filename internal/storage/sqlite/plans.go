package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

// UpsertPlan inserts a new plan or updates the existing plan with the same
// price. The price is the selection key, so it never changes on update.
func (q *queries) UpsertPlan(ctx context.Context, plan *models.Plan) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE plans
		SET cpu = ?, net = ?, duration = ?, free = ?, updated_at = ?
		WHERE price = ?`,
		plan.Cpu, plan.Net, plan.Duration, plan.Free, plan.UpdatedAt, plan.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	// New plans start inactive until explicitly activated.
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO plans (price, cpu, net, duration, free, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		plan.Price, plan.Cpu, plan.Net, plan.Duration, plan.Free, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	return nil
}

// SetPlanActive flips the active flag of the plan with the given price.
func (q *queries) SetPlanActive(ctx context.Context, price int64, active bool) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE plans SET active = ? WHERE price = ?",
		active, price,
	)
	if err != nil {
		return fmt.Errorf("failed to set plan active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("plan with price %d: %w", price, storage.ErrNotFound)
	}
	return nil
}

const planColumns = "id, price, cpu, net, duration, free, active, created_at, updated_at"

func scanPlan(row interface{ Scan(...any) error }) (*models.Plan, error) {
	p := &models.Plan{}
	err := row.Scan(&p.ID, &p.Price, &p.Cpu, &p.Net, &p.Duration, &p.Free, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ActivePlanByPrice retrieves the active plan whose price matches exactly.
func (q *queries) ActivePlanByPrice(ctx context.Context, price int64) (*models.Plan, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+planColumns+" FROM plans WHERE price = ? AND active = 1", price)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("active plan with price %d: %w", price, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan by price: %w", err)
	}
	return p, nil
}

// ListActivePlans returns all active plans in price order.
func (q *queries) ListActivePlans(ctx context.Context) ([]*models.Plan, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+planColumns+" FROM plans WHERE active = 1 ORDER BY price")
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}
	return plans, nil
}
