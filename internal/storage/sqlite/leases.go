package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

const leaseColumns = "id, buyer, beneficiary, creditor, plan_id, price, cpu_staked, net_staked, free, created_at, expire_at"

func scanLease(row interface{ Scan(...any) error }) (*models.Lease, error) {
	l := &models.Lease{}
	err := row.Scan(
		&l.ID, &l.Buyer, &l.Beneficiary, &l.Creditor, &l.PlanID, &l.Price,
		&l.CpuStaked, &l.NetStaked, &l.Free, &l.CreatedAt, &l.ExpireAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// CreateLease inserts a new lease and returns the assigned sequential id.
func (q *queries) CreateLease(ctx context.Context, l *models.Lease) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO leases (buyer, beneficiary, creditor, plan_id, price,
			cpu_staked, net_staked, free, created_at, expire_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Buyer, l.Beneficiary, l.Creditor, l.PlanID, l.Price,
		l.CpuStaked, l.NetStaked, l.Free, l.CreatedAt, l.ExpireAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create lease: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read lease id: %w", err)
	}
	l.ID = id
	return id, nil
}

// GetLease retrieves a lease by id.
func (q *queries) GetLease(ctx context.Context, id int64) (*models.Lease, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+leaseColumns+" FROM leases WHERE id = ?", id)
	l, err := scanLease(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lease %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lease: %w", err)
	}
	return l, nil
}

// DeleteLease removes a lease row.
func (q *queries) DeleteLease(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM leases WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("lease %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// OverdueLeaseIDs scans leases by ascending expiry, considering at most
// limit rows, and returns the ids among them whose expiry has passed. The
// limit caps per-call work regardless of backlog size.
func (q *queries) OverdueLeaseIDs(ctx context.Context, now int64, limit int) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id FROM (
			SELECT id, expire_at FROM leases ORDER BY expire_at, id LIMIT ?
		) WHERE expire_at <= ?`,
		limit, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue leases: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan lease id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lease ids: %w", err)
	}
	return ids, nil
}

// CountLeasesByBuyer counts open leases of one tier held by an account in
// the buyer role.
func (q *queries) CountLeasesByBuyer(ctx context.Context, account string, free bool) (int, error) {
	return q.countLeases(ctx, "buyer", account, free)
}

// CountLeasesByBeneficiary counts open leases of one tier held by an
// account in the beneficiary role.
func (q *queries) CountLeasesByBeneficiary(ctx context.Context, account string, free bool) (int, error) {
	return q.countLeases(ctx, "beneficiary", account, free)
}

func (q *queries) countLeases(ctx context.Context, role, account string, free bool) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM leases WHERE "+role+" = ? AND free = ?",
		account, free,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leases by %s: %w", role, err)
	}
	return count, nil
}
