// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/stakebank/stakebank/internal/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Querier is the full query surface of the bank's entity tables. It is
// implemented both by the store itself (auto-commit) and by transactions, so
// engine code can run the same queries inside one atomic unit.
type Querier interface {
	// Plans. The price is the unique selection key: UpsertPlan inserts a new
	// plan or updates the existing plan with the same price.
	UpsertPlan(ctx context.Context, plan *models.Plan) error
	SetPlanActive(ctx context.Context, price int64, active bool) error
	ActivePlanByPrice(ctx context.Context, price int64) (*models.Plan, error)
	ListActivePlans(ctx context.Context) ([]*models.Plan, error)

	// Creditors. UpdateCreditor writes every mutable field of the record;
	// the engine is the only caller that mutates balance and stake totals.
	CreateCreditor(ctx context.Context, c *models.Creditor) error
	DeleteCreditor(ctx context.Context, account string) error
	GetCreditor(ctx context.Context, account string) (*models.Creditor, error)
	UpdateCreditor(ctx context.Context, c *models.Creditor) error
	ActiveCreditor(ctx context.Context, free bool) (*models.Creditor, error)
	ListCreditorsByAccount(ctx context.Context, free bool) ([]*models.Creditor, error)
	ListCreditorsByUpdatedAt(ctx context.Context) ([]*models.Creditor, error)
	SetCreditorProxy(ctx context.Context, account string, usesProxy bool) error

	// Leases. CreateLease assigns and returns the sequential lease id.
	// OverdueLeaseIDs scans by ascending expiry and considers at most limit
	// rows, returning the ids among them whose expiry has passed.
	CreateLease(ctx context.Context, l *models.Lease) (int64, error)
	GetLease(ctx context.Context, id int64) (*models.Lease, error)
	DeleteLease(ctx context.Context, id int64) error
	OverdueLeaseIDs(ctx context.Context, now int64, limit int) ([]int64, error)
	CountLeasesByBuyer(ctx context.Context, account string, free bool) (int, error)
	CountLeasesByBeneficiary(ctx context.Context, account string, free bool) (int, error)

	// Freelocks, keyed by beneficiary. ExpiredFreelocks returns up to limit
	// locks whose expiry has passed, oldest expiry first.
	GetFreelock(ctx context.Context, beneficiary string) (*models.Freelock, error)
	PutFreelock(ctx context.Context, lock *models.Freelock) error
	DeleteFreelock(ctx context.Context, beneficiary string) error
	ExpiredFreelocks(ctx context.Context, now int64, limit int) ([]*models.Freelock, error)

	// Dividend overrides.
	GetDividend(ctx context.Context, account string) (*models.Dividend, error)
	SetDividend(ctx context.Context, d *models.Dividend) error
	DeleteDividend(ctx context.Context, account string) error

	// Access lists. The whitelist capacity overrides the free-tier
	// concurrent-lease cap for that account.
	AddBlacklist(ctx context.Context, account string, now int64) error
	RemoveBlacklist(ctx context.Context, account string) error
	IsBlacklisted(ctx context.Context, account string) (bool, error)
	UpsertWhitelist(ctx context.Context, account string, capacity int64, now int64) error
	RemoveWhitelist(ctx context.Context, account string) error
	WhitelistCapacity(ctx context.Context, account string) (int64, bool, error)

	// History archive, append-only. PruneHistory deletes up to limit oldest
	// records and reports how many were removed.
	AppendHistory(ctx context.Context, content string, now int64) (int64, error)
	PruneHistory(ctx context.Context, limit int) (int, error)

	// Operators.
	CreateOperator(ctx context.Context, op *models.Operator) error
	GetOperator(ctx context.Context, account string) (*models.Operator, error)
}

// Tx is a transaction over the query surface. All mutations performed during
// one engine call happen inside a single Tx so they apply as an
// all-or-nothing unit.
type Tx interface {
	Querier

	Commit() error
	Rollback() error
}

// Store is the storage backend interface. This abstraction allows swapping
// storage backends without changing the engine or service layers.
type Store interface {
	Querier

	// Begin opens a transaction.
	Begin(ctx context.Context) (Tx, error)

	// Close releases any resources held by the store.
	Close() error
}
