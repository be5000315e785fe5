package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

// hasFreelock reports whether the beneficiary holds an unexpired freelock.
// An expired lock still on disk counts as none; sweeps collect it later.
func (e *Engine) hasFreelock(ctx context.Context, q storage.Querier, beneficiary string, now int64) (bool, error) {
	lock, err := q.GetFreelock(ctx, beneficiary)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return lock.ExpireAt > now, nil
}

// registerFreelock inserts a lock valid for duration seconds. The issuance
// path already rejected beneficiaries holding an unexpired lock, so finding
// one here is an invariant violation.
func (e *Engine) registerFreelock(ctx context.Context, q storage.Querier, beneficiary string, duration int64) error {
	now := e.clock.Now()
	locked, err := e.hasFreelock(ctx, q, beneficiary, now)
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("%w: duplicate freelock for %s", ErrInvariant, beneficiary)
	}
	return q.PutFreelock(ctx, &models.Freelock{
		Beneficiary: beneficiary,
		CreatedAt:   now,
		ExpireAt:    now + duration,
	})
}

// sweepFreelocks removes up to maxDepth expired locks, oldest expiry first.
func (e *Engine) sweepFreelocks(ctx context.Context, maxDepth int) error {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	locks, err := tx.ExpiredFreelocks(ctx, e.clock.Now(), maxDepth)
	if err != nil {
		return err
	}
	for _, lock := range locks {
		if err := tx.DeleteFreelock(ctx, lock.Beneficiary); err != nil {
			return err
		}
		slog.Debug("Freelock expired", "beneficiary", lock.Beneficiary)
	}
	return tx.Commit()
}
