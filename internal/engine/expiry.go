package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stakebank/stakebank/internal/metrics"
	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

// Check is the periodic housekeeping entry point: it sweeps up to
// CheckMaxDepth overdue leases from the front of the expiry index,
// collects expired freelocks, and runs creditor rotation. Each call does a
// bounded amount of work; draining a large backlog takes multiple calls.
func (e *Engine) Check(ctx context.Context) error {
	ids, err := e.store.OverdueLeaseIDs(ctx, e.clock.Now(), CheckMaxDepth)
	if err != nil {
		return err
	}
	e.metrics.SweptLeases.Add(float64(len(ids)))
	e.expireIDs(ctx, ids)

	if err := e.sweepFreelocks(ctx, CheckMaxDepth); err != nil {
		return err
	}
	return e.rotateOnce(ctx)
}

// ForceExpire releases the given leases immediately regardless of their
// expiry time, then runs the same housekeeping as Check. The id list is
// caller-supplied and unbounded; ids already gone are skipped.
func (e *Engine) ForceExpire(ctx context.Context, ids []int64) error {
	e.expireIDs(ctx, ids)

	if err := e.sweepFreelocks(ctx, CheckMaxDepth); err != nil {
		return err
	}
	return e.rotateOnce(ctx)
}

// ExpireBatch is the deferred executor's callback target. Delivery is at
// least once; leases already matured through another path are skipped.
func (e *Engine) ExpireBatch(ids []int64) {
	ctx := context.Background()
	e.expireIDs(ctx, ids)

	if err := e.sweepFreelocks(ctx, CheckMaxDepth); err != nil {
		slog.Warn("Freelock sweep after deferred expiry failed", "error", err)
	}
	if err := e.rotateOnce(ctx); err != nil {
		slog.Warn("Rotation after deferred expiry failed", "error", err)
	}
}

// scheduleExpiry requests deferred processing of the ids after delay
// seconds, or processes them inline for delay zero. The dedupe key is
// derived from the bank identity, the current time and the id sum, so a
// re-submitted batch collapses into one pending task.
func (e *Engine) scheduleExpiry(ids []int64, delay int64) {
	if len(ids) == 0 {
		return
	}
	if delay <= 0 {
		e.expireIDs(context.Background(), ids)
		return
	}
	if e.executor == nil {
		// No deferred substrate; bounded sweeps pick the leases up once
		// overdue.
		return
	}

	var sum int64
	for _, id := range ids {
		sum += id
	}
	key := fmt.Sprintf("%s:%d:%d", e.accounts.Bank, e.clock.Now(), sum)
	if err := e.executor.Schedule(ids, delay, key); err != nil {
		// The next bounded sweep picks the leases up once overdue.
		slog.Warn("Failed to schedule deferred expiry", "lease_ids", ids, "error", err)
	}
}

// expireIDs processes each lease in its own transaction so one failure
// does not block the rest of the batch. Missing leases were matured
// through another path and are skipped.
func (e *Engine) expireIDs(ctx context.Context, ids []int64) {
	for _, id := range ids {
		if err := e.expireOne(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				slog.Debug("Lease already matured", "lease_id", id)
				continue
			}
			slog.Error("Failed to expire lease", "lease_id", id, "error", err)
		}
	}
}

// expireOne releases a single lease: undelegate, income split for paid
// leases, record removal and archival, all in one transaction.
func (e *Engine) expireOne(ctx context.Context, id int64) error {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lease, creditor, err := e.releaseLease(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := e.delegator(creditor.UsesProxy).Undelegate(ctx, creditor.Account, lease.Beneficiary, lease.CpuStaked, lease.NetStaked); err != nil {
		return fmt.Errorf("failed to undelegate lease %d: %w", id, err)
	}

	var income, reserved int64
	if !lease.Free {
		income, reserved, err = e.splitIncome(ctx, tx, creditor.Account, lease.Price)
		if err != nil {
			return err
		}
	}

	if _, err := tx.AppendHistory(ctx, lease.Summary(), e.clock.Now()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	// Payouts run only after the release is durable: the lease row is gone,
	// so a re-sweep can never pay the same lease twice. A failed payout is
	// logged for manual settlement instead of unwinding the release.
	if !lease.Free {
		if income > 0 {
			memo := creditor.Account + " stakebank income"
			if err := e.token.Transfer(ctx, e.accounts.Bank, e.accounts.Relay, income, memo); err != nil {
				slog.Error("Failed to pay income", "lease_id", id, "creditor", creditor.Account, "amount", income, "error", err)
			}
		}
		if reserved > 0 {
			memo := e.accounts.Reserve + " stakebank reserved"
			if err := e.token.Transfer(ctx, e.accounts.Bank, e.accounts.Relay, reserved, memo); err != nil {
				slog.Error("Failed to pay reserve", "lease_id", id, "amount", reserved, "error", err)
			}
		}
	}

	e.metrics.LeasesExpired.WithLabelValues(metrics.Tier(lease.Free)).Inc()
	if !lease.Free {
		e.metrics.IncomeTotal.Add(float64(income))
		e.metrics.ReservedTotal.Add(float64(reserved))
	}
	slog.Info("Lease expired",
		"lease_id", id,
		"creditor", creditor.Account,
		"beneficiary", lease.Beneficiary,
		"income", income,
		"reserved", reserved,
	)
	return nil
}

// releaseLease removes the lease record and returns the creditor's staked
// amounts to its unstaked counters. Safe to call at most once per id: a
// second call fails with ErrNotFound and changes nothing.
func (e *Engine) releaseLease(ctx context.Context, q storage.Querier, id int64) (*models.Lease, *models.Creditor, error) {
	lease, err := q.GetLease(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: lease %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}

	creditor, err := q.GetCreditor(ctx, lease.Creditor)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: creditor %s of lease %d", ErrNotFound, lease.Creditor, id)
	}
	if err != nil {
		return nil, nil, err
	}

	balance, err := e.token.Balance(ctx, creditor.Account)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch balance of %s: %w", creditor.Account, err)
	}
	creditor.Balance = balance
	creditor.CpuStaked -= lease.CpuStaked
	creditor.NetStaked -= lease.NetStaked
	creditor.CpuUnstaked += lease.CpuStaked
	creditor.NetUnstaked += lease.NetStaked
	creditor.UpdatedAt = e.clock.Now()
	if err := q.UpdateCreditor(ctx, creditor); err != nil {
		return nil, nil, err
	}

	if err := q.DeleteLease(ctx, id); err != nil {
		return nil, nil, err
	}
	return lease, creditor, nil
}

// rotateOnce runs creditor rotation inside its own transaction.
func (e *Engine) rotateOnce(ctx context.Context) error {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.rotate(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}
