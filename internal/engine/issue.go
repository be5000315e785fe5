package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stakebank/stakebank/internal/metrics"
	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

// OpenLease handles a deposit. The amount must match an active plan's price
// exactly; the memo optionally names the beneficiary (defaults to the
// buyer). On success it returns the new lease id, with the deferred expiry
// scheduled and, for free plans, the deposit already refunded.
//
// Deposits from the funding account are kept without opening a lease; they
// return id 0 and no error.
func (e *Engine) OpenLease(ctx context.Context, buyer string, amount int64, memo string) (int64, error) {
	if buyer == e.accounts.Funding {
		slog.Info("Treasury top-up accepted", "amount", amount)
		return 0, nil
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: deposit amount must be positive", ErrValidation)
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	plan, err := tx.ActivePlanByPrice(ctx, amount)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("%w: no active plan with price %d", ErrValidation, amount)
	}
	if err != nil {
		return 0, err
	}

	beneficiary, err := e.resolveBeneficiary(ctx, memo, buyer)
	if err != nil {
		return 0, err
	}

	now := e.clock.Now()

	if plan.Free {
		locked, err := e.hasFreelock(ctx, tx, beneficiary, now)
		if err != nil {
			return 0, err
		}
		if locked {
			return 0, fmt.Errorf("%w: beneficiary %s already holds a free lease", ErrValidation, beneficiary)
		}
	}

	creditor, err := e.selectCreditor(ctx, tx, plan)
	if err != nil {
		return 0, err
	}

	if err := e.validateParticipant(ctx, tx, buyer, plan.Free); err != nil {
		return 0, err
	}
	if err := e.validateParticipant(ctx, tx, beneficiary, plan.Free); err != nil {
		return 0, err
	}
	if beneficiary == creditor.Account {
		return 0, fmt.Errorf("%w: beneficiary %s is the funding creditor", ErrValidation, beneficiary)
	}

	if err := e.delegator(creditor.UsesProxy).Delegate(ctx, creditor.Account, beneficiary, plan.Cpu, plan.Net); err != nil {
		return 0, fmt.Errorf("failed to delegate for %s: %w", beneficiary, err)
	}

	// The creditor's aggregate stake grows by the plan resources; its
	// balance snapshot is refreshed in the same pass.
	balance, err := e.token.Balance(ctx, creditor.Account)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch balance of %s: %w", creditor.Account, err)
	}
	creditor.Balance = balance
	creditor.CpuStaked += plan.Cpu
	creditor.NetStaked += plan.Net
	creditor.UpdatedAt = now
	if err := tx.UpdateCreditor(ctx, creditor); err != nil {
		return 0, err
	}

	lease := &models.Lease{
		Buyer:       buyer,
		Beneficiary: beneficiary,
		Creditor:    creditor.Account,
		PlanID:      plan.ID,
		Price:       plan.Price,
		CpuStaked:   plan.Cpu,
		NetStaked:   plan.Net,
		Free:        plan.Free,
		CreatedAt:   now,
		ExpireAt:    now + plan.Duration,
	}
	id, err := tx.CreateLease(ctx, lease)
	if err != nil {
		return 0, err
	}

	if plan.Free {
		if err := e.registerFreelock(ctx, tx, beneficiary, plan.Duration); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if plan.Free {
		// The refund runs only after the lease is durable, so a failed
		// commit cannot leave funds moved. A failed refund is logged for
		// manual settlement instead of unwinding the lease.
		refundMemo := buyer + " " + creditor.FreeMemo
		if err := e.token.Transfer(ctx, e.accounts.Bank, e.accounts.Relay, plan.Price, refundMemo); err != nil {
			slog.Error("Failed to refund free lease deposit", "lease_id", id, "buyer", buyer, "error", err)
		} else {
			e.metrics.RefundsTotal.Add(float64(plan.Price))
		}
	}

	e.metrics.LeasesOpened.WithLabelValues(metrics.Tier(plan.Free)).Inc()
	slog.Info("Lease opened",
		"lease_id", id,
		"buyer", buyer,
		"beneficiary", beneficiary,
		"creditor", creditor.Account,
		"price", plan.Price,
		"tier", metrics.Tier(plan.Free),
		"expire_at", lease.ExpireAt,
	)

	e.scheduleExpiry([]int64{id}, plan.Duration)

	// Issuance is an external trigger like any other: run the bounded
	// housekeeping pass behind it.
	if err := e.Check(ctx); err != nil {
		slog.Warn("Housekeeping after issuance failed", "error", err)
	}

	return id, nil
}

// resolveBeneficiary picks the beneficiary from the memo when present,
// verifying the account exists, and falls back to the buyer.
func (e *Engine) resolveBeneficiary(ctx context.Context, memo, buyer string) (string, error) {
	beneficiary := strings.TrimSpace(memo)
	if beneficiary == "" {
		return buyer, nil
	}
	exists, err := e.token.Exists(ctx, beneficiary)
	if err != nil {
		return "", fmt.Errorf("failed to check account %s: %w", beneficiary, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: beneficiary account %s does not exist", ErrValidation, beneficiary)
	}
	return beneficiary, nil
}

// validateParticipant applies the shared buyer/beneficiary checks for one
// role: not the bank itself, not blacklisted, and below the tier's
// concurrent-lease cap in both roles (each counted independently).
func (e *Engine) validateParticipant(ctx context.Context, q storage.Querier, account string, free bool) error {
	if account == e.accounts.Bank {
		return fmt.Errorf("%w: the bank account cannot take part in a lease", ErrValidation)
	}

	blacklisted, err := q.IsBlacklisted(ctx, account)
	if err != nil {
		return err
	}
	if blacklisted {
		return fmt.Errorf("%w: account %s is blacklisted", ErrValidation, account)
	}

	limit := int64(MaxPaidLeases)
	if free {
		limit = MaxFreeLeases
		if capacity, ok, err := q.WhitelistCapacity(ctx, account); err != nil {
			return err
		} else if ok {
			limit = capacity
		}
	}

	asBuyer, err := q.CountLeasesByBuyer(ctx, account, free)
	if err != nil {
		return err
	}
	if int64(asBuyer) >= limit {
		return fmt.Errorf("%w: account %s already holds %d open leases as buyer", ErrValidation, account, asBuyer)
	}

	asBeneficiary, err := q.CountLeasesByBeneficiary(ctx, account, free)
	if err != nil {
		return err
	}
	if int64(asBeneficiary) >= limit {
		return fmt.Errorf("%w: account %s already holds %d open leases as beneficiary", ErrValidation, account, asBeneficiary)
	}

	return nil
}
