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

// selectCreditor picks the creditor funding a new lease of the plan's tier.
// The free tier always returns its active creditor (free creditors are
// pre-funded for refunds, balance is not checked). The paid tier prefers
// the active creditor when its live balance covers the stake, otherwise the
// first qualified paid creditor in account order.
func (e *Engine) selectCreditor(ctx context.Context, q storage.Querier, plan *models.Plan) (*models.Creditor, error) {
	active, err := q.ActiveCreditor(ctx, plan.Free)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if plan.Free {
		if active == nil {
			return nil, fmt.Errorf("%w: no qualified creditor", ErrInvariant)
		}
		return active, nil
	}

	stake := plan.TotalStake()
	if active != nil {
		balance, err := e.refreshBalance(ctx, q, active.Account)
		if err != nil {
			return nil, err
		}
		if balance >= stake {
			return active, nil
		}
	}

	candidates, err := q.ListCreditorsByAccount(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		balance, err := e.refreshBalance(ctx, q, c.Account)
		if err != nil {
			return nil, err
		}
		if balance >= stake {
			return q.GetCreditor(ctx, c.Account)
		}
	}

	return nil, fmt.Errorf("%w: no qualified creditor", ErrInvariant)
}

// activate promotes one creditor and demotes every other creditor of its
// tier in the same pass, preserving the one-active-per-tier invariant.
// Balance snapshots of all touched records are refreshed.
func (e *Engine) activate(ctx context.Context, q storage.Querier, account string) error {
	target, err := q.GetCreditor(ctx, account)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: creditor %s", ErrNotFound, account)
	}
	if err != nil {
		return err
	}

	peers, err := q.ListCreditorsByAccount(ctx, target.Free)
	if err != nil {
		return err
	}

	now := e.clock.Now()
	for _, c := range peers {
		switch {
		case c.Account == target.Account:
			c.Active = true
		case c.Active:
			c.Active = false
		default:
			continue
		}
		balance, err := e.token.Balance(ctx, c.Account)
		if err != nil {
			return fmt.Errorf("failed to fetch balance of %s: %w", c.Account, err)
		}
		c.Balance = balance
		c.UpdatedAt = now
		if err := q.UpdateCreditor(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// rotate replaces the active creditor of a tier whose balance has fallen
// below the tier threshold. Candidates are scanned least-recently-touched
// first, and at most one promotion happens per tier per call.
func (e *Engine) rotate(ctx context.Context, q storage.Querier) error {
	freeThreshold := int64(MinFreeCreditorBalance)
	paidThreshold, err := e.minPaidStake(ctx, q)
	if err != nil {
		return err
	}

	freeDone, freeActive, err := e.tierHealthy(ctx, q, true, freeThreshold)
	if err != nil {
		return err
	}
	paidDone, paidActive, err := e.tierHealthy(ctx, q, false, paidThreshold)
	if err != nil {
		return err
	}
	if freeDone && paidDone {
		return nil
	}

	candidates, err := q.ListCreditorsByUpdatedAt(ctx)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		threshold, done, current := paidThreshold, &paidDone, paidActive
		if c.Free {
			threshold, done, current = freeThreshold, &freeDone, freeActive
		}
		if *done || c.Account == current {
			continue
		}

		balance, err := e.refreshBalance(ctx, q, c.Account)
		if err != nil {
			return err
		}
		if balance > threshold {
			if err := e.activate(ctx, q, c.Account); err != nil {
				return err
			}
			*done = true
			e.metrics.Rotations.WithLabelValues(metrics.Tier(c.Free)).Inc()
			slog.Info("Creditor rotated in",
				"creditor", c.Account,
				"tier", metrics.Tier(c.Free),
				"balance", balance,
			)
		}
	}
	return nil
}

// tierHealthy reports whether a tier's active creditor sits above the
// threshold (no rotation needed) and names the current active account. A
// tier without an active creditor always needs rotation.
func (e *Engine) tierHealthy(ctx context.Context, q storage.Querier, free bool, threshold int64) (bool, string, error) {
	active, err := q.ActiveCreditor(ctx, free)
	if errors.Is(err, storage.ErrNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	balance, err := e.refreshBalance(ctx, q, active.Account)
	if err != nil {
		return false, "", err
	}
	return balance > threshold, active.Account, nil
}

// minPaidStake is the paid-tier rotation threshold: the cheapest total
// stake among active paid plans, or a high fallback when none is active.
func (e *Engine) minPaidStake(ctx context.Context, q storage.Querier) (int64, error) {
	plans, err := q.ListActivePlans(ctx)
	if err != nil {
		return 0, err
	}
	min := int64(fallbackMinPaidStake)
	for _, p := range plans {
		if !p.Free && p.TotalStake() < min {
			min = p.TotalStake()
		}
	}
	return min, nil
}
