package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

// Administrative operations. These are simple keyed-record editors; the
// service layer has already authorized the caller before they run.

// SetPlan creates or updates the plan selected by price. Plans referenced
// by outstanding leases keep their identity: the price never changes, only
// the resources, duration and tier of future leases.
func (e *Engine) SetPlan(ctx context.Context, price, cpu, net, duration int64, free bool) error {
	if price <= 0 || cpu < 0 || net < 0 {
		return fmt.Errorf("%w: plan amounts must be positive", ErrValidation)
	}
	if duration <= 0 {
		return fmt.Errorf("%w: plan duration must be positive", ErrValidation)
	}

	now := e.clock.Now()
	return e.store.UpsertPlan(ctx, &models.Plan{
		Price:     price,
		Cpu:       cpu,
		Net:       net,
		Duration:  duration,
		Free:      free,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// ActivatePlan flips the active flag of the plan selected by price.
func (e *Engine) ActivatePlan(ctx context.Context, price int64, active bool) error {
	err := e.store.SetPlanActive(ctx, price, active)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: plan with price %d", ErrNotFound, price)
	}
	return err
}

// AddCreditor registers a new creditor. It starts inactive with a zero
// updated_at so the next rotation considers it immediately.
func (e *Engine) AddCreditor(ctx context.Context, account string, free bool, freeMemo string) error {
	exists, err := e.token.Exists(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to check account %s: %w", account, err)
	}
	if !exists {
		return fmt.Errorf("%w: account %s does not exist", ErrValidation, account)
	}

	if _, err := e.store.GetCreditor(ctx, account); err == nil {
		return fmt.Errorf("%w: creditor %s already exists", ErrValidation, account)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	balance, err := e.token.Balance(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to fetch balance of %s: %w", account, err)
	}
	if !free {
		freeMemo = ""
	}
	return e.store.CreateCreditor(ctx, &models.Creditor{
		Account:   account,
		Free:      free,
		FreeMemo:  freeMemo,
		Balance:   balance,
		CreatedAt: e.clock.Now(),
		UpdatedAt: 0,
	})
}

// DeleteCreditor removes an inactive creditor.
func (e *Engine) DeleteCreditor(ctx context.Context, account string) error {
	c, err := e.store.GetCreditor(ctx, account)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: creditor %s", ErrNotFound, account)
	}
	if err != nil {
		return err
	}
	if c.Active {
		return fmt.Errorf("%w: cannot delete active creditor %s", ErrValidation, account)
	}
	return e.store.DeleteCreditor(ctx, account)
}

// ActivateCreditor promotes the creditor, demoting the rest of its tier.
func (e *Engine) ActivateCreditor(ctx context.Context, account string) error {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.activate(ctx, tx, account); err != nil {
		return err
	}
	return tx.Commit()
}

// SetCreditorProxy selects safe-proxy or direct delegation routing for one
// creditor.
func (e *Engine) SetCreditorProxy(ctx context.Context, account string, usesProxy bool) error {
	err := e.store.SetCreditorProxy(ctx, account, usesProxy)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: creditor %s", ErrNotFound, account)
	}
	return err
}

// SetDividend overrides the income percentage for one creditor.
func (e *Engine) SetDividend(ctx context.Context, account string, percentage int64) error {
	if percentage < 0 || percentage > 100 {
		return fmt.Errorf("%w: percentage %d out of range [0, 100]", ErrValidation, percentage)
	}
	if _, err := e.store.GetCreditor(ctx, account); errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: creditor %s", ErrNotFound, account)
	} else if err != nil {
		return err
	}
	return e.store.SetDividend(ctx, &models.Dividend{Account: account, Percentage: percentage})
}

// DeleteDividend restores the default income percentage for one creditor.
func (e *Engine) DeleteDividend(ctx context.Context, account string) error {
	err := e.store.DeleteDividend(ctx, account)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: dividend override for %s", ErrNotFound, account)
	}
	return err
}

// AddBlacklist bars an account from opening leases in any role.
func (e *Engine) AddBlacklist(ctx context.Context, account string) error {
	blacklisted, err := e.store.IsBlacklisted(ctx, account)
	if err != nil {
		return err
	}
	if blacklisted {
		return fmt.Errorf("%w: account %s is already blacklisted", ErrValidation, account)
	}
	return e.store.AddBlacklist(ctx, account, e.clock.Now())
}

// RemoveBlacklist lifts the bar.
func (e *Engine) RemoveBlacklist(ctx context.Context, account string) error {
	err := e.store.RemoveBlacklist(ctx, account)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: blacklist entry %s", ErrNotFound, account)
	}
	return err
}

// SetWhitelist grants an account a custom free-tier concurrent-lease cap.
func (e *Engine) SetWhitelist(ctx context.Context, account string, capacity int64) error {
	if capacity <= 0 {
		return fmt.Errorf("%w: whitelist capacity must be positive", ErrValidation)
	}
	return e.store.UpsertWhitelist(ctx, account, capacity, e.clock.Now())
}

// RemoveWhitelist restores the default free-tier cap for an account.
func (e *Engine) RemoveWhitelist(ctx context.Context, account string) error {
	err := e.store.RemoveWhitelist(ctx, account)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: whitelist entry %s", ErrNotFound, account)
	}
	return err
}

// PruneHistory removes up to maxDepth oldest archive records and reports
// how many were removed.
func (e *Engine) PruneHistory(ctx context.Context, maxDepth int) (int, error) {
	if maxDepth <= 0 {
		return 0, fmt.Errorf("%w: prune depth must be positive", ErrValidation)
	}
	return e.store.PruneHistory(ctx, maxDepth)
}
