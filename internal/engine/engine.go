// Package engine implements the lease lifecycle: issuance against the plan
// catalog, creditor selection and rotation, deferred expiry with bounded
// sweeps, income/reserve splitting, and the free-tier guard.
//
// Every exported entry point applies its table mutations inside a single
// storage transaction, so one triggering event is an all-or-nothing unit.
// The engine owns the creditor balance and stake fields exclusively; other
// components read them but never write.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/stakebank/stakebank/internal/chain"
	"github.com/stakebank/stakebank/internal/metrics"
	"github.com/stakebank/stakebank/internal/storage"
)

const (
	// MaxFreeLeases and MaxPaidLeases cap concurrently open leases per
	// account and role. The whitelist overrides the free cap per account.
	MaxFreeLeases = 5
	MaxPaidLeases = 20

	// CheckMaxDepth bounds the per-call work of every sweep.
	CheckMaxDepth = 3

	// MinFreeCreditorBalance is the rotation threshold of the free tier
	// (10.0000 units).
	MinFreeCreditorBalance = 10 * 10000

	// DefaultDividendPercentage is the creditor's income share unless a
	// dividend override exists.
	DefaultDividendPercentage = 90

	// fallbackMinPaidStake is the paid-tier rotation threshold when no paid
	// plan is active (10000.0000 units).
	fallbackMinPaidStake = 10000 * 10000
)

// Accounts names the well-known accounts the engine transacts with.
type Accounts struct {
	// Bank holds deposits and pays out refunds, income and reserve.
	Bank string

	// Relay receives outbound transfers for forwarding; the memo names the
	// final recipient.
	Relay string

	// Reserve is the treasury account named in reserve payout memos.
	Reserve string

	// Funding is the treasury top-up account: its deposits are kept
	// without opening a lease.
	Funding string
}

// Engine drives the lease lifecycle against a storage backend and the
// external chain collaborators.
type Engine struct {
	store    storage.Store
	clock    chain.Clock
	token    chain.TokenLedger
	direct   chain.Delegator
	proxy    chain.Delegator
	executor chain.DeferredExecutor
	metrics  *metrics.Metrics
	accounts Accounts
}

// New creates an engine. The deferred executor is attached separately with
// SetExecutor because it needs the engine's expiry callback.
func New(
	store storage.Store,
	clock chain.Clock,
	token chain.TokenLedger,
	direct, proxy chain.Delegator,
	m *metrics.Metrics,
	accounts Accounts,
) *Engine {
	return &Engine{
		store:    store,
		clock:    clock,
		token:    token,
		direct:   direct,
		proxy:    proxy,
		metrics:  m,
		accounts: accounts,
	}
}

// SetExecutor attaches the deferred execution substrate. Without one, all
// expiries are picked up by bounded sweeps instead of deferred callbacks.
func (e *Engine) SetExecutor(executor chain.DeferredExecutor) {
	e.executor = executor
}

// delegator returns the delegation route for a creditor.
func (e *Engine) delegator(usesProxy bool) chain.Delegator {
	if usesProxy {
		return e.proxy
	}
	return e.direct
}

// refreshBalance re-fetches a creditor's external balance and writes it
// back to the record when stale. The returned value is the authoritative
// balance; the cached field is only a snapshot for observers.
func (e *Engine) refreshBalance(ctx context.Context, q storage.Querier, account string) (int64, error) {
	balance, err := e.token.Balance(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch balance of %s: %w", account, err)
	}

	c, err := q.GetCreditor(ctx, account)
	if errors.Is(err, storage.ErrNotFound) {
		// Not every balance read targets a creditor record.
		return balance, nil
	}
	if err != nil {
		return 0, err
	}
	if c.Balance != balance {
		c.Balance = balance
		c.UpdatedAt = e.clock.Now()
		if err := q.UpdateCreditor(ctx, c); err != nil {
			return 0, err
		}
	}
	return balance, nil
}
