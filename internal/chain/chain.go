// Package chain defines the external collaborators the lease engine drives:
// the clock, the token ledger, the resource delegation interface, and the
// deferred execution substrate. The engine only depends on the interfaces;
// this package also ships in-process implementations used by the server and
// by tests.
package chain

import (
	"context"
	"time"
)

// Clock supplies the current time as unix seconds. Injected so the engine
// has no hidden global time dependency.
type Clock interface {
	Now() int64
}

// SystemClock is the wall-clock implementation of Clock.
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// TokenLedger is the external account and transfer interface. Balance is
// the authoritative balance; the creditor table only caches it.
type TokenLedger interface {
	// Exists reports whether an account exists.
	Exists(ctx context.Context, account string) (bool, error)

	// Balance returns the current balance of an account.
	Balance(ctx context.Context, account string) (int64, error)

	// Transfer moves amount from one account to another with a memo.
	Transfer(ctx context.Context, from, to string, amount int64, memo string) error
}

// Delegator stakes and unstakes resources on behalf of a beneficiary. Two
// implementations exist per deployment: the direct system interface and the
// safe delegation proxy; the creditor's uses_proxy flag selects between
// them.
type Delegator interface {
	Delegate(ctx context.Context, creditor, beneficiary string, cpu, net int64) error
	Undelegate(ctx context.Context, creditor, beneficiary string, cpu, net int64) error
}

// ExpireFunc processes a batch of matured lease ids. It must tolerate
// re-delivery: ids already processed through another path are skipped.
type ExpireFunc func(ids []int64)

// DeferredExecutor schedules a future invocation of the expiry callback.
// Delivery is fire-and-forget and at least once; submissions sharing a
// dedupe key collapse into one pending task.
type DeferredExecutor interface {
	Schedule(ids []int64, delay int64, dedupeKey string) error
}
