package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stakebank/stakebank/internal/chain"
	"github.com/stakebank/stakebank/internal/metrics"
	"github.com/stakebank/stakebank/internal/storage"
	"github.com/stakebank/stakebank/internal/storage/sqlite"
)

const (
	testBank    = "stakebank"
	testRelay   = "stakerelay"
	testReserve = "stakereserve"
	testFunding = "stakefunding"
)

// fakeClock is a manually advanced Clock so tests control lease maturity.
type fakeClock struct {
	now int64
}

func (c *fakeClock) Now() int64 {
	return c.now
}

func (c *fakeClock) advance(seconds int64) {
	c.now += seconds
}

type transferRecord struct {
	from   string
	to     string
	amount int64
	memo   string
}

// recordingLedger keeps MemoryLedger's balance semantics and records every
// successful transfer for assertions. Setting transferErr makes every
// Transfer fail without moving funds.
type recordingLedger struct {
	*chain.MemoryLedger
	transfers   []transferRecord
	transferErr error
}

func (l *recordingLedger) Transfer(ctx context.Context, from, to string, amount int64, memo string) error {
	if l.transferErr != nil {
		return l.transferErr
	}
	if err := l.MemoryLedger.Transfer(ctx, from, to, amount, memo); err != nil {
		return err
	}
	l.transfers = append(l.transfers, transferRecord{from: from, to: to, amount: amount, memo: memo})
	return nil
}

type delegationRecord struct {
	creditor    string
	beneficiary string
	cpu         int64
	net         int64
}

// recordingDelegator records delegation calls instead of touching a chain.
type recordingDelegator struct {
	delegated   []delegationRecord
	undelegated []delegationRecord
}

func (d *recordingDelegator) Delegate(ctx context.Context, creditor, beneficiary string, cpu, net int64) error {
	d.delegated = append(d.delegated, delegationRecord{creditor, beneficiary, cpu, net})
	return nil
}

func (d *recordingDelegator) Undelegate(ctx context.Context, creditor, beneficiary string, cpu, net int64) error {
	d.undelegated = append(d.undelegated, delegationRecord{creditor, beneficiary, cpu, net})
	return nil
}

type fixture struct {
	eng    *Engine
	store  storage.Store
	ledger *recordingLedger
	clock  *fakeClock
	direct *recordingDelegator
	proxy  *recordingDelegator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ledger := &recordingLedger{MemoryLedger: chain.NewMemoryLedger()}
	ledger.Credit(testBank, 1_000_000_0000)
	ledger.Credit(testRelay, 0)

	clock := &fakeClock{now: 1_700_000_000}
	direct := &recordingDelegator{}
	proxy := &recordingDelegator{}

	eng := New(store, clock, ledger, direct, proxy,
		metrics.New(prometheus.NewRegistry()),
		Accounts{
			Bank:    testBank,
			Relay:   testRelay,
			Reserve: testReserve,
			Funding: testFunding,
		},
	)

	return &fixture{
		eng:    eng,
		store:  store,
		ledger: ledger,
		clock:  clock,
		direct: direct,
		proxy:  proxy,
	}
}

// addPlan creates and activates a plan selected by price.
func (f *fixture) addPlan(t *testing.T, price, cpu, net, duration int64, free bool) {
	t.Helper()
	ctx := context.Background()
	if err := f.eng.SetPlan(ctx, price, cpu, net, duration, free); err != nil {
		t.Fatalf("Failed to set plan: %v", err)
	}
	if err := f.eng.ActivatePlan(ctx, price, true); err != nil {
		t.Fatalf("Failed to activate plan: %v", err)
	}
}

// addCreditor funds the account on the ledger, registers it as a creditor
// and optionally promotes it to its tier's active slot.
func (f *fixture) addCreditor(t *testing.T, account string, free bool, freeMemo string, balance int64, activate bool) {
	t.Helper()
	ctx := context.Background()
	f.ledger.Credit(account, balance)
	if err := f.eng.AddCreditor(ctx, account, free, freeMemo); err != nil {
		t.Fatalf("Failed to add creditor %s: %v", account, err)
	}
	if activate {
		if err := f.eng.ActivateCreditor(ctx, account); err != nil {
			t.Fatalf("Failed to activate creditor %s: %v", account, err)
		}
	}
}
