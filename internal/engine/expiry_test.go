package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

func TestLeaseExpiryPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPlan(t, 100_0000, 500_0000, 500_0000, 86400, false)
	f.addCreditor(t, "payer1", false, "", 5000_0000, true)

	id, err := f.eng.OpenLease(ctx, "alice", 100_0000, "")
	if err != nil {
		t.Fatalf("OpenLease failed: %v", err)
	}

	f.clock.advance(86401)
	if err := f.eng.Check(ctx); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if _, err := f.store.GetLease(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected lease to be released, GetLease error = %v", err)
	}

	if len(f.direct.undelegated) != 1 {
		t.Fatalf("Expected 1 undelegation, got %d", len(f.direct.undelegated))
	}
	u := f.direct.undelegated[0]
	if u.creditor != "payer1" || u.beneficiary != "alice" || u.cpu != 500_0000 || u.net != 500_0000 {
		t.Errorf("Unexpected undelegation: %+v", u)
	}

	// Default split: 90% income to the creditor, remainder to the reserve.
	if len(f.ledger.transfers) != 2 {
		t.Fatalf("Expected 2 transfers, got %d: %v", len(f.ledger.transfers), f.ledger.transfers)
	}
	income := f.ledger.transfers[0]
	if income.from != testBank || income.to != testRelay || income.amount != 90_0000 {
		t.Errorf("Unexpected income transfer: %+v", income)
	}
	if income.memo != "payer1 stakebank income" {
		t.Errorf("Income memo = %q, want %q", income.memo, "payer1 stakebank income")
	}
	reserved := f.ledger.transfers[1]
	if reserved.amount != 10_0000 {
		t.Errorf("Reserved amount = %d, want %d", reserved.amount, 10_0000)
	}
	if reserved.memo != testReserve+" stakebank reserved" {
		t.Errorf("Reserved memo = %q, want %q", reserved.memo, testReserve+" stakebank reserved")
	}

	creditor, err := f.store.GetCreditor(ctx, "payer1")
	if err != nil {
		t.Fatalf("GetCreditor failed: %v", err)
	}
	if creditor.CpuStaked != 0 || creditor.NetStaked != 0 {
		t.Errorf("Creditor stake = %d/%d after release, want 0/0", creditor.CpuStaked, creditor.NetStaked)
	}
	if creditor.CpuUnstaked != 500_0000 || creditor.NetUnstaked != 500_0000 {
		t.Errorf("Creditor unstaked = %d/%d, want 500_0000/500_0000", creditor.CpuUnstaked, creditor.NetUnstaked)
	}

	// Exactly one archive record for the matured lease.
	pruned, err := f.store.PruneHistory(ctx, 10)
	if err != nil {
		t.Fatalf("PruneHistory failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("Archived records = %d, want 1", pruned)
	}
}

func TestLeaseExpiryDividendOverride(t *testing.T) {
	tests := []struct {
		name         string
		percentage   int64
		wantIncome   int64
		wantReserved int64
	}{
		{name: "custom split", percentage: 75, wantIncome: 75_0000, wantReserved: 25_0000},
		{name: "all to reserve", percentage: 0, wantIncome: 0, wantReserved: 100_0000},
		{name: "all to creditor", percentage: 100, wantIncome: 100_0000, wantReserved: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			f.addPlan(t, 100_0000, 500_0000, 500_0000, 86400, false)
			f.addCreditor(t, "payer1", false, "", 5000_0000, true)
			if err := f.eng.SetDividend(ctx, "payer1", tt.percentage); err != nil {
				t.Fatalf("SetDividend failed: %v", err)
			}

			id, err := f.eng.OpenLease(ctx, "alice", 100_0000, "")
			if err != nil {
				t.Fatalf("OpenLease failed: %v", err)
			}
			f.clock.advance(86401)
			if err := f.eng.Check(ctx); err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if _, err := f.store.GetLease(ctx, id); !errors.Is(err, storage.ErrNotFound) {
				t.Fatalf("Expected lease to be released, GetLease error = %v", err)
			}

			// Zero legs are skipped, so collect amounts by memo suffix.
			var income, reserved int64
			for _, tr := range f.ledger.transfers {
				switch {
				case tr.memo == "payer1 stakebank income":
					income += tr.amount
				case tr.memo == testReserve+" stakebank reserved":
					reserved += tr.amount
				default:
					t.Errorf("Unexpected transfer: %+v", tr)
				}
			}
			if income != tt.wantIncome {
				t.Errorf("Income = %d, want %d", income, tt.wantIncome)
			}
			if reserved != tt.wantReserved {
				t.Errorf("Reserved = %d, want %d", reserved, tt.wantReserved)
			}
		})
	}
}

func TestSplitIncomeExact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Odd price: the reserve takes the integer-division remainder.
	income, reserved, err := f.eng.splitIncome(ctx, f.store, "payer1", 999)
	if err != nil {
		t.Fatalf("splitIncome failed: %v", err)
	}
	if income != 899 || reserved != 100 {
		t.Errorf("Split = %d/%d, want 899/100", income, reserved)
	}
	if income+reserved != 999 {
		t.Errorf("income + reserved = %d, want 999", income+reserved)
	}

	if err := f.store.SetDividend(ctx, &models.Dividend{Account: "payer1", Percentage: 33}); err != nil {
		t.Fatalf("SetDividend failed: %v", err)
	}
	income, reserved, err = f.eng.splitIncome(ctx, f.store, "payer1", 1000)
	if err != nil {
		t.Fatalf("splitIncome failed: %v", err)
	}
	if income != 330 || reserved != 670 {
		t.Errorf("Split = %d/%d, want 330/670", income, reserved)
	}
}

func TestExpiryPayoutFailureStillReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPlan(t, 100_0000, 500_0000, 500_0000, 86400, false)
	f.addCreditor(t, "payer1", false, "", 5000_0000, true)

	id, err := f.eng.OpenLease(ctx, "alice", 100_0000, "")
	if err != nil {
		t.Fatalf("OpenLease failed: %v", err)
	}

	// The release commits before any payout moves, so a broken transfer
	// relay cannot leave the lease behind to be paid again later.
	f.ledger.transferErr = errors.New("relay unavailable")
	f.clock.advance(86401)
	if err := f.eng.Check(ctx); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if _, err := f.store.GetLease(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected lease to be released, GetLease error = %v", err)
	}
	if len(f.ledger.transfers) != 0 {
		t.Errorf("Expected no transfers, got %v", f.ledger.transfers)
	}

	// Once the relay recovers, a re-sweep finds nothing to pay twice.
	f.ledger.transferErr = nil
	if err := f.eng.Check(ctx); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(f.ledger.transfers) != 0 {
		t.Errorf("Expected no transfers after re-sweep, got %v", f.ledger.transfers)
	}
}

func TestForceExpire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPlan(t, 100_0000, 500_0000, 500_0000, 86400, false)
	f.addCreditor(t, "payer1", false, "", 5000_0000, true)

	id, err := f.eng.OpenLease(ctx, "alice", 100_0000, "")
	if err != nil {
		t.Fatalf("OpenLease failed: %v", err)
	}

	// Released immediately, well before maturity.
	if err := f.eng.ForceExpire(ctx, []int64{id}); err != nil {
		t.Fatalf("ForceExpire failed: %v", err)
	}
	if _, err := f.store.GetLease(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected lease to be released, GetLease error = %v", err)
	}
	transfersAfterFirst := len(f.ledger.transfers)

	// Releasing again is a no-op: the id is gone and nothing moves twice.
	if err := f.eng.ForceExpire(ctx, []int64{id}); err != nil {
		t.Fatalf("Second ForceExpire failed: %v", err)
	}
	if len(f.ledger.transfers) != transfersAfterFirst {
		t.Errorf("Transfer count changed on repeat release: %d -> %d", transfersAfterFirst, len(f.ledger.transfers))
	}
	if len(f.direct.undelegated) != 1 {
		t.Errorf("Expected 1 undelegation, got %d", len(f.direct.undelegated))
	}
}

func TestExpireBatchSkipsMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPlan(t, 100_0000, 500_0000, 500_0000, 86400, false)
	f.addCreditor(t, "payer1", false, "", 5000_0000, true)

	id, err := f.eng.OpenLease(ctx, "alice", 100_0000, "")
	if err != nil {
		t.Fatalf("OpenLease failed: %v", err)
	}

	f.eng.ExpireBatch([]int64{9999, id})
	if _, err := f.store.GetLease(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected lease to be released, GetLease error = %v", err)
	}
}

func TestCheckBoundedSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPlan(t, 100_0000, 500_0000, 500_0000, 86400, false)
	f.addCreditor(t, "payer1", false, "", 5000_0000, true)

	var ids []int64
	for i := 0; i < 4; i++ {
		id, err := f.eng.OpenLease(ctx, "alice", 100_0000, "")
		if err != nil {
			t.Fatalf("OpenLease %d failed: %v", i, err)
		}
		ids = append(ids, id)
	}

	f.clock.advance(86401)

	remaining := func() int {
		n := 0
		for _, id := range ids {
			if _, err := f.store.GetLease(ctx, id); err == nil {
				n++
			}
		}
		return n
	}

	// Each pass takes at most CheckMaxDepth leases off the front.
	if err := f.eng.Check(ctx); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if got := remaining(); got != 1 {
		t.Errorf("Remaining after first sweep = %d, want 1", got)
	}
	if err := f.eng.Check(ctx); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if got := remaining(); got != 0 {
		t.Errorf("Remaining after second sweep = %d, want 0", got)
	}
}

func TestLeaseExpiryFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPlan(t, 1_0000, 10_0000, 10_0000, 3600, true)
	f.addCreditor(t, "freepayer", true, "voucher", 50_0000, true)
	f.ledger.Credit("bob", 0)

	id, err := f.eng.OpenLease(ctx, "alice", 1_0000, "bob")
	if err != nil {
		t.Fatalf("OpenLease failed: %v", err)
	}

	f.clock.advance(3601)
	if err := f.eng.Check(ctx); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if _, err := f.store.GetLease(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected lease to be released, GetLease error = %v", err)
	}
	// The elapsed freelock is collected by the same sweep.
	if _, err := f.store.GetFreelock(ctx, "bob"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected freelock to be swept, GetFreelock error = %v", err)
	}
	// No income split on free maturity; the only transfer is the refund at
	// issuance.
	if len(f.ledger.transfers) != 1 {
		t.Errorf("Expected 1 transfer, got %d: %v", len(f.ledger.transfers), f.ledger.transfers)
	}

	// bob can take a new free lease after the lock is gone.
	if _, err := f.eng.OpenLease(ctx, "alice", 1_0000, "bob"); err != nil {
		t.Errorf("Free lease after lock expiry failed: %v", err)
	}
}
