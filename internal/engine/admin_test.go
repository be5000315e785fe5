package engine

import (
	"context"
	"errors"
	"testing"
)

func TestSetPlanValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name                      string
		price, cpu, net, duration int64
	}{
		{name: "zero price", price: 0, cpu: 1, net: 1, duration: 60},
		{name: "negative cpu", price: 1, cpu: -1, net: 1, duration: 60},
		{name: "zero duration", price: 1, cpu: 1, net: 1, duration: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.eng.SetPlan(ctx, tt.price, tt.cpu, tt.net, tt.duration, false)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("SetPlan error = %v, want %v", err, ErrValidation)
			}
		})
	}
}

func TestSetPlanUpsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPlan(t, 100_0000, 500_0000, 500_0000, 86400, false)

	// Same price updates the plan in place instead of adding a second one.
	if err := f.eng.SetPlan(ctx, 100_0000, 600_0000, 400_0000, 43200, false); err != nil {
		t.Fatalf("SetPlan update failed: %v", err)
	}
	plan, err := f.store.ActivePlanByPrice(ctx, 100_0000)
	if err != nil {
		t.Fatalf("ActivePlanByPrice failed: %v", err)
	}
	if plan.Cpu != 600_0000 || plan.Net != 400_0000 || plan.Duration != 43200 {
		t.Errorf("Plan after update = cpu %d net %d duration %d", plan.Cpu, plan.Net, plan.Duration)
	}
}

func TestActivatePlanUnknown(t *testing.T) {
	f := newFixture(t)

	err := f.eng.ActivatePlan(context.Background(), 42, true)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ActivatePlan error = %v, want %v", err, ErrNotFound)
	}
}

func TestAddCreditor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.eng.AddCreditor(ctx, "ghost", false, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("AddCreditor for nonexistent account error = %v, want %v", err, ErrValidation)
	}

	f.ledger.Credit("payer1", 5000_0000)
	if err := f.eng.AddCreditor(ctx, "payer1", false, ""); err != nil {
		t.Fatalf("AddCreditor failed: %v", err)
	}
	if err := f.eng.AddCreditor(ctx, "payer1", false, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Duplicate AddCreditor error = %v, want %v", err, ErrValidation)
	}

	c, err := f.store.GetCreditor(ctx, "payer1")
	if err != nil {
		t.Fatalf("GetCreditor failed: %v", err)
	}
	if c.Active {
		t.Error("New creditor must start inactive")
	}
	if c.Balance != 5000_0000 {
		t.Errorf("Balance snapshot = %d, want %d", c.Balance, 5000_0000)
	}
	if c.UpdatedAt != 0 {
		t.Errorf("UpdatedAt = %d, want 0 so rotation considers it first", c.UpdatedAt)
	}
}

func TestDeleteCreditor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.eng.DeleteCreditor(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteCreditor unknown error = %v, want %v", err, ErrNotFound)
	}

	f.addCreditor(t, "payer1", false, "", 5000_0000, true)
	if err := f.eng.DeleteCreditor(ctx, "payer1"); !errors.Is(err, ErrValidation) {
		t.Errorf("DeleteCreditor active error = %v, want %v", err, ErrValidation)
	}

	f.addCreditor(t, "payer2", false, "", 5000_0000, false)
	if err := f.eng.DeleteCreditor(ctx, "payer2"); err != nil {
		t.Errorf("DeleteCreditor inactive failed: %v", err)
	}
}

func TestActivateCreditorDemotesPeers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addCreditor(t, "payer1", false, "", 5000_0000, true)
	f.addCreditor(t, "payer2", false, "", 5000_0000, false)
	f.addCreditor(t, "freepayer", true, "voucher", 50_0000, true)

	if err := f.eng.ActivateCreditor(ctx, "payer2"); err != nil {
		t.Fatalf("ActivateCreditor failed: %v", err)
	}

	payer1, _ := f.store.GetCreditor(ctx, "payer1")
	payer2, _ := f.store.GetCreditor(ctx, "payer2")
	freepayer, _ := f.store.GetCreditor(ctx, "freepayer")
	if payer1.Active {
		t.Error("Expected payer1 to be demoted")
	}
	if !payer2.Active {
		t.Error("Expected payer2 to be active")
	}
	// The other tier is untouched.
	if !freepayer.Active {
		t.Error("Expected freepayer to stay active")
	}
}

func TestSetDividend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addCreditor(t, "payer1", false, "", 5000_0000, false)

	if err := f.eng.SetDividend(ctx, "payer1", 101); !errors.Is(err, ErrValidation) {
		t.Errorf("SetDividend out of range error = %v, want %v", err, ErrValidation)
	}
	if err := f.eng.SetDividend(ctx, "ghost", 50); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetDividend unknown creditor error = %v, want %v", err, ErrNotFound)
	}
	if err := f.eng.SetDividend(ctx, "payer1", 50); err != nil {
		t.Errorf("SetDividend failed: %v", err)
	}
	if err := f.eng.DeleteDividend(ctx, "payer1"); err != nil {
		t.Errorf("DeleteDividend failed: %v", err)
	}
	if err := f.eng.DeleteDividend(ctx, "payer1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteDividend missing error = %v, want %v", err, ErrNotFound)
	}
}

func TestAccessLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.eng.AddBlacklist(ctx, "mallory"); err != nil {
		t.Fatalf("AddBlacklist failed: %v", err)
	}
	if err := f.eng.AddBlacklist(ctx, "mallory"); !errors.Is(err, ErrValidation) {
		t.Errorf("Duplicate AddBlacklist error = %v, want %v", err, ErrValidation)
	}
	if err := f.eng.RemoveBlacklist(ctx, "mallory"); err != nil {
		t.Errorf("RemoveBlacklist failed: %v", err)
	}
	if err := f.eng.RemoveBlacklist(ctx, "mallory"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveBlacklist missing error = %v, want %v", err, ErrNotFound)
	}

	if err := f.eng.SetWhitelist(ctx, "alice", 0); !errors.Is(err, ErrValidation) {
		t.Errorf("SetWhitelist zero capacity error = %v, want %v", err, ErrValidation)
	}
	if err := f.eng.SetWhitelist(ctx, "alice", 10); err != nil {
		t.Errorf("SetWhitelist failed: %v", err)
	}
	if err := f.eng.RemoveWhitelist(ctx, "alice"); err != nil {
		t.Errorf("RemoveWhitelist failed: %v", err)
	}
	if err := f.eng.RemoveWhitelist(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveWhitelist missing error = %v, want %v", err, ErrNotFound)
	}
}

func TestSetCreditorProxyUnknown(t *testing.T) {
	f := newFixture(t)

	err := f.eng.SetCreditorProxy(context.Background(), "ghost", true)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SetCreditorProxy error = %v, want %v", err, ErrNotFound)
	}
}

func TestPruneHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.eng.PruneHistory(ctx, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("PruneHistory zero depth error = %v, want %v", err, ErrValidation)
	}

	f.addPlan(t, 100_0000, 500_0000, 500_0000, 86400, false)
	f.addCreditor(t, "payer1", false, "", 5000_0000, true)
	for i := 0; i < 3; i++ {
		id, err := f.eng.OpenLease(ctx, "alice", 100_0000, "")
		if err != nil {
			t.Fatalf("OpenLease failed: %v", err)
		}
		if err := f.eng.ForceExpire(ctx, []int64{id}); err != nil {
			t.Fatalf("ForceExpire failed: %v", err)
		}
	}

	pruned, err := f.eng.PruneHistory(ctx, 2)
	if err != nil {
		t.Fatalf("PruneHistory failed: %v", err)
	}
	if pruned != 2 {
		t.Errorf("Pruned = %d, want 2", pruned)
	}
	pruned, err = f.eng.PruneHistory(ctx, 10)
	if err != nil {
		t.Fatalf("PruneHistory failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("Pruned = %d, want 1", pruned)
	}
}
