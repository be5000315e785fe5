package chain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// MemoryLedger is an in-process TokenLedger. The dev server runs against it;
// tests use it to observe transfers.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]int64)}
}

// Credit creates the account if needed and adds amount to its balance.
func (l *MemoryLedger) Credit(account string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

func (l *MemoryLedger) Exists(ctx context.Context, account string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.balances[account]
	return ok, nil
}

func (l *MemoryLedger) Balance(ctx context.Context, account string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[account]
	if !ok {
		return 0, fmt.Errorf("account %s does not exist", account)
	}
	return balance, nil
}

func (l *MemoryLedger) Transfer(ctx context.Context, from, to string, amount int64, memo string) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[from]
	if !ok {
		return fmt.Errorf("account %s does not exist", from)
	}
	if _, ok := l.balances[to]; !ok {
		return fmt.Errorf("account %s does not exist", to)
	}
	if balance < amount {
		return fmt.Errorf("account %s has %d, cannot transfer %d", from, balance, amount)
	}

	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// LogDelegator is a Delegator that only records delegation calls in the
// log. The dev server wires it in for both the direct and the proxy slot.
type LogDelegator struct {
	// Proxy tags the log lines so direct and proxied calls are
	// distinguishable.
	Proxy bool
}

func (d *LogDelegator) Delegate(ctx context.Context, creditor, beneficiary string, cpu, net int64) error {
	slog.Info("Delegate",
		"creditor", creditor,
		"beneficiary", beneficiary,
		"cpu", cpu,
		"net", net,
		"proxy", d.Proxy,
	)
	return nil
}

func (d *LogDelegator) Undelegate(ctx context.Context, creditor, beneficiary string, cpu, net int64) error {
	slog.Info("Undelegate",
		"creditor", creditor,
		"beneficiary", beneficiary,
		"cpu", cpu,
		"net", net,
		"proxy", d.Proxy,
	)
	return nil
}
