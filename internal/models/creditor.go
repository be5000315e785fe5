package models

// Creditor is an account whose balance backs resource delegation. Creditors
// belong to either the free or the paid tier, and at most one creditor per
// tier is active at any time; the active one funds new leases until rotation
// replaces it.
type Creditor struct {
	// Account is the creditor's account name (primary key).
	Account string

	// Active marks the creditor currently funding new leases of its tier.
	Active bool

	// Free puts the creditor in the free tier. Free creditors fund refunded
	// leases and earn no income.
	Free bool

	// FreeMemo is appended to the refund memo of free leases funded by this
	// creditor. Empty for paid creditors.
	FreeMemo string

	// Balance is a cached snapshot of the external account balance. It is
	// refreshed whenever it is read and found stale; exact threshold checks
	// always re-fetch first.
	Balance int64

	// Aggregate staked totals over this creditor's currently open leases,
	// and running unstaked totals over its matured ones.
	CpuStaked   int64
	NetStaked   int64
	CpuUnstaked int64
	NetUnstaked int64

	// UsesProxy routes delegation through the safe delegation proxy instead
	// of the system delegation interface.
	UsesProxy bool

	CreatedAt int64

	// UpdatedAt orders rotation candidates (least recently touched first).
	// New creditors start at 0 so rotation considers them immediately.
	UpdatedAt int64
}
