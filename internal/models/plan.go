package models

// Plan represents a purchasable lease offering. A deposit matching Price
// exactly opens a lease staking Cpu and Net for the beneficiary for Duration
// seconds. Price is the unique selection key: there is at most one plan per
// price, and the deposit amount alone picks the plan.
type Plan struct {
	// ID is the sequential identifier assigned by storage.
	ID int64

	// Price is the exact deposit amount that selects this plan.
	Price int64

	// Cpu is the amount staked for CPU on behalf of the beneficiary.
	Cpu int64

	// Net is the amount staked for NET on behalf of the beneficiary.
	Net int64

	// Duration is the lease lifetime in seconds.
	Duration int64

	// Free marks the free tier: the deposit is refunded immediately and no
	// income split happens at maturity.
	Free bool

	// Active controls whether deposits can select this plan.
	Active bool

	CreatedAt int64
	UpdatedAt int64
}

// TotalStake is the capital a creditor must cover to back one lease of this
// plan.
func (p *Plan) TotalStake() int64 {
	return p.Cpu + p.Net
}
