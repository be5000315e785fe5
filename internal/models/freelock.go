package models

// Freelock blocks a beneficiary from holding more than one concurrent
// free-tier lease. A beneficiary has at most one unexpired lock; expired
// locks are garbage-collected by bounded sweeps.
type Freelock struct {
	// Beneficiary is the locked account (primary key).
	Beneficiary string

	CreatedAt int64
	ExpireAt  int64
}

// Dividend overrides the default income percentage for one creditor.
// Percentage is in [0, 100]; the remainder of a matured lease's price goes
// to the reserve account.
type Dividend struct {
	Account    string
	Percentage int64
}
