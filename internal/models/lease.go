package models

import (
	"fmt"
	"strconv"
)

// Lease is an open, time-boxed delegation of staked resources to a
// beneficiary, funded by exactly one creditor. A lease is removed exactly
// once, atomically with undelegation and archival.
type Lease struct {
	// ID is the sequential identifier assigned by storage.
	ID int64

	// Buyer is the account that paid the deposit.
	Buyer string

	// Beneficiary is the account receiving the delegated resources.
	Beneficiary string

	// Creditor is the account whose capital backs the delegation.
	Creditor string

	// PlanID references the plan this lease was opened under.
	PlanID int64

	// Price is the deposit amount paid.
	Price int64

	// CpuStaked and NetStaked are the amounts delegated for this lease.
	CpuStaked int64
	NetStaked int64

	// Free marks a free-tier lease (deposit already refunded at issuance).
	Free bool

	CreatedAt int64

	// ExpireAt is always CreatedAt + plan duration.
	ExpireAt int64
}

// Summary renders the archival form of a lease:
// buyer|creditor|beneficiary|plan|price|tier|cpu|net|created|expired.
func (l *Lease) Summary() string {
	tier := "paid"
	if l.Free {
		tier = "free"
	}
	return l.Buyer +
		"|" + l.Creditor +
		"|" + l.Beneficiary +
		"|" + strconv.FormatInt(l.PlanID, 10) +
		"|" + strconv.FormatInt(l.Price, 10) +
		"|" + tier +
		"|" + strconv.FormatInt(l.CpuStaked, 10) +
		"|" + strconv.FormatInt(l.NetStaked, 10) +
		"|" + strconv.FormatInt(l.CreatedAt, 10) +
		"|" + strconv.FormatInt(l.ExpireAt, 10)
}

// String implements fmt.Stringer for log output.
func (l *Lease) String() string {
	return fmt.Sprintf("lease %d (%s -> %s)", l.ID, l.Creditor, l.Beneficiary)
}
