package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/stakebank/stakebank/internal/storage"
)

// splitIncome divides a matured paid lease's price into the creditor's
// income and the treasury's reserve. Income uses a single integer division;
// the reserve is the remainder by construction, so income + reserved always
// equals price exactly for any percentage in [0, 100].
func (e *Engine) splitIncome(ctx context.Context, q storage.Querier, creditor string, price int64) (income, reserved int64, err error) {
	percentage := int64(DefaultDividendPercentage)
	d, err := q.GetDividend(ctx, creditor)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, 0, err
	}
	if d != nil {
		percentage = d.Percentage
	}

	income = price * percentage / 100
	reserved = price - income
	if income > price {
		return 0, 0, fmt.Errorf("%w: income %d exceeds price %d", ErrInvariant, income, price)
	}
	return income, reserved, nil
}
