package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidValue = errors.New("invalid value")

// impactDivisionPrecision bounds the intermediate quotient before the final
// rounding. Amounts carry 4 decimal places and rates can be small fractions,
// so the quotient needs more headroom than the 2 places we keep.
const impactDivisionPrecision = 16

// Impact converts a currency amount into impact units at the given rate.
// rate is currency per impact unit; multiplier scales the quotient.
// The result is rounded half-up to 2 decimal places.
//
// The same formula applies to every acquisition mode; only the amount's
// origin differs between them.
func Impact(amount, rate, multiplier decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Decimal{}, ErrInvalidValue
	}
	q := amount.DivRound(rate, impactDivisionPrecision)
	return q.Mul(multiplier).Round(2), nil
}

// ConnectFlag reports whether a transaction amount qualifies for the connect
// program. A missing or non-positive threshold never qualifies. The flag is
// computed once at transaction creation and stored immutably.
func ConnectFlag(amount decimal.Decimal, threshold decimal.NullDecimal) bool {
	if !threshold.Valid || !threshold.Decimal.IsPositive() {
		return false
	}
	return amount.GreaterThanOrEqual(threshold.Decimal)
}
