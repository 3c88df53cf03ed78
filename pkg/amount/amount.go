package amount

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

func init() {
	// Enough headroom for 18-decimals tokens on both sides of a division.
	decimal.DivisionPrecision = 36
}

// ToDisplay converts an atomic (smallest-unit, integer) amount into display
// units by scaling down by 10^precision.
func ToDisplay(atomic string, precision uint32) (decimal.Decimal, error) {
	n, ok := new(big.Int).SetString(atomic, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid atomic amount %q", atomic)
	}
	return decimal.NewFromBigInt(n, -int32(precision)), nil
}

// ToAtomic converts a display amount into atomic units, truncating toward
// zero. Fractional atomic units are not representable.
func ToAtomic(display decimal.Decimal, precision uint32) string {
	return display.Shift(int32(precision)).Truncate(0).String()
}
