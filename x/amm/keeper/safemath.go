package keeper

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/tidepool-amm/tidepool/x/amm/types"
)

// Overflow-safe arithmetic for pool accounting. All products go through wide
// big.Int intermediates and are checked against the 256-bit ceiling before
// narrowing back to math.Int.

var maxUint256 = new(big.Int).Lsh(big.NewInt(1), 256)

// SafeMul multiplies two math.Int values with overflow checking.
func SafeMul(a, b math.Int) (math.Int, error) {
	if a.IsZero() || b.IsZero() {
		return math.ZeroInt(), nil
	}

	result := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if result.CmpAbs(maxUint256) >= 0 {
		return math.Int{}, types.ErrInvalidInputs.Wrapf(
			"overflow: %s * %s exceeds 256 bits", a, b)
	}
	return math.NewIntFromBigInt(result), nil
}

// SafeMulDiv computes (a * b) / c with floor division and a wide intermediate
// product. This is the shape of every proportional computation in the engine.
func SafeMulDiv(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, types.ErrInvalidInputs.Wrap("division by zero")
	}

	intermediate := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if intermediate.CmpAbs(maxUint256) >= 0 {
		return math.Int{}, types.ErrInvalidInputs.Wrapf(
			"overflow: %s * %s exceeds 256 bits", a, b)
	}

	return math.NewIntFromBigInt(intermediate.Quo(intermediate, c.BigInt())), nil
}

// MinInt returns the smaller of two math.Int values.
func MinInt(x, y math.Int) math.Int {
	if x.LT(y) {
		return x
	}
	return y
}

// Isqrt computes the integer square root of y (floor) with the Babylonian
// method, converging from the initial guess y/2 + 1. Values 1..3 return 1 and
// zero returns zero, matching the canonical constant-product share formula.
func Isqrt(y math.Int) math.Int {
	if y.IsNegative() {
		return math.ZeroInt()
	}
	if y.LTE(math.NewInt(3)) {
		if y.IsZero() {
			return math.ZeroInt()
		}
		return math.OneInt()
	}

	two := math.NewInt(2)
	z := y
	x := y.Quo(two).Add(math.OneInt())
	for x.LT(z) {
		z = x
		x = y.Quo(x).Add(x).Quo(two)
	}
	return z
}
