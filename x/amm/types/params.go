package types

import (
	"math/big"

	"cosmossdk.io/math"
)

// priceScale is the 10^18 fixed-point scaling constant applied to spot prices.
var priceScale = math.NewIntFromBigInt(new(big.Int).Exp(
	big.NewInt(10), big.NewInt(18), nil,
))

// PriceScale returns the fixed-point scaling constant for GetPrice results.
func PriceScale() math.Int {
	return priceScale
}

// Params holds the pool engine parameters. The swap fee is expressed as a
// numerator/denominator pair taken from the input side: an input of x trades
// as x * FeeNumerator / FeeDenominator.
type Params struct {
	FeeNumerator   math.Int
	FeeDenominator math.Int
	MinLiquidity   math.Int
}

// DefaultParams returns the default engine parameters: a 0.3% input-side fee
// (997/1000) and a minimum share issuance of one.
func DefaultParams() Params {
	return Params{
		FeeNumerator:   math.NewInt(997),
		FeeDenominator: math.NewInt(1000),
		MinLiquidity:   math.OneInt(),
	}
}

// Validate validates the set of params
func (p Params) Validate() error {
	if err := validateFee(p.FeeNumerator, p.FeeDenominator); err != nil {
		return err
	}
	return validateMinLiquidity(p.MinLiquidity)
}

func validateFee(numerator, denominator math.Int) error {
	if numerator.IsNil() || denominator.IsNil() {
		return ErrInvalidInputs.Wrap("fee parameters not initialized")
	}
	if !denominator.IsPositive() {
		return ErrInvalidInputs.Wrapf("fee denominator must be positive, got %s", denominator)
	}
	if !numerator.IsPositive() || numerator.GT(denominator) {
		return ErrInvalidInputs.Wrapf("fee numerator must be in (0, %s], got %s", denominator, numerator)
	}
	return nil
}

func validateMinLiquidity(min math.Int) error {
	if min.IsNil() || !min.IsPositive() {
		return ErrInvalidInputs.Wrapf("minimum liquidity must be positive, got %s", min)
	}
	return nil
}
