package types

import (
	"math/big"

	"cosmossdk.io/math"
)

// maxReserve is 2^112 - 1. Reserves are kept within 112 bits so that the
// product of two reserves fits a 224-bit intermediate, comfortably inside the
// 256-bit arithmetic used for swap-curve computation.
var maxReserve = math.NewIntFromBigInt(new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 112),
	big.NewInt(1),
))

// MaxReserve returns the largest value either pool reserve may hold.
func MaxReserve() math.Int {
	return maxReserve
}

// Pool is the reserve state of a single fixed-pair constant-product pool.
// Asset identities are fixed at construction; reserves are mutated only by the
// keeper, always as a paired update of both sides.
type Pool struct {
	AssetA   string
	AssetB   string
	ReserveA math.Int
	ReserveB math.Int
}

// NewPool creates an empty pool for a distinct asset pair.
func NewPool(assetA, assetB string) (Pool, error) {
	if assetA == "" || assetB == "" {
		return Pool{}, ErrInvalidInputs.Wrap("asset denoms cannot be empty")
	}
	if assetA == assetB {
		return Pool{}, ErrIdenticalAssets.Wrapf("got %s for both sides", assetA)
	}
	return Pool{
		AssetA:   assetA,
		AssetB:   assetB,
		ReserveA: math.ZeroInt(),
		ReserveB: math.ZeroInt(),
	}, nil
}

// IsEmpty reports whether the pool holds no reserves on either side.
func (p Pool) IsEmpty() bool {
	return p.ReserveA.IsZero() && p.ReserveB.IsZero()
}

// HasPair reports whether {tokenA, tokenB} equals the pool's asset pair in
// either order.
func (p Pool) HasPair(tokenA, tokenB string) bool {
	return (tokenA == p.AssetA && tokenB == p.AssetB) ||
		(tokenA == p.AssetB && tokenB == p.AssetA)
}

// Validate checks structural pool invariants: distinct non-empty assets,
// non-negative reserves within the 112-bit range, and reserves that are either
// both zero or both positive.
func (p Pool) Validate() error {
	if p.AssetA == "" || p.AssetB == "" {
		return ErrInvalidPoolState.Wrap("asset denoms cannot be empty")
	}
	if p.AssetA == p.AssetB {
		return ErrIdenticalAssets.Wrapf("got %s for both sides", p.AssetA)
	}
	if p.ReserveA.IsNil() || p.ReserveB.IsNil() {
		return ErrInvalidPoolState.Wrap("reserves not initialized")
	}
	if p.ReserveA.IsNegative() || p.ReserveB.IsNegative() {
		return ErrInvalidPoolState.Wrapf("negative reserves: %s %s, %s %s",
			p.ReserveA, p.AssetA, p.ReserveB, p.AssetB)
	}
	if p.ReserveA.GT(maxReserve) || p.ReserveB.GT(maxReserve) {
		return ErrReserveOverflow.Wrapf("reserves %s/%s exceed %s",
			p.ReserveA, p.ReserveB, maxReserve)
	}
	if p.ReserveA.IsZero() != p.ReserveB.IsZero() {
		return ErrInvalidPoolState.Wrapf("one-sided reserves: %s %s, %s %s",
			p.ReserveA, p.AssetA, p.ReserveB, p.AssetB)
	}
	return nil
}
