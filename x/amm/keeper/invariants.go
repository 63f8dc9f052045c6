package keeper

import (
	"context"

	"github.com/tidepool-amm/tidepool/x/amm/types"
)

// Invariant checks over the pool, its share ledger and its custody account.
// The simulator runs these after every operation; tests run them directly.

// AllInvariants runs every pool invariant and returns the first violation.
func (k *Keeper) AllInvariants(ctx context.Context) error {
	if err := k.PoolStateInvariant(ctx); err != nil {
		return err
	}
	return k.CustodyBalanceInvariant(ctx)
}

// PoolStateInvariant checks that the pool is structurally valid and that the
// pool is either fully empty or fully funded: reserveA == 0 iff reserveB == 0
// iff totalShares == 0.
func (k *Keeper) PoolStateInvariant(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.pool.Validate(); err != nil {
		return err
	}

	totalShares := k.shareLedger.TotalShares(ctx)
	if totalShares.IsNegative() {
		return types.ErrInvariantViolation.Wrapf("negative total shares %s", totalShares)
	}
	if k.pool.IsEmpty() != totalShares.IsZero() {
		return types.ErrInvariantViolation.Wrapf(
			"reserves %s/%s inconsistent with %s outstanding shares",
			k.pool.ReserveA, k.pool.ReserveB, totalShares)
	}
	return nil
}

// CustodyBalanceInvariant checks that the custody account holds at least the
// recorded reserves of both assets. Custody may hold more (donations, transfer
// dust); never less.
func (k *Keeper) CustodyBalanceInvariant(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	balA := k.bankKeeper.GetBalance(ctx, k.poolAddr, k.pool.AssetA).Amount
	balB := k.bankKeeper.GetBalance(ctx, k.poolAddr, k.pool.AssetB).Amount

	if balA.LT(k.pool.ReserveA) || balB.LT(k.pool.ReserveB) {
		return types.ErrInvariantViolation.Wrapf(
			"custody balances %s/%s below recorded reserves %s/%s",
			balA, balB, k.pool.ReserveA, k.pool.ReserveB)
	}
	return nil
}
