package keeper

import (
	"context"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/tidepool-amm/tidepool/x/amm/types"
)

// ProvideLiquidity contributes assets to the pool and mints proportional
// shares to the recipient.
//
// On an empty pool the desired amounts are accepted verbatim and establish the
// initial price; afterwards the contribution is fitted to the current reserve
// ratio, never above either desired amount, with the caller-supplied minimums
// as slippage floors. Shares are computed from the amounts actually received
// (measured as custody balance deltas), so fee-on-transfer assets dilute the
// provider, not the pool.
func (k *Keeper) ProvideLiquidity(
	ctx context.Context,
	from, to sdk.AccAddress,
	amountADesired, amountBDesired, amountAMin, amountBMin math.Int,
	deadline time.Time,
) (amountA, amountB, sharesIssued math.Int, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	zero := math.ZeroInt()

	if err := k.checkDeadline(deadline); err != nil {
		return zero, zero, zero, err
	}
	if to.Empty() {
		return zero, zero, zero, types.ErrInvalidRecipient.Wrap("recipient cannot be empty")
	}
	if amountADesired.IsNegative() || amountBDesired.IsNegative() {
		return zero, zero, zero, types.ErrInvalidInputs.Wrap("desired amounts cannot be negative")
	}
	if amountAMin.IsNegative() || amountBMin.IsNegative() {
		return zero, zero, zero, types.ErrInvalidInputs.Wrap("minimum amounts cannot be negative")
	}

	// 1. Fit the contribution to the current reserve ratio.
	reserveA, reserveB := k.pool.ReserveA, k.pool.ReserveB

	totalShares := k.shareLedger.TotalShares(ctx)
	if k.pool.IsEmpty() != totalShares.IsZero() {
		return zero, zero, zero, types.ErrInvalidPoolState.Wrapf(
			"reserves %s/%s with %s outstanding shares", reserveA, reserveB, totalShares)
	}

	if k.pool.IsEmpty() {
		amountA, amountB = amountADesired, amountBDesired
	} else {
		amountBOptimal, err := SafeMulDiv(amountADesired, reserveB, reserveA)
		if err != nil {
			return zero, zero, zero, err
		}
		if amountBOptimal.LTE(amountBDesired) {
			if amountBOptimal.LT(amountBMin) {
				return zero, zero, zero, types.ErrSlippageB.Wrapf(
					"optimal amount %s below minimum %s", amountBOptimal, amountBMin)
			}
			amountA, amountB = amountADesired, amountBOptimal
		} else {
			amountAOptimal, err := SafeMulDiv(amountBDesired, reserveA, reserveB)
			if err != nil {
				return zero, zero, zero, err
			}
			if amountAOptimal.LT(amountAMin) {
				return zero, zero, zero, types.ErrSlippageA.Wrapf(
					"optimal amount %s below minimum %s", amountAOptimal, amountAMin)
			}
			amountA, amountB = amountAOptimal, amountBDesired
		}
	}

	if !amountA.IsPositive() || !amountB.IsPositive() {
		return zero, zero, zero, types.ErrInsufficientLiquidity.Wrap(
			"contribution amounts must be positive")
	}

	// 2. Pull both assets into custody, then re-measure balances. Reserves
	// track what the pool actually holds, never the nominal request.
	balABefore := k.bankKeeper.GetBalance(ctx, k.poolAddr, k.pool.AssetA).Amount
	balBBefore := k.bankKeeper.GetBalance(ctx, k.poolAddr, k.pool.AssetB).Amount

	pulled := sdk.NewCoins(
		sdk.NewCoin(k.pool.AssetA, amountA),
		sdk.NewCoin(k.pool.AssetB, amountB),
	)
	if err := k.bankKeeper.SendCoins(ctx, from, k.poolAddr, pulled); err != nil {
		return zero, zero, zero, types.ErrTransferFailed.Wrapf(
			"pull %s from %s: %v", pulled, from, err)
	}

	balAAfter := k.bankKeeper.GetBalance(ctx, k.poolAddr, k.pool.AssetA).Amount
	balBAfter := k.bankKeeper.GetBalance(ctx, k.poolAddr, k.pool.AssetB).Amount
	actualA := balAAfter.Sub(balABefore)
	actualB := balBAfter.Sub(balBBefore)

	received := sdk.NewCoins(
		sdk.NewCoin(k.pool.AssetA, actualA),
		sdk.NewCoin(k.pool.AssetB, actualB),
	)

	// 3. Compute shares against pre-transfer reserves.
	if totalShares.IsZero() {
		product, err := SafeMul(actualA, actualB)
		if err != nil {
			k.refund(ctx, from, received, err)
			return zero, zero, zero, err
		}
		sharesIssued = Isqrt(product)
	} else {
		byA, err := SafeMulDiv(actualA, totalShares, reserveA)
		if err != nil {
			k.refund(ctx, from, received, err)
			return zero, zero, zero, err
		}
		byB, err := SafeMulDiv(actualB, totalShares, reserveB)
		if err != nil {
			k.refund(ctx, from, received, err)
			return zero, zero, zero, err
		}
		sharesIssued = MinInt(byA, byB)
	}

	if sharesIssued.LT(k.params.MinLiquidity) {
		err := types.ErrInsufficientLiquidity.Wrapf(
			"shares %s below minimum %s", sharesIssued, k.params.MinLiquidity)
		k.refund(ctx, from, received, err)
		return zero, zero, zero, err
	}

	// 4. Mint, then commit reserves to the measured balances.
	if err := k.shareLedger.Mint(ctx, to, sharesIssued); err != nil {
		wrapped := types.ErrInvalidLiquidity.Wrapf("mint %s shares to %s: %v", sharesIssued, to, err)
		k.refund(ctx, from, received, wrapped)
		return zero, zero, zero, wrapped
	}

	if err := k.setReserves(balAAfter, balBAfter); err != nil {
		// Unwind the mint before the refund so the ledger stays consistent.
		if burnErr := k.shareLedger.Burn(ctx, to, sharesIssued); burnErr != nil {
			k.logger.Error("failed to unwind mint after reserve update failure",
				"original_error", err, "burn_error", burnErr, "shares", sharesIssued.String())
		}
		k.refund(ctx, from, received, err)
		return zero, zero, zero, err
	}

	k.events.EmitEvent(sdk.NewEvent(
		types.EventTypeLiquidityAdded,
		sdk.NewAttribute(types.AttributeKeyProvider, from.String()),
		sdk.NewAttribute(types.AttributeKeyRecipient, to.String()),
		sdk.NewAttribute(types.AttributeKeyAmountA, actualA.String()),
		sdk.NewAttribute(types.AttributeKeyAmountB, actualB.String()),
		sdk.NewAttribute(types.AttributeKeyShares, sharesIssued.String()),
	))

	if k.metrics != nil {
		k.metrics.LiquidityAdded.WithLabelValues(k.pool.AssetA).Add(gaugeValue(actualA))
		k.metrics.LiquidityAdded.WithLabelValues(k.pool.AssetB).Add(gaugeValue(actualB))
		k.metrics.LPShareSupply.Set(gaugeValue(k.shareLedger.TotalShares(ctx)))
	}

	k.logger.Info("liquidity added",
		"provider", from.String(),
		"amount_a", actualA.String(),
		"amount_b", actualB.String(),
		"shares", sharesIssued.String(),
	)

	return actualA, actualB, sharesIssued, nil
}

// RemoveLiquidity burns the caller's shares and pays out the proportional
// amounts of both assets, floor division on both sides. The pool, not the
// holder, keeps the rounding dust.
func (k *Keeper) RemoveLiquidity(
	ctx context.Context,
	from, to sdk.AccAddress,
	shares, amountAMin, amountBMin math.Int,
	deadline time.Time,
) (amountA, amountB math.Int, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	zero := math.ZeroInt()

	if err := k.checkDeadline(deadline); err != nil {
		return zero, zero, err
	}
	if to.Empty() {
		return zero, zero, types.ErrInvalidRecipient.Wrap("recipient cannot be empty")
	}
	if !shares.IsPositive() {
		return zero, zero, types.ErrInvalidLiquidity.Wrap("shares must be positive")
	}
	if held := k.shareLedger.BalanceOf(ctx, from); shares.GT(held) {
		return zero, zero, types.ErrInvalidLiquidity.Wrapf("have %s, need %s", held, shares)
	}

	totalShares := k.shareLedger.TotalShares(ctx)
	if totalShares.IsZero() || k.pool.IsEmpty() {
		return zero, zero, types.ErrInvalidPoolState.Wrap("pool has no liquidity")
	}

	amountA, err = SafeMulDiv(shares, k.pool.ReserveA, totalShares)
	if err != nil {
		return zero, zero, err
	}
	amountB, err = SafeMulDiv(shares, k.pool.ReserveB, totalShares)
	if err != nil {
		return zero, zero, err
	}

	if amountA.LT(amountAMin) || amountB.LT(amountBMin) {
		return zero, zero, types.ErrSlippage.Wrapf(
			"amounts %s/%s below minimums %s/%s", amountA, amountB, amountAMin, amountBMin)
	}
	if amountA.IsZero() || amountB.IsZero() {
		return zero, zero, types.ErrInsufficientLiquidity.Wrap("withdrawal amounts too small")
	}

	// Burn before paying out; a failed burn leaves no state to unwind.
	if err := k.shareLedger.Burn(ctx, from, shares); err != nil {
		return zero, zero, types.ErrInvalidLiquidity.Wrapf(
			"burn %s shares from %s: %v", shares, from, err)
	}

	payout := sdk.NewCoins(
		sdk.NewCoin(k.pool.AssetA, amountA),
		sdk.NewCoin(k.pool.AssetB, amountB),
	)
	if err := k.bankKeeper.SendCoins(ctx, k.poolAddr, to, payout); err != nil {
		// Re-mint the burned shares so the failed operation leaves no trace.
		if mintErr := k.shareLedger.Mint(ctx, from, shares); mintErr != nil {
			k.logger.Error("failed to restore shares after payout failure",
				"original_error", err, "mint_error", mintErr, "shares", shares.String())
		}
		return zero, zero, types.ErrTransferFailed.Wrapf("pay out %s to %s: %v", payout, to, err)
	}

	// Re-measure custody and commit. A full exit zeroes the reserves exactly;
	// any transfer-fee dust left in custody is bounded by the rounding of one
	// payout and is swept into the reserves of the next initial provision.
	newReserveA := k.bankKeeper.GetBalance(ctx, k.poolAddr, k.pool.AssetA).Amount
	newReserveB := k.bankKeeper.GetBalance(ctx, k.poolAddr, k.pool.AssetB).Amount

	if remaining := totalShares.Sub(shares); remaining.IsZero() {
		if !newReserveA.IsZero() || !newReserveB.IsZero() {
			k.logger.Info("custody dust left after full exit",
				"dust_a", newReserveA.String(), "dust_b", newReserveB.String())
		}
		newReserveA, newReserveB = zero, zero
	}

	if err := k.setReserves(newReserveA, newReserveB); err != nil {
		return zero, zero, err
	}

	k.events.EmitEvent(sdk.NewEvent(
		types.EventTypeLiquidityRemoved,
		sdk.NewAttribute(types.AttributeKeyProvider, from.String()),
		sdk.NewAttribute(types.AttributeKeyRecipient, to.String()),
		sdk.NewAttribute(types.AttributeKeyAmountA, amountA.String()),
		sdk.NewAttribute(types.AttributeKeyAmountB, amountB.String()),
		sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
	))

	if k.metrics != nil {
		k.metrics.LiquidityRemoved.WithLabelValues(k.pool.AssetA).Add(gaugeValue(amountA))
		k.metrics.LiquidityRemoved.WithLabelValues(k.pool.AssetB).Add(gaugeValue(amountB))
		k.metrics.LPShareSupply.Set(gaugeValue(k.shareLedger.TotalShares(ctx)))
	}

	k.logger.Info("liquidity removed",
		"provider", from.String(),
		"amount_a", amountA.String(),
		"amount_b", amountB.String(),
		"shares", shares.String(),
	)

	return amountA, amountB, nil
}

// refund sends coins back to the caller after a failed operation. A refund
// failure cannot unwind further; it is logged and the original error stands.
func (k *Keeper) refund(ctx context.Context, to sdk.AccAddress, coins sdk.Coins, cause error) {
	if coins.IsZero() {
		return
	}
	if err := k.bankKeeper.SendCoins(ctx, k.poolAddr, to, coins); err != nil {
		k.logger.Error("failed to refund after aborted operation",
			"original_error", cause,
			"refund_error", err,
			"recipient", to.String(),
			"coins", coins.String(),
		)
	}
}
