package keeper

import (
	"context"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/tidepool-amm/tidepool/x/amm/types"
)

// Swap trades amountIn of tokenIn for tokenOut using the fee-adjusted
// constant-product curve.
//
// The input is measured as the custody balance delta, not the nominal request,
// so fee-on-transfer assets price at what was actually delivered. After the
// output transfer both reserves are committed to the measured custody
// balances, capturing any residual dust, and the constant product is verified
// to have not decreased.
func (k *Keeper) Swap(
	ctx context.Context,
	from, to sdk.AccAddress,
	tokenIn, tokenOut string,
	amountIn, amountOutMin math.Int,
	deadline time.Time,
) (amountOut math.Int, err error) {
	start := time.Now()
	defer func() {
		if k.metrics != nil {
			k.metrics.SwapLatency.Observe(time.Since(start).Seconds())
		}
	}()

	k.mu.Lock()
	defer k.mu.Unlock()

	zero := math.ZeroInt()

	if err := k.checkDeadline(deadline); err != nil {
		return zero, err
	}
	if !k.pool.HasPair(tokenIn, tokenOut) {
		k.countSwap(tokenIn, tokenOut, "failed")
		return zero, types.ErrInvalidTokenPair.Wrapf("expected %s/%s in either order, got %s/%s",
			k.pool.AssetA, k.pool.AssetB, tokenIn, tokenOut)
	}
	if !amountIn.IsPositive() {
		k.countSwap(tokenIn, tokenOut, "failed")
		return zero, types.ErrZeroAmountIn.Wrapf("got %s", amountIn)
	}
	if to.Empty() {
		return zero, types.ErrInvalidRecipient.Wrap("recipient cannot be empty")
	}

	reserveIn, reserveOut := k.pool.ReserveA, k.pool.ReserveB
	if tokenIn == k.pool.AssetB {
		reserveIn, reserveOut = reserveOut, reserveIn
	}

	// Pull the input and measure what actually arrived.
	balInBefore := k.bankKeeper.GetBalance(ctx, k.poolAddr, tokenIn).Amount

	coinIn := sdk.NewCoin(tokenIn, amountIn)
	if err := k.bankKeeper.SendCoins(ctx, from, k.poolAddr, sdk.NewCoins(coinIn)); err != nil {
		k.countSwap(tokenIn, tokenOut, "failed")
		return zero, types.ErrTransferFailed.Wrapf("pull %s from %s: %v", coinIn, from, err)
	}

	actualIn := k.bankKeeper.GetBalance(ctx, k.poolAddr, tokenIn).Amount.Sub(balInBefore)
	received := sdk.NewCoins(sdk.NewCoin(tokenIn, actualIn))

	amountOut, err = getAmountOut(actualIn, reserveIn, reserveOut, k.params)
	if err != nil {
		k.refund(ctx, from, received, err)
		k.countSwap(tokenIn, tokenOut, "failed")
		return zero, err
	}

	if amountOut.LT(amountOutMin) {
		err := types.ErrInsufficientOutput.Wrapf("expected at least %s, got %s", amountOutMin, amountOut)
		k.refund(ctx, from, received, err)
		k.countSwap(tokenIn, tokenOut, "failed")
		return zero, err
	}

	coinOut := sdk.NewCoin(tokenOut, amountOut)
	if err := k.bankKeeper.SendCoins(ctx, k.poolAddr, to, sdk.NewCoins(coinOut)); err != nil {
		k.refund(ctx, from, received, err)
		k.countSwap(tokenIn, tokenOut, "failed")
		return zero, types.ErrTransferFailed.Wrapf("pay out %s to %s: %v", coinOut, to, err)
	}

	// Commit both reserves to measured custody balances and verify the
	// fee-inclusive constant product did not decrease. Both transfers have
	// executed by now, so any failure unwinds them before surfacing.
	newReserveA := k.bankKeeper.GetBalance(ctx, k.poolAddr, k.pool.AssetA).Amount
	newReserveB := k.bankKeeper.GetBalance(ctx, k.poolAddr, k.pool.AssetB).Amount

	oldK, err := SafeMul(k.pool.ReserveA, k.pool.ReserveB)
	if err != nil {
		k.unwindSwap(ctx, from, to, received, coinOut, err)
		k.countSwap(tokenIn, tokenOut, "failed")
		return zero, err
	}
	newK, err := SafeMul(newReserveA, newReserveB)
	if err != nil {
		k.unwindSwap(ctx, from, to, received, coinOut, err)
		k.countSwap(tokenIn, tokenOut, "failed")
		return zero, err
	}
	if newK.LT(oldK) {
		err := types.ErrInvariantViolation.Wrapf(
			"constant product decreased: old k %s, new k %s", oldK, newK)
		k.unwindSwap(ctx, from, to, received, coinOut, err)
		k.countSwap(tokenIn, tokenOut, "failed")
		return zero, err
	}

	if err := k.setReserves(newReserveA, newReserveB); err != nil {
		k.unwindSwap(ctx, from, to, received, coinOut, err)
		k.countSwap(tokenIn, tokenOut, "failed")
		return zero, err
	}

	k.events.EmitEvent(sdk.NewEvent(
		types.EventTypeSwap,
		sdk.NewAttribute(types.AttributeKeyTrader, from.String()),
		sdk.NewAttribute(types.AttributeKeyRecipient, to.String()),
		sdk.NewAttribute(types.AttributeKeyTokenIn, tokenIn),
		sdk.NewAttribute(types.AttributeKeyTokenOut, tokenOut),
		sdk.NewAttribute(types.AttributeKeyAmountIn, actualIn.String()),
		sdk.NewAttribute(types.AttributeKeyAmountOut, amountOut.String()),
		sdk.NewAttribute(types.AttributeKeyReserveA, newReserveA.String()),
		sdk.NewAttribute(types.AttributeKeyReserveB, newReserveB.String()),
	))

	k.countSwap(tokenIn, tokenOut, "success")
	if k.metrics != nil {
		k.metrics.SwapVolume.WithLabelValues(tokenIn).Add(gaugeValue(actualIn))
	}

	k.logger.Info("swap executed",
		"trader", from.String(),
		"token_in", tokenIn,
		"token_out", tokenOut,
		"amount_in", actualIn.String(),
		"amount_out", amountOut.String(),
	)

	return amountOut, nil
}

// SimulateSwap quotes a swap against current reserves without executing it.
func (k *Keeper) SimulateSwap(tokenIn, tokenOut string, amountIn math.Int) (math.Int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.pool.HasPair(tokenIn, tokenOut) {
		return math.ZeroInt(), types.ErrInvalidTokenPair.Wrapf(
			"expected %s/%s in either order, got %s/%s",
			k.pool.AssetA, k.pool.AssetB, tokenIn, tokenOut)
	}

	reserveIn, reserveOut := k.pool.ReserveA, k.pool.ReserveB
	if tokenIn == k.pool.AssetB {
		reserveIn, reserveOut = reserveOut, reserveIn
	}
	return getAmountOut(amountIn, reserveIn, reserveOut, k.params)
}

// GetAmountOut computes the swap output for amountIn against the given
// reserves using the engine's fee parameters.
func (k *Keeper) GetAmountOut(amountIn, reserveIn, reserveOut math.Int) (math.Int, error) {
	return getAmountOut(amountIn, reserveIn, reserveOut, k.params)
}

// GetAmountOut is the constant-product pricing formula solved for output with
// the fee taken from the input side, under the default 0.3% fee:
//
//	amountOut = (amountIn*997 * reserveOut) / (reserveIn*1000 + amountIn*997)
//
// Floor division. The output is strictly below reserveOut for any finite
// input, so the pool can never be fully drained of one side.
func GetAmountOut(amountIn, reserveIn, reserveOut math.Int) (math.Int, error) {
	return getAmountOut(amountIn, reserveIn, reserveOut, types.DefaultParams())
}

func getAmountOut(amountIn, reserveIn, reserveOut math.Int, p types.Params) (math.Int, error) {
	if !amountIn.IsPositive() || !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidInputs.Wrapf(
			"amountIn %s, reserveIn %s, reserveOut %s must all be positive",
			amountIn, reserveIn, reserveOut)
	}
	if amountIn.GT(types.MaxReserve()) {
		return math.ZeroInt(), types.ErrInvalidInputs.Wrapf(
			"amountIn %s exceeds 112-bit range", amountIn)
	}

	// All intermediates stay under 2^234 for 112-bit operands, well inside
	// the 256-bit headroom.
	amountInWithFee, err := SafeMul(amountIn, p.FeeNumerator)
	if err != nil {
		return math.ZeroInt(), err
	}
	numerator, err := SafeMul(amountInWithFee, reserveOut)
	if err != nil {
		return math.ZeroInt(), err
	}
	scaledReserveIn, err := SafeMul(reserveIn, p.FeeDenominator)
	if err != nil {
		return math.ZeroInt(), err
	}

	return numerator.Quo(scaledReserveIn.Add(amountInWithFee)), nil
}

// GetPrice returns the spot price of one unit of quote expressed in base,
// scaled by 10^18: reserveQuote * Scale / reserveBase.
func (k *Keeper) GetPrice(base, quote string) (math.Int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.pool.HasPair(base, quote) {
		return math.ZeroInt(), types.ErrInvalidTokenPair.Wrapf(
			"expected %s/%s in either order, got %s/%s",
			k.pool.AssetA, k.pool.AssetB, base, quote)
	}

	reserveBase, reserveQuote := k.pool.ReserveA, k.pool.ReserveB
	if base == k.pool.AssetB {
		reserveBase, reserveQuote = reserveQuote, reserveBase
	}
	if reserveBase.IsZero() {
		return math.ZeroInt(), types.ErrInvalidInputs.Wrap("base reserve is zero")
	}

	return SafeMulDiv(reserveQuote, types.PriceScale(), reserveBase)
}

// SpotPrice returns the unscaled decimal spot price of quote in base.
func (k *Keeper) SpotPrice(base, quote string) (math.LegacyDec, error) {
	price, err := k.GetPrice(base, quote)
	if err != nil {
		return math.LegacyZeroDec(), err
	}
	return math.LegacyNewDecFromIntWithPrec(price, 18), nil
}

// unwindSwap reverses both legs of a swap after a post-payout failure: the
// output is recovered from the recipient and the measured input returned to
// the trader. A failed recovery cannot unwind further; it is logged and the
// original error stands.
func (k *Keeper) unwindSwap(ctx context.Context, from, to sdk.AccAddress, received sdk.Coins, coinOut sdk.Coin, cause error) {
	if coinOut.IsPositive() {
		if err := k.bankKeeper.SendCoins(ctx, to, k.poolAddr, sdk.NewCoins(coinOut)); err != nil {
			k.logger.Error("failed to recover output after aborted swap",
				"original_error", cause,
				"recover_error", err,
				"recipient", to.String(),
				"coin", coinOut.String(),
			)
		}
	}
	k.refund(ctx, from, received, cause)
}

func (k *Keeper) countSwap(tokenIn, tokenOut, status string) {
	if k.metrics != nil {
		k.metrics.SwapsTotal.WithLabelValues(tokenIn, tokenOut, status).Inc()
	}
}
