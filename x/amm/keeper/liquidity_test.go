package keeper_test

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/tidepool-amm/tidepool/testutil/keeper"
	"github.com/tidepool-amm/tidepool/x/amm/types"
)

// setupProvider funds a provider account and seeds the pool with the given
// initial reserves, returning the shares minted.
func setupProvider(t *testing.T, env *keepertest.Env, amountA, amountB int64) (sdk.AccAddress, math.Int) {
	t.Helper()
	provider := keepertest.TestAddr("provider")
	env.FundAccount(t, provider, 1_000_000_000, 1_000_000_000)

	_, _, shares, err := env.Keeper.ProvideLiquidity(
		context.Background(), provider, provider,
		math.NewInt(amountA), math.NewInt(amountB),
		math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.NoError(t, err)
	return provider, shares
}

// TestProvideLiquidity_InitialDeposit tests that the first provision accepts
// the desired amounts verbatim and issues geometric-mean shares.
func TestProvideLiquidity_InitialDeposit(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	_, shares := setupProvider(t, env, 100, 400)

	require.Equal(t, math.NewInt(200), shares) // isqrt(100*400)

	pool := env.Keeper.Pool()
	require.Equal(t, math.NewInt(100), pool.ReserveA)
	require.Equal(t, math.NewInt(400), pool.ReserveB)
	require.Equal(t, math.NewInt(200), env.Shares.TotalShares(context.Background()))
}

// TestProvideLiquidity_RespectsRatio tests that a skewed desired
// contribution is fitted to the existing reserve ratio.
func TestProvideLiquidity_RespectsRatio(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, _ := setupProvider(t, env, 100, 400)

	// Desired (10, 1000) against reserves (100, 400): optimal B is
	// 10*400/100 = 40, so the actual contribution is (10, 40).
	amountA, amountB, shares, err := env.Keeper.ProvideLiquidity(
		context.Background(), provider, provider,
		math.NewInt(10), math.NewInt(1000),
		math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(10), amountA)
	require.Equal(t, math.NewInt(40), amountB)
	require.Equal(t, math.NewInt(20), shares) // min(10*200/100, 40*200/400)

	pool := env.Keeper.Pool()
	require.Equal(t, math.NewInt(110), pool.ReserveA)
	require.Equal(t, math.NewInt(440), pool.ReserveB)
}

// TestProvideLiquidity_SymmetricBranch tests the branch where amount A is
// fitted to the desired amount B.
func TestProvideLiquidity_SymmetricBranch(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, _ := setupProvider(t, env, 100, 400)

	// Desired (50, 40): optimal B for 50 A would be 200 > 40, so the
	// engine fits A instead: 40*100/400 = 10.
	amountA, amountB, _, err := env.Keeper.ProvideLiquidity(
		context.Background(), provider, provider,
		math.NewInt(50), math.NewInt(40),
		math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(10), amountA)
	require.Equal(t, math.NewInt(40), amountB)
}

// TestProvideLiquidity_SlippageB tests the B-side slippage floor.
func TestProvideLiquidity_SlippageB(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, _ := setupProvider(t, env, 100, 400)
	before := env.Keeper.Pool()

	_, _, _, err := env.Keeper.ProvideLiquidity(
		context.Background(), provider, provider,
		math.NewInt(10), math.NewInt(1000),
		math.ZeroInt(), math.NewInt(41), // optimal B is 40
		env.Deadline(),
	)
	require.Error(t, err)
	require.True(t, types.ErrSlippageB.Is(err))
	require.Equal(t, before, env.Keeper.Pool())
}

// TestProvideLiquidity_SlippageA tests the A-side slippage floor.
func TestProvideLiquidity_SlippageA(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, _ := setupProvider(t, env, 100, 400)

	_, _, _, err := env.Keeper.ProvideLiquidity(
		context.Background(), provider, provider,
		math.NewInt(50), math.NewInt(40),
		math.NewInt(11), math.ZeroInt(), // optimal A is 10
		env.Deadline(),
	)
	require.Error(t, err)
	require.True(t, types.ErrSlippageA.Is(err))
}

// TestProvideLiquidity_Expired tests deadline enforcement.
func TestProvideLiquidity_Expired(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider := keepertest.TestAddr("provider")
	env.FundAccount(t, provider, 1000, 1000)

	_, _, _, err := env.Keeper.ProvideLiquidity(
		context.Background(), provider, provider,
		math.NewInt(100), math.NewInt(100),
		math.ZeroInt(), math.ZeroInt(),
		env.Expired(),
	)
	require.Error(t, err)
	require.True(t, types.ErrExpired.Is(err))
	require.True(t, env.Keeper.Pool().IsEmpty())
}

// TestProvideLiquidity_DustContribution tests that a contribution whose
// ratio-fitted counterpart rounds to zero is rejected without touching
// balances.
func TestProvideLiquidity_DustContribution(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, _ := setupProvider(t, env, 1_000_000, 1)

	ctx := context.Background()
	balBefore := env.Bank.GetBalance(ctx, provider, keepertest.DenomA)

	// Optimal B for 999 A against reserves (1000000, 1) floors to zero.
	_, _, _, err := env.Keeper.ProvideLiquidity(
		ctx, provider, provider,
		math.NewInt(999), math.NewInt(1),
		math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.Error(t, err)
	require.True(t, types.ErrInsufficientLiquidity.Is(err))
	require.Equal(t, balBefore, env.Bank.GetBalance(ctx, provider, keepertest.DenomA))

	pool := env.Keeper.Pool()
	require.Equal(t, math.NewInt(1_000_000), pool.ReserveA)
}

// TestProvideLiquidity_FeeOnTransfer tests that shares and reserves follow the
// measured delivery, not the nominal request.
func TestProvideLiquidity_FeeOnTransfer(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	env.Bank.SetTransferFee(keepertest.DenomA, 100) // 1%

	provider := keepertest.TestAddr("provider")
	env.FundAccount(t, provider, 10_000, 10_000)

	amountA, amountB, shares, err := env.Keeper.ProvideLiquidity(
		context.Background(), provider, provider,
		math.NewInt(1000), math.NewInt(1000),
		math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(990), amountA) // 1% withheld in transit
	require.Equal(t, math.NewInt(1000), amountB)
	require.Equal(t, math.NewInt(994), shares) // isqrt(990*1000)

	pool := env.Keeper.Pool()
	require.Equal(t, math.NewInt(990), pool.ReserveA)
	require.Equal(t, math.NewInt(1000), pool.ReserveB)
}

// TestRemoveLiquidity_Partial tests a proportional partial withdrawal.
func TestRemoveLiquidity_Partial(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, _ := setupProvider(t, env, 100, 400)

	amountA, amountB, err := env.Keeper.RemoveLiquidity(
		context.Background(), provider, provider,
		math.NewInt(50), math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(25), amountA)
	require.Equal(t, math.NewInt(100), amountB)

	pool := env.Keeper.Pool()
	require.Equal(t, math.NewInt(75), pool.ReserveA)
	require.Equal(t, math.NewInt(300), pool.ReserveB)
	require.Equal(t, math.NewInt(150), env.Shares.TotalShares(context.Background()))
}

// TestRemoveLiquidity_FullExit tests that burning all shares returns the pool
// to the exact empty state.
func TestRemoveLiquidity_FullExit(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, shares := setupProvider(t, env, 100, 400)

	amountA, amountB, err := env.Keeper.RemoveLiquidity(
		context.Background(), provider, provider,
		shares, math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100), amountA)
	require.Equal(t, math.NewInt(400), amountB)

	pool := env.Keeper.Pool()
	require.True(t, pool.ReserveA.IsZero())
	require.True(t, pool.ReserveB.IsZero())
	require.True(t, env.Shares.TotalShares(context.Background()).IsZero())
}

// TestRemoveLiquidity_RoundTrip tests that provide-then-remove never returns
// more than was contributed.
func TestRemoveLiquidity_RoundTrip(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	setupProvider(t, env, 1000, 3000)

	second := keepertest.TestAddr("second")
	env.FundAccount(t, second, 1_000_000, 1_000_000)

	ctx := context.Background()
	inA, inB, minted, err := env.Keeper.ProvideLiquidity(
		ctx, second, second,
		math.NewInt(777), math.NewInt(999_999),
		math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.NoError(t, err)

	outA, outB, err := env.Keeper.RemoveLiquidity(
		ctx, second, second,
		minted, math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.NoError(t, err)
	require.True(t, outA.LTE(inA), "withdrew %s A for %s contributed", outA, inA)
	require.True(t, outB.LTE(inB), "withdrew %s B for %s contributed", outB, inB)
}

// TestRemoveLiquidity_Slippage tests the withdrawal slippage floor.
func TestRemoveLiquidity_Slippage(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, _ := setupProvider(t, env, 100, 400)

	_, _, err := env.Keeper.RemoveLiquidity(
		context.Background(), provider, provider,
		math.NewInt(50), math.NewInt(26), math.ZeroInt(), // payout A is 25
		env.Deadline(),
	)
	require.Error(t, err)
	require.True(t, types.ErrSlippage.Is(err))
	require.Equal(t, math.NewInt(200), env.Shares.TotalShares(context.Background()))
}

// TestRemoveLiquidity_InvalidShares tests rejection of zero and excess burns.
func TestRemoveLiquidity_InvalidShares(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, shares := setupProvider(t, env, 100, 400)

	_, _, err := env.Keeper.RemoveLiquidity(
		context.Background(), provider, provider,
		math.ZeroInt(), math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.Error(t, err)
	require.True(t, types.ErrInvalidLiquidity.Is(err))

	_, _, err = env.Keeper.RemoveLiquidity(
		context.Background(), provider, provider,
		shares.Add(math.OneInt()), math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.Error(t, err)
	require.True(t, types.ErrInvalidLiquidity.Is(err))
}

// TestRemoveLiquidity_Expired tests deadline enforcement on removal.
func TestRemoveLiquidity_Expired(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, shares := setupProvider(t, env, 100, 400)
	before := env.Keeper.Pool()

	_, _, err := env.Keeper.RemoveLiquidity(
		context.Background(), provider, provider,
		shares, math.ZeroInt(), math.ZeroInt(),
		env.Expired(),
	)
	require.Error(t, err)
	require.True(t, types.ErrExpired.Is(err))
	require.Equal(t, before, env.Keeper.Pool())
}

// TestProvideLiquidity_EmptyRecipient tests rejection of an empty share
// recipient before any transfer.
func TestProvideLiquidity_EmptyRecipient(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider := keepertest.TestAddr("provider")
	env.FundAccount(t, provider, 1000, 1000)

	_, _, _, err := env.Keeper.ProvideLiquidity(
		context.Background(), provider, sdk.AccAddress{},
		math.NewInt(100), math.NewInt(100),
		math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.Error(t, err)
	require.True(t, types.ErrInvalidRecipient.Is(err))
	require.True(t, env.Keeper.Pool().IsEmpty())
	require.Equal(t, math.NewInt(1000),
		env.Bank.GetBalance(context.Background(), provider, keepertest.DenomA).Amount)
}

// TestRemoveLiquidity_EmptyRecipient tests rejection of an empty payout
// recipient before any burn.
func TestRemoveLiquidity_EmptyRecipient(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	provider, shares := setupProvider(t, env, 100, 400)
	before := env.Keeper.Pool()

	_, _, err := env.Keeper.RemoveLiquidity(
		context.Background(), provider, sdk.AccAddress{},
		shares, math.ZeroInt(), math.ZeroInt(),
		env.Deadline(),
	)
	require.Error(t, err)
	require.True(t, types.ErrInvalidRecipient.Is(err))
	require.Equal(t, before, env.Keeper.Pool())
	require.Equal(t, shares, env.Shares.TotalShares(context.Background()))
}

// TestProvideLiquidity_EmitsEvent tests that a completed provision is
// observable through the event manager and that reading drains the buffer.
func TestProvideLiquidity_EmitsEvent(t *testing.T) {
	env := keepertest.AMMKeeper(t)
	setupProvider(t, env, 100, 400)

	events := env.Keeper.Events()
	require.Len(t, events, 1)
	require.Equal(t, types.EventTypeLiquidityAdded, events[0].Type)

	require.Empty(t, env.Keeper.Events())
}
