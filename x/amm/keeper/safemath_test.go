package keeper_test

import (
	"math/big"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/tidepool-amm/tidepool/x/amm/keeper"
	"github.com/tidepool-amm/tidepool/x/amm/types"
)

func TestIsqrt(t *testing.T) {
	cases := []struct {
		in, want int64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{8, 2},
		{9, 3},
		{15, 3},
		{16, 4},
		{24, 4},
		{25, 5},
		{40_000, 200},
		{1_000_000, 1000},
		{999_999, 999},
	}
	for _, tc := range cases {
		got := keeper.Isqrt(math.NewInt(tc.in))
		require.Equal(t, math.NewInt(tc.want), got, "isqrt(%d)", tc.in)
	}
}

func TestIsqrt_LargeValues(t *testing.T) {
	// Product of two maximal reserves, the widest value the share formula
	// ever feeds in.
	maxR := types.MaxReserve()
	product := new(big.Int).Mul(maxR.BigInt(), maxR.BigInt())

	root := keeper.Isqrt(math.NewIntFromBigInt(product))
	require.Equal(t, maxR, root)

	// One below a huge perfect square floors to the previous root.
	root = keeper.Isqrt(math.NewIntFromBigInt(new(big.Int).Sub(product, big.NewInt(1))))
	require.Equal(t, maxR.Sub(math.OneInt()), root)
}

func TestIsqrt_Negative(t *testing.T) {
	require.True(t, keeper.Isqrt(math.NewInt(-4)).IsZero())
}

func TestSafeMul(t *testing.T) {
	got, err := keeper.SafeMul(math.NewInt(100), math.NewInt(400))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(40_000), got)

	got, err = keeper.SafeMul(math.ZeroInt(), types.MaxReserve())
	require.NoError(t, err)
	require.True(t, got.IsZero())

	// Two maximal reserves multiply safely: 224 bits of product.
	got, err = keeper.SafeMul(types.MaxReserve(), types.MaxReserve())
	require.NoError(t, err)
	want := new(big.Int).Mul(types.MaxReserve().BigInt(), types.MaxReserve().BigInt())
	require.Equal(t, math.NewIntFromBigInt(want), got)
}

func TestSafeMul_Overflow(t *testing.T) {
	huge := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))
	_, err := keeper.SafeMul(huge, huge)
	require.Error(t, err)
	require.True(t, types.ErrInvalidInputs.Is(err))
}

func TestSafeMulDiv(t *testing.T) {
	got, err := keeper.SafeMulDiv(math.NewInt(10), math.NewInt(400), math.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(40), got)

	// Floor division.
	got, err = keeper.SafeMulDiv(math.NewInt(7), math.NewInt(3), math.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(2), got)
}

func TestSafeMulDiv_Errors(t *testing.T) {
	_, err := keeper.SafeMulDiv(math.NewInt(1), math.NewInt(1), math.ZeroInt())
	require.Error(t, err)
	require.True(t, types.ErrInvalidInputs.Is(err))

	huge := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))
	_, err = keeper.SafeMulDiv(huge, huge, math.OneInt())
	require.Error(t, err)
	require.True(t, types.ErrInvalidInputs.Is(err))
}

func TestMinInt(t *testing.T) {
	a, b := math.NewInt(3), math.NewInt(7)
	require.Equal(t, a, keeper.MinInt(a, b))
	require.Equal(t, a, keeper.MinInt(b, a))
	require.Equal(t, a, keeper.MinInt(a, a))
}

// FuzzIsqrt checks the floor square root bracket z*z <= y < (z+1)*(z+1).
func FuzzIsqrt(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(3))
	f.Add(uint64(4))
	f.Add(uint64(40_000))
	f.Add(uint64(1)<<63 - 1)

	f.Fuzz(func(t *testing.T, y uint64) {
		in := math.NewIntFromUint64(y)
		z := keeper.Isqrt(in)

		lower := z.Mul(z)
		upper := z.Add(math.OneInt()).Mul(z.Add(math.OneInt()))
		require.True(t, lower.LTE(in), "isqrt(%d) = %s too large", y, z)
		require.True(t, upper.GT(in), "isqrt(%d) = %s too small", y, z)
	})
}

// FuzzGetAmountOut checks that pricing never drains the outgoing reserve and
// never rejects in-range positive inputs.
func FuzzGetAmountOut(f *testing.F) {
	f.Add(uint64(1000), uint64(10_000), uint64(10_000))
	f.Add(uint64(1), uint64(1), uint64(1))
	f.Add(uint64(1)<<50, uint64(1)<<40, uint64(1)<<60)

	f.Fuzz(func(t *testing.T, amountIn, reserveIn, reserveOut uint64) {
		if amountIn == 0 || reserveIn == 0 || reserveOut == 0 {
			t.Skip()
		}
		out, err := keeper.GetAmountOut(
			math.NewIntFromUint64(amountIn),
			math.NewIntFromUint64(reserveIn),
			math.NewIntFromUint64(reserveOut),
		)
		require.NoError(t, err)
		require.True(t, out.LT(math.NewIntFromUint64(reserveOut)),
			"output %s >= reserve %d", out, reserveOut)
		require.False(t, out.IsNegative())
	})
}
