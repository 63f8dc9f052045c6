package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/tidepool-amm/tidepool/bank"
	"github.com/tidepool-amm/tidepool/lptoken"
	"github.com/tidepool-amm/tidepool/x/amm/keeper"
	"github.com/tidepool-amm/tidepool/x/amm/types"
)

func TestNewKeeper(t *testing.T) {
	k, err := keeper.NewKeeper("utide", "uusdc", types.DefaultParams(),
		bank.NewKeeper(), lptoken.New(), nil, nil)
	require.NoError(t, err)
	require.True(t, k.Pool().IsEmpty())
	require.Equal(t, types.DefaultParams(), k.Params())
}

func TestNewKeeper_IdenticalAssets(t *testing.T) {
	_, err := keeper.NewKeeper("utide", "utide", types.DefaultParams(),
		bank.NewKeeper(), lptoken.New(), nil, nil)
	require.Error(t, err)
	require.True(t, types.ErrIdenticalAssets.Is(err))
}

func TestNewKeeper_MissingPorts(t *testing.T) {
	_, err := keeper.NewKeeper("utide", "uusdc", types.DefaultParams(),
		nil, lptoken.New(), nil, nil)
	require.Error(t, err)
	require.True(t, types.ErrInvalidInputs.Is(err))

	_, err = keeper.NewKeeper("utide", "uusdc", types.DefaultParams(),
		bank.NewKeeper(), nil, nil, nil)
	require.Error(t, err)
	require.True(t, types.ErrInvalidInputs.Is(err))
}

func TestNewKeeper_InvalidParams(t *testing.T) {
	params := types.DefaultParams()
	params.FeeNumerator = math.NewInt(1001)
	_, err := keeper.NewKeeper("utide", "uusdc", params,
		bank.NewKeeper(), lptoken.New(), nil, nil)
	require.Error(t, err)
	require.True(t, types.ErrInvalidInputs.Is(err))
}

func TestPoolAddress_Deterministic(t *testing.T) {
	require.Equal(t, keeper.PoolAddress(), keeper.PoolAddress())
	require.False(t, keeper.PoolAddress().Empty())
}
