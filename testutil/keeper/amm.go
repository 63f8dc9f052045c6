package keeper

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/tidepool-amm/tidepool/bank"
	"github.com/tidepool-amm/tidepool/lptoken"
	"github.com/tidepool-amm/tidepool/x/amm/keeper"
	"github.com/tidepool-amm/tidepool/x/amm/types"
)

// Default test pair
const (
	DenomA = "utide"
	DenomB = "uusdc"
)

// Env is a fully wired pool engine with in-memory collaborators and a
// controllable clock.
type Env struct {
	Keeper *keeper.Keeper
	Bank   *bank.Keeper
	Shares *lptoken.Ledger
	Now    time.Time
}

// AMMKeeper creates a test pool engine for the default pair with mock
// collaborators and a frozen clock.
func AMMKeeper(t testing.TB) *Env {
	t.Helper()

	env := &Env{
		Bank:   bank.NewKeeper(),
		Shares: lptoken.New(),
		Now:    time.Unix(1_700_000_000, 0).UTC(),
	}

	k, err := keeper.NewKeeper(
		DenomA, DenomB,
		types.DefaultParams(),
		env.Bank,
		env.Shares,
		func() time.Time { return env.Now },
		log.NewNopLogger(),
	)
	require.NoError(t, err)

	env.Keeper = k
	return env
}

// Deadline returns a deadline comfortably after the frozen test clock.
func (e *Env) Deadline() time.Time {
	return e.Now.Add(time.Hour)
}

// Expired returns a deadline already in the past of the frozen test clock.
func (e *Env) Expired() time.Time {
	return e.Now.Add(-time.Second)
}

// FundAccount credits an account with both pair denoms.
func (e *Env) FundAccount(t testing.TB, addr sdk.AccAddress, amountA, amountB int64) {
	t.Helper()
	err := e.Bank.MintCoins(context.Background(), addr, sdk.NewCoins(
		sdk.NewCoin(DenomA, math.NewInt(amountA)),
		sdk.NewCoin(DenomB, math.NewInt(amountB)),
	))
	require.NoError(t, err)
}

// TestAddr returns a deterministic test address for the given name.
func TestAddr(name string) sdk.AccAddress {
	addr := make([]byte, 20)
	copy(addr, name)
	return sdk.AccAddress(addr)
}
