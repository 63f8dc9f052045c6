package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BankKeeper is the asset transfer port. The engine never trusts nominal
// transfer amounts: it re-measures custody balances after every SendCoins so
// that fee-on-transfer assets are accounted at what was actually delivered.
type BankKeeper interface {
	SendCoins(ctx context.Context, fromAddr, toAddr sdk.AccAddress, amt sdk.Coins) error
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
}

// ShareLedger is the pool-share ledger port. It owns total share supply and
// per-holder balances; the engine only decides how many shares to mint or burn.
type ShareLedger interface {
	Mint(ctx context.Context, to sdk.AccAddress, shares sdkmath.Int) error
	Burn(ctx context.Context, from sdk.AccAddress, shares sdkmath.Int) error
	TotalShares(ctx context.Context) sdkmath.Int
	BalanceOf(ctx context.Context, holder sdk.AccAddress) sdkmath.Int
}
