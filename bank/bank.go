// Package bank is an in-memory asset ledger implementing the engine's
// BankKeeper port. It exists for tests and the simulator; a deployment wires
// the engine to a real transfer mechanism instead.
package bank

import (
	"context"
	"sync"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	// ErrInsufficientFunds is returned when a sender's balance cannot cover a transfer.
	ErrInsufficientFunds = errors.Register("simbank", 2, "insufficient funds")
	// ErrInvalidCoins is returned for nil or negative transfer amounts.
	ErrInvalidCoins = errors.Register("simbank", 3, "invalid coins")
)

const feeBpsDenom = 10_000

// Keeper tracks account balances per denom behind one RWMutex. Denoms may be
// registered as fee-on-transfer: the receiver is credited the sent amount
// minus a basis-point fee, which models transfer-fee tokens so that callers
// depending on balance re-measurement can be exercised.
type Keeper struct {
	mu        sync.RWMutex
	balances  map[string]map[string]math.Int // address -> denom -> amount
	feeBps    map[string]math.Int            // denom -> withheld basis points
	feeBurned map[string]math.Int            // denom -> cumulative withheld amount
}

// NewKeeper creates an empty in-memory bank.
func NewKeeper() *Keeper {
	return &Keeper{
		balances:  make(map[string]map[string]math.Int),
		feeBps:    make(map[string]math.Int),
		feeBurned: make(map[string]math.Int),
	}
}

// SetTransferFee registers denom as fee-on-transfer, withholding bps basis
// points of every transfer from the receiver.
func (k *Keeper) SetTransferFee(denom string, bps int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if bps <= 0 {
		delete(k.feeBps, denom)
		return
	}
	k.feeBps[denom] = math.NewInt(bps)
}

// MintCoins credits amt to addr out of thin air. Funding helper for tests and
// the simulator.
func (k *Keeper) MintCoins(_ context.Context, addr sdk.AccAddress, amt sdk.Coins) error {
	if err := amt.Validate(); err != nil {
		return ErrInvalidCoins.Wrap(err.Error())
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for _, coin := range amt {
		k.credit(addr.String(), coin.Denom, coin.Amount)
	}
	return nil
}

// SendCoins moves amt from fromAddr to toAddr, applying any registered
// transfer fee on the receiving side.
func (k *Keeper) SendCoins(_ context.Context, fromAddr, toAddr sdk.AccAddress, amt sdk.Coins) error {
	if err := amt.Validate(); err != nil {
		return ErrInvalidCoins.Wrap(err.Error())
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	from, to := fromAddr.String(), toAddr.String()
	for _, coin := range amt {
		if k.balanceOf(from, coin.Denom).LT(coin.Amount) {
			return ErrInsufficientFunds.Wrapf("%s has %s%s, needs %s",
				from, k.balanceOf(from, coin.Denom), coin.Denom, coin)
		}
	}

	for _, coin := range amt {
		k.debit(from, coin.Denom, coin.Amount)

		delivered := coin.Amount
		if bps, ok := k.feeBps[coin.Denom]; ok {
			fee := coin.Amount.Mul(bps).Quo(math.NewInt(feeBpsDenom))
			delivered = delivered.Sub(fee)
			k.feeBurned[coin.Denom] = k.burned(coin.Denom).Add(fee)
		}
		k.credit(to, coin.Denom, delivered)
	}
	return nil
}

// GetBalance returns addr's balance for denom, zero if never credited.
func (k *Keeper) GetBalance(_ context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return sdk.NewCoin(denom, k.balanceOf(addr.String(), denom))
}

// FeesWithheld returns the cumulative amount withheld from transfers of a
// fee-on-transfer denom.
func (k *Keeper) FeesWithheld(denom string) math.Int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.burned(denom)
}

func (k *Keeper) balanceOf(addr, denom string) math.Int {
	if acct, ok := k.balances[addr]; ok {
		if bal, ok := acct[denom]; ok {
			return bal
		}
	}
	return math.ZeroInt()
}

func (k *Keeper) burned(denom string) math.Int {
	if b, ok := k.feeBurned[denom]; ok {
		return b
	}
	return math.ZeroInt()
}

func (k *Keeper) credit(addr, denom string, amount math.Int) {
	acct, ok := k.balances[addr]
	if !ok {
		acct = make(map[string]math.Int)
		k.balances[addr] = acct
	}
	acct[denom] = k.balanceOf(addr, denom).Add(amount)
}

func (k *Keeper) debit(addr, denom string, amount math.Int) {
	k.balances[addr][denom] = k.balanceOf(addr, denom).Sub(amount)
}
