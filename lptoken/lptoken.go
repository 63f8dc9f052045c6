// Package lptoken is an in-memory pool-share ledger implementing the engine's
// ShareLedger port: mint/burn with a tracked total supply and per-holder
// balances, positions deleted when they reach zero.
package lptoken

import (
	"context"
	"sync"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	// ErrInvalidShares is returned for non-positive mint or burn amounts.
	ErrInvalidShares = errors.Register("lptoken", 2, "invalid shares amount")
	// ErrInsufficientShares is returned when a holder's balance cannot cover a burn.
	ErrInsufficientShares = errors.Register("lptoken", 3, "insufficient shares")
)

// Ledger tracks outstanding pool shares.
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]math.Int
	total    math.Int
}

// New creates an empty share ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[string]math.Int),
		total:    math.ZeroInt(),
	}
}

// Mint issues shares to a holder and grows total supply.
func (l *Ledger) Mint(_ context.Context, to sdk.AccAddress, shares math.Int) error {
	if shares.IsNil() || !shares.IsPositive() {
		return ErrInvalidShares.Wrapf("cannot mint %s shares", shares)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	holder := to.String()
	l.balances[holder] = l.balance(holder).Add(shares)
	l.total = l.total.Add(shares)
	return nil
}

// Burn destroys shares held by a holder and shrinks total supply. Positions
// that reach zero are removed.
func (l *Ledger) Burn(_ context.Context, from sdk.AccAddress, shares math.Int) error {
	if shares.IsNil() || !shares.IsPositive() {
		return ErrInvalidShares.Wrapf("cannot burn %s shares", shares)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	holder := from.String()
	held := l.balance(holder)
	if held.LT(shares) {
		return ErrInsufficientShares.Wrapf("%s holds %s, needs %s", holder, held, shares)
	}

	remaining := held.Sub(shares)
	if remaining.IsZero() {
		delete(l.balances, holder)
	} else {
		l.balances[holder] = remaining
	}
	l.total = l.total.Sub(shares)
	return nil
}

// TotalShares returns the outstanding share supply.
func (l *Ledger) TotalShares(_ context.Context) math.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// BalanceOf returns a holder's share balance, zero if none.
func (l *Ledger) BalanceOf(_ context.Context, holder sdk.AccAddress) math.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance(holder.String())
}

func (l *Ledger) balance(holder string) math.Int {
	if bal, ok := l.balances[holder]; ok {
		return bal
	}
	return math.ZeroInt()
}
