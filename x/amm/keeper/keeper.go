package keeper

import (
	"sync"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"

	"github.com/tidepool-amm/tidepool/x/amm/types"
)

// Keeper owns the reserve state of one fixed-pair constant-product pool and
// funnels every mutation through ProvideLiquidity, RemoveLiquidity and Swap.
//
// Each public operation executes as one atomic unit under a single mutex: no
// interleaving against the same pool state, no internal suspension point. A
// failed precondition aborts the whole operation; transfers already performed
// are compensated before the error is surfaced.
type Keeper struct {
	mu sync.Mutex

	pool   types.Pool
	params types.Params

	poolAddr    sdk.AccAddress
	bankKeeper  types.BankKeeper
	shareLedger types.ShareLedger

	now     func() time.Time
	logger  log.Logger
	events  *sdk.EventManager
	metrics *Metrics
}

// PoolAddress returns the address of the pool custody account, derived from
// the module name the same way module accounts are.
func PoolAddress() sdk.AccAddress {
	return sdk.AccAddress(address.Module(types.PoolAccountName))
}

// NewKeeper creates a pool engine for the given distinct asset pair. The time
// source feeds deadline checks; a nil timeSource defaults to time.Now and a
// nil logger is replaced by a no-op logger.
func NewKeeper(
	assetA, assetB string,
	params types.Params,
	bankKeeper types.BankKeeper,
	shareLedger types.ShareLedger,
	timeSource func() time.Time,
	logger log.Logger,
) (*Keeper, error) {
	pool, err := types.NewPool(assetA, assetB)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if bankKeeper == nil || shareLedger == nil {
		return nil, types.ErrInvalidInputs.Wrap("bank keeper and share ledger are required")
	}
	if timeSource == nil {
		timeSource = time.Now
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Keeper{
		pool:        pool,
		params:      params,
		poolAddr:    PoolAddress(),
		bankKeeper:  bankKeeper,
		shareLedger: shareLedger,
		now:         timeSource,
		logger:      logger.With("module", "x/"+types.ModuleName),
		events:      sdk.NewEventManager(),
	}, nil
}

// SetMetrics attaches prometheus metrics to the keeper. Metrics are optional;
// a nil receiver set disables recording.
func (k *Keeper) SetMetrics(m *Metrics) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.metrics = m
}

// Pool returns a copy of the current pool state.
func (k *Keeper) Pool() types.Pool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.pool
}

// Params returns the engine parameters.
func (k *Keeper) Params() types.Params {
	return k.params
}

// Events returns the events emitted by completed operations since the last
// call and resets the buffer, so accumulation stays bounded over a long-lived
// engine.
func (k *Keeper) Events() sdk.Events {
	k.mu.Lock()
	defer k.mu.Unlock()
	events := k.events.Events()
	k.events = sdk.NewEventManager()
	return events
}

// checkDeadline fails with ErrExpired when the current time is past the
// caller-supplied deadline. The comparison is currentTime <= deadline.
func (k *Keeper) checkDeadline(deadline time.Time) error {
	if now := k.now(); now.After(deadline) {
		return types.ErrExpired.Wrapf("deadline %s, current time %s",
			deadline.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	}
	return nil
}

// setReserves writes both reserves as one paired update, range-checking the
// narrow reserve representation before accepting it.
func (k *Keeper) setReserves(reserveA, reserveB sdkmath.Int) error {
	next := k.pool
	next.ReserveA = reserveA
	next.ReserveB = reserveB
	if err := next.Validate(); err != nil {
		return err
	}
	k.pool = next

	if k.metrics != nil {
		k.metrics.PoolReserves.WithLabelValues(k.pool.AssetA).Set(gaugeValue(reserveA))
		k.metrics.PoolReserves.WithLabelValues(k.pool.AssetB).Set(gaugeValue(reserveB))
	}
	return nil
}
