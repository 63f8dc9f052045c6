package types

// Event types emitted by the pool engine
const (
	EventTypeLiquidityAdded   = "amm_liquidity_added"
	EventTypeLiquidityRemoved = "amm_liquidity_removed"
	EventTypeSwap             = "amm_swap"
)

// Event attribute keys
const (
	AttributeKeyProvider  = "provider"
	AttributeKeyTrader    = "trader"
	AttributeKeyRecipient = "recipient"
	AttributeKeyTokenIn   = "token_in"
	AttributeKeyTokenOut  = "token_out"
	AttributeKeyAmountIn  = "amount_in"
	AttributeKeyAmountOut = "amount_out"
	AttributeKeyAmountA   = "amount_a"
	AttributeKeyAmountB   = "amount_b"
	AttributeKeyShares    = "shares"
	AttributeKeyReserveA  = "reserve_a"
	AttributeKeyReserveB  = "reserve_b"
)
