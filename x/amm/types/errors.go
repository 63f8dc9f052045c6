package types

import (
	"cosmossdk.io/errors"
)

// AMM module sentinel errors
var (
	ErrExpired               = errors.Register(ModuleName, 2, "deadline expired")
	ErrIdenticalAssets       = errors.Register(ModuleName, 3, "pool assets must be distinct")
	ErrInvalidTokenPair      = errors.Register(ModuleName, 4, "invalid token pair")
	ErrSlippageA             = errors.Register(ModuleName, 5, "amount A below minimum")
	ErrSlippageB             = errors.Register(ModuleName, 6, "amount B below minimum")
	ErrSlippage              = errors.Register(ModuleName, 7, "withdrawal below minimum")
	ErrInsufficientLiquidity = errors.Register(ModuleName, 8, "insufficient liquidity")
	ErrInvalidLiquidity      = errors.Register(ModuleName, 9, "invalid liquidity shares")
	ErrZeroAmountIn          = errors.Register(ModuleName, 10, "swap input amount must be positive")
	ErrInvalidRecipient      = errors.Register(ModuleName, 11, "invalid recipient")
	ErrInsufficientOutput    = errors.Register(ModuleName, 12, "output amount less than minimum required")
	ErrInvalidInputs         = errors.Register(ModuleName, 13, "invalid inputs")
	ErrReserveOverflow       = errors.Register(ModuleName, 14, "reserve exceeds 112-bit range")
	ErrInvalidPoolState      = errors.Register(ModuleName, 15, "invalid pool state")
	ErrInvariantViolation    = errors.Register(ModuleName, 16, "invariant violation")
	ErrTransferFailed        = errors.Register(ModuleName, 17, "asset transfer failed")
)
