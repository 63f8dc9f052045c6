package types

const (
	// ModuleName defines the module name
	ModuleName = "amm"

	// PoolAccountName is the name used to derive the pool custody account address
	PoolAccountName = ModuleName + "_pool"
)
