// Package cmd wires the tidepool-sim command tree.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for tidepool-sim. It is called once in
// the main function.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tidepool-sim",
		Short: "Tidepool constant-product pool simulator",
		Long: `tidepool-sim runs a two-asset constant-product pool against an in-memory
asset ledger. Scenarios script liquidity provisions, swaps and withdrawals
from a config file; quote prices a single trade without running a pool.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String(flagLogLevel, "info", "log level (debug|info|warn|error|off)")

	rootCmd.AddCommand(
		RunCmd(),
		QuoteCmd(),
	)

	return rootCmd
}

const (
	flagConfig   = "config"
	flagLogLevel = "log-level"
)
