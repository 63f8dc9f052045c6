package cmd

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tidepool-amm/tidepool/x/amm/keeper"
)

// QuoteCmd returns the command that prices a single trade against given
// reserves without running a pool.
func QuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a trade against given reserves",
		Example: `  tidepool-sim quote --amount-in 1000 --reserve-in 10000 --reserve-out 10000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amountIn, err := cmd.Flags().GetInt64(flagAmountIn)
			if err != nil {
				return err
			}
			reserveIn, err := cmd.Flags().GetInt64(flagReserveIn)
			if err != nil {
				return err
			}
			reserveOut, err := cmd.Flags().GetInt64(flagReserveOut)
			if err != nil {
				return err
			}

			out, err := keeper.GetAmountOut(
				math.NewInt(amountIn), math.NewInt(reserveIn), math.NewInt(reserveOut))
			if err != nil {
				return err
			}

			cmd.Println(out.String())
			return nil
		},
	}

	addQuoteFlags(cmd.Flags())
	for _, f := range []string{flagAmountIn, flagReserveIn, flagReserveOut} {
		if err := cmd.MarkFlagRequired(f); err != nil {
			panic(fmt.Sprintf("mark %s required: %v", f, err))
		}
	}

	return cmd
}

func addQuoteFlags(fs *pflag.FlagSet) {
	fs.Int64(flagAmountIn, 0, "input amount to price")
	fs.Int64(flagReserveIn, 0, "reserve on the input side")
	fs.Int64(flagReserveOut, 0, "reserve on the output side")
}

const (
	flagAmountIn   = "amount-in"
	flagReserveIn  = "reserve-in"
	flagReserveOut = "reserve-out"
)
