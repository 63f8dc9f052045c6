package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tidepool-amm/tidepool/bank"
	"github.com/tidepool-amm/tidepool/config"
	"github.com/tidepool-amm/tidepool/lptoken"
	"github.com/tidepool-amm/tidepool/pkg/logger"
	"github.com/tidepool-amm/tidepool/x/amm/keeper"
	"github.com/tidepool-amm/tidepool/x/amm/types"
)

// stepDeadline is the validity window given to every scripted operation.
const stepDeadline = time.Minute

// RunCmd returns the command that executes a scripted pool scenario.
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scripted pool scenario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, err := cmd.Flags().GetString(flagConfig)
			if err != nil {
				return err
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			level := cfg.Log.Level
			if cmd.Flags().Changed(flagLogLevel) {
				level, _ = cmd.Flags().GetString(flagLogLevel)
			}
			log := logger.New(cmd.OutOrStdout(), "tidepool-sim", logger.ParseLevel(level))

			return runScenario(cmd, cfg, log)
		},
	}

	cmd.Flags().String(flagConfig, "", "path to scenario config file")
	return cmd
}

func runScenario(cmd *cobra.Command, cfg config.Config, log *logger.Logger) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bankKeeper := bank.NewKeeper()
	shares := lptoken.New()

	params := types.Params{
		FeeNumerator:   math.NewInt(cfg.Pool.FeeNumerator),
		FeeDenominator: math.NewInt(cfg.Pool.FeeDenominator),
		MinLiquidity:   math.NewInt(cfg.Pool.MinLiquidity),
	}
	engine, err := keeper.NewKeeper(
		cfg.Pool.AssetA, cfg.Pool.AssetB, params, bankKeeper, shares, nil, log)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		engine.SetMetrics(keeper.NewMetrics())
		go serveMetrics(cfg.Metrics.ListenAddr, log)
	}

	for _, acct := range cfg.Accounts {
		funding := sdk.NewCoins(
			sdk.NewCoin(cfg.Pool.AssetA, math.NewInt(acct.AmountA)),
			sdk.NewCoin(cfg.Pool.AssetB, math.NewInt(acct.AmountB)),
		)
		if err := bankKeeper.MintCoins(ctx, accountAddr(acct.Name), funding); err != nil {
			return fmt.Errorf("fund account %s: %w", acct.Name, err)
		}
	}

	for i, step := range cfg.Scenario {
		if err := executeStep(ctx, engine, step); err != nil {
			return fmt.Errorf("scenario step %d (%s by %s): %w", i, step.Op, step.Account, err)
		}
	}

	return printSummary(cmd, engine, shares, cfg)
}

func executeStep(ctx context.Context, engine *keeper.Keeper, step config.Step) error {
	addr := accountAddr(step.Account)
	deadline := time.Now().Add(stepDeadline)

	switch step.Op {
	case config.OpProvide:
		_, _, _, err := engine.ProvideLiquidity(ctx, addr, addr,
			math.NewInt(step.AmountADesired), math.NewInt(step.AmountBDesired),
			math.NewInt(step.AmountAMin), math.NewInt(step.AmountBMin),
			deadline)
		return err

	case config.OpSwap:
		pool := engine.Pool()
		tokenOut := pool.AssetB
		if step.TokenIn == pool.AssetB {
			tokenOut = pool.AssetA
		}
		_, err := engine.Swap(ctx, addr, addr,
			step.TokenIn, tokenOut,
			math.NewInt(step.AmountIn), math.NewInt(step.AmountOutMin),
			deadline)
		return err

	case config.OpRemove:
		_, _, err := engine.RemoveLiquidity(ctx, addr, addr,
			math.NewInt(step.Shares),
			math.NewInt(step.AmountAMin), math.NewInt(step.AmountBMin),
			deadline)
		return err
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

func printSummary(cmd *cobra.Command, engine *keeper.Keeper, shares *lptoken.Ledger, cfg config.Config) error {
	pool := engine.Pool()
	cmd.Printf("final reserves: %s %s, %s %s\n",
		pool.ReserveA, pool.AssetA, pool.ReserveB, pool.AssetB)
	cmd.Printf("outstanding shares: %s\n", shares.TotalShares(context.Background()))

	if !pool.IsEmpty() {
		price, err := engine.SpotPrice(cfg.Pool.AssetA, cfg.Pool.AssetB)
		if err != nil {
			return err
		}
		cmd.Printf("spot price: %s %s per %s\n", price, cfg.Pool.AssetB, cfg.Pool.AssetA)
	}
	return nil
}

func serveMetrics(addr string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics listener started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics listener stopped", "error", err.Error())
	}
}

// accountAddr derives a stable address from a scenario account name.
func accountAddr(name string) sdk.AccAddress {
	buf := make([]byte, 20)
	copy(buf, name)
	return sdk.AccAddress(buf)
}
