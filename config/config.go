// Package config loads simulator configuration from file and environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config is the full simulator configuration.
type Config struct {
	Pool     PoolConfig      `mapstructure:"pool"`
	Log      LogConfig       `mapstructure:"log"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Accounts []AccountConfig `mapstructure:"accounts"`

	// Scenario is parsed separately; step shapes vary per operation.
	Scenario []Step `mapstructure:"-"`
}

// PoolConfig fixes the asset pair and fee parameters of the pool.
type PoolConfig struct {
	AssetA         string `mapstructure:"asset_a"`
	AssetB         string `mapstructure:"asset_b"`
	FeeNumerator   int64  `mapstructure:"fee_numerator"`
	FeeDenominator int64  `mapstructure:"fee_denominator"`
	MinLiquidity   int64  `mapstructure:"min_liquidity"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig controls the prometheus listener.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// AccountConfig names a simulated account and its starting balances.
type AccountConfig struct {
	Name    string `mapstructure:"name"`
	AmountA int64  `mapstructure:"amount_a"`
	AmountB int64  `mapstructure:"amount_b"`
}

// Step is one scripted pool operation. Fields beyond Op and Account apply per
// operation: provide uses the desired/min amounts, swap uses token_in and
// amount_in, remove uses shares.
type Step struct {
	Op      string
	Account string

	AmountADesired int64
	AmountBDesired int64
	AmountAMin     int64
	AmountBMin     int64

	TokenIn      string
	AmountIn     int64
	AmountOutMin int64

	Shares int64
}

// Step operations accepted in a scenario.
const (
	OpProvide = "provide"
	OpSwap    = "swap"
	OpRemove  = "remove"
)

// Default returns the configuration used when no file is supplied: a
// utide/uusdc pool with the standard 0.3% fee and no scripted scenario.
func Default() Config {
	return Config{
		Pool: PoolConfig{
			AssetA:         "utide",
			AssetB:         "uusdc",
			FeeNumerator:   997,
			FeeDenominator: 1000,
			MinLiquidity:   1,
		},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: false, ListenAddr: ":36660"},
	}
}

// Load reads configuration from path, layering environment variables with the
// TIDEPOOL_ prefix over file values. An empty path returns defaults with
// environment overrides only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TIDEPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	steps, err := parseScenario(v.Get("scenario"))
	if err != nil {
		return Config{}, err
	}
	cfg.Scenario = steps

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("pool.asset_a", def.Pool.AssetA)
	v.SetDefault("pool.asset_b", def.Pool.AssetB)
	v.SetDefault("pool.fee_numerator", def.Pool.FeeNumerator)
	v.SetDefault("pool.fee_denominator", def.Pool.FeeDenominator)
	v.SetDefault("pool.min_liquidity", def.Pool.MinLiquidity)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.listen_addr", def.Metrics.ListenAddr)
}

// parseScenario decodes the free-form scenario list. Each entry is a map with
// an op discriminator; unknown keys are ignored so scenarios stay forward
// compatible.
func parseScenario(raw interface{}) ([]Step, error) {
	if raw == nil {
		return nil, nil
	}

	entries, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("scenario must be a list: %w", err)
	}

	steps := make([]Step, 0, len(entries))
	for i, entry := range entries {
		m, err := cast.ToStringMapE(entry)
		if err != nil {
			return nil, fmt.Errorf("scenario step %d: %w", i, err)
		}

		step := Step{
			Op:             cast.ToString(m["op"]),
			Account:        cast.ToString(m["account"]),
			AmountADesired: cast.ToInt64(m["amount_a_desired"]),
			AmountBDesired: cast.ToInt64(m["amount_b_desired"]),
			AmountAMin:     cast.ToInt64(m["amount_a_min"]),
			AmountBMin:     cast.ToInt64(m["amount_b_min"]),
			TokenIn:        cast.ToString(m["token_in"]),
			AmountIn:       cast.ToInt64(m["amount_in"]),
			AmountOutMin:   cast.ToInt64(m["amount_out_min"]),
			Shares:         cast.ToInt64(m["shares"]),
		}
		if err := step.validate(i); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (s Step) validate(i int) error {
	switch s.Op {
	case OpProvide, OpSwap, OpRemove:
	default:
		return fmt.Errorf("scenario step %d: unknown op %q", i, s.Op)
	}
	if s.Account == "" {
		return fmt.Errorf("scenario step %d: account is required", i)
	}
	return nil
}

// Validate checks structural configuration invariants.
func (c Config) Validate() error {
	if c.Pool.AssetA == "" || c.Pool.AssetB == "" {
		return fmt.Errorf("pool assets cannot be empty")
	}
	if c.Pool.AssetA == c.Pool.AssetB {
		return fmt.Errorf("pool assets must be distinct, got %s for both", c.Pool.AssetA)
	}
	if c.Pool.FeeDenominator <= 0 {
		return fmt.Errorf("fee denominator must be positive, got %d", c.Pool.FeeDenominator)
	}
	if c.Pool.FeeNumerator <= 0 || c.Pool.FeeNumerator > c.Pool.FeeDenominator {
		return fmt.Errorf("fee numerator must be in (0, %d], got %d",
			c.Pool.FeeDenominator, c.Pool.FeeNumerator)
	}
	if c.Pool.MinLiquidity <= 0 {
		return fmt.Errorf("min liquidity must be positive, got %d", c.Pool.MinLiquidity)
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics listen address is required when metrics are enabled")
	}

	seen := make(map[string]struct{}, len(c.Accounts))
	for i, acct := range c.Accounts {
		if acct.Name == "" {
			return fmt.Errorf("account %d: name is required", i)
		}
		if _, dup := seen[acct.Name]; dup {
			return fmt.Errorf("account %d: duplicate name %q", i, acct.Name)
		}
		seen[acct.Name] = struct{}{}
		if acct.AmountA < 0 || acct.AmountB < 0 {
			return fmt.Errorf("account %q: balances cannot be negative", acct.Name)
		}
	}

	for _, step := range c.Scenario {
		if _, ok := seen[step.Account]; !ok {
			return fmt.Errorf("scenario references unknown account %q", step.Account)
		}
	}
	return nil
}
