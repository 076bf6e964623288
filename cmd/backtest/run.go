package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	appconfig "github.com/nsequant/istbacktest/internal/config"
	"github.com/nsequant/istbacktest/pkg/backtest"
	"github.com/nsequant/istbacktest/pkg/bar"
	"github.com/nsequant/istbacktest/pkg/logging"
	"github.com/nsequant/istbacktest/pkg/simulator"
	"github.com/nsequant/istbacktest/pkg/source"
	"github.com/nsequant/istbacktest/pkg/strategy"
)

var (
	runInputPath string
	runDBStart   string
	runDBEnd     string
	runUseDB     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single backtest and print its metrics bundle",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runInputPath, "input", "", "path to a CSV bar file (ignored when --db is set)")
	runCmd.Flags().BoolVar(&runUseDB, "db", false, "read bars from the configured TimescaleDB source instead of --input")
	runCmd.Flags().StringVar(&runDBStart, "start", "2024-01-01", "DB source start date (YYYY-MM-DD), only with --db")
	runCmd.Flags().StringVar(&runDBEnd, "end", "2024-12-31", "DB source end date (YYYY-MM-DD), only with --db")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load(cfgFile, envFile)
	if err != nil {
		return err
	}
	logging.Initialize(logging.Config{
		Level:      logging.LogLevel(cfg.Logging.Level),
		Pretty:     cfg.Logging.Pretty,
		TimeFormat: time.RFC3339,
		EnableFile: cfg.Logging.EnableFile,
		LogDir:     cfg.Logging.LogDir,
	})
	log := logging.GetLogger("cmd.run")

	src, err := buildSource(cfg)
	if err != nil {
		return err
	}
	bars, err := src.Bars()
	if err != nil {
		return fmt.Errorf("fetching bars: %w", err)
	}
	log.Info().Int("bars", len(bars)).Str("symbol", cfg.Symbol).Msg("loaded bar series")

	strat, err := buildStrategy(bars, cfg.Strategy)
	if err != nil {
		return err
	}

	simCfg := simulator.Config{
		InitialCapital:      cfg.Simulator.InitialCapital,
		Quantity:            cfg.Simulator.Quantity,
		Slippage:            cfg.Simulator.Slippage,
		Exchange:            cfg.Simulator.ExchangeCode(),
		StopLossPct:         cfg.Simulator.StopLossPct,
		TakeProfitPct:       cfg.Simulator.TakeProfitPct,
		TrailingStopEnabled: cfg.Simulator.TrailingStopEnabled,
		TrailingStopPct:     cfg.Simulator.TrailingStopPct,
	}

	result, err := backtest.Run(bars, strat, simCfg)
	if err != nil {
		return fmt.Errorf("backtest run: %w", err)
	}

	printSummary(strat.Name(), result)
	return nil
}

func buildSource(cfg appconfig.Config) (source.BarSource, error) {
	if runUseDB {
		start, err := time.Parse("2006-01-02", runDBStart)
		if err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
		end, err := time.Parse("2006-01-02", runDBEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid --end: %w", err)
		}
		return source.NewTimescaleDBSource(cfg.Database.ConnectionString(), cfg.Symbol, start, end)
	}
	if runInputPath == "" {
		return nil, fmt.Errorf("either --input or --db must be set")
	}
	return source.NewCSVSource(runInputPath), nil
}

func paramFloat(p map[string]any, key string, def float64) float64 {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

func paramInt(p map[string]any, key string, def int) int {
	return int(paramFloat(p, key, float64(def)))
}

func paramBool(p map[string]any, key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

func paramString(p map[string]any, key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

func paramFilters(p map[string]any) strategy.FilterConfig {
	return strategy.FilterConfig{
		TradingWindowStart: paramString(p, "trading_window_start", ""),
		TradingWindowEnd:   paramString(p, "trading_window_end", ""),
		MaxTradesPerDay:    paramInt(p, "max_trades_per_day", 0),
		EMAGapMin:          paramFloat(p, "ema_gap_min", 0),
		SkipWindowStart:    paramString(p, "skip_window_start", ""),
		SkipWindowEnd:      paramString(p, "skip_window_end", ""),
		ADXThreshold:       paramFloat(p, "adx_threshold", 0),
	}
}

// buildStrategy dispatches on cfg.Name to construct the matching concrete
// strategy, decoding its parameters from the loosely-typed YAML params bag.
func buildStrategy(bars []bar.Bar, cfg appconfig.StrategyConfig) (strategy.Strategy, error) {
	p := cfg.Params
	switch cfg.Name {
	case "ma_crossover":
		return strategy.NewMACrossover(bars, strategy.MACrossoverConfig{
			FastPeriod: paramInt(p, "fast_period", 3),
			SlowPeriod: paramInt(p, "slow_period", 5),
			UseEMA:     paramBool(p, "use_ema", false),
			Simple:     paramBool(p, "simple", true),
			ATRPeriod:  paramInt(p, "atr_period", 14),
			ATRMultSL:  paramFloat(p, "atr_mult_sl", 1.5),
			ATRMultTP:  paramFloat(p, "atr_mult_tp", 3.0),
			ADXPeriod:  paramInt(p, "adx_period", 14),
			Filters:    paramFilters(p),
		}), nil
	case "candlestick":
		return strategy.NewCandlestick(bars, strategy.CandlestickConfig{
			EMAFastPeriod: paramInt(p, "ema_fast_period", 9),
			EMASlowPeriod: paramInt(p, "ema_slow_period", 21),
			ADXPeriod:     paramInt(p, "adx_period", 14),
			ADXThreshold:  paramFloat(p, "adx_threshold", 20),
			VolumePeriod:  paramInt(p, "volume_period", 20),
			VolumeMult:    paramFloat(p, "volume_mult", 1.5),
			HTFEMAPeriod:  paramInt(p, "htf_ema_period", 21),
			Filters:       paramFilters(p),
		}), nil
	case "breakout", "breakout_wdh":
		variant := strategy.BreakoutFull
		if cfg.Name == "breakout_wdh" {
			variant = strategy.BreakoutWDH
		}
		return strategy.NewBreakout(bars, strategy.BreakoutConfig{
			Variant:          variant,
			RR:               paramFloat(p, "rr", 1.0),
			UseDailyADXGate:  paramBool(p, "use_daily_adx_gate", false),
			UseHourlyADXGate: paramBool(p, "use_hourly_adx_gate", false),
			ADXPeriod:        paramInt(p, "adx_period", 14),
			ADXThreshold:     paramFloat(p, "adx_threshold", 20),
			Filters:          paramFilters(p),
		}), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Name)
	}
}

func printSummary(name string, result backtest.Result) {
	fmt.Printf("Strategy: %s\n", name)
	fmt.Printf("Trades:   %d\n", len(result.Trades))
	fmt.Printf("Overall:  return=%.2f%% sharpe=%.2f maxDD=%.2f%% winRate=%.2f%% timeInMarket=%.2f%%\n",
		result.Metrics.Overall.Return,
		result.Metrics.Overall.SharpeRatio,
		result.Metrics.Overall.MaxDrawdown,
		result.Metrics.Overall.WinRate,
		result.Metrics.Overall.TimeInMarket,
	)
	for reason, stats := range result.Analytics.ByExitReason {
		fmt.Printf("  %-14s count=%-4d avgNetPnl=%.2f\n", reason, stats.Count, stats.AvgNetPnl)
	}
}
