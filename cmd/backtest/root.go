// Command backtest runs historical intraday-equity strategy backtests over
// NSE/BSE minute bars and reports the six-horizon metrics bundle.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nsequant/istbacktest/pkg/logging"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Historical backtester for intraday equity strategies on NSE/BSE",
	Long: `backtest replays minute-resolution OHLCV history through a pluggable
strategy, a single-position trade simulator, and a six-horizon metrics
engine.

Examples:
  backtest run --config configs/ma_crossover.yaml --input data/reliance_1m.csv
  backtest indicators --input data/reliance_1m.csv --period 14`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML run configuration")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env file for database credential overrides")
}

func main() {
	logging.Initialize(logging.DefaultConfig())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
