// Package backtest wires the bar source, strategy, simulator, and metrics
// engine into a single orchestration entry point: a pure function from
// (bars, strategy, config) to a Result.
package backtest

import (
	"errors"
	"fmt"

	"github.com/nsequant/istbacktest/pkg/bar"
	"github.com/nsequant/istbacktest/pkg/logging"
	"github.com/nsequant/istbacktest/pkg/metrics"
	"github.com/nsequant/istbacktest/pkg/simulator"
	"github.com/nsequant/istbacktest/pkg/strategy"
)

var log = logging.GetLogger("backtest")

// ErrInsufficientData wraps a strategy's warm-up diagnostic. Run does not
// panic on it: it logs the diagnostic and returns this error, wrapped,
// together with an empty Result.
var ErrInsufficientData = errors.New("backtest: insufficient data for strategy warm-up")

// ErrDegenerateInput is returned when the input bar series fails
// pkg/bar.ValidateSeries (NaN/Inf fields, negative volume, non-monotonic
// timestamps).
var ErrDegenerateInput = errors.New("backtest: degenerate bar series")

// Result is the full output of a backtest run.
type Result struct {
	Trades          []simulator.Trade
	Metrics         metrics.Bundle
	Equity          []simulator.EquityPoint
	Analytics       Analytics
	BarsInPosition  int
	TotalMarketBars int
}

// Run executes the full pipeline: validates bars, asks the strategy for
// signals, feeds bars+signals to the simulator, then computes metrics and
// analytics. It never panics; insufficient-data and degenerate-input are
// reported as errors with an empty Result, per the core's error taxonomy.
func Run(bars []bar.Bar, strat strategy.Strategy, simCfg simulator.Config) (Result, error) {
	if err := bar.ValidateSeries(bars); err != nil {
		log.Error().Err(err).Str("strategy", strat.Name()).Msg("degenerate input rejected")
		return Result{}, fmt.Errorf("%w: %v", ErrDegenerateInput, err)
	}

	signals, err := strat.GenerateSignals()
	if err != nil {
		log.Warn().Err(err).Str("strategy", strat.Name()).Msg("strategy reported insufficient data")
		return Result{}, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}

	simResult := simulator.Run(bars, signals, simCfg)
	bundle := metrics.Compute(simResult.Trades, simCfg.InitialCapital, simResult.BarsInPosition, simResult.TotalMarketBars)
	analytics := ComputeAnalytics(simResult.Trades)

	log.Info().
		Str("strategy", strat.Name()).
		Int("trades", len(simResult.Trades)).
		Float64("overallReturn", bundle.Overall.Return).
		Msg("backtest run complete")

	return Result{
		Trades:          simResult.Trades,
		Metrics:         bundle,
		Equity:          simResult.Equity,
		Analytics:       analytics,
		BarsInPosition:  simResult.BarsInPosition,
		TotalMarketBars: simResult.TotalMarketBars,
	}, nil
}
