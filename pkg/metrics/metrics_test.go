package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsequant/istbacktest/pkg/bar"
	"github.com/nsequant/istbacktest/pkg/simulator"
)

func mkTrade(entry time.Time, netPnl, pnlPercent float64) simulator.Trade {
	return simulator.Trade{
		EntryTime:  entry,
		ExitTime:   entry.Add(5 * time.Minute),
		EntryPrice: 100,
		ExitPrice:  100 + netPnl,
		NetPnl:     netPnl,
		PnlPercent: pnlPercent,
	}
}

func TestComputeNoTrades(t *testing.T) {
	b := Compute(nil, 100000, 0, 0)
	assert.Equal(t, 0, b.Overall.TotalTrades)
	assert.Equal(t, 0.0, b.Overall.Return)
	assert.Equal(t, 0.0, b.Overall.SharpeRatio)
}

func TestComputeSingleWinningTradeCapsProfitFactor(t *testing.T) {
	trades := []simulator.Trade{
		mkTrade(time.Date(2024, 3, 4, 4, 0, 0, 0, time.UTC), 500, 5),
	}
	b := Compute(trades, 100000, 10, 100)
	assert.Equal(t, 1, b.Overall.TotalTrades)
	assert.Equal(t, 100.0, b.Overall.WinRate)
	assert.Equal(t, profitFactorCap, b.Overall.ProfitFactor)
	assert.Equal(t, 0.5, b.Overall.Return)
	assert.Equal(t, 10.0, b.Overall.TimeInMarket)
}

// Trades from the same week ordinal ((dayOfYear-1)/7) but different calendar days bucket into one
// weekly group; distinct calendar days still bucket separately for the
// daily horizon.
func TestWeeklyGroupingMergesSameWeekDays(t *testing.T) {
	day1 := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 3, 4, 0, 0, 0, time.UTC)
	trades := []simulator.Trade{
		mkTrade(day1, 100, 1),
		mkTrade(day2, 200, 2),
	}
	b := Compute(trades, 100000, 0, 0)
	// Two distinct days -> daily horizon averages two single-trade periods.
	assert.Equal(t, 1, b.Daily.TotalTrades)
	// Same week -> weekly horizon is a single two-trade period.
	assert.Equal(t, 2, b.Weekly.TotalTrades)
}

// Net PnL ties (exactly zero) reset both streak counters without counting as
// either a win or a loss.
func TestConsecutiveStreaksIgnoresScratchTrades(t *testing.T) {
	base := time.Date(2024, 2, 1, 4, 0, 0, 0, time.UTC)
	trades := []simulator.Trade{
		mkTrade(base, 10, 1),
		mkTrade(base.Add(24*time.Hour), 10, 1),
		mkTrade(base.Add(48*time.Hour), 0, 0),
		mkTrade(base.Add(72*time.Hour), -5, -0.5),
		mkTrade(base.Add(96*time.Hour), -5, -0.5),
		mkTrade(base.Add(120*time.Hour), -5, -0.5),
	}
	md := computeMetricData(trades, 100000)
	assert.Equal(t, 2, md.MaxConsecutiveWins)
	assert.Equal(t, 3, md.MaxConsecutiveLosses)
}

// S6-style scenario: three trades (one per day) with two adjacent winners
// produce a max win streak of 2 at the overall horizon.
func TestOverallMaxConsecutiveWinsAcrossDays(t *testing.T) {
	base := time.Date(2024, 4, 1, 4, 0, 0, 0, time.UTC)
	trades := []simulator.Trade{
		mkTrade(base, 100, 1),                   // day 1: win
		mkTrade(base.Add(24*time.Hour), 200, 2), // day 2: win
		mkTrade(base.Add(48*time.Hour), -100, -1), // day 3: loss
	}
	b := Compute(trades, 100000, 0, 0)
	assert.Equal(t, 2, b.Overall.MaxConsecutiveWins)
	assert.Equal(t, 1, b.Overall.MaxConsecutiveLosses)
}

// Drawdown is measured against the running peak, not the initial capital,
// and is reported as a negative percentage.
func TestMaxDrawdownTracksRunningPeak(t *testing.T) {
	base := time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC)
	trades := []simulator.Trade{
		mkTrade(base, 1000, 10),                     // equity 101000, new peak
		mkTrade(base.Add(24*time.Hour), -2000, -20), // equity 99000, dd from 101000 peak
		mkTrade(base.Add(48*time.Hour), 500, 5),     // partial recovery
	}
	md := computeMetricData(trades, 100000)
	wantDD := -100 * (101000.0 - 99000.0) / 101000.0
	require.InDelta(t, wantDD, md.MaxDrawdown, 1e-9)
}

// Overall Sharpe annualizes by sqrt(252) and subtracts the risk-free rate,
// unlike the per-period Sharpe used inside computeMetricData.
func TestOverallSharpeDiffersFromRawSharpe(t *testing.T) {
	base := time.Date(2024, 6, 1, 4, 0, 0, 0, time.UTC)
	trades := []simulator.Trade{
		mkTrade(base, 100, 1),
		mkTrade(base.Add(24*time.Hour), 150, 1.5),
		mkTrade(base.Add(48*time.Hour), -50, -0.5),
	}
	raw := computeMetricData(trades, 100000).SharpeRatio
	ann := overallSharpe(trades)
	assert.NotEqual(t, raw, ann)
}

func TestDaysFromCivilMatchesKnownEpoch(t *testing.T) {
	// 1970-01-01 is the Unix epoch, day 0 under days-from-civil.
	epoch := daysFromCivil(bar.DayKey{Year: 1970, Month: 1, Day: 1})
	assert.Equal(t, 0, epoch)
}
