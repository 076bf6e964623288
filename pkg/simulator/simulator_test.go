package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsequant/istbacktest/pkg/bar"
	"github.com/nsequant/istbacktest/pkg/costs"
	"github.com/nsequant/istbacktest/pkg/strategy"
)

// mkBar builds a bar at 09:30 IST plus the given minute offset, on 2024-01-02.
func mkBar(minuteOffset int, o, h, l, c, v float64) bar.Bar {
	base := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC) // 09:30 IST
	return bar.Bar{
		Timestamp: base.Add(time.Duration(minuteOffset) * time.Minute),
		Open:      o, High: h, Low: l, Close: c, Volume: v,
	}
}

func baseConfig() Config {
	return Config{
		InitialCapital: 100000,
		Quantity:       1,
		Slippage:       0,
		Exchange:       costs.NSE,
		StopLossPct:    0.01,
		TakeProfitPct:  0.02,
	}
}

func buySignalAt(b bar.Bar, sl, tp float64) strategy.Signal {
	return strategy.Signal{Time: b.Timestamp, Side: strategy.Buy, Price: b.Close, StopLoss: sl, TakeProfit: tp}
}

func sellSignalAt(b bar.Bar) strategy.Signal {
	return strategy.Signal{Time: b.Timestamp, Side: strategy.Sell, Price: b.Close}
}

// S1: single winning trade closed by a SELL signal.
func TestRunWinningTradeOnSellSignal(t *testing.T) {
	bars := []bar.Bar{
		mkBar(0, 100, 100, 100, 100, 1000),
		mkBar(1, 100, 101, 100, 101, 1000),
		mkBar(2, 101, 105, 101, 105, 1000),
	}
	signals := []strategy.Signal{
		buySignalAt(bars[0], 1, 1000), // SL/TP far outside the bar range, so only the sell signal can close it
		sellSignalAt(bars[2]),
	}
	res := Run(bars, signals, baseConfig())
	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, ExitSignal, tr.ExitReason)
	assert.Equal(t, bars[0].Close, tr.EntryPrice)
	assert.Equal(t, bars[2].Close, tr.ExitPrice)
	assert.Greater(t, tr.GrossPnl, 0.0)
	assert.NotEmpty(t, tr.ID)
}

// S2: forced close at/after 14:30 IST takes precedence over everything else.
func TestRunForcedCloseAtMarketEnd(t *testing.T) {
	entry := mkBar(0, 100, 100, 100, 100, 1000)
	closeBar := bar.Bar{
		Timestamp: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), // 14:30 IST
		Open:      110, High: 112, Low: 109, Close: 111, Volume: 1000,
	}
	bars := []bar.Bar{entry, closeBar}
	signals := []strategy.Signal{buySignalAt(entry, 50, 500)} // SL/TP far away, wouldn't fire
	res := Run(bars, signals, baseConfig())
	require.Len(t, res.Trades, 1)
	assert.Equal(t, ExitMarketClose, res.Trades[0].ExitReason)
}

// S3: stop-loss triggers off the bar low, not the close, even when close
// would not have breached it.
func TestRunStopLossTriggersOnLowNotClose(t *testing.T) {
	entry := mkBar(0, 100, 100, 100, 100, 1000)
	wick := mkBar(1, 100, 101, 98, 100.5, 1000) // low pierces a 99 stop, close doesn't
	bars := []bar.Bar{entry, wick}
	signals := []strategy.Signal{buySignalAt(entry, 99, 0)}
	res := Run(bars, signals, baseConfig())
	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, ExitStopLoss, tr.ExitReason)
	assert.Equal(t, 99.0, tr.ExitPrice)
}

// S4: trailing-stop ratchets up as price rises, then triggers on a
// subsequent pullback, never retreating once raised.
func TestRunTrailingStopRatchetsAndTriggers(t *testing.T) {
	entry := mkBar(0, 100, 100, 100, 100, 1000)
	rise := mkBar(1, 100, 110, 100, 110, 1000)
	pull := mkBar(2, 110, 110, 104, 105, 1000) // low dips under ratcheted stop
	bars := []bar.Bar{entry, rise, pull}
	cfg := baseConfig()
	cfg.TrailingStopEnabled = true
	cfg.TrailingStopPct = 0.05
	signals := []strategy.Signal{buySignalAt(entry, 90, 1000)} // TP far away, SL far below
	res := Run(bars, signals, cfg)
	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, ExitTrailingStop, tr.ExitReason)
	// ratcheted stop = 110 * 0.95 = 104.5
	assert.InDelta(t, 104.5, tr.ExitPrice, 1e-9)
}

// Universal invariant: at most one open position at a time, so trades never
// overlap in time.
func TestRunNoOverlappingTrades(t *testing.T) {
	bars := []bar.Bar{
		mkBar(0, 100, 100, 100, 100, 1000),
		mkBar(1, 100, 101, 100, 101, 1000),
		mkBar(2, 101, 102, 101, 101.5, 1000),
		mkBar(3, 101.5, 103, 101, 102, 1000),
	}
	signals := []strategy.Signal{
		buySignalAt(bars[0], 0, 0),
		sellSignalAt(bars[1]),
		buySignalAt(bars[2], 0, 0),
		sellSignalAt(bars[3]),
	}
	res := Run(bars, signals, baseConfig())
	require.Len(t, res.Trades, 2)
	assert.False(t, res.Trades[1].EntryTime.Before(res.Trades[0].ExitTime))
}

// Net PnL must equal gross PnL minus the statutory cost breakdown's total.
func TestRunNetPnlMatchesCostBreakdown(t *testing.T) {
	bars := []bar.Bar{
		mkBar(0, 100, 100, 100, 100, 1000),
		mkBar(1, 100, 105, 100, 105, 1000),
	}
	signals := []strategy.Signal{buySignalAt(bars[0], 0, 0), sellSignalAt(bars[1])}
	res := Run(bars, signals, baseConfig())
	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.InDelta(t, tr.GrossPnl-tr.Costs.TotalCost, tr.NetPnl, 1e-9)
}

// End-of-data forces a close on the final bar if still in a position.
func TestRunEndOfDataForcesClose(t *testing.T) {
	bars := []bar.Bar{
		mkBar(0, 100, 100, 100, 100, 1000),
		mkBar(1, 100, 101, 100, 101, 1000),
	}
	signals := []strategy.Signal{buySignalAt(bars[0], 0, 500)}
	res := Run(bars, signals, baseConfig())
	require.Len(t, res.Trades, 1)
	assert.Equal(t, ExitEndOfData, res.Trades[0].ExitReason)
}

// No entry is taken outside the default trading window.
func TestRunNoEntryOutsideTradingWindow(t *testing.T) {
	preOpen := bar.Bar{
		Timestamp: time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC), // 08:30 IST
		Open:      100, High: 100, Low: 100, Close: 100, Volume: 1000,
	}
	bars := []bar.Bar{preOpen}
	signals := []strategy.Signal{buySignalAt(preOpen, 0, 0)}
	res := Run(bars, signals, baseConfig())
	assert.Empty(t, res.Trades)
}
