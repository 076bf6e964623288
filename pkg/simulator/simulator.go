// Package simulator converts a bar stream and a signal stream into a
// sequence of closed trades, maintaining at most one open long position.
package simulator

import (
	"time"

	"github.com/google/uuid"

	"github.com/nsequant/istbacktest/pkg/bar"
	"github.com/nsequant/istbacktest/pkg/costs"
	"github.com/nsequant/istbacktest/pkg/strategy"
)

// ExitReason identifies why a position was closed.
type ExitReason string

const (
	ExitSignal       ExitReason = "Signal"
	ExitStopLoss     ExitReason = "StopLoss"
	ExitTakeProfit   ExitReason = "TakeProfit"
	ExitTrailingStop ExitReason = "TrailingStop"
	ExitMarketClose  ExitReason = "MarketClose"
	ExitEndOfData    ExitReason = "EndOfData"
)

// Trade is one closed long round-trip.
type Trade struct {
	ID                string
	EntryTime          time.Time
	ExitTime           time.Time
	EntryPrice         float64
	ExitPrice          float64
	Quantity           float64
	GrossPnl           float64
	NetPnl             float64
	PnlPercent         float64
	Duration           time.Duration
	Costs              costs.Breakdown
	ExitReason         ExitReason
	IndicatorsSnapshot map[string]interface{}
}

// EquityPoint is one (time, equity) sample, emitted at each closed-trade
// boundary.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// position is the simulator's only piece of mutable state: at most one is
// alive at a time.
type position struct {
	entryTime        time.Time
	entryPrice       float64
	stopLoss         float64
	takeProfit       float64
	highestPriceSeen float64
	trailing         bool // true once the stop-loss has been ratcheted
	indicators       map[string]interface{}
}

// Config configures the simulator's execution and risk model. Defaults
// (StopLossPct, TakeProfitPct) only apply when a signal leaves StopLoss or
// TakeProfit at zero.
type Config struct {
	InitialCapital float64
	Quantity       float64
	Slippage       float64 // fractional, default 1e-4
	Exchange       costs.Exchange

	StopLossPct   float64 // fraction below entry, used when a signal omits StopLoss
	TakeProfitPct float64 // fraction above entry, used when a signal omits TakeProfit

	TrailingStopEnabled bool
	TrailingStopPct     float64
}

// Result bundles the simulator's pure outputs.
type Result struct {
	Trades          []Trade
	Equity          []EquityPoint
	BarsInPosition  int
	TotalMarketBars int
}

// signalIndex groups signals by the exact bar timestamp they apply to.
type signalIndex map[int64][]strategy.Signal

func indexSignals(signals []strategy.Signal) signalIndex {
	idx := make(signalIndex, len(signals))
	for _, s := range signals {
		key := s.Time.UnixNano()
		idx[key] = append(idx[key], s)
	}
	return idx
}

// Run executes the per-bar state machine described by the trade simulator's
// exit-precedence contract: forced close, then stop-loss, then take-profit,
// then a SELL signal, else a trailing-stop ratchet.
func Run(bars []bar.Bar, signals []strategy.Signal, cfg Config) Result {
	idx := indexSignals(signals)
	window := bar.DefaultTradingWindow

	var trades []Trade
	var equity []EquityPoint
	equityValue := cfg.InitialCapital

	var pos *position
	barsInPosition := 0
	totalMarketBars := 0

	emitTrade := func(b bar.Bar, exitPrice float64, reason ExitReason) {
		gross := (exitPrice - pos.entryPrice) * cfg.Quantity
		cb := costs.Calculate(pos.entryPrice, exitPrice, cfg.Quantity, cfg.Exchange)
		net := gross - cb.TotalCost
		pnlPct := 0.0
		if pos.entryPrice != 0 {
			pnlPct = 100 * (exitPrice - pos.entryPrice) / pos.entryPrice
		}
		trade := Trade{
			ID:                 uuid.New().String(),
			EntryTime:          pos.entryTime,
			ExitTime:           b.Timestamp,
			EntryPrice:         pos.entryPrice,
			ExitPrice:          exitPrice,
			Quantity:           cfg.Quantity,
			GrossPnl:           gross,
			NetPnl:             net,
			PnlPercent:         pnlPct,
			Duration:           b.Timestamp.Sub(pos.entryTime),
			Costs:              cb,
			ExitReason:         reason,
			IndicatorsSnapshot: pos.indicators,
		}
		trades = append(trades, trade)
		equityValue += net
		equity = append(equity, EquityPoint{Time: b.Timestamp, Equity: equityValue})
		pos = nil
	}

	for i, b := range bars {
		if window.InWindow(b.Timestamp) {
			totalMarketBars++
		}

		sellSignal := false
		var sellSignalPrice float64
		var buySignal *strategy.Signal
		for _, s := range idx[b.Timestamp.UnixNano()] {
			switch s.Side {
			case strategy.Sell:
				sellSignal = true
				sellSignalPrice = s.Price
			case strategy.Buy:
				sig := s
				buySignal = &sig
			}
		}

		if pos != nil {
			barsInPosition++

			switch {
			case bar.IsForcedCloseTime(b.Timestamp):
				emitTrade(b, b.Close*(1-cfg.Slippage), ExitMarketClose)
			case b.Low <= pos.stopLoss:
				reason := ExitStopLoss
				if pos.trailing {
					reason = ExitTrailingStop
				}
				emitTrade(b, pos.stopLoss*(1-cfg.Slippage), reason)
			case b.High >= pos.takeProfit:
				emitTrade(b, pos.takeProfit*(1-cfg.Slippage), ExitTakeProfit)
			case sellSignal:
				emitTrade(b, sellSignalPrice*(1-cfg.Slippage), ExitSignal)
			default:
				if cfg.TrailingStopEnabled && b.High > pos.highestPriceSeen {
					pos.highestPriceSeen = b.High
					newStop := pos.highestPriceSeen * (1 - cfg.TrailingStopPct)
					if newStop > pos.stopLoss {
						pos.stopLoss = newStop
						pos.trailing = true
					}
				}
			}
		}

		if pos == nil && buySignal != nil && window.InWindow(b.Timestamp) {
			entryPrice := buySignal.Price * (1 + cfg.Slippage)
			sl := buySignal.StopLoss
			if sl == 0 {
				sl = entryPrice * (1 - cfg.StopLossPct)
			}
			tp := buySignal.TakeProfit
			if tp == 0 {
				tp = entryPrice * (1 + cfg.TakeProfitPct)
			}
			pos = &position{
				entryTime:        b.Timestamp,
				entryPrice:       entryPrice,
				stopLoss:         sl,
				takeProfit:       tp,
				highestPriceSeen: entryPrice,
				indicators:       buySignal.Indicators,
			}
		}

		if i == len(bars)-1 && pos != nil {
			emitTrade(b, b.Close, ExitEndOfData)
		}
	}

	return Result{
		Trades:          trades,
		Equity:          equity,
		BarsInPosition:  barsInPosition,
		TotalMarketBars: totalMarketBars,
	}
}
