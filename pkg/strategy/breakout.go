package strategy

import (
	"fmt"
	"time"

	"github.com/nsequant/istbacktest/pkg/bar"
	"github.com/nsequant/istbacktest/pkg/htf"
	"github.com/nsequant/istbacktest/pkg/indicator"
)

// BreakoutVariant selects which extrema terms gate entry.
type BreakoutVariant int

const (
	// BreakoutFull requires all four timeframes (1H, Day, Week, Month) to
	// confirm the breakout.
	BreakoutFull BreakoutVariant = iota
	// BreakoutWDH (week/day/hour) omits the monthly term.
	BreakoutWDH
)

// BreakoutConfig configures the multi-timeframe breakout strategy
// (spec §4.3.c). The simulator only ever carries a long position, so only
// the long side of the breakout is wired; a short entry would have no
// corresponding exit machinery downstream.
type BreakoutConfig struct {
	Variant BreakoutVariant
	RR      float64 // take-profit multiple of risk; 1.0, 2.0, or 0.5 (conservative)

	UseDailyADXGate  bool
	UseHourlyADXGate bool
	ADXPeriod        int
	ADXThreshold     float64

	Filters FilterConfig
}

// Breakout implements Strategy for the multi-timeframe breakout family.
type Breakout struct {
	bars []bar.Bar
	cfg  BreakoutConfig
}

// NewBreakout creates a multi-timeframe breakout strategy over bars.
func NewBreakout(bars []bar.Bar, cfg BreakoutConfig) *Breakout {
	return &Breakout{bars: bars, cfg: cfg}
}

func (s *Breakout) Name() string {
	if s.cfg.Variant == BreakoutWDH {
		return "BreakoutWDH"
	}
	return "BreakoutFull"
}

func (s *Breakout) Version() string { return "1.0" }

func (s *Breakout) IndicatorNames() []string {
	return []string{
		"prev1hHigh", "prev1hLow", "prevDayHigh", "prevDayLow",
		"prevWeekHigh", "prevWeekLow", "prevMonthHigh", "prevMonthLow", "adx",
	}
}

// previousExtrema returns the high/low of the most recently completed
// candle tracked by agg, or nil if none has completed yet.
func previousExtrema(agg *htf.Aggregator) (high, low *float64) {
	candles := agg.Candles()
	if len(candles) < 2 {
		return nil, nil
	}
	prev := candles[len(candles)-2]
	h, l := prev.High, prev.Low
	return &h, &l
}

func candleSeries(candles []htf.Candle) (highs, lows, closes []float64) {
	highs = make([]float64, len(candles))
	lows = make([]float64, len(candles))
	closes = make([]float64, len(candles))
	for i, c := range candles {
		highs[i], lows[i], closes[i] = c.High, c.Low, c.Close
	}
	return highs, lows, closes
}

// htfADXGate reports whether the ADX of the last HTF candle completed at
// or before t clears threshold; an in-progress candle is never consulted.
func htfADXGate(view htf.View, adx []*float64, t time.Time, threshold float64) bool {
	idx := view.IndexAt(t)
	if idx == -1 || idx >= len(adx) || adx[idx] == nil {
		return false
	}
	return *adx[idx] >= threshold
}

func (s *Breakout) GenerateSignals() ([]Signal, error) {
	n := len(s.bars)
	if n == 0 {
		return nil, nil
	}
	if s.cfg.RR <= 0 {
		return nil, fmt.Errorf("breakout: rr must be positive, got %v", s.cfg.RR)
	}

	hourlyAgg := htf.NewAggregator(htf.Hourly)
	dailyAgg := htf.NewAggregator(htf.Daily)
	weeklyAgg := htf.NewAggregator(htf.Weekly)
	monthlyAgg := htf.NewAggregator(htf.Monthly)

	var dailyADX, hourlyADX []*float64
	var dailyView, hourlyView htf.View
	if s.cfg.UseDailyADXGate {
		dc := htf.BuildFromBars(s.bars, htf.Daily)
		dailyView = htf.NewView(dc)
		highs, lows, closes := candleSeries(dc)
		dailyADX = indicator.ADXBatch(highs, lows, closes, s.cfg.ADXPeriod)
	}
	if s.cfg.UseHourlyADXGate {
		hc := htf.BuildFromBars(s.bars, htf.Hourly)
		hourlyView = htf.NewView(hc)
		highs, lows, closes := candleSeries(hc)
		hourlyADX = indicator.ADXBatch(highs, lows, closes, s.cfg.ADXPeriod)
	}

	var signals []Signal
	inPosition := false

	for i := 0; i < n; i++ {
		b := s.bars[i]

		hourlyAgg.Add(b)
		dailyAgg.Add(b)
		weeklyAgg.Add(b)
		monthlyAgg.Add(b)

		prev1hH, prev1hL := previousExtrema(hourlyAgg)
		prevDH, prevDL := previousExtrema(dailyAgg)
		prevWH, prevWL := previousExtrema(weeklyAgg)
		prevMH, prevML := previousExtrema(monthlyAgg)

		if prev1hH == nil || prevDH == nil || prevWH == nil {
			continue
		}
		if s.cfg.Variant == BreakoutFull && prevMH == nil {
			continue
		}

		t := b.Timestamp
		price := b.Close

		longBreak := price > *prev1hH && price > *prevDH && price > *prevWH
		if s.cfg.Variant == BreakoutFull {
			longBreak = longBreak && price > *prevMH
		}

		if inPosition {
			reset := price < *prev1hL || price < *prevDL || price < *prevWL
			if s.cfg.Variant == BreakoutFull {
				reset = reset || price < *prevML
			}
			if reset {
				inPosition = false
			}
			continue
		}

		if !longBreak {
			continue
		}
		if !s.cfg.Filters.InTradingWindow(t) || s.cfg.Filters.InSkipWindow(t) {
			continue
		}
		if s.cfg.UseDailyADXGate && !htfADXGate(dailyView, dailyADX, t, s.cfg.ADXThreshold) {
			continue
		}
		if s.cfg.UseHourlyADXGate && !htfADXGate(hourlyView, hourlyADX, t, s.cfg.ADXThreshold) {
			continue
		}

		sl := *prev1hL
		tp := price + s.cfg.RR*(price-sl)
		indicators := map[string]interface{}{
			"prev1hHigh": *prev1hH, "prev1hLow": *prev1hL, "prevDayHigh": *prevDH, "prevDayLow": *prevDL,
			"prevWeekHigh": *prevWH, "prevWeekLow": *prevWL,
		}
		if prevMH != nil {
			indicators["prevMonthHigh"], indicators["prevMonthLow"] = *prevMH, *prevML
		}
		if s.cfg.UseDailyADXGate {
			indicators["adx"] = *dailyADX[dailyView.IndexAt(t)]
		} else if s.cfg.UseHourlyADXGate {
			indicators["adx"] = *hourlyADX[hourlyView.IndexAt(t)]
		}
		signals = append(signals, Signal{
			Time:       t,
			Side:       Buy,
			Price:      price,
			StopLoss:   sl,
			TakeProfit: tp,
			Indicators: indicators,
		})
		inPosition = true
	}

	return signals, nil
}
