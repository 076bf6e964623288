package strategy

import (
	"fmt"

	"github.com/nsequant/istbacktest/pkg/bar"
	"github.com/nsequant/istbacktest/pkg/indicator"
)

// MACrossoverConfig configures the moving-average-crossover strategy
// (spec §4.3.a). Simple=true is the two-sided crossover with no
// stop-loss/take-profit; Simple=false adds the ADX and EMA-gap gates and
// ATR-based SL/TP. The trading-window, time-skip and daily-cap filters
// apply to entries in both modes.
type MACrossoverConfig struct {
	FastPeriod int
	SlowPeriod int
	UseEMA     bool // false = SMA

	Simple bool

	ATRPeriod int
	ATRMultSL float64
	ATRMultTP float64
	ADXPeriod int

	Filters FilterConfig
}

// MACrossover implements Strategy for the moving-average-crossover family.
type MACrossover struct {
	bars []bar.Bar
	cfg  MACrossoverConfig
}

// NewMACrossover creates a moving-average-crossover strategy over bars.
func NewMACrossover(bars []bar.Bar, cfg MACrossoverConfig) *MACrossover {
	return &MACrossover{bars: bars, cfg: cfg}
}

func (s *MACrossover) Name() string { return "MACrossover" }

func (s *MACrossover) Version() string { return "1.0" }

func (s *MACrossover) IndicatorNames() []string {
	names := []string{"fastMA", "slowMA"}
	if !s.cfg.Simple {
		names = append(names, "atr", "adx")
	}
	return names
}

func (s *MACrossover) movingAverage(closes []float64, period int) []*float64 {
	if s.cfg.UseEMA {
		return indicator.EMABatch(closes, period)
	}
	return indicator.SMABatch(closes, period)
}

// GenerateSignals is pure over s.bars and s.cfg.
func (s *MACrossover) GenerateSignals() ([]Signal, error) {
	n := len(s.bars)
	if n == 0 {
		return nil, nil
	}
	if n <= s.cfg.SlowPeriod {
		return nil, fmt.Errorf("insufficient data: need > %d bars, have %d", s.cfg.SlowPeriod, n)
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range s.bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	fast := s.movingAverage(closes, s.cfg.FastPeriod)
	slow := s.movingAverage(closes, s.cfg.SlowPeriod)

	var atr, adx []*float64
	if !s.cfg.Simple {
		if s.cfg.ATRPeriod > 0 {
			atr = indicator.ATRBatch(highs, lows, closes, s.cfg.ATRPeriod)
		}
		if s.cfg.ADXPeriod > 0 {
			adx = indicator.ADXBatch(highs, lows, closes, s.cfg.ADXPeriod)
		}
	}

	daily := newDailyCounter(s.cfg.Filters.MaxTradesPerDay)
	var signals []Signal

	for i := 1; i < n; i++ {
		if fast[i-1] == nil || slow[i-1] == nil || fast[i] == nil || slow[i] == nil {
			continue
		}
		prevFast, prevSlow := *fast[i-1], *slow[i-1]
		currFast, currSlow := *fast[i], *slow[i]
		t := s.bars[i].Timestamp
		price := s.bars[i].Close

		bullish := prevFast <= prevSlow && currFast > currSlow
		bearish := prevFast >= prevSlow && currFast < currSlow

		if bullish {
			if s.cfg.Filters.InTradingWindow(t) && !s.cfg.Filters.InSkipWindow(t) && daily.Allow(t) {
				ok := true
				if !s.cfg.Simple {
					ok = s.cfg.Filters.EMAGapOK(currFast, currSlow)
					if ok && adx != nil {
						ok = adx[i] != nil && s.cfg.Filters.ADXGateOK(*adx[i])
					}
				}
				if ok {
					sig := Signal{
						Time:  t,
						Side:  Buy,
						Price: price,
						Indicators: map[string]interface{}{
							"fastMA": currFast,
							"slowMA": currSlow,
						},
					}
					if !s.cfg.Simple && atr != nil && atr[i] != nil && s.cfg.ATRMultSL > 0 {
						sig.StopLoss = price - s.cfg.ATRMultSL*(*atr[i])
						sig.TakeProfit = price + s.cfg.ATRMultTP*(*atr[i])
						sig.Indicators["atr"] = *atr[i]
					}
					if adx != nil && adx[i] != nil {
						sig.Indicators["adx"] = *adx[i]
					}
					signals = append(signals, sig)
					daily.Record(t)
				}
			}
		} else if bearish {
			signals = append(signals, Signal{
				Time:  t,
				Side:  Sell,
				Price: price,
				Indicators: map[string]interface{}{
					"fastMA": currFast,
					"slowMA": currSlow,
				},
			})
		}
	}

	return signals, nil
}
