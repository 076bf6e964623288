package strategy

import (
	"fmt"
	"time"

	"github.com/nsequant/istbacktest/pkg/bar"
	"github.com/nsequant/istbacktest/pkg/htf"
	"github.com/nsequant/istbacktest/pkg/indicator"
)

// CandlestickConfig configures the candlestick-pattern-with-EMA-trend-zone
// strategy (spec §4.3.b).
type CandlestickConfig struct {
	EMAFastPeriod int
	EMASlowPeriod int
	ADXPeriod     int
	ADXThreshold  float64
	VolumePeriod  int // default 20
	VolumeMult    float64
	HTFEMAPeriod  int // default 21

	Filters FilterConfig
}

// Candlestick implements Strategy for the candlestick-pattern strategy.
type Candlestick struct {
	bars []bar.Bar
	cfg  CandlestickConfig
}

// NewCandlestick creates a candlestick-pattern strategy over bars.
func NewCandlestick(bars []bar.Bar, cfg CandlestickConfig) *Candlestick {
	return &Candlestick{bars: bars, cfg: cfg}
}

func (s *Candlestick) Name() string { return "CandlestickTrendZone" }

func (s *Candlestick) Version() string { return "1.0" }

func (s *Candlestick) IndicatorNames() []string {
	return []string{"emaFast", "emaSlow", "adx", "volume", "avgVolume", "pattern"}
}

// htfTrendUp reports whether the last HTF candle completed at or before t
// closed above the precomputed HTF EMA value at that candle's index; it
// never looks past the candle completed as of t.
func htfTrendUp(view htf.View, ema []*float64, t time.Time) bool {
	idx := view.IndexAt(t)
	if idx == -1 || idx >= len(ema) || ema[idx] == nil {
		return false
	}
	c, ok := view.At(t)
	if !ok {
		return false
	}
	return c.Close > *ema[idx]
}

func (s *Candlestick) GenerateSignals() ([]Signal, error) {
	n := len(s.bars)
	minWarmup := s.cfg.EMASlowPeriod
	if s.cfg.ADXPeriod*2 > minWarmup {
		minWarmup = s.cfg.ADXPeriod * 2
	}
	if n <= minWarmup {
		return nil, fmt.Errorf("insufficient data: need > %d bars, have %d", minWarmup, n)
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range s.bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	emaFast := indicator.EMABatch(closes, s.cfg.EMAFastPeriod)
	emaSlow := indicator.EMABatch(closes, s.cfg.EMASlowPeriod)
	adx := indicator.ADXBatch(highs, lows, closes, s.cfg.ADXPeriod)

	volPeriod := s.cfg.VolumePeriod
	if volPeriod <= 0 {
		volPeriod = 20
	}
	avgVol := indicator.SMABatch(volumes, volPeriod)

	htfEmaPeriod := s.cfg.HTFEMAPeriod
	if htfEmaPeriod <= 0 {
		htfEmaPeriod = 21
	}
	hourlyView := htf.NewView(htf.BuildFromBars(s.bars, htf.Hourly))
	dailyView := htf.NewView(htf.BuildFromBars(s.bars, htf.Daily))
	hourlyEMA := indicator.EMABatch(hourlyView.Closes(), htfEmaPeriod)
	dailyEMA := indicator.EMABatch(dailyView.Closes(), htfEmaPeriod)

	daily := newDailyCounter(s.cfg.Filters.MaxTradesPerDay)
	var signals []Signal
	inPosition := false

	for i := 2; i < n; i++ {
		if emaFast[i] == nil || emaSlow[i] == nil {
			continue
		}
		t := s.bars[i].Timestamp
		price := s.bars[i].Close
		fastV, slowV := *emaFast[i], *emaSlow[i]
		bullishZone := fastV > slowV
		bearishZone := fastV < slowV

		var adxV float64
		hasADX := adx[i] != nil
		if hasADX {
			adxV = *adx[i]
		}

		if !inPosition {
			if !s.cfg.Filters.InTradingWindow(t) || s.cfg.Filters.InSkipWindow(t) || !daily.Allow(t) {
				continue
			}
			if !bullishZone || !hasADX || adxV < s.cfg.ADXThreshold {
				continue
			}
			if avgVol[i] == nil || volumes[i] <= s.cfg.VolumeMult*(*avgVol[i]) {
				continue
			}
			if !htfTrendUp(hourlyView, hourlyEMA, t) || !htfTrendUp(dailyView, dailyEMA, t) {
				continue
			}
			pattern := detectBullishPattern(s.bars[max(0, i-2) : i+1])
			if pattern == patternNone {
				continue
			}
			signals = append(signals, Signal{
				Time:  t,
				Side:  Buy,
				Price: price,
				Indicators: map[string]interface{}{
					"emaFast": fastV, "emaSlow": slowV, "adx": adxV, "pattern": string(pattern),
					"volume": volumes[i], "avgVolume": *avgVol[i],
				},
			})
			daily.Record(t)
			inPosition = true
			continue
		}

		// In position: exit on bearish zone OR ADX below threshold, AND a
		// bearish pattern detected.
		adxWeak := !hasADX || adxV < s.cfg.ADXThreshold
		if bearishZone || adxWeak {
			pattern := detectBearishPattern(s.bars[max(0, i-2) : i+1])
			if pattern != patternNone {
				signals = append(signals, Signal{
					Time:  t,
					Side:  Sell,
					Price: price,
					Indicators: map[string]interface{}{
						"emaFast": fastV, "emaSlow": slowV, "adx": adxV, "pattern": string(pattern),
					},
				})
				inPosition = false
			}
		}
	}

	return signals, nil
}
