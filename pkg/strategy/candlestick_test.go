package strategy

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsequant/istbacktest/pkg/bar"
)

func syntheticBars(n int, seed int64) []bar.Bar {
	r := rand.New(rand.NewSource(seed))
	base := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC) // 09:30 IST
	bars := make([]bar.Bar, n)
	price := 100.0
	for i := 0; i < n; i++ {
		delta := (r.Float64() - 0.5) * 2
		open := price
		close := price + delta
		high := open
		if close > high {
			high = close
		}
		high += r.Float64()
		low := open
		if close < low {
			low = close
		}
		low -= r.Float64()
		bars[i] = bar.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      open, High: high, Low: low, Close: close,
			Volume: 1000 + r.Float64()*500,
		}
		price = close
	}
	return bars
}

func TestCandlestickMetadata(t *testing.T) {
	s := NewCandlestick(nil, CandlestickConfig{})
	assert.Equal(t, "CandlestickTrendZone", s.Name())
	assert.NotEmpty(t, s.Version())
	assert.Contains(t, s.IndicatorNames(), "pattern")
}

func TestCandlestickInsufficientData(t *testing.T) {
	s := NewCandlestick(flatBars([]float64{1, 2, 3}), CandlestickConfig{EMAFastPeriod: 9, EMASlowPeriod: 21, ADXPeriod: 14})
	_, err := s.GenerateSignals()
	assert.Error(t, err)
}

// GenerateSignals must run to completion without panicking over a long,
// varied bar series, and must be deterministic given identical inputs.
func TestCandlestickRunsDeterministicallyOverSyntheticSeries(t *testing.T) {
	bars := syntheticBars(500, 42)
	cfg := CandlestickConfig{
		EMAFastPeriod: 9, EMASlowPeriod: 21, ADXPeriod: 14, ADXThreshold: 15,
		VolumePeriod: 20, VolumeMult: 1.1, HTFEMAPeriod: 5,
	}
	s := NewCandlestick(bars, cfg)
	sig1, err1 := s.GenerateSignals()
	sig2, err2 := s.GenerateSignals()
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, sig1, sig2)
	for _, sig := range sig1 {
		assert.Contains(t, []Side{Buy, Sell}, sig.Side)
	}
}
