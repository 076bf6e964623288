package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakoutMetadataNamesVariant(t *testing.T) {
	full := NewBreakout(nil, BreakoutConfig{Variant: BreakoutFull, RR: 1})
	assert.Equal(t, "BreakoutFull", full.Name())

	wdh := NewBreakout(nil, BreakoutConfig{Variant: BreakoutWDH, RR: 1})
	assert.Equal(t, "BreakoutWDH", wdh.Name())
}

func TestBreakoutRejectsNonPositiveRR(t *testing.T) {
	s := NewBreakout(flatBars([]float64{1, 2, 3}), BreakoutConfig{RR: 0})
	_, err := s.GenerateSignals()
	assert.Error(t, err)
}

func TestBreakoutEmptyBarsNoError(t *testing.T) {
	s := NewBreakout(nil, BreakoutConfig{RR: 1})
	signals, err := s.GenerateSignals()
	require.NoError(t, err)
	assert.Empty(t, signals)
}

// GenerateSignals must be deterministic given identical inputs, and every
// emitted signal must carry a stop-loss below entry and a take-profit above
// it (long-only breakout).
func TestBreakoutIsDeterministicAndRiskConsistent(t *testing.T) {
	bars := syntheticBars(2000, 7)
	cfg := BreakoutConfig{Variant: BreakoutWDH, RR: 1.5}
	s := NewBreakout(bars, cfg)
	sig1, err1 := s.GenerateSignals()
	sig2, err2 := s.GenerateSignals()
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, sig1, sig2)
	for _, sig := range sig1 {
		assert.Equal(t, Buy, sig.Side)
		assert.Less(t, sig.StopLoss, sig.Price)
		assert.Greater(t, sig.TakeProfit, sig.Price)
	}
}
