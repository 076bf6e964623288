package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nsequant/istbacktest/pkg/bar"
)

func mk(o, h, l, c float64) bar.Bar {
	return bar.Bar{Open: o, High: h, Low: l, Close: c, Volume: 1}
}

func TestDetectBullishPatternHammer(t *testing.T) {
	bars := []bar.Bar{mk(100, 101.3, 95, 101)}
	assert.Equal(t, patternHammer, detectBullishPattern(bars))
}

func TestDetectBullishPatternEngulfing(t *testing.T) {
	bars := []bar.Bar{
		mk(105, 106, 99, 100), // bearish
		mk(99, 107, 98, 106),  // bullish engulfing
	}
	assert.Equal(t, patternBullishEngulfing, detectBullishPattern(bars))
}

func TestDetectBullishPatternMorningStar(t *testing.T) {
	bars := []bar.Bar{
		mk(110, 111, 100, 101), // bearish, big body
		mk(100.5, 101, 100, 100.7), // small-bodied middle, gap down
		mk(101, 107, 100.5, 106),   // bullish closing above the first candle's midpoint
	}
	assert.Equal(t, patternMorningStar, detectBullishPattern(bars))
}

func TestDetectBullishPatternNoneOnPlainBar(t *testing.T) {
	bars := []bar.Bar{mk(100, 100.2, 99.9, 100.1)}
	assert.Equal(t, patternNone, detectBullishPattern(bars))
}

func TestDetectBearishPatternShootingStar(t *testing.T) {
	bars := []bar.Bar{mk(101, 105, 99.8, 100)}
	assert.Equal(t, patternShootingStar, detectBearishPattern(bars))
}

func TestDetectBearishPatternEngulfing(t *testing.T) {
	bars := []bar.Bar{
		mk(99, 106, 98, 105),  // bullish
		mk(106, 107, 97, 98),  // bearish engulfing
	}
	assert.Equal(t, patternBearishEngulfing, detectBearishPattern(bars))
}

func TestDetectPatternEmptySeries(t *testing.T) {
	assert.Equal(t, patternNone, detectBullishPattern(nil))
	assert.Equal(t, patternNone, detectBearishPattern(nil))
}
