package strategy

import "github.com/nsequant/istbacktest/pkg/bar"

// candlestickPattern names the bullish/bearish patterns the candlestick
// strategy recognizes, in strength/precedence order (first match wins).
type candlestickPattern string

const (
	patternNone            candlestickPattern = ""
	patternHammer          candlestickPattern = "hammer"
	patternBullishEngulfing candlestickPattern = "bullish_engulfing"
	patternMorningStar     candlestickPattern = "morning_star"
	patternPiercing        candlestickPattern = "piercing"
	patternBullishHarami   candlestickPattern = "bullish_harami"

	patternShootingStar    candlestickPattern = "shooting_star"
	patternBearishEngulfing candlestickPattern = "bearish_engulfing"
	patternEveningStar     candlestickPattern = "evening_star"
	patternDarkCloudCover  candlestickPattern = "dark_cloud_cover"
	patternBearishHarami   candlestickPattern = "bearish_harami"
)

func body(b bar.Bar) float64 {
	d := b.Close - b.Open
	if d < 0 {
		return -d
	}
	return d
}

func isBullish(b bar.Bar) bool { return b.Close > b.Open }
func isBearish(b bar.Bar) bool { return b.Close < b.Open }

func lowerWick(b bar.Bar) float64 {
	if isBullish(b) {
		return b.Open - b.Low
	}
	return b.Close - b.Low
}

func upperWick(b bar.Bar) float64 {
	if isBullish(b) {
		return b.High - b.Close
	}
	return b.High - b.Open
}

// detectBullishPattern inspects the three most recent bars (oldest first)
// and returns the highest-precedence bullish pattern found, or patternNone.
func detectBullishPattern(bars []bar.Bar) candlestickPattern {
	n := len(bars)
	if n == 0 {
		return patternNone
	}
	last := bars[n-1]

	// Hammer: small body near the top of the range, long lower wick >= 2x body.
	b := body(last)
	if b > 0 && lowerWick(last) >= 2*b && upperWick(last) <= b*0.5 {
		return patternHammer
	}

	if n >= 2 {
		prev := bars[n-2]
		// Bullish engulfing: prior bearish candle fully engulfed by a bullish one.
		if isBearish(prev) && isBullish(last) && last.Open <= prev.Close && last.Close >= prev.Open {
			return patternBullishEngulfing
		}
	}

	if n >= 3 {
		first := bars[n-3]
		mid := bars[n-2]
		// Morning star: bearish first candle, middle body under half the first's, bullish last candle
		// closing above the first candle's body midpoint. No gap between the candles is checked.
		if isBearish(first) && body(mid) < body(first)*0.5 && isBullish(last) &&
			last.Close > (first.Open+first.Close)/2 {
			return patternMorningStar
		}
	}

	if n >= 2 {
		prev := bars[n-2]
		// Piercing: bearish candle followed by a bullish open-below-low,
		// close-above-midpoint candle.
		if isBearish(prev) && isBullish(last) && last.Open < prev.Low &&
			last.Close > (prev.Open+prev.Close)/2 && last.Close < prev.Open {
			return patternPiercing
		}
	}

	if n >= 2 {
		prev := bars[n-2]
		// Bullish harami: bearish candle followed by a small bullish candle
		// whose body is contained within the prior body.
		if isBearish(prev) && isBullish(last) && last.Open >= prev.Close && last.Close <= prev.Open {
			return patternBullishHarami
		}
	}

	return patternNone
}

// detectBearishPattern is the mirror image of detectBullishPattern.
func detectBearishPattern(bars []bar.Bar) candlestickPattern {
	n := len(bars)
	if n == 0 {
		return patternNone
	}
	last := bars[n-1]

	b := body(last)
	if b > 0 && upperWick(last) >= 2*b && lowerWick(last) <= b*0.5 {
		return patternShootingStar
	}

	if n >= 2 {
		prev := bars[n-2]
		if isBullish(prev) && isBearish(last) && last.Open >= prev.Close && last.Close <= prev.Open {
			return patternBearishEngulfing
		}
	}

	if n >= 3 {
		first := bars[n-3]
		mid := bars[n-2]
		if isBullish(first) && body(mid) < body(first)*0.5 && isBearish(last) &&
			last.Close < (first.Open+first.Close)/2 {
			return patternEveningStar
		}
	}

	if n >= 2 {
		prev := bars[n-2]
		if isBullish(prev) && isBearish(last) && last.Open > prev.High &&
			last.Close < (prev.Open+prev.Close)/2 && last.Close > prev.Open {
			return patternDarkCloudCover
		}
	}

	if n >= 2 {
		prev := bars[n-2]
		if isBullish(prev) && isBearish(last) && last.Open <= prev.Close && last.Close >= prev.Open {
			return patternBearishHarami
		}
	}

	return patternNone
}
