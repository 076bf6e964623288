package indicator

import "math"

func trueRange(high, low, prevClose float64) float64 {
	tr1 := high - low
	tr2 := math.Abs(high - prevClose)
	tr3 := math.Abs(low - prevClose)
	return math.Max(tr1, math.Max(tr2, tr3))
}

// ATRBatch computes Wilder-smoothed Average True Range over period p,
// aligned to the input series. First defined index is p.
func ATRBatch(highs, lows, closes []float64, p int) []*float64 {
	n := len(closes)
	out := make([]*float64, n)
	if p <= 0 || n <= p {
		return out
	}

	trs := make([]float64, n)
	for i := 1; i < n; i++ {
		trs[i] = trueRange(highs[i], lows[i], closes[i-1])
	}

	atr := 0.0
	for i := 1; i <= p; i++ {
		atr += trs[i]
	}
	atr /= float64(p)
	v := atr
	out[p] = &v

	for i := p + 1; i < n; i++ {
		atr = atr - atr/float64(p) + trs[i]
		vv := atr
		out[i] = &vv
	}
	return out
}

// ATRState is the incremental Wilder ATR state.
type ATRState struct {
	period    int
	prevClose float64
	hasPrev   bool
	seen      int
	sumTR     float64
	atr       float64
	warm      bool
}

// NewATRState creates a fresh incremental ATR state for the given period.
func NewATRState(period int) *ATRState {
	return &ATRState{period: period}
}

// Update folds in the next high/low/close and returns the current ATR, or
// nil during warm-up.
func (s *ATRState) Update(high, low, close float64) *float64 {
	if !s.hasPrev {
		s.prevClose = close
		s.hasPrev = true
		return nil
	}

	tr := trueRange(high, low, s.prevClose)
	s.prevClose = close

	if !s.warm {
		s.seen++
		s.sumTR += tr
		if s.seen < s.period {
			return nil
		}
		s.atr = s.sumTR / float64(s.period)
		s.warm = true
		v := s.atr
		return &v
	}

	s.atr = s.atr - s.atr/float64(s.period) + tr
	v := s.atr
	return &v
}
