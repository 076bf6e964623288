package indicator

import "math"

// directionalMovement computes +DM and -DM per the "larger-of-up/down-move,
// and >0" rule: only the larger of the two moves counts, and only if positive.
func directionalMovement(high, low, prevHigh, prevLow float64) (dmPlus, dmMinus float64) {
	upMove := high - prevHigh
	downMove := prevLow - low
	if upMove > downMove && upMove > 0 {
		dmPlus = upMove
	} else if downMove > upMove && downMove > 0 {
		dmMinus = downMove
	}
	return
}

// ADXBatch computes Wilder's ADX over period p, aligned to the input
// series. First defined index is approximately 2p (depends on how many DX
// guard-skips occur along the way).
func ADXBatch(highs, lows, closes []float64, p int) []*float64 {
	n := len(closes)
	out := make([]*float64, n)
	if p <= 0 || n <= p+1 {
		return out
	}

	trs := make([]float64, n)
	dmPlus := make([]float64, n)
	dmMinus := make([]float64, n)
	for i := 1; i < n; i++ {
		trs[i] = trueRange(highs[i], lows[i], closes[i-1])
		dmPlus[i], dmMinus[i] = directionalMovement(highs[i], lows[i], highs[i-1], lows[i-1])
	}

	var smTR, smPlus, smMinus float64
	for i := 1; i <= p; i++ {
		smTR += trs[i]
		smPlus += dmPlus[i]
		smMinus += dmMinus[i]
	}

	var dxSum float64
	dxCount := 0
	var adx float64
	adxStarted := false

	evalIndex := func(i int, smTR, smPlus, smMinus float64) {
		diPlus := 100 * smPlus / smTR
		diMinus := 100 * smMinus / smTR
		denom := diPlus + diMinus
		var dx float64
		valid := denom != 0
		if valid {
			dx = 100 * math.Abs(diPlus-diMinus) / denom
			if math.IsNaN(dx) || math.IsInf(dx, 0) {
				valid = false
			}
		}
		if valid {
			if !adxStarted {
				dxSum += dx
				dxCount++
				if dxCount == p {
					adx = dxSum / float64(p)
					adxStarted = true
				}
			} else {
				adx = (adx*float64(p-1) + dx) / float64(p)
			}
		}
		if adxStarted {
			v := adx
			out[i] = &v
		}
	}

	evalIndex(p, smTR, smPlus, smMinus)
	for i := p + 1; i < n; i++ {
		smTR = smTR - smTR/float64(p) + trs[i]
		smPlus = smPlus - smPlus/float64(p) + dmPlus[i]
		smMinus = smMinus - smMinus/float64(p) + dmMinus[i]
		evalIndex(i, smTR, smPlus, smMinus)
	}
	return out
}

// ADXState is the incremental Wilder ADX state, mirroring ADXBatch's
// recursion bar-by-bar.
type ADXState struct {
	period int

	prevHigh, prevLow, prevClose float64
	hasPrev                      bool

	smTR, smPlus, smMinus float64
	accCount              int // bars accumulated into the initial smoothed TR/DM triplet
	smReady               bool

	dxSum      float64
	dxCount    int
	adx        float64
	adxStarted bool
}

// NewADXState creates a fresh incremental ADX state for the given period.
func NewADXState(period int) *ADXState {
	return &ADXState{period: period}
}

// Update folds in the next high/low/close and returns the current ADX, or
// nil before it is defined.
func (s *ADXState) Update(high, low, close float64) *float64 {
	if !s.hasPrev {
		s.prevHigh, s.prevLow, s.prevClose = high, low, close
		s.hasPrev = true
		return nil
	}

	tr := trueRange(high, low, s.prevClose)
	dmPlus, dmMinus := directionalMovement(high, low, s.prevHigh, s.prevLow)
	s.prevHigh, s.prevLow, s.prevClose = high, low, close

	if !s.smReady {
		s.smTR += tr
		s.smPlus += dmPlus
		s.smMinus += dmMinus
		s.accCount++
		if s.accCount < s.period {
			return nil
		}
		s.smReady = true
	} else {
		s.smTR = s.smTR - s.smTR/float64(s.period) + tr
		s.smPlus = s.smPlus - s.smPlus/float64(s.period) + dmPlus
		s.smMinus = s.smMinus - s.smMinus/float64(s.period) + dmMinus
	}

	diPlus := 100 * s.smPlus / s.smTR
	diMinus := 100 * s.smMinus / s.smTR
	denom := diPlus + diMinus
	valid := denom != 0
	var dx float64
	if valid {
		dx = 100 * math.Abs(diPlus-diMinus) / denom
		if math.IsNaN(dx) || math.IsInf(dx, 0) {
			valid = false
		}
	}
	if valid {
		if !s.adxStarted {
			s.dxSum += dx
			s.dxCount++
			if s.dxCount == s.period {
				s.adx = s.dxSum / float64(s.period)
				s.adxStarted = true
			}
		} else {
			s.adx = (s.adx*float64(s.period-1) + dx) / float64(s.period)
		}
	}

	if !s.adxStarted {
		return nil
	}
	v := s.adx
	return &v
}
