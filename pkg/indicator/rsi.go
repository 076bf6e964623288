package indicator

// RSIBatch computes Wilder's RSI over period p, aligned to closes. First
// defined index is p (needs p price changes, i.e. p+1 closes).
func RSIBatch(closes []float64, p int) []*float64 {
	out := make([]*float64, len(closes))
	if p <= 0 || len(closes) <= p {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= p; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(p)
	avgLoss /= float64(p)
	out[p] = rsiValue(avgGain, avgLoss)

	for i := p + 1; i < len(closes); i++ {
		avgGain = (avgGain*float64(p-1) + gains[i]) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + losses[i]) / float64(p)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) *float64 {
	var v float64
	if avgLoss == 0 {
		v = 100
	} else {
		rs := avgGain / avgLoss
		v = 100 - 100/(1+rs)
	}
	return &v
}

// RSIState is the incremental Wilder RSI state.
type RSIState struct {
	period      int
	prevClose   float64
	hasPrev     bool
	seen        int // number of price changes folded in
	sumGain     float64
	sumLoss     float64
	avgGain     float64
	avgLoss     float64
	warm        bool
}

// NewRSIState creates a fresh incremental RSI state for the given period.
func NewRSIState(period int) *RSIState {
	return &RSIState{period: period}
}

// Update folds in the next close and returns the current RSI, or nil during
// warm-up.
func (s *RSIState) Update(close float64) *float64 {
	if !s.hasPrev {
		s.prevClose = close
		s.hasPrev = true
		return nil
	}

	change := close - s.prevClose
	s.prevClose = close

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	if !s.warm {
		s.seen++
		s.sumGain += gain
		s.sumLoss += loss
		if s.seen < s.period {
			return nil
		}
		s.avgGain = s.sumGain / float64(s.period)
		s.avgLoss = s.sumLoss / float64(s.period)
		s.warm = true
		return rsiValue(s.avgGain, s.avgLoss)
	}

	s.avgGain = (s.avgGain*float64(s.period-1) + gain) / float64(s.period)
	s.avgLoss = (s.avgLoss*float64(s.period-1) + loss) / float64(s.period)
	return rsiValue(s.avgGain, s.avgLoss)
}
