package indicator

// EMABatch returns the exponential moving average of closes over period p,
// seeded with the SMA of the first p closes, aligned to closes. Entries
// before index p-1 are nil.
func EMABatch(closes []float64, p int) []*float64 {
	out := make([]*float64, len(closes))
	if p <= 0 || len(closes) < p {
		return out
	}
	k := 2.0 / (float64(p) + 1.0)

	sum := 0.0
	for i := 0; i < p; i++ {
		sum += closes[i]
	}
	ema := sum / float64(p)
	v := ema
	out[p-1] = &v

	for i := p; i < len(closes); i++ {
		ema = closes[i]*k + ema*(1-k)
		v := ema
		out[i] = &v
	}
	return out
}

// EMAState is the incremental EMA state: seed-via-SMA during warm-up, then
// the standard recursive update.
type EMAState struct {
	period int
	k      float64
	seen   int
	sum    float64
	ema    float64
	warm   bool
}

// NewEMAState creates a fresh incremental EMA state for the given period.
func NewEMAState(period int) *EMAState {
	return &EMAState{period: period, k: 2.0 / (float64(period) + 1.0)}
}

// Update folds in the next close and returns the current EMA, or nil during
// warm-up.
func (s *EMAState) Update(close float64) *float64 {
	if !s.warm {
		s.seen++
		s.sum += close
		if s.seen < s.period {
			return nil
		}
		s.ema = s.sum / float64(s.period)
		s.warm = true
		v := s.ema
		return &v
	}
	s.ema = close*s.k + s.ema*(1-s.k)
	v := s.ema
	return &v
}
