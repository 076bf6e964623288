// Package indicator implements the core's technical-indicator library.
//
// Every indicator is offered in two equivalent shapes, per the source
// repository's split between a one-shot historical pass and a per-bar
// incremental update: a batch function returning a vector aligned to the
// input (undefined entries are nil) and an incremental State that a live
// caller can fold one bar at a time. Both shapes must agree bit-for-bit on
// the same input; see the *_test.go equivalence tests.
package indicator

// SMABatch returns the simple moving average of closes over period p,
// aligned to closes. Entries before index p-1 are nil (warm-up).
func SMABatch(closes []float64, p int) []*float64 {
	out := make([]*float64, len(closes))
	if p <= 0 {
		return out
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= p {
			sum -= closes[i-p]
		}
		if i >= p-1 {
			v := sum / float64(p)
			out[i] = &v
		}
	}
	return out
}

// SMAState is the incremental rolling-sum state for SMA.
type SMAState struct {
	period int
	buf    []float64
	sum    float64
}

// NewSMAState creates a fresh incremental SMA state for the given period.
func NewSMAState(period int) *SMAState {
	return &SMAState{period: period, buf: make([]float64, 0, period)}
}

// Update folds in the next close and returns the current SMA, or nil during
// warm-up (fewer than `period` observations seen so far).
func (s *SMAState) Update(close float64) *float64 {
	s.buf = append(s.buf, close)
	s.sum += close
	if len(s.buf) > s.period {
		s.sum -= s.buf[0]
		s.buf = s.buf[1:]
	}
	if len(s.buf) < s.period {
		return nil
	}
	v := s.sum / float64(s.period)
	return &v
}
