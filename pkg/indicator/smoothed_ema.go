package indicator

// SmoothedEMABatch returns the SMA of the trailing smP EMA(emaP) values,
// aligned to closes. First defined index is emaP+smP-2.
func SmoothedEMABatch(closes []float64, emaP, smP int) []*float64 {
	ema := EMABatch(closes, emaP)
	out := make([]*float64, len(closes))
	if smP <= 0 {
		return out
	}

	sum := 0.0
	count := 0
	var window []float64
	for i, e := range ema {
		if e == nil {
			continue
		}
		window = append(window, *e)
		sum += *e
		count++
		if len(window) > smP {
			sum -= window[0]
			window = window[1:]
		}
		if len(window) == smP {
			v := sum / float64(smP)
			out[i] = &v
		}
	}
	return out
}

// SmoothedEMAState composes an EMAState with a trailing-SMA-of-EMA-values
// rolling window.
type SmoothedEMAState struct {
	ema    *EMAState
	smP    int
	window []float64
	sum    float64
}

// NewSmoothedEMAState creates a fresh incremental smoothed-EMA state.
func NewSmoothedEMAState(emaP, smP int) *SmoothedEMAState {
	return &SmoothedEMAState{ema: NewEMAState(emaP), smP: smP}
}

// Update folds in the next close and returns the current smoothed EMA, or
// nil during warm-up.
func (s *SmoothedEMAState) Update(close float64) *float64 {
	e := s.ema.Update(close)
	if e == nil {
		return nil
	}
	s.window = append(s.window, *e)
	s.sum += *e
	if len(s.window) > s.smP {
		s.sum -= s.window[0]
		s.window = s.window[1:]
	}
	if len(s.window) < s.smP {
		return nil
	}
	v := s.sum / float64(s.smP)
	return &v
}
