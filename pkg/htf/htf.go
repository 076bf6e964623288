// Package htf folds a chronological minute-bar stream into higher-timeframe
// (hourly/daily/weekly/monthly) candles and answers look-ahead-safe queries
// against them. Preventing a strategy from ever observing the in-progress
// HTF candle is the single most important correctness property in this
// package — see LastCompleted and View.
package htf

import (
	"time"

	"github.com/nsequant/istbacktest/pkg/bar"
)

// Candle is one aggregated higher-timeframe bar.
type Candle struct {
	StartTime time.Time
	EndTime   time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Complete  bool
}

// Interval selects the aggregation rule.
type Interval int

const (
	Hourly Interval = iota
	Daily
	Weekly
	Monthly
)

// Aggregator folds a minute stream into Interval-sized candles.
type Aggregator struct {
	interval Interval
	candles  []Candle
	cur      *Candle
	curStart time.Time
}

// NewAggregator creates a fresh aggregator for the given interval.
func NewAggregator(interval Interval) *Aggregator {
	return &Aggregator{interval: interval}
}

// fixedDurationSeconds returns the bucket width for fixed-duration
// intervals (hourly, daily-intraday). Week/month are calendar-based and
// handled separately in bucketStart.
func (a *Aggregator) fixedDurationSeconds() int64 {
	switch a.interval {
	case Hourly:
		return 3600
	case Daily:
		return 5 * 3600 // 9:30-14:30 IST intraday session width, per spec's 300-minute daily bucket
	}
	return 0
}

// bucketStart returns the start-of-bucket timestamp containing t.
func (a *Aggregator) bucketStart(t time.Time) time.Time {
	switch a.interval {
	case Hourly, Daily:
		sec := a.fixedDurationSeconds()
		unix := t.Unix()
		floored := (unix / sec) * sec
		return time.Unix(floored, 0).UTC()
	case Weekly:
		ist := bar.ISTTime(t)
		weekday := int(ist.Weekday())
		startOfWeek := ist.AddDate(0, 0, -weekday)
		return time.Date(startOfWeek.Year(), startOfWeek.Month(), startOfWeek.Day(), 0, 0, 0, 0, startOfWeek.Location())
	case Monthly:
		ist := bar.ISTTime(t)
		return time.Date(ist.Year(), ist.Month(), 1, 0, 0, 0, 0, ist.Location())
	}
	return t
}

func (a *Aggregator) bucketEnd(start time.Time) time.Time {
	switch a.interval {
	case Hourly, Daily:
		return start.Add(time.Duration(a.fixedDurationSeconds()) * time.Second)
	case Weekly:
		return start.AddDate(0, 0, 7)
	case Monthly:
		return start.AddDate(0, 1, 0)
	}
	return start
}

// Add folds in the next minute bar in chronological order.
func (a *Aggregator) Add(b bar.Bar) {
	start := a.bucketStart(b.Timestamp)

	if a.cur != nil && start.Equal(a.curStart) {
		if b.High > a.cur.High {
			a.cur.High = b.High
		}
		if b.Low < a.cur.Low {
			a.cur.Low = b.Low
		}
		a.cur.Close = b.Close
		a.cur.Volume += b.Volume
		return
	}

	// New bucket: close out the previous one as complete.
	if a.cur != nil {
		a.cur.Complete = true
		a.candles = append(a.candles, *a.cur)
	}

	a.curStart = start
	a.cur = &Candle{
		StartTime: start,
		EndTime:   a.bucketEnd(start),
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
		Complete:  false,
	}
}

// Candles returns all candles produced so far, including the possibly
// incomplete trailing one. Callers that need look-ahead safety must use
// LastCompleted or View instead of reading this directly.
func (a *Aggregator) Candles() []Candle {
	out := make([]Candle, 0, len(a.candles)+1)
	out = append(out, a.candles...)
	if a.cur != nil {
		out = append(out, *a.cur)
	}
	return out
}

// BuildFromBars runs a full minute series through a fresh Aggregator and
// returns the resulting candle slice (used for precomputing HTF indicator
// inputs over a whole dataset).
func BuildFromBars(bars []bar.Bar, interval Interval) []Candle {
	agg := NewAggregator(interval)
	for _, b := range bars {
		agg.Add(b)
	}
	return agg.Candles()
}

// LastCompleted returns the index of the greatest candle with
// EndTime <= t, or -1 if none. This is the one look-ahead-safe query the
// spec requires: it will never return an in-progress candle.
func LastCompleted(candles []Candle, t time.Time) int {
	// candles are in non-decreasing EndTime order, so a hand-written binary
	// search finds the answer in O(log n); a linear scan would also be
	// correct.
	lo, hi := 0, len(candles)
	best := -1
	for lo < hi {
		mid := (lo + hi) / 2
		if !candles[mid].EndTime.After(t) {
			best = mid
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if best == -1 {
		return -1
	}
	// Never expose an incomplete candle, even if its EndTime <= t (the
	// trailing candle in Candles() may be incomplete by construction; a
	// fully-built-from-bars HTF table may mark all but the last complete).
	if !candles[best].Complete {
		return -1
	}
	return best
}

// View is a look-ahead-safe accessor that only ever yields completed HTF
// candles to a caller, per the design note that look-ahead prevention
// deserves its own type rather than being a discipline the caller must
// remember to apply.
type View struct {
	candles []Candle
}

// NewView wraps a candle slice (typically from BuildFromBars) in a
// look-ahead-safe view.
func NewView(candles []Candle) View {
	return View{candles: candles}
}

// At returns the last completed candle at or before time t, and whether one exists.
func (v View) At(t time.Time) (Candle, bool) {
	idx := LastCompleted(v.candles, t)
	if idx == -1 {
		return Candle{}, false
	}
	return v.candles[idx], true
}

// Closes returns the close price series of every candle in this view,
// including the incomplete trailing one — used only to feed HTF indicator
// batch routines, never exposed directly to a strategy at a given minute.
func (v View) Closes() []float64 {
	out := make([]float64, len(v.candles))
	for i, c := range v.candles {
		out[i] = c.Close
	}
	return out
}

// IndexAt returns the candle-table index of the last completed candle at
// time t (or -1), for pairing with a precomputed indicator vector aligned
// to Closes().
func (v View) IndexAt(t time.Time) int {
	return LastCompleted(v.candles, t)
}
