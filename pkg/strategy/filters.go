package strategy

import (
	"math"
	"time"

	"github.com/nsequant/istbacktest/pkg/bar"
)

// FilterConfig bundles the common entry filters shared across strategies,
// per spec §4.3: all off by default except where noted. Time-of-day fields
// use "HH:MM" IST strings; the empty string disables that filter.
type FilterConfig struct {
	TradingWindowStart string // "" disables the window restriction (entries allowed any time)
	TradingWindowEnd   string

	MaxTradesPerDay int // 0 = unlimited

	EMAGapMin float64 // 0 disables the gap filter

	SkipWindowStart string // "" disables the time-of-day skip window
	SkipWindowEnd   string

	ADXThreshold float64 // 0 disables the ADX gate
}

// tradingWindow parses the configured window, if any.
func (fc FilterConfig) tradingWindow() (bar.TradingWindow, bool) {
	if fc.TradingWindowStart == "" || fc.TradingWindowEnd == "" {
		return bar.TradingWindow{}, false
	}
	start, err1 := bar.ParseISTClock(fc.TradingWindowStart)
	end, err2 := bar.ParseISTClock(fc.TradingWindowEnd)
	if err1 != nil || err2 != nil {
		return bar.TradingWindow{}, false
	}
	return bar.TradingWindow{StartMinute: start, EndMinute: end}, true
}

// InTradingWindow reports whether an entry may be considered at time t.
// Exits are never subject to this filter; callers only apply it to entries.
func (fc FilterConfig) InTradingWindow(t time.Time) bool {
	w, ok := fc.tradingWindow()
	if !ok {
		return true
	}
	return w.InWindow(t)
}

// InSkipWindow reports whether entries are suppressed at time t.
func (fc FilterConfig) InSkipWindow(t time.Time) bool {
	if fc.SkipWindowStart == "" || fc.SkipWindowEnd == "" {
		return false
	}
	start, err1 := bar.ParseISTClock(fc.SkipWindowStart)
	end, err2 := bar.ParseISTClock(fc.SkipWindowEnd)
	if err1 != nil || err2 != nil {
		return false
	}
	m := bar.ISTMinutesOfDay(t)
	return m >= start && m < end
}

// EMAGapOK reports whether the gap between two EMAs clears the configured
// minimum relative gap (0 disables the filter, always passing).
func (fc FilterConfig) EMAGapOK(fast, slow float64) bool {
	if fc.EMAGapMin <= 0 || slow == 0 {
		return fc.EMAGapMin <= 0
	}
	return math.Abs(fast-slow)/math.Abs(slow) >= fc.EMAGapMin
}

// ADXGateOK reports whether adx clears the configured threshold (0
// disables the gate, always passing).
func (fc FilterConfig) ADXGateOK(adx float64) bool {
	if fc.ADXThreshold <= 0 {
		return true
	}
	return adx >= fc.ADXThreshold
}

// dailyCounter enforces the daily entry cap: at most MaxTradesPerDay
// entries per IST calendar day. Exits never count against it.
type dailyCounter struct {
	max    int
	counts map[bar.DayKey]int
}

func newDailyCounter(max int) *dailyCounter {
	return &dailyCounter{max: max, counts: make(map[bar.DayKey]int)}
}

// Allow reports whether another entry may be taken on t's calendar day.
func (d *dailyCounter) Allow(t time.Time) bool {
	if d.max <= 0 {
		return true
	}
	return d.counts[bar.ISTDayKey(t)] < d.max
}

// Record registers that an entry was taken at time t.
func (d *dailyCounter) Record(t time.Time) {
	d.counts[bar.ISTDayKey(t)]++
}
