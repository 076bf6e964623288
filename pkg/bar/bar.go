// Package bar defines the OHLC candle type the rest of the backtesting core
// operates on, plus the IST trading-calendar helpers every other package
// relies on for market-hours logic.
package bar

import (
	"fmt"
	"time"
)

// IST is fixed at UTC+05:30, no DST, per the core's time model.
const istOffsetMinutes = 5*60 + 30

// Bar is one minute-resolution OHLCV observation.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Validate checks the invariants the core assumes hold at its boundary:
// low <= open, close <= high, low <= high, volume >= 0, and no NaN/Inf.
func Validate(b Bar) error {
	if isBad(b.Open) || isBad(b.High) || isBad(b.Low) || isBad(b.Close) || isBad(b.Volume) {
		return fmt.Errorf("bar at %s: NaN or infinite field", b.Timestamp)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar at %s: negative volume %v", b.Timestamp, b.Volume)
	}
	if b.Low > b.High {
		return fmt.Errorf("bar at %s: low %v > high %v", b.Timestamp, b.Low, b.High)
	}
	if b.Open < b.Low || b.Open > b.High {
		return fmt.Errorf("bar at %s: open %v outside [low,high]", b.Timestamp, b.Open)
	}
	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("bar at %s: close %v outside [low,high]", b.Timestamp, b.Close)
	}
	return nil
}

// ValidateSeries checks Validate on every bar plus strict monotonic ordering.
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		if err := Validate(b); err != nil {
			return err
		}
		if i > 0 && !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("bar series not strictly increasing at index %d (%s <= %s)", i, bars[i].Timestamp, bars[i-1].Timestamp)
		}
	}
	return nil
}

func isBad(f float64) bool {
	return f != f || f > 1e308 || f < -1e308
}

// ISTMinutesOfDay converts a timestamp (in any timezone) to minutes-since-
// midnight IST, fixing the spec's open question about UTC-minute rollovers:
// the conversion is done on total UTC minutes, not hours/minutes independently.
func ISTMinutesOfDay(t time.Time) int {
	u := t.UTC()
	utcMinutes := u.Hour()*60 + u.Minute()
	return ((utcMinutes+istOffsetMinutes)%1440 + 1440) % 1440
}

// TradingWindow is a half-open [start, end) range of IST minutes-of-day.
type TradingWindow struct {
	StartMinute int
	EndMinute   int
}

// DefaultTradingWindow is the core market-hours window: 09:30-14:30 IST.
var DefaultTradingWindow = TradingWindow{StartMinute: 9*60 + 30, EndMinute: 14*60 + 30}

// ForcedCloseMinute is 14:30 IST, expressed as minutes-of-day.
const ForcedCloseMinute = 14*60 + 30

// InWindow reports whether t's IST time-of-day falls in [w.StartMinute, w.EndMinute).
func (w TradingWindow) InWindow(t time.Time) bool {
	m := ISTMinutesOfDay(t)
	return m >= w.StartMinute && m < w.EndMinute
}

// IsForcedCloseTime reports whether t's IST time-of-day is at or past 14:30.
func IsForcedCloseTime(t time.Time) bool {
	return ISTMinutesOfDay(t) >= ForcedCloseMinute
}

// ParseISTClock parses an "HH:MM" string into minutes-of-day. The empty
// string is the sentinel for "disabled" and is rejected here; callers check
// for "" before calling.
func ParseISTClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid HH:MM clock value %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid HH:MM clock value %q: out of range", s)
	}
	return h*60 + m, nil
}

// DayKey identifies a calendar day in IST for period-bucketing purposes.
type DayKey struct {
	Year, Month, Day int
}

// ISTDayKey returns the IST calendar day containing t.
func ISTDayKey(t time.Time) DayKey {
	loc := time.FixedZone("IST", istOffsetMinutes*60)
	lt := t.In(loc)
	return DayKey{Year: lt.Year(), Month: int(lt.Month()), Day: lt.Day()}
}

// ISTTime returns t shifted into the fixed IST offset, for field access
// (Year/Month/Day/Hour/Minute) without DST surprises.
func ISTTime(t time.Time) time.Time {
	loc := time.FixedZone("IST", istOffsetMinutes*60)
	return t.In(loc)
}
