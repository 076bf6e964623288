package bar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkUTC(h, m int) time.Time {
	return time.Date(2024, 1, 2, h, m, 0, 0, time.UTC)
}

func TestISTMinutesOfDay(t *testing.T) {
	// 09:30 IST = 04:00 UTC
	assert.Equal(t, 9*60+30, ISTMinutesOfDay(mkUTC(4, 0)))
	// 14:30 IST = 09:00 UTC
	assert.Equal(t, 14*60+30, ISTMinutesOfDay(mkUTC(9, 0)))
	// rollover: 23:45 UTC + 5:30 = 05:15 next day -> 315 minutes
	assert.Equal(t, 5*60+15, ISTMinutesOfDay(mkUTC(23, 45)))
}

func TestTradingWindow(t *testing.T) {
	w := DefaultTradingWindow
	assert.True(t, w.InWindow(mkUTC(4, 0)))   // 09:30 IST
	assert.False(t, w.InWindow(mkUTC(3, 59))) // 09:29 IST
	assert.False(t, w.InWindow(mkUTC(9, 0)))  // 14:30 IST excluded (half-open)
	assert.True(t, IsForcedCloseTime(mkUTC(9, 0)))
	assert.False(t, IsForcedCloseTime(mkUTC(8, 59)))
}

func TestValidate(t *testing.T) {
	good := Bar{Timestamp: mkUTC(4, 0), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10}
	require.NoError(t, Validate(good))

	bad := good
	bad.Low = 102
	assert.Error(t, Validate(bad))

	badVol := good
	badVol.Volume = -1
	assert.Error(t, Validate(badVol))
}

func TestValidateSeriesOrdering(t *testing.T) {
	b1 := Bar{Timestamp: mkUTC(4, 0), Open: 1, High: 1, Low: 1, Close: 1}
	b2 := Bar{Timestamp: mkUTC(4, 0), Open: 1, High: 1, Low: 1, Close: 1}
	assert.Error(t, ValidateSeries([]Bar{b1, b2}))
}

func TestParseISTClock(t *testing.T) {
	m, err := ParseISTClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, m)

	_, err = ParseISTClock("garbage")
	assert.Error(t, err)
}
