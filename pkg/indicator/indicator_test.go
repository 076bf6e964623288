package indicator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genSeries(n int, seed int64) (closes, highs, lows []float64) {
	r := rand.New(rand.NewSource(seed))
	price := 100.0
	closes = make([]float64, n)
	highs = make([]float64, n)
	lows = make([]float64, n)
	for i := 0; i < n; i++ {
		price += r.Float64()*2 - 1
		if price < 1 {
			price = 1
		}
		high := price + r.Float64()
		low := price - r.Float64()
		if low > price {
			low = price - 0.01
		}
		closes[i] = price
		highs[i] = high
		lows[i] = low
	}
	return
}

func TestSMAEquivalence(t *testing.T) {
	closes, _, _ := genSeries(50, 1)
	batch := SMABatch(closes, 5)
	state := NewSMAState(5)
	for i, c := range closes {
		v := state.Update(c)
		if batch[i] == nil {
			assert.Nil(t, v, "index %d", i)
			continue
		}
		require.NotNil(t, v, "index %d", i)
		assert.InDelta(t, *batch[i], *v, 1e-9, "index %d", i)
	}
}

func TestSMAWarmup(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	out := SMABatch(closes, 3)
	assert.Nil(t, out[0])
	assert.Nil(t, out[1])
	require.NotNil(t, out[2])
	assert.InDelta(t, 2.0, *out[2], 1e-9)
	require.NotNil(t, out[4])
	assert.InDelta(t, 4.0, *out[4], 1e-9)
}

func TestEMAEquivalence(t *testing.T) {
	closes, _, _ := genSeries(60, 2)
	batch := EMABatch(closes, 9)
	state := NewEMAState(9)
	for i, c := range closes {
		v := state.Update(c)
		if batch[i] == nil {
			assert.Nil(t, v, "index %d", i)
			continue
		}
		require.NotNil(t, v, "index %d", i)
		assert.InDelta(t, *batch[i], *v, 1e-9, "index %d", i)
	}
}

func TestEMAWarmupIndex(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	out := EMABatch(closes, 4)
	assert.Nil(t, out[2])
	require.NotNil(t, out[3])
}

func TestSmoothedEMAEquivalence(t *testing.T) {
	closes, _, _ := genSeries(80, 3)
	batch := SmoothedEMABatch(closes, 12, 9)
	state := NewSmoothedEMAState(12, 9)
	for i, c := range closes {
		v := state.Update(c)
		if batch[i] == nil {
			assert.Nil(t, v, "index %d", i)
			continue
		}
		require.NotNil(t, v, "index %d", i)
		assert.InDelta(t, *batch[i], *v, 1e-9, "index %d", i)
	}
}

func TestRSIEquivalence(t *testing.T) {
	closes, _, _ := genSeries(60, 4)
	batch := RSIBatch(closes, 14)
	state := NewRSIState(14)
	for i, c := range closes {
		v := state.Update(c)
		if batch[i] == nil {
			assert.Nil(t, v, "index %d", i)
			continue
		}
		require.NotNil(t, v, "index %d", i)
		assert.InDelta(t, *batch[i], *v, 1e-9, "index %d", i)
	}
}

func TestRSIWarmupIndex(t *testing.T) {
	closes, _, _ := genSeries(30, 5)
	out := RSIBatch(closes, 14)
	for i := 0; i < 14; i++ {
		assert.Nil(t, out[i])
	}
	assert.NotNil(t, out[14])
}

func TestRSINoLosses(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1) // strictly increasing: no losses
	}
	out := RSIBatch(closes, 14)
	require.NotNil(t, out[14])
	assert.InDelta(t, 100.0, *out[14], 1e-9)
}

func TestATREquivalence(t *testing.T) {
	closes, highs, lows := genSeries(60, 6)
	batch := ATRBatch(highs, lows, closes, 14)
	state := NewATRState(14)
	for i := range closes {
		v := state.Update(highs[i], lows[i], closes[i])
		if batch[i] == nil {
			assert.Nil(t, v, "index %d", i)
			continue
		}
		require.NotNil(t, v, "index %d", i)
		assert.InDelta(t, *batch[i], *v, 1e-9, "index %d", i)
	}
}

func TestADXEquivalence(t *testing.T) {
	closes, highs, lows := genSeries(120, 7)
	batch := ADXBatch(highs, lows, closes, 14)
	state := NewADXState(14)
	for i := range closes {
		v := state.Update(highs[i], lows[i], closes[i])
		if batch[i] == nil {
			assert.Nil(t, v, "index %d", i)
			continue
		}
		require.NotNil(t, v, "index %d", i)
		assert.InDelta(t, *batch[i], *v, 1e-9, "index %d", i)
	}
}

func TestADXWarmupApproximatelyTwoP(t *testing.T) {
	closes, highs, lows := genSeries(120, 8)
	out := ADXBatch(highs, lows, closes, 14)
	firstDefined := -1
	for i, v := range out {
		if v != nil {
			firstDefined = i
			break
		}
	}
	require.NotEqual(t, -1, firstDefined)
	assert.GreaterOrEqual(t, firstDefined, 2*14-2)
	assert.LessOrEqual(t, firstDefined, 2*14+5)
}

func TestADXNeverRevertsToNil(t *testing.T) {
	closes, highs, lows := genSeries(150, 9)
	out := ADXBatch(highs, lows, closes, 14)
	seenDefined := false
	for _, v := range out {
		if v != nil {
			seenDefined = true
		} else if seenDefined {
			t.Fatal("ADX reverted to nil after being defined")
		}
	}
}
