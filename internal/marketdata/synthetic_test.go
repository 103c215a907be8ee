package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticGenerator_Deterministic(t *testing.T) {
	g := NewSyntheticGenerator()
	rng := DateRange{From: day(2024, 1, 1), To: day(2024, 3, 31)}

	a := g.Generate("AAPL.US", rng)
	b := g.Generate("AAPL.US", rng)
	assert.Equal(t, a, b)

	c := g.Generate("MSFT.US", rng)
	assert.NotEqual(t, a, c)
}

func TestSyntheticGenerator_CandleShape(t *testing.T) {
	g := NewSyntheticGenerator()
	candles := g.Generate("TEST.US", DateRange{From: day(2024, 1, 1), To: day(2024, 6, 30)})
	require.NotEmpty(t, candles)

	for i, c := range candles {
		wd := c.Date.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)

		assert.Greater(t, c.Close, 0.0)
		assert.GreaterOrEqual(t, c.High, c.Low)
		assert.GreaterOrEqual(t, c.High, c.Close)
		assert.LessOrEqual(t, c.Low, c.Open)
		assert.Greater(t, c.Volume, int64(0))

		if i > 0 {
			assert.True(t, c.Date.After(candles[i-1].Date))
		}
	}
}

func TestSyntheticGenerator_Info(t *testing.T) {
	info := NewSyntheticGenerator().Info("AAPL.US")
	assert.Equal(t, "AAPL.US", info.Ticker)
	assert.True(t, info.Synthetic)
	assert.NotEmpty(t, info.Name)
}
