package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceMatrix_Validate(t *testing.T) {
	valid := makeTestMatrix([]string{"AAA", "BBB"}, 10, 1)
	require.NoError(t, valid.Validate())

	t.Run("too few tickers", func(t *testing.T) {
		pm := makeTestMatrix([]string{"AAA", "BBB"}, 10, 1)
		pm.Tickers = pm.Tickers[:1]
		assert.Error(t, pm.Validate())
	})

	t.Run("non-increasing dates", func(t *testing.T) {
		pm := makeTestMatrix([]string{"AAA", "BBB"}, 10, 1)
		pm.Dates[5] = pm.Dates[4]
		assert.Error(t, pm.Validate())
	})

	t.Run("non-positive price", func(t *testing.T) {
		pm := makeTestMatrix([]string{"AAA", "BBB"}, 10, 1)
		pm.Prices["AAA"][3] = 0
		assert.Error(t, pm.Validate())
	})

	t.Run("ragged series", func(t *testing.T) {
		pm := makeTestMatrix([]string{"AAA", "BBB"}, 10, 1)
		pm.Prices["BBB"] = pm.Prices["BBB"][:9]
		assert.Error(t, pm.Validate())
	})

	t.Run("missing series", func(t *testing.T) {
		pm := makeTestMatrix([]string{"AAA", "BBB"}, 10, 1)
		delete(pm.Prices, "BBB")
		assert.Error(t, pm.Validate())
	})
}

func TestPriceMatrix_Returns(t *testing.T) {
	pm := &PriceMatrix{
		Dates: []time.Time{
			time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		},
		Tickers: []string{"AAA", "BBB"},
		Prices: map[string][]float64{
			"AAA": {100, 110, 99},
			"BBB": {50, 50, 55},
		},
	}

	ret := pm.Returns()
	require.Len(t, ret["AAA"], 2)
	assert.InDelta(t, 0.10, ret["AAA"][0], 1e-12)
	assert.InDelta(t, -0.10, ret["AAA"][1], 1e-12)
	assert.InDelta(t, 0.0, ret["BBB"][0], 1e-12)
	assert.InDelta(t, 0.10, ret["BBB"][1], 1e-12)

	assert.Equal(t, 2, pm.NumObservations())
	assert.Equal(t, 2, pm.NumAssets())
}

func TestObjective_Valid(t *testing.T) {
	assert.True(t, ObjectiveMaxSharpe.Valid())
	assert.True(t, ObjectiveMinVolatility.Valid())
	assert.True(t, ObjectiveEfficientRisk.Valid())
	assert.False(t, Objective("max_return").Valid())
	assert.False(t, Objective("").Valid())
}
