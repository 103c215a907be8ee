package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alternatingMatrix(tickers []string, days int) *PriceMatrix {
	dates := make([]time.Time, days)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	prices := make(map[string][]float64, len(tickers))
	for _, ticker := range tickers {
		series := make([]float64, days)
		series[0] = 100
		for i := 1; i < days; i++ {
			r := 0.01
			if i%2 == 0 {
				r = -0.005
			}
			series[i] = series[i-1] * (1 + r)
		}
		prices[ticker] = series
	}
	return &PriceMatrix{Dates: dates, Tickers: tickers, Prices: prices}
}

func TestReturnsEstimator_IdenticalAssetsHaveBetaOne(t *testing.T) {
	// Both assets equal the market proxy, so beta = 1 and the CAPM return
	// collapses to the annualized market return.
	pm := alternatingMatrix([]string{"AAA", "BBB"}, 41)

	params := DefaultParams()
	est := NewReturnsEstimator(params)
	mu, err := est.Estimate(pm)
	require.NoError(t, err)

	// 40 observations: 20 of +1%, 20 of -0.5%
	meanPeriodic := (20*0.01 + 20*-0.005) / 40
	expected := meanPeriodic * 252

	assert.InDelta(t, expected, mu["AAA"], 1e-9)
	assert.InDelta(t, expected, mu["BBB"], 1e-9)
}

func TestReturnsEstimator_ZeroVarianceMarket(t *testing.T) {
	pm := makeTestMatrix([]string{"AAA", "BBB"}, 20, 3)
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 100
	}
	pm.Prices["AAA"] = flat
	pm.Prices["BBB"] = flat

	_, err := NewReturnsEstimator(DefaultParams()).Estimate(pm)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEstimation))
}

func TestReturnsEstimator_TooFewObservations(t *testing.T) {
	pm := makeTestMatrix([]string{"AAA", "BBB"}, 2, 5)
	_, err := NewReturnsEstimator(DefaultParams()).Estimate(pm)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEstimation))
}

func TestReturnsEstimator_ExplicitBenchmark(t *testing.T) {
	pm := alternatingMatrix([]string{"AAA", "BBB"}, 41)
	est := NewReturnsEstimator(DefaultParams())

	t.Run("benchmark equals assets", func(t *testing.T) {
		mu, err := est.EstimateWithMarket(pm, pm.Prices["AAA"])
		require.NoError(t, err)

		meanPeriodic := (20*0.01 + 20*-0.005) / 40
		assert.InDelta(t, meanPeriodic*252, mu["AAA"], 1e-9)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := est.EstimateWithMarket(pm, pm.Prices["AAA"][:10])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEstimation))
	})
}
