package engine

import (
	"math/rand"
	"time"
)

// makeTestMatrix builds a synthetic PriceMatrix: each ticker follows a random
// walk with its own drift and volatility, seeded for reproducibility.
func makeTestMatrix(tickers []string, days int, seed int64) *PriceMatrix {
	rng := rand.New(rand.NewSource(seed))

	dates := make([]time.Time, days)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	prices := make(map[string][]float64, len(tickers))
	for k, ticker := range tickers {
		drift := 0.0002 + 0.0003*float64(k)
		vol := 0.01 + 0.005*float64(k)

		series := make([]float64, days)
		series[0] = 100 + 10*float64(k)
		for i := 1; i < days; i++ {
			r := drift + vol*rng.NormFloat64()
			if r < -0.5 {
				r = -0.5
			}
			series[i] = series[i-1] * (1 + r)
		}
		prices[ticker] = series
	}

	return &PriceMatrix{Dates: dates, Tickers: tickers, Prices: prices}
}

// makeCovariance builds a CovarianceMatrix directly from literal data
func makeCovariance(tickers []string, data [][]float64) *CovarianceMatrix {
	return &CovarianceMatrix{Tickers: tickers, Data: data}
}
