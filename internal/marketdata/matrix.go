package marketdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/cockpit/internal/engine"
)

// =============================================================================
// Matrix Assembly
// =============================================================================

// minMatrixRows is the smallest usable history: the engine needs at least
// 2 return observations, so 3 aligned dates.
const minMatrixRows = 3

// BuildPriceMatrix aligns per-ticker candle series into a rectangular
// PriceMatrix on the intersection of their trading dates (different markets
// observe different holidays). Closing prices are used throughout.
func BuildPriceMatrix(series map[string][]Candle) (*engine.PriceMatrix, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("need at least 2 tickers, got %d", len(series))
	}

	tickers := make([]string, 0, len(series))
	for ticker := range series {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	// Count date occurrences across tickers; keep dates every ticker has
	byDate := make(map[time.Time]int)
	closes := make(map[string]map[time.Time]float64, len(tickers))
	for _, ticker := range tickers {
		candles := series[ticker]
		m := make(map[time.Time]float64, len(candles))
		for _, c := range candles {
			day := c.Date.Truncate(24 * time.Hour)
			if _, dup := m[day]; dup {
				continue
			}
			m[day] = c.Close
			byDate[day]++
		}
		closes[ticker] = m
	}

	var shared []time.Time
	for day, count := range byDate {
		if count == len(tickers) {
			shared = append(shared, day)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i].Before(shared[j]) })

	if len(shared) < minMatrixRows {
		return nil, fmt.Errorf("only %d dates shared across all tickers, need %d", len(shared), minMatrixRows)
	}

	prices := make(map[string][]float64, len(tickers))
	for _, ticker := range tickers {
		col := make([]float64, len(shared))
		for i, day := range shared {
			p := closes[ticker][day]
			if p <= 0 {
				return nil, fmt.Errorf("ticker %s has non-positive close on %s", ticker, day.Format("2006-01-02"))
			}
			col[i] = p
		}
		prices[ticker] = col
	}

	pm := &engine.PriceMatrix{Dates: shared, Tickers: tickers, Prices: prices}
	if err := pm.Validate(); err != nil {
		return nil, err
	}
	return pm, nil
}
