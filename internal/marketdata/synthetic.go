package marketdata

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// =============================================================================
// Synthetic Price Generator
// =============================================================================

// SyntheticGenerator produces geometric-Brownian-motion price paths for use
// when no real provider is reachable (offline development, tests, demo mode).
// Each ticker derives its drift, volatility and seed from a hash of its
// symbol, so a ticker always gets the same history.
type SyntheticGenerator struct{}

// NewSyntheticGenerator creates a deterministic synthetic data source
func NewSyntheticGenerator() *SyntheticGenerator {
	return &SyntheticGenerator{}
}

// Generate produces daily candles for the weekdays in the range
func (g *SyntheticGenerator) Generate(ticker string, rng DateRange) []Candle {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	seed := int64(h.Sum64())

	r := rand.New(rand.NewSource(seed))

	// Ticker-specific but stable parameters
	drift := 0.00005 + r.Float64()*0.0006   // daily
	vol := 0.008 + r.Float64()*0.017        // daily
	price := 20 + r.Float64()*480           // starting level

	var candles []Candle
	for d := rng.From; !d.After(rng.To); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		ret := drift - vol*vol/2 + vol*r.NormFloat64()
		next := price * math.Exp(ret)

		high := math.Max(price, next) * (1 + r.Float64()*0.005)
		low := math.Min(price, next) * (1 - r.Float64()*0.005)

		candles = append(candles, Candle{
			Ticker: ticker,
			Date:   time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Open:   round4(price),
			High:   round4(high),
			Low:    round4(low),
			Close:  round4(next),
			Volume: 100_000 + int64(r.Intn(5_000_000)),
		})
		price = next
	}
	return candles
}

// Info fabricates a minimal profile for a synthetic ticker
func (g *SyntheticGenerator) Info(ticker string) *TickerInfo {
	return &TickerInfo{
		Ticker:    ticker,
		Name:      ticker + " (synthetic)",
		Currency:  "USD",
		Synthetic: true,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
