package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// =============================================================================
// Benchmark Comparison
// =============================================================================

// BenchmarkPerformance compares the optimized portfolio's expected return
// against a benchmark's realized history over the same window.
type BenchmarkPerformance struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	Outperformance   float64 `json:"outperformance"` // portfolio expected - benchmark annualized
}

// CompareBenchmark computes the benchmark's realized total and annualized
// return plus annualized volatility from its price series, and the
// portfolio's outperformance against it.
func CompareBenchmark(benchPrices []float64, portfolioReturn float64, periodsPerYear int) (*BenchmarkPerformance, error) {
	if len(benchPrices) < 2 {
		return nil, fmt.Errorf("%w: benchmark has %d prices", ErrInsufficientHistory, len(benchPrices))
	}
	for i, p := range benchPrices {
		if p <= 0 {
			return nil, fmt.Errorf("benchmark has non-positive price %v at index %d", p, i)
		}
	}

	returns := make([]float64, 0, len(benchPrices)-1)
	for i := 1; i < len(benchPrices); i++ {
		returns = append(returns, (benchPrices[i]-benchPrices[i-1])/benchPrices[i-1])
	}

	total := benchPrices[len(benchPrices)-1]/benchPrices[0] - 1
	years := float64(len(returns)) / float64(periodsPerYear)
	annualized := total
	if years > 0 {
		annualized = math.Pow(1+total, 1/years) - 1
	}

	vol := math.Sqrt(stat.Variance(returns, nil)) * math.Sqrt(float64(periodsPerYear))

	return &BenchmarkPerformance{
		TotalReturn:      total,
		AnnualizedReturn: annualized,
		Volatility:       vol,
		Outperformance:   portfolioReturn - annualized,
	}, nil
}
