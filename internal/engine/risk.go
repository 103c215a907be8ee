package engine

import (
	"fmt"
	"math"
	"sort"
)

// =============================================================================
// Risk Analyzer (Historical VaR / CVaR / Drawdown)
// =============================================================================

// RiskAnalyzer computes empirical tail-risk statistics for a fixed-weight,
// buy-and-hold portfolio over a historical window. The historical method is
// used throughout: no distributional assumption, losses read straight off
// the empirical return distribution.
type RiskAnalyzer struct{}

// NewRiskAnalyzer creates a historical risk analyzer
func NewRiskAnalyzer() *RiskAnalyzer {
	return &RiskAnalyzer{}
}

// Analyze computes VaR/CVaR at each confidence level plus the maximum
// drawdown of the portfolio wealth path. Losses are reported as positive
// magnitudes and scaled by capital. Weights not present in the matrix are
// an error; weights are applied as-is (static, no rebalancing drift).
func (a *RiskAnalyzer) Analyze(weights WeightVector, prices *PriceMatrix,
	capital float64, confidenceLevels []float64) (*RiskReport, error) {

	if capital <= 0 {
		return nil, fmt.Errorf("capital must be positive, got %v", capital)
	}
	for _, c := range confidenceLevels {
		if c <= 0 || c >= 1 {
			return nil, fmt.Errorf("confidence level %v outside (0, 1)", c)
		}
	}

	returns := prices.Returns()
	n := prices.NumObservations()
	if n < 2 {
		return nil, fmt.Errorf("%w: %d return observations", ErrInsufficientHistory, n)
	}

	for ticker := range weights {
		if _, ok := returns[ticker]; !ok {
			return nil, fmt.Errorf("no price history for weighted ticker %s", ticker)
		}
	}

	// Daily portfolio returns under static weights
	portReturns := make([]float64, n)
	for ticker, w := range weights {
		series := returns[ticker]
		for t := 0; t < n; t++ {
			portReturns[t] += w * series[t]
		}
	}

	// Loss-positive convention: sort losses ascending, quantiles by linear
	// interpolation.
	losses := make([]float64, n)
	for t, r := range portReturns {
		losses[t] = -r
	}
	sort.Float64s(losses)

	varResults := make([]VaRResult, 0, len(confidenceLevels))
	for _, conf := range confidenceLevels {
		v := percentile(losses, conf)
		if v < 0 {
			v = 0 // the window never lost money at this quantile
		}

		// CVaR: mean loss in the tail beyond the VaR quantile
		cvar := v
		var tailSum float64
		var tailCount int
		for i := len(losses) - 1; i >= 0 && losses[i] >= v; i-- {
			tailSum += losses[i]
			tailCount++
		}
		if tailCount > 0 {
			cvar = tailSum / float64(tailCount)
			if cvar < v {
				cvar = v
			}
		}

		varResults = append(varResults, VaRResult{
			Confidence: conf,
			Loss:       v * capital,
			LossPct:    v,
			CVaR:       cvar * capital,
		})
	}

	maxDD, duration := maxDrawdown(portReturns)

	return &RiskReport{
		Capital:          capital,
		VaR:              varResults,
		MaxDrawdown:      maxDD,
		DrawdownDuration: duration,
	}, nil
}

// percentile returns the p-quantile (p in (0,1)) of sorted ascending data,
// with linear interpolation between order statistics.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// maxDrawdown walks the compounded wealth path and returns the deepest
// peak-to-trough decline (as a positive fraction) and its duration in
// trading days, measured from the preceding peak to the trough.
func maxDrawdown(returns []float64) (float64, int) {
	wealth := 1.0
	peak := 1.0
	peakIdx := 0

	var maxDD float64
	var duration int
	for t, r := range returns {
		wealth *= 1 + r
		if wealth > peak {
			peak = wealth
			peakIdx = t + 1
			continue
		}
		dd := (peak - wealth) / peak
		if dd > maxDD {
			maxDD = dd
			duration = t + 1 - peakIdx
		}
	}
	return maxDD, duration
}
