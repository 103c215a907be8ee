package engine

import (
	"fmt"
	"math"
)

// =============================================================================
// Frontier Solver
// =============================================================================

const (
	// weights below this are snapped to zero before renormalization
	cleanThreshold = 1e-4

	sharpeTolerance = 1e-8
)

// Solver computes constrained optimal portfolios on the efficient frontier.
// All three objectives reduce to quadratic programs over the capped simplex;
// max_sharpe and efficient_risk search along the frontier parametrically.
type Solver struct {
	riskFreeRate  float64
	maxIterations int
}

// NewSolver creates a frontier solver with the given conventions
func NewSolver(params Params) *Solver {
	maxIter := params.MaxIterations
	if maxIter <= 0 {
		maxIter = 1000
	}
	return &Solver{
		riskFreeRate:  params.RiskFreeRate,
		maxIterations: maxIter,
	}
}

// Optimize solves for the requested objective. targetVolatility is only
// consulted for ObjectiveEfficientRisk.
func (s *Solver) Optimize(mu ReturnVector, sigma *CovarianceMatrix, objective Objective,
	constraints Constraints, targetVolatility float64) (WeightVector, PerformanceMetrics, error) {

	if !objective.Valid() {
		return nil, PerformanceMetrics{}, fmt.Errorf("unknown objective %q", objective)
	}

	n := sigma.Dim()
	if n < 2 {
		return nil, PerformanceMetrics{}, fmt.Errorf("%w: need at least 2 assets, got %d", ErrInfeasibleConstraint, n)
	}
	if len(mu) != n {
		return nil, PerformanceMetrics{}, fmt.Errorf("%w: %d expected returns for %d assets", ErrNumerical, len(mu), n)
	}

	cap := constraints.MaxWeight
	if cap <= 0 || cap > 1 {
		return nil, PerformanceMetrics{}, fmt.Errorf("%w: max_weight %v outside (0, 1]", ErrInfeasibleConstraint, cap)
	}
	if cap*float64(n) < 1-1e-12 {
		return nil, PerformanceMetrics{}, fmt.Errorf(
			"%w: max_weight %v cannot sum to 1 across %d assets", ErrInfeasibleConstraint, cap, n)
	}

	muVec := make([]float64, n)
	for i, ticker := range sigma.Tickers {
		v, ok := mu[ticker]
		if !ok {
			return nil, PerformanceMetrics{}, fmt.Errorf("%w: no expected return for %s", ErrNumerical, ticker)
		}
		muVec[i] = v
	}

	if err := checkPSD(sigma); err != nil {
		return nil, PerformanceMetrics{}, err
	}

	var raw []float64
	var err error
	switch objective {
	case ObjectiveMinVolatility:
		raw = solveQP(sigma.Data, nil, 0, cap)
	case ObjectiveMaxSharpe:
		raw = s.solveMaxSharpe(muVec, sigma.Data, cap)
	case ObjectiveEfficientRisk:
		raw, err = s.solveEfficientRisk(muVec, sigma.Data, cap, targetVolatility)
		if err != nil {
			return nil, PerformanceMetrics{}, err
		}
	}

	cleaned := cleanWeights(raw, cap)

	weights := make(WeightVector, n)
	for i, ticker := range sigma.Tickers {
		weights[ticker] = cleaned[i]
	}

	metrics := s.metrics(muVec, sigma.Data, cleaned)
	if math.IsNaN(metrics.Volatility) || math.IsNaN(metrics.ExpectedReturn) {
		return nil, PerformanceMetrics{}, fmt.Errorf("%w: optimization produced non-finite metrics", ErrNumerical)
	}
	return weights, metrics, nil
}

// solveMaxSharpe searches the one-parameter frontier family
// w(λ) = argmin wᵀΣw - λ·(μ-rf)ᵀw for the λ maximizing the Sharpe ratio.
// Sharpe is unimodal along the efficient frontier, so a ternary search
// converges; the search stops when the improvement falls below tolerance
// or the iteration cap is hit.
func (s *Solver) solveMaxSharpe(mu []float64, sigma [][]float64, cap float64) []float64 {
	excess := make([]float64, len(mu))
	for i, m := range mu {
		excess[i] = m - s.riskFreeRate
	}

	sharpeAt := func(lambda float64) ([]float64, float64) {
		w := solveQP(sigma, excess, lambda, cap)
		return w, s.sharpe(mu, sigma, w)
	}

	// Bracket: grow λ until Sharpe stops improving at the upper end
	lo, hi := 0.0, 1.0
	_, prevSharpe := sharpeAt(hi)
	for i := 0; i < 40; i++ {
		_, next := sharpeAt(hi * 2)
		if next <= prevSharpe+sharpeTolerance {
			break
		}
		prevSharpe = next
		hi *= 2
	}
	hi *= 2

	bestW, bestSharpe := sharpeAt(0)
	for iter := 0; iter < s.maxIterations; iter++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		w1, s1 := sharpeAt(m1)
		w2, s2 := sharpeAt(m2)

		if s1 > bestSharpe {
			bestW, bestSharpe = w1, s1
		}
		if s2 > bestSharpe {
			bestW, bestSharpe = w2, s2
		}

		if s1 < s2 {
			lo = m1
		} else {
			hi = m2
		}
		if hi-lo < 1e-10 || math.Abs(s1-s2) < sharpeTolerance {
			break
		}
	}
	return bestW
}

// solveEfficientRisk maximizes expected return subject to volatility <= target.
// Volatility is non-decreasing along the frontier parameter λ, so the largest
// feasible λ is found by bisection; the constraint is approached from below.
func (s *Solver) solveEfficientRisk(mu []float64, sigma [][]float64, cap float64, target float64) ([]float64, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: target volatility must be positive, got %v", ErrInfeasibleTarget, target)
	}

	minVolW := solveQP(sigma, nil, 0, cap)
	minVol := math.Sqrt(portfolioVariance(sigma, minVolW))
	if target < minVol-1e-9 {
		return nil, fmt.Errorf("%w: target %.6f < minimum attainable %.6f", ErrInfeasibleTarget, target, minVol)
	}

	volAt := func(lambda float64) ([]float64, float64) {
		w := solveQP(sigma, mu, lambda, cap)
		return w, math.Sqrt(portfolioVariance(sigma, w))
	}

	// If even the return-maximizing end of the frontier sits inside the
	// budget, take it outright.
	hi := 1.0
	wHi, vHi := volAt(hi)
	for i := 0; i < 40 && vHi <= target; i++ {
		hi *= 2
		wHi, vHi = volAt(hi)
	}
	if vHi <= target {
		return wHi, nil
	}

	lo := 0.0
	best := minVolW
	for iter := 0; iter < 100; iter++ {
		mid := (lo + hi) / 2
		w, v := volAt(mid)
		if v <= target {
			best = w
			lo = mid
		} else {
			hi = mid
		}
	}
	return best, nil
}

func (s *Solver) metrics(mu []float64, sigma [][]float64, w []float64) PerformanceMetrics {
	ret := dot(mu, w)
	vol := math.Sqrt(portfolioVariance(sigma, w))
	var sharpe float64
	if vol > 0 {
		sharpe = (ret - s.riskFreeRate) / vol
	}
	return PerformanceMetrics{
		ExpectedReturn: ret,
		Volatility:     vol,
		SharpeRatio:    sharpe,
	}
}

func (s *Solver) sharpe(mu []float64, sigma [][]float64, w []float64) float64 {
	vol := math.Sqrt(portfolioVariance(sigma, w))
	if vol == 0 {
		return 0
	}
	return (dot(mu, w) - s.riskFreeRate) / vol
}

// cleanWeights snaps negligible weights to zero and renormalizes to sum 1.
// If renormalization pushes any weight past the cap, the result is projected
// back onto the feasible set.
func cleanWeights(w []float64, cap float64) []float64 {
	out := make([]float64, len(w))
	var sum float64
	for i, v := range w {
		if v < cleanThreshold {
			v = 0
		}
		out[i] = v
		sum += v
	}
	if sum == 0 {
		// Everything snapped away; fall back to the unclipped weights
		copy(out, w)
		sum = 0
		for _, v := range out {
			sum += v
		}
	}
	exceeded := false
	for i := range out {
		out[i] /= sum
		if out[i] > cap+1e-9 {
			exceeded = true
		}
	}
	if exceeded {
		out = projectCappedSimplex(out, cap)
	}
	return out
}
