package engine

import (
	"context"
	"sync"
)

// =============================================================================
// Engine Facade
// =============================================================================

// Engine wires the estimators, solver, sampler and risk analyzer into one
// entry point. The two estimation passes over the price matrix are
// independent, so they run concurrently.
type Engine struct {
	params   Params
	returns  *ReturnsEstimator
	cov      *CovarianceEstimator
	solver   *Solver
	sampler  *Sampler
	analyzer *RiskAnalyzer
}

// New creates an engine with the given numeric conventions
func New(params Params) *Engine {
	return &Engine{
		params:   params,
		returns:  NewReturnsEstimator(params),
		cov:      NewCovarianceEstimator(params),
		solver:   NewSolver(params),
		sampler:  NewSampler(),
		analyzer: NewRiskAnalyzer(),
	}
}

// Params returns the engine's numeric conventions
func (e *Engine) Params() Params {
	return e.params
}

// OptimizeRequest describes one full portfolio analysis
type OptimizeRequest struct {
	Prices           *PriceMatrix
	Objective        Objective
	Constraints      Constraints
	TargetVolatility float64 // efficient_risk only
	Capital          float64
	ConfidenceLevels []float64 // defaults to 95% and 99%
	SampleCount      int       // 0 -> engine default; negative -> skip sampling
	Seed             int64
}

// OptimizeResult is the full analysis output
type OptimizeResult struct {
	Weights            WeightVector         `json:"weights"`
	Performance        PerformanceMetrics   `json:"performance"`
	Allocations        map[string]float64   `json:"allocations"`
	Risk               *RiskReport          `json:"risk"`
	Samples            []SimulatedPortfolio `json:"samples,omitempty"`
	ExpectedReturns    ReturnVector         `json:"expected_returns"`
	ShrinkageIntensity float64              `json:"shrinkage_intensity"`
}

// Optimize runs the full pipeline: estimate μ and Σ concurrently, solve for
// the objective, sample the frontier, analyze risk, and allocate capital.
func (e *Engine) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	if err := req.Prices.Validate(); err != nil {
		return nil, err
	}

	var (
		wg     sync.WaitGroup
		mu     ReturnVector
		sigma  *CovarianceMatrix
		muErr  error
		covErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		mu, muErr = e.returns.Estimate(req.Prices)
	}()
	go func() {
		defer wg.Done()
		sigma, covErr = e.cov.Estimate(req.Prices)
	}()
	wg.Wait()

	if muErr != nil {
		return nil, muErr
	}
	if covErr != nil {
		return nil, covErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	weights, perf, err := e.solver.Optimize(mu, sigma, req.Objective, req.Constraints, req.TargetVolatility)
	if err != nil {
		return nil, err
	}

	result := &OptimizeResult{
		Weights:            weights,
		Performance:        perf,
		ExpectedReturns:    mu,
		ShrinkageIntensity: sigma.ShrinkageIntensity,
	}

	if req.Capital > 0 {
		allocations, err := Allocate(weights, req.Capital)
		if err != nil {
			return nil, err
		}
		result.Allocations = allocations

		levels := req.ConfidenceLevels
		if len(levels) == 0 {
			levels = []float64{0.95, 0.99}
		}
		risk, err := e.analyzer.Analyze(weights, req.Prices, req.Capital, levels)
		if err != nil {
			return nil, err
		}
		result.Risk = risk
	}

	if req.SampleCount >= 0 {
		count := req.SampleCount
		if count == 0 {
			count = e.params.SampleCount
		}
		samples, err := e.sampler.Simulate(mu, sigma, count, req.Constraints, req.Seed)
		if err != nil {
			return nil, err
		}
		result.Samples = samples
	}

	return result, nil
}

// Frontier estimates μ and Σ and returns only the Monte Carlo scatter plus
// the two anchor portfolios (minimum volatility and maximum Sharpe).
func (e *Engine) Frontier(ctx context.Context, prices *PriceMatrix, constraints Constraints,
	sampleCount int, seed int64) (*FrontierResult, error) {

	if err := prices.Validate(); err != nil {
		return nil, err
	}

	mu, err := e.returns.Estimate(prices)
	if err != nil {
		return nil, err
	}
	sigma, err := e.cov.Estimate(prices)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if sampleCount <= 0 {
		sampleCount = e.params.SampleCount
	}
	samples, err := e.sampler.Simulate(mu, sigma, sampleCount, constraints, seed)
	if err != nil {
		return nil, err
	}

	_, minVol, err := e.solver.Optimize(mu, sigma, ObjectiveMinVolatility, constraints, 0)
	if err != nil {
		return nil, err
	}
	_, maxSharpe, err := e.solver.Optimize(mu, sigma, ObjectiveMaxSharpe, constraints, 0)
	if err != nil {
		return nil, err
	}

	return &FrontierResult{
		Samples:       samples,
		MinVolatility: minVol,
		MaxSharpe:     maxSharpe,
	}, nil
}

// FrontierResult is the Monte Carlo scatter plus the frontier anchors
type FrontierResult struct {
	Samples       []SimulatedPortfolio `json:"samples"`
	MinVolatility PerformanceMetrics   `json:"min_volatility"`
	MaxSharpe     PerformanceMetrics   `json:"max_sharpe"`
}
