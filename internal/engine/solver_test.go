package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var solverSigma = makeCovariance([]string{"AAA", "BBB", "CCC"}, [][]float64{
	{0.040, 0.010, 0.004},
	{0.010, 0.090, 0.012},
	{0.004, 0.012, 0.025},
})

var solverMu = ReturnVector{"AAA": 0.08, "BBB": 0.15, "CCC": 0.06}

func noRiskFreeParams() Params {
	return Params{RiskFreeRate: 0, PeriodsPerYear: 252, SampleCount: 2000, MaxIterations: 1000}
}

func TestSolver_MinVolatilityTwoAssetClosedForm(t *testing.T) {
	sigma := makeCovariance([]string{"AAA", "BBB"}, [][]float64{
		{0.04, 0.01},
		{0.01, 0.09},
	})
	mu := ReturnVector{"AAA": 0.10, "BBB": 0.15}

	w, perf, err := NewSolver(DefaultParams()).Optimize(mu, sigma, ObjectiveMinVolatility, DefaultConstraints(), 0)
	require.NoError(t, err)

	assert.InDelta(t, 0.08/0.11, w["AAA"], 1e-3)
	assert.InDelta(t, 0.03/0.11, w["BBB"], 1e-3)
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	assert.Greater(t, perf.Volatility, 0.0)
}

func TestSolver_WeightInvariants(t *testing.T) {
	for _, objective := range []Objective{ObjectiveMinVolatility, ObjectiveMaxSharpe} {
		t.Run(string(objective), func(t *testing.T) {
			constraints := Constraints{MaxWeight: 0.6}
			w, _, err := NewSolver(DefaultParams()).Optimize(solverMu, solverSigma, objective, constraints, 0)
			require.NoError(t, err)

			assert.InDelta(t, 1.0, w.Sum(), 1e-9)
			for ticker, v := range w {
				assert.GreaterOrEqual(t, v, 0.0, ticker)
				assert.LessOrEqual(t, v, 0.6+1e-6, ticker)
			}
		})
	}
}

func TestSolver_MinVolatilityDominatesSamples(t *testing.T) {
	params := noRiskFreeParams()
	solver := NewSolver(params)

	_, perf, err := solver.Optimize(solverMu, solverSigma, ObjectiveMinVolatility, DefaultConstraints(), 0)
	require.NoError(t, err)

	samples, err := NewSampler().Simulate(solverMu, solverSigma, 2000, DefaultConstraints(), 42)
	require.NoError(t, err)

	for _, s := range samples {
		assert.LessOrEqual(t, perf.Volatility, s.Volatility+1e-6)
	}
}

func TestSolver_MaxSharpeDominatesSamples(t *testing.T) {
	// With a zero risk-free rate the solver and the sampler use the same
	// Sharpe definition, so the optimum must dominate the scatter.
	params := noRiskFreeParams()
	solver := NewSolver(params)

	_, perf, err := solver.Optimize(solverMu, solverSigma, ObjectiveMaxSharpe, DefaultConstraints(), 0)
	require.NoError(t, err)

	samples, err := NewSampler().Simulate(solverMu, solverSigma, 2000, DefaultConstraints(), 42)
	require.NoError(t, err)

	for _, s := range samples {
		assert.GreaterOrEqual(t, perf.SharpeRatio, s.Sharpe-1e-6)
	}
}

func TestSolver_EfficientRisk(t *testing.T) {
	solver := NewSolver(DefaultParams())

	_, minVol, err := solver.Optimize(solverMu, solverSigma, ObjectiveMinVolatility, DefaultConstraints(), 0)
	require.NoError(t, err)

	t.Run("target below floor is infeasible", func(t *testing.T) {
		target := minVol.Volatility * 0.5
		_, _, err := solver.Optimize(solverMu, solverSigma, ObjectiveEfficientRisk, DefaultConstraints(), target)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInfeasibleConstraint))
		assert.True(t, errors.Is(err, ErrInfeasibleTarget))
	})

	t.Run("feasible target is met from below", func(t *testing.T) {
		target := minVol.Volatility * 1.3
		w, perf, err := solver.Optimize(solverMu, solverSigma, ObjectiveEfficientRisk, DefaultConstraints(), target)
		require.NoError(t, err)

		assert.LessOrEqual(t, perf.Volatility, target+1e-4)
		assert.InDelta(t, 1.0, w.Sum(), 1e-9)

		// Taking more risk than the minimum must buy more return
		assert.GreaterOrEqual(t, perf.ExpectedReturn, minVol.ExpectedReturn-1e-9)
	})

	t.Run("zero target is infeasible", func(t *testing.T) {
		_, _, err := solver.Optimize(solverMu, solverSigma, ObjectiveEfficientRisk, DefaultConstraints(), 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInfeasibleTarget))
	})
}

func TestSolver_InfeasibleCap(t *testing.T) {
	_, _, err := NewSolver(DefaultParams()).Optimize(solverMu, solverSigma, ObjectiveMinVolatility,
		Constraints{MaxWeight: 0.2}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasibleConstraint))
}

func TestSolver_UnknownObjective(t *testing.T) {
	_, _, err := NewSolver(DefaultParams()).Optimize(solverMu, solverSigma, Objective("max_return"),
		DefaultConstraints(), 0)
	assert.Error(t, err)
}

func TestSolver_MissingExpectedReturn(t *testing.T) {
	mu := ReturnVector{"AAA": 0.08, "BBB": 0.15, "XXX": 0.10}
	_, _, err := NewSolver(DefaultParams()).Optimize(mu, solverSigma, ObjectiveMinVolatility,
		DefaultConstraints(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNumerical))
}

func TestCleanWeights(t *testing.T) {
	t.Run("snaps dust and renormalizes", func(t *testing.T) {
		w := cleanWeights([]float64{0.99995, 0.00004, 0.00001}, 1.0)
		assert.Equal(t, 0.0, w[1])
		assert.Equal(t, 0.0, w[2])
		assert.InDelta(t, 1.0, w[0], 1e-9)
	})

	t.Run("respects cap after renormalization", func(t *testing.T) {
		w := cleanWeights([]float64{0.5, 0.49995, 0.00005}, 0.5)
		var sum float64
		for _, v := range w {
			assert.LessOrEqual(t, v, 0.5+1e-9)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	})
}
