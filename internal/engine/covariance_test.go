package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCovarianceEstimator_ShrunkMatrixProperties(t *testing.T) {
	pm := makeTestMatrix([]string{"AAA", "BBB", "CCC", "DDD"}, 120, 7)

	cm, err := NewCovarianceEstimator(DefaultParams()).Estimate(pm)
	require.NoError(t, err)

	n := cm.Dim()
	require.Equal(t, 4, n)

	// Symmetry and positive diagonal
	for i := 0; i < n; i++ {
		assert.Greater(t, cm.At(i, i), 0.0)
		for j := 0; j < n; j++ {
			assert.InDelta(t, cm.At(i, j), cm.At(j, i), 1e-12)
		}
	}

	// Shrinkage intensity is a valid convex-combination coefficient
	assert.GreaterOrEqual(t, cm.ShrinkageIntensity, 0.0)
	assert.LessOrEqual(t, cm.ShrinkageIntensity, 1.0)

	// Positive semi-definite: all eigenvalues >= -tol
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, cm.At(i, j))
		}
	}
	var eig mat.EigenSym
	require.True(t, eig.Factorize(sym, false))
	for _, v := range eig.Values(nil) {
		assert.GreaterOrEqual(t, v, -1e-10)
	}
}

func TestCovarianceEstimator_AnnualizationScale(t *testing.T) {
	pm := makeTestMatrix([]string{"AAA", "BBB"}, 100, 11)

	daily := Params{RiskFreeRate: 0.02, PeriodsPerYear: 1, SampleCount: 100, MaxIterations: 100}
	annual := Params{RiskFreeRate: 0.02, PeriodsPerYear: 252, SampleCount: 100, MaxIterations: 100}

	cmDaily, err := NewCovarianceEstimator(daily).Estimate(pm)
	require.NoError(t, err)
	cmAnnual, err := NewCovarianceEstimator(annual).Estimate(pm)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, cmDaily.At(i, j)*252, cmAnnual.At(i, j), 1e-12)
		}
	}
}

func TestCovarianceEstimator_ZeroVarianceAsset(t *testing.T) {
	pm := makeTestMatrix([]string{"AAA", "BBB"}, 30, 13)
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 42
	}
	pm.Prices["BBB"] = flat

	_, err := NewCovarianceEstimator(DefaultParams()).Estimate(pm)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNumerical))
}

func TestCovarianceEstimator_TooFewObservations(t *testing.T) {
	pm := makeTestMatrix([]string{"AAA", "BBB"}, 2, 17)
	_, err := NewCovarianceEstimator(DefaultParams()).Estimate(pm)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNumerical))
}
