package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// =============================================================================
// Covariance Estimation (Ledoit-Wolf Shrinkage)
// =============================================================================

// CovarianceEstimator produces an annualized covariance matrix shrunk toward
// the constant-correlation target, with the Ledoit-Wolf optimal intensity.
// Shrinkage keeps the matrix well-conditioned even when the number of assets
// approaches (or exceeds) the number of observations.
type CovarianceEstimator struct {
	periodsPerYear int
}

// NewCovarianceEstimator creates a shrinkage estimator with the given
// annualization convention.
func NewCovarianceEstimator(params Params) *CovarianceEstimator {
	return &CovarianceEstimator{periodsPerYear: params.PeriodsPerYear}
}

// Estimate computes the shrunk, annualized covariance matrix Σ.
//
// Target F: constant-correlation matrix built from the average pairwise
// sample correlation; diagonals keep the sample variances. The shrinkage
// intensity δ follows Ledoit-Wolf (2004), clamped to [0, 1]:
//
//	Σ = δ·F + (1-δ)·S
func (e *CovarianceEstimator) Estimate(prices *PriceMatrix) (*CovarianceMatrix, error) {
	returns := prices.Returns()
	n := len(prices.Tickers)
	tt := prices.NumObservations()
	if tt < 2 {
		return nil, fmt.Errorf("%w: need at least 2 return observations, got %d", ErrNumerical, tt)
	}

	// Demeaned return matrix X (T × N)
	x := make([][]float64, tt)
	for t := range x {
		x[t] = make([]float64, n)
	}
	for j, ticker := range prices.Tickers {
		series := returns[ticker]
		var mean float64
		for _, r := range series {
			mean += r
		}
		mean /= float64(tt)
		for t, r := range series {
			x[t][j] = r - mean
		}
	}

	// Sample covariance S (periodic, 1/(T-1))
	s := make([][]float64, n)
	for i := range s {
		s[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var sum float64
			for t := 0; t < tt; t++ {
				sum += x[t][i] * x[t][j]
			}
			c := sum / float64(tt-1)
			s[i][j] = c
			s[j][i] = c
		}
	}

	for i := 0; i < n; i++ {
		if s[i][i] <= 0 {
			return nil, fmt.Errorf("%w: asset %s has zero variance", ErrNumerical, prices.Tickers[i])
		}
	}

	// Average sample correlation
	var rbar float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			rbar += s[i][j] / math.Sqrt(s[i][i]*s[j][j])
		}
	}
	rbar /= float64(n*(n-1)) / 2

	// Constant-correlation target F
	f := make([][]float64, n)
	for i := range f {
		f[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				f[i][j] = s[i][i]
			} else {
				f[i][j] = rbar * math.Sqrt(s[i][i]*s[j][j])
			}
		}
	}

	delta := ledoitWolfIntensity(x, s, rbar)

	// Σ = δF + (1-δ)S, annualized
	scale := float64(e.periodsPerYear)
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			data[i][j] = (delta*f[i][j] + (1-delta)*s[i][j]) * scale
		}
	}

	cm := &CovarianceMatrix{
		Tickers:            append([]string(nil), prices.Tickers...),
		Data:               data,
		ShrinkageIntensity: delta,
	}

	if err := checkPSD(cm); err != nil {
		return nil, err
	}
	return cm, nil
}

// ledoitWolfIntensity computes the optimal shrinkage δ ∈ [0, 1] for the
// constant-correlation target (Ledoit-Wolf, "Honey, I Shrunk the Sample
// Covariance Matrix"). x is the demeaned T × N return matrix.
func ledoitWolfIntensity(x [][]float64, s [][]float64, rbar float64) float64 {
	tt := len(x)
	n := len(s)
	tf := float64(tt)

	// π̂: variance of the sample covariance entries
	var piHat float64
	piDiag := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for t := 0; t < tt; t++ {
				d := x[t][i]*x[t][j] - s[i][j]
				sum += d * d
			}
			v := sum / tf
			piHat += v
			if i == j {
				piDiag[i] = v
			}
		}
	}

	// ρ̂: covariance between the sample entries and the target entries
	rhoHat := 0.0
	for i := 0; i < n; i++ {
		rhoHat += piDiag[i]
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			var thetaII, thetaJJ float64
			for t := 0; t < tt; t++ {
				pij := x[t][i]*x[t][j] - s[i][j]
				thetaII += (x[t][i]*x[t][i] - s[i][i]) * pij
				thetaJJ += (x[t][j]*x[t][j] - s[j][j]) * pij
			}
			thetaII /= tf
			thetaJJ /= tf
			rhoHat += rbar / 2 * (math.Sqrt(s[j][j]/s[i][i])*thetaII + math.Sqrt(s[i][i]/s[j][j])*thetaJJ)
		}
	}

	// γ̂: squared Frobenius distance between target and sample
	var gammaHat float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var fij float64
			if i == j {
				fij = s[i][i]
			} else {
				fij = rbar * math.Sqrt(s[i][i]*s[j][j])
			}
			d := fij - s[i][j]
			gammaHat += d * d
		}
	}

	if gammaHat < 1e-20 {
		// Sample already coincides with the target
		return 0
	}

	kappa := (piHat - rhoHat) / gammaHat
	delta := kappa / tf
	if delta < 0 {
		return 0
	}
	if delta > 1 {
		return 1
	}
	return delta
}

// checkPSD verifies the matrix is symmetric positive semi-definite within
// numerical tolerance, via eigendecomposition.
func checkPSD(cm *CovarianceMatrix) error {
	n := cm.Dim()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (cm.Data[i][j]+cm.Data[j][i])/2)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return fmt.Errorf("%w: eigendecomposition of covariance matrix failed", ErrNumerical)
	}

	vals := eig.Values(nil)
	var maxEig float64
	for _, v := range vals {
		if v > maxEig {
			maxEig = v
		}
	}
	tol := 1e-8 * math.Max(1, maxEig)
	for _, v := range vals {
		if v < -tol {
			return fmt.Errorf("%w: covariance matrix is not positive semi-definite (eigenvalue %g)", ErrNumerical, v)
		}
	}
	return nil
}
