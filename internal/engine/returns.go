package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// =============================================================================
// Expected Returns (CAPM)
// =============================================================================

// ReturnsEstimator produces annualized expected returns via the Capital
// Asset Pricing Model: E[R_i] = rf + β_i * (E[R_m] - rf), with β_i the
// regression slope of asset excess returns on market excess returns.
type ReturnsEstimator struct {
	riskFreeRate   float64
	periodsPerYear int
}

// NewReturnsEstimator creates a CAPM estimator with the given conventions
func NewReturnsEstimator(params Params) *ReturnsEstimator {
	return &ReturnsEstimator{
		riskFreeRate:   params.RiskFreeRate,
		periodsPerYear: params.PeriodsPerYear,
	}
}

// Estimate computes CAPM expected returns against the implicit market proxy:
// the equal-weighted average of the asset return series.
func (e *ReturnsEstimator) Estimate(prices *PriceMatrix) (ReturnVector, error) {
	returns := prices.Returns()

	n := prices.NumObservations()
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 return observations, got %d", ErrEstimation, n)
	}

	// Equal-weighted market proxy
	market := make([]float64, n)
	for _, ticker := range prices.Tickers {
		series := returns[ticker]
		for t := 0; t < n; t++ {
			market[t] += series[t]
		}
	}
	for t := range market {
		market[t] /= float64(len(prices.Tickers))
	}

	return e.estimate(prices.Tickers, returns, market)
}

// EstimateWithMarket computes CAPM expected returns against an explicit
// benchmark price series, aligned to the same dates as the asset prices.
func (e *ReturnsEstimator) EstimateWithMarket(prices *PriceMatrix, marketPrices []float64) (ReturnVector, error) {
	if len(marketPrices) != len(prices.Dates) {
		return nil, fmt.Errorf("%w: benchmark has %d prices, expected %d",
			ErrEstimation, len(marketPrices), len(prices.Dates))
	}

	market := make([]float64, 0, len(marketPrices)-1)
	for i := 1; i < len(marketPrices); i++ {
		if marketPrices[i-1] <= 0 {
			return nil, fmt.Errorf("%w: benchmark has non-positive price at index %d", ErrEstimation, i-1)
		}
		market = append(market, (marketPrices[i]-marketPrices[i-1])/marketPrices[i-1])
	}

	n := prices.NumObservations()
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 return observations, got %d", ErrEstimation, n)
	}

	return e.estimate(prices.Tickers, prices.Returns(), market)
}

func (e *ReturnsEstimator) estimate(tickers []string, returns map[string][]float64, market []float64) (ReturnVector, error) {
	rfPeriodic := e.riskFreeRate / float64(e.periodsPerYear)

	// Market excess returns
	mktExcess := make([]float64, len(market))
	for t, r := range market {
		mktExcess[t] = r - rfPeriodic
	}

	mktVar := stat.Variance(mktExcess, nil)
	if mktVar < 1e-18 || math.IsNaN(mktVar) {
		return nil, fmt.Errorf("%w: market proxy has zero variance, betas are undefined", ErrEstimation)
	}

	// Annualized market return (arithmetic scaling of the periodic mean)
	mktAnnual := stat.Mean(market, nil) * float64(e.periodsPerYear)
	mktPremium := mktAnnual - e.riskFreeRate

	mu := make(ReturnVector, len(tickers))
	for _, ticker := range tickers {
		series := returns[ticker]
		excess := make([]float64, len(series))
		for t, r := range series {
			excess[t] = r - rfPeriodic
		}

		beta := stat.Covariance(excess, mktExcess, nil) / mktVar
		if math.IsNaN(beta) || math.IsInf(beta, 0) {
			return nil, fmt.Errorf("%w: beta for %s is not finite", ErrEstimation, ticker)
		}

		mu[ticker] = e.riskFreeRate + beta*mktPremium
	}

	return mu, nil
}
