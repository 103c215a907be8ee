package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// Core Types
// =============================================================================

// PriceMatrix is a rectangular matrix of historical prices: ordered dates ×
// tickers, no missing cells. All engine computations start from this.
// ⭐ SSOT: 가격 데이터의 엔진 내부 표현은 이 타입뿐
type PriceMatrix struct {
	Dates   []time.Time          `json:"dates"`
	Tickers []string             `json:"tickers"`
	Prices  map[string][]float64 `json:"prices"` // ticker -> series aligned to Dates
}

// Validate checks the PriceMatrix invariants:
// strictly increasing dates, >= 2 tickers, all values > 0, rectangular shape.
func (pm *PriceMatrix) Validate() error {
	if len(pm.Tickers) < 2 {
		return fmt.Errorf("price matrix needs at least 2 tickers, got %d", len(pm.Tickers))
	}
	if len(pm.Dates) < 2 {
		return fmt.Errorf("price matrix needs at least 2 dates, got %d", len(pm.Dates))
	}

	for i := 1; i < len(pm.Dates); i++ {
		if !pm.Dates[i].After(pm.Dates[i-1]) {
			return fmt.Errorf("dates must be strictly increasing (index %d)", i)
		}
	}

	for _, ticker := range pm.Tickers {
		series, ok := pm.Prices[ticker]
		if !ok {
			return fmt.Errorf("missing price series for ticker %s", ticker)
		}
		if len(series) != len(pm.Dates) {
			return fmt.Errorf("ticker %s has %d prices, expected %d", ticker, len(series), len(pm.Dates))
		}
		for j, p := range series {
			if p <= 0 {
				return fmt.Errorf("ticker %s has non-positive price %v at index %d", ticker, p, j)
			}
		}
	}

	return nil
}

// NumAssets returns the number of tickers
func (pm *PriceMatrix) NumAssets() int {
	return len(pm.Tickers)
}

// NumObservations returns the number of return observations (dates - 1)
func (pm *PriceMatrix) NumObservations() int {
	if len(pm.Dates) == 0 {
		return 0
	}
	return len(pm.Dates) - 1
}

// Returns computes the simple period-over-period return series per ticker:
// r_t = (P_t - P_{t-1}) / P_{t-1}
func (pm *PriceMatrix) Returns() map[string][]float64 {
	out := make(map[string][]float64, len(pm.Tickers))
	for _, ticker := range pm.Tickers {
		series := pm.Prices[ticker]
		ret := make([]float64, 0, len(series)-1)
		for i := 1; i < len(series); i++ {
			ret = append(ret, (series[i]-series[i-1])/series[i-1])
		}
		out[ticker] = ret
	}
	return out
}

// ReturnVector maps ticker -> expected annualized return (μ)
type ReturnVector map[string]float64

// WeightVector maps ticker -> portfolio weight (w)
// Invariant: Σw = 1 (± tolerance), 0 <= w <= maxWeight per ticker
type WeightVector map[string]float64

// Sum returns the total weight
func (w WeightVector) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// CovarianceMatrix is a square, ticker-indexed, symmetric matrix (Σ),
// annualized and shrunk toward a structured target.
type CovarianceMatrix struct {
	Tickers []string    `json:"tickers"`
	Data    [][]float64 `json:"data"`

	// ShrinkageIntensity is the Ledoit-Wolf δ actually applied, in [0,1]
	ShrinkageIntensity float64 `json:"shrinkage_intensity"`
}

// At returns Σ_ij
func (cm *CovarianceMatrix) At(i, j int) float64 {
	return cm.Data[i][j]
}

// Dim returns the matrix dimension
func (cm *CovarianceMatrix) Dim() int {
	return len(cm.Tickers)
}

// PerformanceMetrics holds analytic portfolio performance figures
type PerformanceMetrics struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
}

// SimulatedPortfolio is one random feasible portfolio's (return, vol, sharpe)
type SimulatedPortfolio struct {
	Return     float64 `json:"return"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`
}

// VaRResult holds Value-at-Risk figures at one confidence level
// ⭐ SSOT: VaR/CVaR는 손실을 양수로 표현 (loss_positive convention)
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	Loss       float64 `json:"loss"`     // dollar loss magnitude at the confidence level
	LossPct    float64 `json:"loss_pct"` // same, as a fraction of capital
	CVaR       float64 `json:"cvar"`     // expected shortfall beyond VaR, dollars
}

// RiskReport holds empirical tail-risk and drawdown statistics for a
// fixed-weight, buy-and-hold portfolio over the historical window.
type RiskReport struct {
	Capital          float64     `json:"capital"`
	VaR              []VaRResult `json:"var"`
	MaxDrawdown      float64     `json:"max_drawdown"`      // magnitude in [0, 1]
	DrawdownDuration int         `json:"drawdown_duration"` // trading days, preceding peak -> trough
}

// Objective selects the optimization target
type Objective string

const (
	ObjectiveMaxSharpe     Objective = "max_sharpe"
	ObjectiveMinVolatility Objective = "min_volatility"
	ObjectiveEfficientRisk Objective = "efficient_risk"
)

// Valid reports whether the objective is one of the supported values
func (o Objective) Valid() bool {
	switch o {
	case ObjectiveMaxSharpe, ObjectiveMinVolatility, ObjectiveEfficientRisk:
		return true
	}
	return false
}

// Constraints defines the feasible set for the solver and the sampler
// ⭐ SSOT: 전체 엔진이 동일한 제약조건 정의를 사용
type Constraints struct {
	MaxWeight float64 // per-asset weight cap (0.0 ~ 1.0]
}

// DefaultConstraints returns the unconstrained long-only configuration
func DefaultConstraints() Constraints {
	return Constraints{MaxWeight: 1.0}
}

// Params holds engine-wide numeric conventions
type Params struct {
	RiskFreeRate   float64 // annualized
	PeriodsPerYear int     // trading days per year
	SampleCount    int     // default Monte Carlo frontier samples
	MaxIterations  int     // outer iteration cap for the Sharpe search
}

// DefaultParams returns the conventional configuration (2% risk-free,
// 252 trading days, 5000 samples).
func DefaultParams() Params {
	return Params{
		RiskFreeRate:   0.02,
		PeriodsPerYear: 252,
		SampleCount:    5000,
		MaxIterations:  1000,
	}
}
