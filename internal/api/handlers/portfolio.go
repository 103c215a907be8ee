package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/cockpit/internal/engine"
	"github.com/wonny/cockpit/internal/marketdata"
	"github.com/wonny/cockpit/pkg/logger"
)

// defaultLookbackYears is the history window when the request omits dates
const defaultLookbackYears = 3

// PortfolioHandler handles portfolio optimization endpoints
// ⭐ SSOT: 포트폴리오 API 핸들러는 이 구조체에서만
type PortfolioHandler struct {
	market *marketdata.Service
	engine *engine.Engine
	logger *logger.Logger
}

// NewPortfolioHandler creates a portfolio handler
func NewPortfolioHandler(market *marketdata.Service, eng *engine.Engine, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{market: market, engine: eng, logger: log}
}

// OptimizeRequest represents a portfolio optimization request
type OptimizeRequest struct {
	Tickers          []string  `json:"tickers"`
	Amount           float64   `json:"amount"`
	Objective        string    `json:"objective"`         // default max_sharpe
	MaxWeight        float64   `json:"max_weight"`        // default 1.0
	TargetVolatility float64   `json:"target_volatility"` // efficient_risk only
	StartDate        string    `json:"start_date"`        // YYYY-MM-DD, optional
	EndDate          string    `json:"end_date"`          // YYYY-MM-DD, optional
	ConfidenceLevels []float64 `json:"confidence_levels"` // default [0.95, 0.99]
	IncludeSamples   bool      `json:"include_samples"`
	SampleCount      int       `json:"sample_count"`
	Seed             int64     `json:"seed"`
	Benchmark        string    `json:"benchmark"` // optional comparison ticker
}

// OptimizeResponse wraps the engine output with request echo fields
type OptimizeResponse struct {
	*engine.OptimizeResult
	Objective   string                       `json:"objective"`
	Tickers     []string                     `json:"tickers"`
	StartDate   string                       `json:"start_date"`
	EndDate     string                       `json:"end_date"`
	Benchmark   *engine.BenchmarkPerformance `json:"benchmark,omitempty"`
	ElapsedMs   int64                        `json:"elapsed_ms"`
	Observation int                          `json:"observations"`
}

// Optimize runs the full analysis pipeline for a portfolio
// POST /api/portfolio/optimize
func (h *PortfolioHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	objective, constraints, rng, err := h.validateOptimize(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	prices, err := h.market.GetPriceMatrix(ctx, req.Tickers, rng)
	if err != nil {
		h.logger.WithError(err).Error("Failed to assemble price matrix")
		respondError(w, http.StatusBadGateway, fmt.Sprintf("Failed to load price data: %v", err))
		return
	}

	sampleCount := -1 // skip the scatter unless asked for
	if req.IncludeSamples {
		sampleCount = req.SampleCount
	}

	result, err := h.engine.Optimize(ctx, engine.OptimizeRequest{
		Prices:           prices,
		Objective:        objective,
		Constraints:      constraints,
		TargetVolatility: req.TargetVolatility,
		Capital:          req.Amount,
		ConfidenceLevels: req.ConfidenceLevels,
		SampleCount:      sampleCount,
		Seed:             req.Seed,
	})
	if err != nil {
		h.logger.WithError(err).Warn("Optimization failed")
		respondError(w, statusForEngineError(err), err.Error())
		return
	}

	resp := &OptimizeResponse{
		OptimizeResult: result,
		Objective:      string(objective),
		Tickers:        prices.Tickers,
		StartDate:      rng.From.Format("2006-01-02"),
		EndDate:        rng.To.Format("2006-01-02"),
		ElapsedMs:      time.Since(start).Milliseconds(),
		Observation:    prices.NumObservations(),
	}

	if req.Benchmark != "" {
		if bench := h.compareBenchmark(r, req.Benchmark, rng, result.Performance.ExpectedReturn); bench != nil {
			resp.Benchmark = bench
		}
	}

	h.logger.WithFields(map[string]interface{}{
		"objective": objective,
		"tickers":   len(prices.Tickers),
		"duration":  time.Since(start),
	}).Info("Portfolio optimized")

	respondJSON(w, http.StatusOK, resp)
}

// compareBenchmark fetches the benchmark series and compares performance.
// Benchmark failures degrade to a missing section rather than failing the
// whole analysis.
func (h *PortfolioHandler) compareBenchmark(r *http.Request, ticker string, rng marketdata.DateRange, portfolioReturn float64) *engine.BenchmarkPerformance {
	candles, err := h.market.GetHistory(r.Context(), ticker, rng)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Warn("Benchmark fetch failed")
		return nil
	}

	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}

	perf, err := engine.CompareBenchmark(prices, portfolioReturn, h.engine.Params().PeriodsPerYear)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Warn("Benchmark comparison failed")
		return nil
	}
	return perf
}

// FrontierRequest represents an efficient frontier visualization request
type FrontierRequest struct {
	Tickers     []string `json:"tickers"`
	MaxWeight   float64  `json:"max_weight"`
	SampleCount int      `json:"sample_count"`
	Seed        int64    `json:"seed"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
}

// Frontier returns the Monte Carlo scatter and the frontier anchors
// POST /api/portfolio/frontier
func (h *PortfolioHandler) Frontier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req FrontierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Tickers) < 2 {
		respondError(w, http.StatusBadRequest, "At least 2 tickers are required")
		return
	}
	constraints, err := buildConstraints(req.MaxWeight)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rng, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	prices, err := h.market.GetPriceMatrix(ctx, req.Tickers, rng)
	if err != nil {
		h.logger.WithError(err).Error("Failed to assemble price matrix")
		respondError(w, http.StatusBadGateway, fmt.Sprintf("Failed to load price data: %v", err))
		return
	}

	result, err := h.engine.Frontier(ctx, prices, constraints, req.SampleCount, req.Seed)
	if err != nil {
		h.logger.WithError(err).Warn("Frontier simulation failed")
		respondError(w, statusForEngineError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// validateOptimize normalizes and validates the optimize request
func (h *PortfolioHandler) validateOptimize(req *OptimizeRequest) (engine.Objective, engine.Constraints, marketdata.DateRange, error) {
	var zero marketdata.DateRange

	if len(req.Tickers) < 2 {
		return "", engine.Constraints{}, zero, fmt.Errorf("at least 2 tickers are required")
	}
	if req.Amount <= 0 {
		return "", engine.Constraints{}, zero, fmt.Errorf("amount must be positive")
	}

	if req.Objective == "" {
		req.Objective = string(engine.ObjectiveMaxSharpe)
	}
	objective := engine.Objective(req.Objective)
	if !objective.Valid() {
		return "", engine.Constraints{}, zero, fmt.Errorf("unknown objective %q", req.Objective)
	}
	if objective == engine.ObjectiveEfficientRisk && req.TargetVolatility <= 0 {
		return "", engine.Constraints{}, zero, fmt.Errorf("efficient_risk requires a positive target_volatility")
	}

	constraints, err := buildConstraints(req.MaxWeight)
	if err != nil {
		return "", engine.Constraints{}, zero, err
	}

	for _, c := range req.ConfidenceLevels {
		if c <= 0 || c >= 1 {
			return "", engine.Constraints{}, zero, fmt.Errorf("confidence level %v outside (0, 1)", c)
		}
	}
	if req.SampleCount < 0 {
		return "", engine.Constraints{}, zero, fmt.Errorf("sample_count cannot be negative")
	}

	rng, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return "", engine.Constraints{}, zero, err
	}

	return objective, constraints, rng, nil
}

func buildConstraints(maxWeight float64) (engine.Constraints, error) {
	if maxWeight == 0 {
		return engine.DefaultConstraints(), nil
	}
	if maxWeight < 0 || maxWeight > 1 {
		return engine.Constraints{}, fmt.Errorf("max_weight must be in (0, 1]")
	}
	return engine.Constraints{MaxWeight: maxWeight}, nil
}

// parseDateRange parses the optional date fields, defaulting to the trailing
// lookback window ending today.
func parseDateRange(startDate, endDate string) (marketdata.DateRange, error) {
	var zero marketdata.DateRange

	to := time.Now().UTC().Truncate(24 * time.Hour)
	if endDate != "" {
		parsed, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return zero, fmt.Errorf("invalid end_date %q", endDate)
		}
		to = parsed
	}

	from := to.AddDate(-defaultLookbackYears, 0, 0)
	if startDate != "" {
		parsed, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return zero, fmt.Errorf("invalid start_date %q", startDate)
		}
		from = parsed
	}

	rng := marketdata.DateRange{From: from, To: to}
	if err := rng.Validate(); err != nil {
		return zero, err
	}
	return rng, nil
}
