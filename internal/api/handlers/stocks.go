package handlers

import (
	"fmt"
	"net/http"

	"github.com/wonny/cockpit/internal/marketdata"
	"github.com/wonny/cockpit/pkg/logger"
)

// StocksHandler handles stock data endpoints
// ⭐ SSOT: 종목 데이터 API 핸들러는 이 구조체에서만
type StocksHandler struct {
	market *marketdata.Service
	logger *logger.Logger
}

// NewStocksHandler creates a stocks handler
func NewStocksHandler(market *marketdata.Service, log *logger.Logger) *StocksHandler {
	return &StocksHandler{market: market, logger: log}
}

// HistoricalResponse wraps a ticker's candle history
type HistoricalResponse struct {
	Ticker  string              `json:"ticker"`
	Candles []marketdata.Candle `json:"candles"`
}

// Historical returns daily candles for one ticker
// GET /api/stocks/historical?ticker=AAPL.US&start_date=2024-01-01&end_date=2024-12-31
func (h *StocksHandler) Historical(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ticker, err := marketdata.NormalizeTicker(r.URL.Query().Get("ticker"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rng, err := parseDateRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	candles, err := h.market.GetHistory(ctx, ticker, rng)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Historical fetch failed")
		respondError(w, http.StatusBadGateway, fmt.Sprintf("Failed to load history: %v", err))
		return
	}
	if len(candles) == 0 {
		respondError(w, http.StatusNotFound, fmt.Sprintf("No price history for %s in range", ticker))
		return
	}

	respondJSON(w, http.StatusOK, HistoricalResponse{Ticker: ticker, Candles: candles})
}

// Info returns the company profile for one ticker
// GET /api/stocks/info?ticker=AAPL.US
func (h *StocksHandler) Info(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ticker, err := marketdata.NormalizeTicker(r.URL.Query().Get("ticker"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.market.GetInfo(ctx, ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Info fetch failed")
		respondError(w, http.StatusBadGateway, fmt.Sprintf("Failed to load info: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, info)
}
