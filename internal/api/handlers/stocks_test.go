package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cockpit/internal/marketdata"
	"github.com/wonny/cockpit/pkg/config"
	"github.com/wonny/cockpit/pkg/logger"
	"github.com/wonny/cockpit/pkg/redis"
)

func newStocksHandler(t *testing.T) *StocksHandler {
	t.Helper()
	log := logger.NewWithWriter(io.Discard)

	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	cache := redis.NewCache(client, "test")

	market := marketdata.NewService(nil, nil, cache, log, true)
	return NewStocksHandler(market, log)
}

func TestStocksHandler_Historical(t *testing.T) {
	h := newStocksHandler(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/stocks/historical?ticker=aapl.us&start_date=2024-01-01&end_date=2024-03-31", nil)
	rec := httptest.NewRecorder()
	h.Historical(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp HistoricalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AAPL.US", resp.Ticker)
	assert.NotEmpty(t, resp.Candles)
	for _, c := range resp.Candles {
		assert.Greater(t, c.Close, 0.0)
	}
}

func TestStocksHandler_HistoricalValidation(t *testing.T) {
	h := newStocksHandler(t)

	t.Run("missing ticker", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stocks/historical", nil)
		rec := httptest.NewRecorder()
		h.Historical(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid ticker", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stocks/historical?ticker=no%20good", nil)
		rec := httptest.NewRecorder()
		h.Historical(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("inverted range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/stocks/historical?ticker=AAPL.US&start_date=2024-06-01&end_date=2024-01-01", nil)
		rec := httptest.NewRecorder()
		h.Historical(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStocksHandler_Info(t *testing.T) {
	h := newStocksHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stocks/info?ticker=msft.us", nil)
	rec := httptest.NewRecorder()
	h.Info(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var info marketdata.TickerInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "MSFT.US", info.Ticker)
	assert.True(t, info.Synthetic)
}

func TestStocksHandler_InfoValidation(t *testing.T) {
	h := newStocksHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stocks/info", nil)
	rec := httptest.NewRecorder()
	h.Info(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
