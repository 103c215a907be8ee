package marketdata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cockpit/pkg/config"
	"github.com/wonny/cockpit/pkg/redis"
)

type fakeProvider struct {
	series map[string][]Candle
	info   map[string]*TickerInfo
	err    error
	calls  int
}

func (f *fakeProvider) FetchDailyPrices(_ context.Context, ticker string, _ DateRange) ([]Candle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	candles, ok := f.series[ticker]
	if !ok {
		return nil, errors.New("unknown ticker")
	}
	return candles, nil
}

func (f *fakeProvider) FetchInfo(_ context.Context, ticker string) (*TickerInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.info[ticker]
	if !ok {
		return nil, errors.New("unknown ticker")
	}
	return info, nil
}

type fakeStore struct {
	series map[string][]Candle
	saved  map[string][]Candle
}

func (f *fakeStore) GetRange(_ context.Context, ticker string, _ DateRange) ([]Candle, error) {
	return f.series[ticker], nil
}

func (f *fakeStore) SaveBatch(_ context.Context, candles []Candle) error {
	if f.saved == nil {
		f.saved = make(map[string][]Candle)
	}
	for _, c := range candles {
		f.saved[c.Ticker] = append(f.saved[c.Ticker], c)
	}
	return nil
}

func disabledCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "test")
}

func tradingDays(ticker string, start float64, n int) []Candle {
	rng := DateRange{From: day(2024, 1, 1), To: day(2024, 12, 31)}
	gen := NewSyntheticGenerator()
	candles := gen.Generate(ticker, rng)[:n]
	for i := range candles {
		candles[i].Close = start + float64(i)
	}
	return candles
}

func TestService_GetPriceMatrixFromProvider(t *testing.T) {
	provider := &fakeProvider{series: map[string][]Candle{
		"AAA": tradingDays("AAA", 100, 10),
		"BBB": tradingDays("BBB", 50, 10),
	}}
	store := &fakeStore{}
	svc := NewService(provider, store, disabledCache(t), discardLogger(), false)

	pm, err := svc.GetPriceMatrix(context.Background(), []string{"bbb", "aaa", "AAA"},
		DateRange{From: day(2024, 1, 1), To: day(2024, 2, 1)})
	require.NoError(t, err)

	// Normalized, deduplicated, alphabetical
	assert.Equal(t, []string{"AAA", "BBB"}, pm.Tickers)
	assert.Len(t, pm.Dates, 10)

	// Fetched candles were persisted for next time
	assert.Len(t, store.saved["AAA"], 10)
	assert.Len(t, store.saved["BBB"], 10)
}

func TestService_GetPriceMatrixPrefersStore(t *testing.T) {
	// The store fully covers the requested window; the provider must not
	// be consulted.
	rng := DateRange{From: day(2024, 1, 2), To: day(2024, 1, 10)}
	store := &fakeStore{series: map[string][]Candle{
		"AAA": tradingDays("AAA", 100, 7),
		"BBB": tradingDays("BBB", 50, 7),
	}}
	provider := &fakeProvider{}
	svc := NewService(provider, store, disabledCache(t), discardLogger(), false)

	_, err := svc.GetPriceMatrix(context.Background(), []string{"AAA", "BBB"}, rng)
	require.NoError(t, err)
	assert.Equal(t, 0, provider.calls)
}

func TestService_GetPriceMatrixSyntheticFallback(t *testing.T) {
	provider := &fakeProvider{err: errors.New("provider down")}
	svc := NewService(provider, nil, disabledCache(t), discardLogger(), false)

	pm, err := svc.GetPriceMatrix(context.Background(), []string{"AAA", "BBB"},
		DateRange{From: day(2024, 1, 1), To: day(2024, 3, 31)})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, pm.Tickers)
	assert.Greater(t, len(pm.Dates), 50)
}

func TestService_GetPriceMatrixSyntheticOnly(t *testing.T) {
	provider := &fakeProvider{err: errors.New("must not be called")}
	svc := NewService(provider, nil, disabledCache(t), discardLogger(), true)

	pm, err := svc.GetPriceMatrix(context.Background(), []string{"AAA", "BBB"},
		DateRange{From: day(2024, 1, 1), To: day(2024, 3, 31)})
	require.NoError(t, err)
	assert.Equal(t, 0, provider.calls)
	require.NoError(t, pm.Validate())
}

func TestService_GetPriceMatrixValidation(t *testing.T) {
	svc := NewService(&fakeProvider{}, nil, disabledCache(t), discardLogger(), true)
	ctx := context.Background()
	rng := DateRange{From: day(2024, 1, 1), To: day(2024, 3, 31)}

	t.Run("invalid ticker", func(t *testing.T) {
		_, err := svc.GetPriceMatrix(ctx, []string{"AAA", "bad ticker!"}, rng)
		assert.Error(t, err)
	})

	t.Run("too few tickers after dedup", func(t *testing.T) {
		_, err := svc.GetPriceMatrix(ctx, []string{"AAA", "aaa"}, rng)
		assert.Error(t, err)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := svc.GetPriceMatrix(ctx, []string{"AAA", "BBB"},
			DateRange{From: day(2024, 3, 31), To: day(2024, 1, 1)})
		assert.Error(t, err)
	})
}

func TestService_GetInfo(t *testing.T) {
	provider := &fakeProvider{info: map[string]*TickerInfo{
		"AAA": {Ticker: "AAA", Name: "Triple A Corp"},
	}}

	t.Run("from provider", func(t *testing.T) {
		svc := NewService(provider, nil, disabledCache(t), discardLogger(), false)
		info, err := svc.GetInfo(context.Background(), "aaa")
		require.NoError(t, err)
		assert.Equal(t, "Triple A Corp", info.Name)
	})

	t.Run("synthetic only", func(t *testing.T) {
		svc := NewService(provider, nil, disabledCache(t), discardLogger(), true)
		info, err := svc.GetInfo(context.Background(), "ZZZ")
		require.NoError(t, err)
		assert.True(t, info.Synthetic)
	})

	t.Run("invalid ticker", func(t *testing.T) {
		svc := NewService(provider, nil, disabledCache(t), discardLogger(), true)
		_, err := svc.GetInfo(context.Background(), "no good")
		assert.Error(t, err)
	})
}

func TestMatrixCacheKey_Stable(t *testing.T) {
	rng := DateRange{From: day(2024, 1, 1), To: day(2024, 6, 30)}
	a := matrixCacheKey([]string{"AAA", "BBB"}, rng)
	b := matrixCacheKey([]string{"AAA", "BBB"}, rng)
	c := matrixCacheKey([]string{"AAA", "CCC"}, rng)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
