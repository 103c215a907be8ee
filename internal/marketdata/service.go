package marketdata

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/cockpit/internal/engine"
	"github.com/wonny/cockpit/pkg/logger"
	"github.com/wonny/cockpit/pkg/redis"
)

// =============================================================================
// Market Data Service
// =============================================================================

// seriesCacheTTL bounds staleness of cached matrices; daily bars only move
// once per trading day.
const seriesCacheTTL = time.Hour

// Provider fetches candles and profiles from a remote source
type Provider interface {
	FetchDailyPrices(ctx context.Context, ticker string, rng DateRange) ([]Candle, error)
	FetchInfo(ctx context.Context, ticker string) (*TickerInfo, error)
}

// Store persists candles between runs
type Store interface {
	GetRange(ctx context.Context, ticker string, rng DateRange) ([]Candle, error)
	SaveBatch(ctx context.Context, candles []Candle) error
}

// Service resolves price matrices through a layered lookup:
// Redis cache -> PostgreSQL store -> remote provider -> synthetic fallback.
// ⭐ SSOT: 가격 데이터 조회는 이 서비스를 통해서만
type Service struct {
	provider      Provider
	store         Store // nil when the database cache is disabled
	cache         *redis.Cache
	synthetic     *SyntheticGenerator
	logger        *logger.Logger
	syntheticOnly bool
}

// NewService wires the market data lookup chain. store may be nil; cache may
// be a disabled no-op cache.
func NewService(provider Provider, store Store, cache *redis.Cache, log *logger.Logger, syntheticOnly bool) *Service {
	return &Service{
		provider:      provider,
		store:         store,
		cache:         cache,
		synthetic:     NewSyntheticGenerator(),
		logger:        log,
		syntheticOnly: syntheticOnly,
	}
}

// GetPriceMatrix returns an aligned price matrix for the tickers over the
// range. Tickers are normalized and deduplicated; order in the result is
// alphabetical.
func (s *Service) GetPriceMatrix(ctx context.Context, rawTickers []string, rng DateRange) (*engine.PriceMatrix, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	tickers, err := normalizeTickers(rawTickers)
	if err != nil {
		return nil, err
	}
	if len(tickers) < 2 {
		return nil, fmt.Errorf("need at least 2 distinct tickers, got %d", len(tickers))
	}

	key := matrixCacheKey(tickers, rng)
	var cached engine.PriceMatrix
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).Warn("Price matrix cache lookup failed")
	} else if hit {
		s.logger.WithField("key", key).Debug("Price matrix cache hit")
		return &cached, nil
	}

	series := make(map[string][]Candle, len(tickers))
	for _, ticker := range tickers {
		candles, err := s.getSeries(ctx, ticker, rng)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", ticker, err)
		}
		series[ticker] = candles
	}

	pm, err := BuildPriceMatrix(series)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, pm, seriesCacheTTL); err != nil {
		s.logger.WithError(err).Warn("Price matrix cache write failed")
	}
	return pm, nil
}

// getSeries resolves one ticker's candles through the lookup chain
func (s *Service) getSeries(ctx context.Context, ticker string, rng DateRange) ([]Candle, error) {
	if s.syntheticOnly {
		return s.synthetic.Generate(ticker, rng), nil
	}

	if s.store != nil {
		candles, err := s.store.GetRange(ctx, ticker, rng)
		if err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Price store lookup failed")
		} else if coversRange(candles, rng) {
			return candles, nil
		}
	}

	candles, err := s.provider.FetchDailyPrices(ctx, ticker, rng)
	if err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Warn("Provider fetch failed, generating synthetic series")
		return s.synthetic.Generate(ticker, rng), nil
	}

	if s.store != nil {
		if err := s.store.SaveBatch(ctx, candles); err != nil {
			// Store write failures must not fail the analysis
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Price store write failed")
		}
	}
	return candles, nil
}

// GetHistory returns one ticker's candles through the same lookup chain
// the matrix assembly uses.
func (s *Service) GetHistory(ctx context.Context, rawTicker string, rng DateRange) ([]Candle, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	ticker, err := NormalizeTicker(rawTicker)
	if err != nil {
		return nil, err
	}
	return s.getSeries(ctx, ticker, rng)
}

// RefreshTicker re-fetches a ticker from the provider and persists it,
// bypassing the store's coverage check. Used by the scheduled refresh job.
func (s *Service) RefreshTicker(ctx context.Context, ticker string, rng DateRange) (int, error) {
	if s.syntheticOnly {
		return 0, nil
	}

	candles, err := s.provider.FetchDailyPrices(ctx, ticker, rng)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	if s.store != nil {
		if err := s.store.SaveBatch(ctx, candles); err != nil {
			return 0, fmt.Errorf("save %s: %w", ticker, err)
		}
	}
	return len(candles), nil
}

// GetInfo returns the company profile for a ticker
func (s *Service) GetInfo(ctx context.Context, rawTicker string) (*TickerInfo, error) {
	ticker, err := NormalizeTicker(rawTicker)
	if err != nil {
		return nil, err
	}

	if s.syntheticOnly {
		return s.synthetic.Info(ticker), nil
	}

	key := "info:" + ticker
	var cached TickerInfo
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	info, err := s.provider.FetchInfo(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, info, 24*time.Hour); err != nil {
		s.logger.WithError(err).Warn("Info cache write failed")
	}
	return info, nil
}

// coversRange reports whether stored candles span the requested window
// closely enough to skip the provider. The endpoints may fall on weekends or
// holidays, so a few days of slack on each side is allowed.
func coversRange(candles []Candle, rng DateRange) bool {
	if len(candles) < minMatrixRows {
		return false
	}
	const slack = 5 * 24 * time.Hour
	first := candles[0].Date
	last := candles[len(candles)-1].Date
	return !first.After(rng.From.Add(slack)) && !last.Before(rng.To.Add(-slack))
}

func normalizeTickers(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		ticker, err := NormalizeTicker(r)
		if err != nil {
			return nil, err
		}
		if seen[ticker] {
			continue
		}
		seen[ticker] = true
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out, nil
}

// matrixCacheKey derives a stable cache key from the ticker set and range
func matrixCacheKey(tickers []string, rng DateRange) string {
	payload := fmt.Sprintf("%s|%s|%s",
		strings.Join(tickers, ","),
		rng.From.Format("2006-01-02"),
		rng.To.Format("2006-01-02"),
	)
	sum := md5.Sum([]byte(payload))
	return "matrix:" + hex.EncodeToString(sum[:])
}
