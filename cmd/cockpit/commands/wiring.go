package commands

import (
	"fmt"

	"github.com/wonny/cockpit/internal/engine"
	"github.com/wonny/cockpit/internal/marketdata"
	"github.com/wonny/cockpit/pkg/config"
	"github.com/wonny/cockpit/pkg/database"
	"github.com/wonny/cockpit/pkg/httputil"
	"github.com/wonny/cockpit/pkg/logger"
	"github.com/wonny/cockpit/pkg/redis"
)

// appContext bundles the wired components shared by the subcommands
type appContext struct {
	cfg    *config.Config
	logger *logger.Logger
	market *marketdata.Service
	engine *engine.Engine
	repo   *marketdata.Repository // nil when the DB cache is disabled
	db     *database.DB           // nil when the DB cache is disabled
	redis  *redis.Client
}

// buildApp wires the market data chain and the engine from config.
// ⭐ SSOT: 컴포넌트 조립은 이 함수에서만
func buildApp() (*appContext, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if syntheticOnly {
		cfg.Provider.SyntheticOnly = true
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Optional PostgreSQL price cache
	var (
		db    *database.DB
		repo  *marketdata.Repository
		store marketdata.Store
	)
	if cfg.Database.Enabled {
		db, err = database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		repo = marketdata.NewRepository(db.Pool)
		store = repo
		log.Info("Connected to database")
	}

	// 4. Optional Redis series cache
	redisClient, err := redis.New(cfg)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(redisClient, "cockpit")

	// 5. Rate-limited HTTP client and provider
	httpClient := httputil.New(log, cfg.Provider.RequestTimeout).
		WithRateLimit(cfg.Provider.RatePerSecond, cfg.Provider.RateBurst)
	provider := marketdata.NewStooqClient(httpClient, log, cfg.Provider.BaseURL, cfg.Provider.InfoBaseURL)

	// 6. Market data service and engine
	market := marketdata.NewService(provider, store, cache, log, cfg.Provider.SyntheticOnly)
	eng := engine.New(engine.Params{
		RiskFreeRate:   cfg.Engine.RiskFreeRate,
		PeriodsPerYear: cfg.Engine.PeriodsPerYear,
		SampleCount:    cfg.Engine.SampleCount,
		MaxIterations:  cfg.Engine.MaxIterations,
	})

	return &appContext{
		cfg:    cfg,
		logger: log,
		market: market,
		engine: eng,
		repo:   repo,
		db:     db,
		redis:  redisClient,
	}, nil
}

// close releases the app's connections
func (a *appContext) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
