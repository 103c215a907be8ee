package jobs

import (
	"context"
	"time"

	"github.com/wonny/cockpit/internal/marketdata"
	"github.com/wonny/cockpit/pkg/logger"
)

// refreshLookbackYears is how much history each refresh re-pulls; upserts
// make overlapping windows harmless.
const refreshLookbackYears = 3

// TickerLister enumerates tickers with stored history
type TickerLister interface {
	ListTickers(ctx context.Context) ([]string, error)
}

// PriceRefreshJob re-fetches stored tickers from the provider every trading
// evening so the next day's analyses hit warm data.
type PriceRefreshJob struct {
	market *marketdata.Service
	lister TickerLister
	logger *logger.Logger
}

// NewPriceRefreshJob creates a price refresh job
func NewPriceRefreshJob(market *marketdata.Service, lister TickerLister, log *logger.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{market: market, lister: lister, logger: log}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Schedule returns the cron schedule (22:30 UTC, after US close)
func (j *PriceRefreshJob) Schedule() string {
	return "0 30 22 * * 1-5"
}

// Run refreshes every stored ticker
func (j *PriceRefreshJob) Run(ctx context.Context) error {
	tickers, err := j.lister.ListTickers(ctx)
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		j.logger.Debug("No stored tickers to refresh")
		return nil
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)
	rng := marketdata.DateRange{From: now.AddDate(-refreshLookbackYears, 0, 0), To: now}

	var refreshed, failed int
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}

		count, err := j.market.RefreshTicker(ctx, ticker, rng)
		if err != nil {
			// One dead ticker must not starve the rest of the universe
			j.logger.WithError(err).WithField("ticker", ticker).Warn("Ticker refresh failed")
			failed++
			continue
		}
		refreshed++
		j.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"count":  count,
		}).Debug("Ticker refreshed")
	}

	j.logger.WithFields(map[string]interface{}{
		"refreshed": refreshed,
		"failed":    failed,
	}).Info("Price refresh completed")
	return nil
}
