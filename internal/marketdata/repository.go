package marketdata

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// =============================================================================
// Price Repository (PostgreSQL cache)
// =============================================================================

// Repository persists daily candles in PostgreSQL so repeated analyses of the
// same tickers skip the provider round-trip.
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a price repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetRange retrieves candles for a ticker within the date range, ascending
func (r *Repository) GetRange(ctx context.Context, ticker string, rng DateRange) ([]Candle, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []Candle
	for rows.Next() {
		var c Candle
		if err := rows.Scan(&c.Ticker, &c.Date, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// LatestDate returns the most recent stored trade date for a ticker.
// The zero time means the ticker has no stored history.
func (r *Repository) LatestDate(ctx context.Context, ticker string) (time.Time, error) {
	query := `
		SELECT COALESCE(MAX(trade_date), '0001-01-01'::date)
		FROM daily_prices
		WHERE ticker = $1
	`

	var latest time.Time
	if err := r.pool.QueryRow(ctx, query, ticker).Scan(&latest); err != nil {
		return time.Time{}, err
	}
	if latest.Year() <= 1 {
		return time.Time{}, nil
	}
	return latest, nil
}

// ListTickers returns every ticker with stored history
func (r *Repository) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT ticker FROM daily_prices ORDER BY ticker`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// Save upserts a single candle
func (r *Repository) Save(ctx context.Context, c Candle) error {
	query := `
		INSERT INTO daily_prices (ticker, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	_, err := r.pool.Exec(ctx, query, c.Ticker, c.Date, c.Open, c.High, c.Low, c.Close, c.Volume)
	return err
}

// SaveBatch upserts multiple candles
func (r *Repository) SaveBatch(ctx context.Context, candles []Candle) error {
	for _, c := range candles {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
