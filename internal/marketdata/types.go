package marketdata

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// Market Data Types
// =============================================================================

// Candle represents one daily OHLCV bar
type Candle struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// TickerInfo holds scraped company profile data
type TickerInfo struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Market    string  `json:"market,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	LastPrice float64 `json:"last_price,omitempty"`
	Synthetic bool    `json:"synthetic,omitempty"`
}

// tickers pass through URLs, SQL and cache keys; keep the charset tight
var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

// NormalizeTicker upper-cases and validates a ticker symbol
func NormalizeTicker(raw string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if !tickerPattern.MatchString(ticker) {
		return "", fmt.Errorf("invalid ticker %q", raw)
	}
	return ticker, nil
}

// DateRange is a closed interval of calendar dates
type DateRange struct {
	From time.Time
	To   time.Time
}

// Validate checks the range is non-empty and not inverted
func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("date range requires both endpoints")
	}
	if r.To.Before(r.From) {
		return fmt.Errorf("date range inverted: %s > %s",
			r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	}
	return nil
}
