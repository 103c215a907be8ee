package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/cockpit/pkg/httputil"
	"github.com/wonny/cockpit/pkg/logger"
)

// =============================================================================
// Stooq Provider
// =============================================================================

// StooqClient fetches daily candles and company profiles from Stooq.
// ⭐ SSOT: 외부 시세 API 호출은 이 클라이언트에서만
type StooqClient struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	baseURL     string
	infoBaseURL string
}

// NewStooqClient creates a Stooq market data client
func NewStooqClient(httpClient *httputil.Client, log *logger.Logger, baseURL, infoBaseURL string) *StooqClient {
	if baseURL == "" {
		baseURL = "https://stooq.com/q/d/l"
	}
	if infoBaseURL == "" {
		infoBaseURL = "https://stooq.com/q"
	}
	return &StooqClient{
		httpClient:  httpClient,
		logger:      log,
		baseURL:     baseURL,
		infoBaseURL: infoBaseURL,
	}
}

// FetchDailyPrices downloads the daily OHLCV CSV for one ticker
func (c *StooqClient) FetchDailyPrices(ctx context.Context, ticker string, rng DateRange) ([]Candle, error) {
	params := url.Values{}
	params.Set("s", strings.ToLower(ticker))
	params.Set("d1", rng.From.Format("20060102"))
	params.Set("d2", rng.To.Format("20060102"))
	params.Set("i", "d")

	fullURL := fmt.Sprintf("%s/?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	candles, err := parseDailyCSV(resp.Body, ticker)
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(candles),
	}).Debug("Fetched daily prices")
	return candles, nil
}

// parseDailyCSV parses the Stooq daily CSV body:
// Date,Open,High,Low,Close,Volume
func parseDailyCSV(r io.Reader, ticker string) ([]Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var candles []Candle
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		if first {
			first = false
			if len(record) > 0 && strings.EqualFold(record[0], "Date") {
				continue // header
			}
		}
		if len(record) < 5 {
			continue
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			continue
		}

		open, err1 := strconv.ParseFloat(record[1], 64)
		high, err2 := strconv.ParseFloat(record[2], 64)
		low, err3 := strconv.ParseFloat(record[3], 64)
		closePrice, err4 := strconv.ParseFloat(record[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		var volume int64
		if len(record) >= 6 {
			volume, _ = strconv.ParseInt(record[5], 10, 64)
		}

		candles = append(candles, Candle{
			Ticker: ticker,
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("no price rows in response")
	}
	return candles, nil
}

// FetchInfo scrapes the quote page for the ticker's profile
func (c *StooqClient) FetchInfo(ctx context.Context, ticker string) (*TickerInfo, error) {
	fullURL := fmt.Sprintf("%s/?s=%s", c.infoBaseURL, url.QueryEscape(strings.ToLower(ticker)))

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	info, err := parseInfoHTML(resp.Body, ticker)
	if err != nil {
		return nil, fmt.Errorf("parse profile failed: %w", err)
	}

	c.logger.WithField("ticker", ticker).Debug("Fetched ticker info")
	return info, nil
}

// parseInfoHTML extracts the profile fields from the quote page
func parseInfoHTML(r io.Reader, ticker string) (*TickerInfo, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	info := &TickerInfo{Ticker: ticker}

	// Page title carries "NAME - Stooq"
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if idx := strings.Index(title, " - "); idx > 0 {
		info.Name = strings.TrimSpace(title[:idx])
	} else {
		info.Name = title
	}

	doc.Find("#f13, font[id^=aq_]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ReplaceAll(strings.TrimSpace(s.Text()), ",", "")
		if v, err := strconv.ParseFloat(text, 64); err == nil && v > 0 {
			info.LastPrice = v
			return false
		}
		return true
	})

	if cur := doc.Find("meta[name=currency]").AttrOr("content", ""); cur != "" {
		info.Currency = cur
	}

	if info.Name == "" {
		return nil, fmt.Errorf("profile page had no usable fields")
	}
	return info, nil
}
