// Package fetcher produces per-symbol market-data snapshots from the Bybit
// v5 public tickers endpoint.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"crypto-manipulation-monitor/models"
)

// Client fetches ticker snapshots with rate limiting and retries
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetry   time.Duration
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new market-data client
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.bybit.com"
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		maxRetry:   opts.MaxRetryTimeout,
		logger:     log.With().Str("component", "market_fetcher").Logger(),
	}
}

// tickersResponse mirrors the Bybit v5 /market/tickers payload; numeric
// fields arrive as strings
type tickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol            string `json:"symbol"`
			LastPrice         string `json:"lastPrice"`
			Volume24h         string `json:"volume24h"`
			OpenInterestValue string `json:"openInterestValue"`
		} `json:"list"`
	} `json:"result"`
}

// Snapshot fetches the current market-data snapshot for one symbol
func (c *Client) Snapshot(ctx context.Context, symbol string) (models.MarketData, error) {
	url := fmt.Sprintf("%s/v5/market/tickers?category=linear&symbol=%s", c.baseURL, symbol)

	body, err := c.get(ctx, url)
	if err != nil {
		return models.MarketData{}, fmt.Errorf("fetching tickers for %s: %w", symbol, err)
	}

	var resp tickersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.MarketData{}, fmt.Errorf("parsing tickers for %s: %w", symbol, err)
	}
	if resp.RetCode != 0 {
		return models.MarketData{}, fmt.Errorf("exchange error for %s: %s", symbol, resp.RetMsg)
	}
	if len(resp.Result.List) == 0 {
		return models.MarketData{}, fmt.Errorf("no ticker returned for %s", symbol)
	}

	t := resp.Result.List[0]
	data := models.MarketData{
		Ticker: &models.Ticker{
			Last:       parseFloat(t.LastPrice),
			BaseVolume: parseFloat(t.Volume24h),
		},
	}
	if oi := parseFloat(t.OpenInterestValue); oi > 0 {
		data.Funding = &models.Funding{OpenInterest: oi}
	}
	return data, nil
}

// get performs a rate-limited GET with exponential-backoff retries
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return &HTTPStatusError{StatusCode: resp.StatusCode}
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxRetry

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// HTTPStatusError represents an error due to a non-200 HTTP status code
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return "non-200 status code: " + http.StatusText(e.StatusCode)
}
