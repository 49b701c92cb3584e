package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"trendsignal/internal/feature/marketdata/domain"
	"trendsignal/internal/platform/externalapi/alphavantage/dto"
)

// Client issues single blocking GET requests against the Alpha Vantage
// query endpoint. It performs no retries and no caching; error detection is
// payload-content based because the provider signals most failures inside
// an HTTP 200 body.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a new Client with the given configuration and HTTP client.
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// FetchIntraday retrieves the compact intraday series for an equity symbol.
func (c *Client) FetchIntraday(ctx context.Context, symbol, interval string) (dto.RawPayload, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_INTRADAY")
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("outputsize", "compact")
	return c.fetchSeries(ctx, q)
}

// FetchDaily retrieves the compact daily series for an equity symbol.
func (c *Client) FetchDaily(ctx context.Context, symbol string) (dto.RawPayload, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("outputsize", "compact")
	return c.fetchSeries(ctx, q)
}

// FetchCryptoDaily retrieves the USD-denominated daily series for a digital
// currency symbol.
func (c *Client) FetchCryptoDaily(ctx context.Context, symbol string) (dto.RawPayload, error) {
	q := url.Values{}
	q.Set("function", "DIGITAL_CURRENCY_DAILY")
	q.Set("symbol", symbol)
	q.Set("market", "USD")
	return c.fetchSeries(ctx, q)
}

// FetchTopMovers retrieves the market-wide top gainers and losers listing.
func (c *Client) FetchTopMovers(ctx context.Context) (dto.TopMoversPayload, error) {
	q := url.Values{}
	q.Set("function", "TOP_GAINERS_LOSERS")

	body, err := c.get(ctx, q)
	if err != nil {
		return dto.TopMoversPayload{}, err
	}
	if err := classify(body); err != nil {
		return dto.TopMoversPayload{}, err
	}

	var out dto.TopMoversPayload
	if err := json.Unmarshal(body, &out); err != nil {
		return dto.TopMoversPayload{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if out.TopGainers == nil && out.TopLosers == nil {
		return dto.TopMoversPayload{}, fmt.Errorf("%w: no mover lists in response", domain.ErrMalformedResponse)
	}
	return out, nil
}

// fetchSeries performs one GET and extracts the time-series mapping from the
// response body.
func (c *Client) fetchSeries(ctx context.Context, q url.Values) (dto.RawPayload, error) {
	body, err := c.get(ctx, q)
	if err != nil {
		return dto.RawPayload{}, err
	}
	if err := classify(body); err != nil {
		return dto.RawPayload{}, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return dto.RawPayload{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	for key, raw := range top {
		if !strings.HasPrefix(key, "Time Series") {
			continue
		}
		var series map[string]map[string]string
		if err := json.Unmarshal(raw, &series); err != nil {
			return dto.RawPayload{}, fmt.Errorf("%w: decode %q: %v", domain.ErrMalformedResponse, key, err)
		}
		return dto.RawPayload{Series: series}, nil
	}
	return dto.RawPayload{}, fmt.Errorf("%w: no time series key in response", domain.ErrMalformedResponse)
}

// get issues the request with the configured API key and returns the body.
func (c *Client) get(ctx context.Context, q url.Values) ([]byte, error) {
	q.Set("apikey", c.cfg.APIKey)
	u := fmt.Sprintf("%s?%s", c.cfg.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAPI, err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAPI, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("alphavantage http 429: %w", domain.ErrRateLimit)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: alphavantage http %d", domain.ErrAPI, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrAPI, err)
	}
	return body, nil
}

// classify inspects a 200 body for the provider's in-band error markers.
func classify(body []byte) error {
	var markers struct {
		ErrorMessage string `json:"Error Message"`
		Note         string `json:"Note"`
		Information  string `json:"Information"`
	}
	// Marker decoding is best effort; an undecodable body is handled by the
	// series extraction instead.
	_ = json.Unmarshal(body, &markers)

	if markers.ErrorMessage != "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidSymbol, markers.ErrorMessage)
	}
	if strings.Contains(markers.Information, "Invalid API call") {
		return fmt.Errorf("%w: %s", domain.ErrInvalidSymbol, markers.Information)
	}
	if strings.Contains(markers.Note, "API call frequency") {
		return fmt.Errorf("%w: %s", domain.ErrRateLimit, markers.Note)
	}
	for _, v := range []string{markers.Note, markers.Information} {
		if mentionsRateLimit(v) {
			return fmt.Errorf("%w: %s", domain.ErrRateLimit, v)
		}
	}
	return nil
}

// mentionsRateLimit reports whether a marker value talks about call
// frequency or per-day request limits.
func mentionsRateLimit(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(l, "rate limit") ||
		strings.Contains(l, "requests per day") ||
		strings.Contains(l, "calls per minute") ||
		strings.Contains(l, "daily limit")
}
