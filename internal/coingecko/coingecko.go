// Package coingecko provides a client for the CoinGecko market-data API.
// It fetches asset snapshots and historical price ranges and converts the raw
// responses into the application's model types.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// Client defines the interface for fetching market data from the provider.
// This interface enables dependency injection and testing with mock implementations.
type Client interface {
	QueryCoin(ctx context.Context, coinID string) (CoinResponse, error)
	QueryMarketChartRange(ctx context.Context, coinID string, from, to time.Time) (MarketChartResponse, error)
}

// MarketClient provides methods for fetching market data from CoinGecko.
// It wraps an HTTP client and holds the base URL, optional API key and quote currency.
type MarketClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	apiKeyHeader string
	vsCurrency   string
}

// Options configures a MarketClient. Zero values fall back to the public API defaults.
type Options struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	VsCurrency   string
	Timeout      time.Duration
}

// DefaultBaseURL is the public CoinGecko v3 endpoint.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// NewMarketClient creates a new CoinGecko client.
//
// Returns:
//   - *MarketClient: A new client instance ready for use
func NewMarketClient(opts Options) *MarketClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.APIKeyHeader == "" {
		opts.APIKeyHeader = "x-cg-demo-api-key"
	}
	if opts.VsCurrency == "" {
		opts.VsCurrency = "usd"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	return &MarketClient{
		httpClient:   &http.Client{Timeout: opts.Timeout},
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		apiKey:       opts.APIKey,
		apiKeyHeader: opts.APIKeyHeader,
		vsCurrency:   strings.ToLower(opts.VsCurrency),
	}
}

// VsCurrency returns the quote currency used for all fiat-denominated values.
func (c *MarketClient) VsCurrency() string {
	return c.vsCurrency
}

// QueryCoin fetches the current snapshot data for one coin.
//
// Endpoint: GET {base}/coins/{id}
//
// Parameters:
//   - ctx: Bounds the request
//   - coinID: Provider coin identifier (e.g., "bitcoin", "ethereum")
//
// Returns:
//   - CoinResponse: Raw API response
//   - error: If the request fails, the status is not 2xx, or the body is not valid JSON
func (c *MarketClient) QueryCoin(ctx context.Context, coinID string) (CoinResponse, error) {
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")
	endpoint := fmt.Sprintf("%s/coins/%s?%s", c.baseURL, url.PathEscape(coinID), q.Encode())

	var response CoinResponse
	if err := c.query(ctx, endpoint, &response); err != nil {
		return CoinResponse{}, err
	}
	return response, nil
}

// QueryMarketChartRange fetches the price series between from and to.
//
// Endpoint: GET {base}/coins/{id}/market_chart/range?vs_currency=usd&from={unix}&to={unix}
//
// Parameters:
//   - ctx: Bounds the request
//   - coinID: Provider coin identifier
//   - from, to: Range bounds, sent as unix seconds
//
// Returns:
//   - MarketChartResponse: Raw API response with [timestampMs, price] pairs
//   - error: If the request fails, the status is not 2xx, or the body is not valid JSON
func (c *MarketClient) QueryMarketChartRange(ctx context.Context, coinID string, from, to time.Time) (MarketChartResponse, error) {
	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("from", fmt.Sprintf("%d", from.Unix()))
	q.Set("to", fmt.Sprintf("%d", to.Unix()))
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart/range?%s", c.baseURL, url.PathEscape(coinID), q.Encode())

	var response MarketChartResponse
	if err := c.query(ctx, endpoint, &response); err != nil {
		return MarketChartResponse{}, err
	}
	if response.Prices == nil {
		return MarketChartResponse{}, fmt.Errorf("coingecko: response has no prices field")
	}
	return response, nil
}

// query executes a GET request and decodes the JSON body into out.
// Non-2xx answers are returned as errors including the provider's message when present.
func (c *MarketClient) query(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coingecko request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("coingecko read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.message() != "" {
			return fmt.Errorf("coingecko: status %d: %s", resp.StatusCode, apiErr.message())
		}
		return fmt.Errorf("coingecko: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("coingecko decode: %w", err)
	}
	return nil
}

// ParseSnapshot converts a raw coin response into an AssetSnapshot denominated in vsCurrency.
// A missing market_data block or a missing current price is treated as a malformed payload.
// A null 24h change (fresh listings) is reported as 0.
func ParseSnapshot(raw CoinResponse, vsCurrency string, fetchedAt time.Time) (model.AssetSnapshot, error) {
	if raw.ID == "" {
		return model.AssetSnapshot{}, fmt.Errorf("coingecko: snapshot has no id")
	}
	if raw.MarketData == nil {
		return model.AssetSnapshot{}, fmt.Errorf("coingecko: snapshot for %s has no market data", raw.ID)
	}

	vs := strings.ToLower(vsCurrency)
	price, ok := raw.MarketData.CurrentPrice[vs]
	if !ok {
		return model.AssetSnapshot{}, fmt.Errorf("coingecko: snapshot for %s has no %s price", raw.ID, vs)
	}

	var change float64
	if raw.MarketData.PriceChangePercentage24h != nil {
		change = *raw.MarketData.PriceChangePercentage24h
	}

	return model.AssetSnapshot{
		ID:             raw.ID,
		Name:           raw.Name,
		Symbol:         raw.Symbol,
		CurrentPrice:   price,
		PriceChange24h: change,
		MarketCap:      raw.MarketData.MarketCap[vs],
		TotalVolume:    raw.MarketData.TotalVolume[vs],
		FetchedAt:      fetchedAt.UTC(),
	}, nil
}

// ParseMarketChart converts raw [timestampMs, price] pairs into a historical series.
// Output has the same length and order as the input; nothing is sorted or deduplicated.
// A pair that does not hold exactly two numbers makes the whole payload malformed.
func ParseMarketChart(raw MarketChartResponse) (model.HistoricalSeries, error) {
	series := make(model.HistoricalSeries, len(raw.Prices))
	for i, pair := range raw.Prices {
		if len(pair) != 2 {
			return nil, fmt.Errorf("coingecko: price entry %d has %d values, want 2", i, len(pair))
		}
		ts := time.UnixMilli(int64(pair[0])).UTC()
		series[i] = model.PricePoint{
			Timestamp: ts,
			Date:      ts.Format("2006-01-02"),
			Price:     pair[1],
		}
	}
	return series, nil
}
