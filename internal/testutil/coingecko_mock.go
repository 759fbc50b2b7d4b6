package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/coingecko"
)

// MockMarketClient is a mock implementation of coingecko.Client for testing.
// It returns predefined test data instead of making actual API calls and is safe
// for concurrent use, since a fetch cycle issues both requests in parallel.
type MockMarketClient struct {
	mu sync.Mutex

	coins  map[string]coingecko.CoinResponse
	charts map[string]coingecko.MarketChartResponse

	coinErr  error
	chartErr error

	// gates hold requests for a coin until the gate is closed
	gates map[string]chan struct{}

	coinCalls  int
	chartCalls int
}

// NewMockMarketClient creates a new mock client knowing bitcoin (50000 USD) and
// ethereum (2500 USD, +3.15%, 300B market cap). Historical ranges are generated
// with one point per day unless a chart is configured with WithChart.
func NewMockMarketClient() *MockMarketClient {
	return &MockMarketClient{
		coins: map[string]coingecko.CoinResponse{
			"bitcoin":  CreateMockCoinResponse("bitcoin", "Bitcoin", "btc", 50000, -1.2, 980000000000, 25000000000),
			"ethereum": CreateMockCoinResponse("ethereum", "Ethereum", "eth", 2500, 3.15, 300000000000, 15000000000),
		},
		charts: map[string]coingecko.MarketChartResponse{},
		gates:  map[string]chan struct{}{},
	}
}

// QueryCoin returns the configured coin response. Unknown coins get a generic response.
func (m *MockMarketClient) QueryCoin(ctx context.Context, coinID string) (coingecko.CoinResponse, error) {
	m.mu.Lock()
	m.coinCalls++
	gate := m.gates[coinID]
	m.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return coingecko.CoinResponse{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.coinErr != nil {
		return coingecko.CoinResponse{}, m.coinErr
	}
	if resp, ok := m.coins[coinID]; ok {
		return resp, nil
	}
	return CreateMockCoinResponse(coinID, coinID, coinID, 1, 0, 0, 0), nil
}

// QueryMarketChartRange returns the configured chart, or one point per day between from and to.
func (m *MockMarketClient) QueryMarketChartRange(ctx context.Context, coinID string, from, to time.Time) (coingecko.MarketChartResponse, error) {
	m.mu.Lock()
	m.chartCalls++
	gate := m.gates[coinID]
	m.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return coingecko.MarketChartResponse{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chartErr != nil {
		return coingecko.MarketChartResponse{}, m.chartErr
	}
	if resp, ok := m.charts[coinID]; ok {
		return resp, nil
	}
	price := 1.0
	if c, ok := m.coins[coinID]; ok && c.MarketData != nil {
		price = c.MarketData.CurrentPrice["usd"]
	}
	return CreateMockMarketChart(from, to, price), nil
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithCoin configures the response for resp.ID.
func (m *MockMarketClient) WithCoin(resp coingecko.CoinResponse) *MockMarketClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coins[resp.ID] = resp
	return m
}

// WithPrice changes the USD price of a configured coin.
func (m *MockMarketClient) WithPrice(coinID string, price float64) *MockMarketClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.coins[coinID]
	if !ok {
		resp = CreateMockCoinResponse(coinID, coinID, coinID, price, 0, 0, 0)
	}
	data := *resp.MarketData
	data.CurrentPrice = map[string]float64{"usd": price}
	resp.MarketData = &data
	m.coins[coinID] = resp
	return m
}

// WithChart configures the historical response for coinID.
func (m *MockMarketClient) WithChart(coinID string, resp coingecko.MarketChartResponse) *MockMarketClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charts[coinID] = resp
	return m
}

// WithCoinError configures the snapshot request to fail. Pass nil to clear.
func (m *MockMarketClient) WithCoinError(err error) *MockMarketClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coinErr = err
	return m
}

// WithChartError configures the historical request to fail. Pass nil to clear.
func (m *MockMarketClient) WithChartError(err error) *MockMarketClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chartErr = err
	return m
}

// WithError configures both requests to fail. Pass nil to clear.
func (m *MockMarketClient) WithError(err error) *MockMarketClient {
	return m.WithCoinError(err).WithChartError(err)
}

// Block holds all requests for coinID until the returned release function is called.
func (m *MockMarketClient) Block(coinID string) (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.gates[coinID] = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.gates[coinID] == gate {
				delete(m.gates, coinID)
			}
			m.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many snapshot and historical requests were made.
func (m *MockMarketClient) Calls() (coin, chart int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coinCalls, m.chartCalls
}

// CreateMockCoinResponse creates a provider coin response with USD market data.
func CreateMockCoinResponse(id, name, symbol string, price, change24h, marketCap, volume float64) coingecko.CoinResponse {
	change := change24h
	return coingecko.CoinResponse{
		ID:     id,
		Symbol: strings.ToLower(symbol),
		Name:   name,
		MarketData: &coingecko.MarketData{
			CurrentPrice:             map[string]float64{"usd": price},
			PriceChangePercentage24h: &change,
			MarketCap:                map[string]float64{"usd": marketCap},
			TotalVolume:              map[string]float64{"usd": volume},
		},
	}
}

// CreateMockMarketChart creates a price series with one point per day from `from` to `to`
// inclusive, ascending. Prices drift upward by 0.1% a day ending at price.
func CreateMockMarketChart(from, to time.Time, price float64) coingecko.MarketChartResponse {
	resp := coingecko.MarketChartResponse{Prices: [][]float64{}}
	if to.Before(from) {
		return resp
	}

	days := int(to.Sub(from).Hours() / 24)
	for i := 0; i <= days; i++ {
		ts := from.AddDate(0, 0, i)
		p := price * (1 - 0.001*float64(days-i))
		resp.Prices = append(resp.Prices, []float64{float64(ts.UnixMilli()), p})
	}
	return resp
}
