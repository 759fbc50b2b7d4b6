package coingecko

// CoinResponse represents the raw JSON response of GET /coins/{id}.
// Only the fields the dashboard uses are mapped. Fiat-denominated values are
// keyed by lowercase currency code (e.g. "usd").
//
// The structure includes:
//   - ID, Symbol, Name: asset identity
//   - MarketData.CurrentPrice / MarketCap / TotalVolume: per-currency maps
//   - MarketData.PriceChangePercentage24h: signed percentage, null for new listings
type CoinResponse struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	Name       string      `json:"name"`
	MarketData *MarketData `json:"market_data"`
}

// MarketData is the market_data block of a coin response.
type MarketData struct {
	CurrentPrice             map[string]float64 `json:"current_price"`
	PriceChangePercentage24h *float64           `json:"price_change_percentage_24h"`
	MarketCap                map[string]float64 `json:"market_cap"`
	TotalVolume              map[string]float64 `json:"total_volume"`
}

// MarketChartResponse represents the raw JSON response of
// GET /coins/{id}/market_chart/range. Each entry of Prices is a
// [timestampMs, price] pair in ascending timestamp order.
type MarketChartResponse struct {
	Prices [][]float64 `json:"prices"`
}

// errorResponse is the body CoinGecko returns on most non-2xx answers.
type errorResponse struct {
	Error  string `json:"error"`
	Status *struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

func (e errorResponse) message() string {
	if e.Error != "" {
		return e.Error
	}
	if e.Status != nil {
		return e.Status.ErrorMessage
	}
	return ""
}
