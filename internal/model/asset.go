package model

import "time"

// AssetSnapshot represents the latest market data for one asset as returned by the provider.
// All monetary values are denominated in USD. A snapshot is replaced wholesale on every
// applied fetch cycle and never mutated in place.
type AssetSnapshot struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Symbol         string    `json:"symbol"`
	CurrentPrice   float64   `json:"currentPrice"`
	PriceChange24h float64   `json:"priceChange24h"` // Signed percentage, e.g. 3.15 for +3.15%
	MarketCap      float64   `json:"marketCap"`
	TotalVolume    float64   `json:"totalVolume"`
	FetchedAt      time.Time `json:"fetchedAt"`
}

// PricePoint represents one sample of the historical price series.
// Timestamp keeps the provider's instant; Date is the UTC calendar day used as chart label.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`
	Price     float64   `json:"price"`
}

// HistoricalSeries is an ordered sequence of price points, ascending by timestamp.
// Order is inherited from the provider response and never re-sorted.
type HistoricalSeries []PricePoint

// DateRange bounds the historical fetch. End must not precede Start.
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// Coin is an entry of the selectable asset catalog.
type Coin struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}
