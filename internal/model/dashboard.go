package model

import (
	"fmt"
	"strings"
	"time"
)

// ViewStatus is the coarse state of the dashboard.
type ViewStatus string

const (
	StatusLoading ViewStatus = "loading"
	StatusReady   ViewStatus = "ready"
)

// ConversionDirection selects which way the converter resolves an amount.
type ConversionDirection string

const (
	FiatToAsset ConversionDirection = "usdToCoin"
	AssetToFiat ConversionDirection = "coinToUsd"
)

// ValidConversionDirections is used for input validation.
var ValidConversionDirections = map[ConversionDirection]bool{
	FiatToAsset: true,
	AssetToFiat: true,
}

// Opposite returns the reverse conversion direction.
func (d ConversionDirection) Opposite() ConversionDirection {
	if d == FiatToAsset {
		return AssetToFiat
	}
	return FiatToAsset
}

// AlertState holds the user-set price threshold and whether the alert is showing.
type AlertState struct {
	Threshold *float64 `json:"threshold"`
	Visible   bool     `json:"visible"`
}

// ConverterState holds the converter inputs and the last computed result.
// Price is the snapshot price the result was resolved against at conversion time.
type ConverterState struct {
	Amount      string              `json:"amount"`
	Direction   ConversionDirection `json:"direction"`
	Result      *float64            `json:"result"`
	Price       *float64            `json:"price,omitempty"`
	ConvertedAt *time.Time          `json:"convertedAt,omitempty"`
}

// Display formats the converter result the way the dashboard shows it:
// six decimals for an asset amount, two decimals for a USD amount.
// Returns an empty string when no result is available.
func (c ConverterState) Display(symbol string) string {
	if c.Result == nil {
		return ""
	}
	symbol = strings.ToUpper(symbol)
	if c.Direction == FiatToAsset {
		return fmt.Sprintf("$%s USD = %.6f %s", c.Amount, *c.Result, symbol)
	}
	return fmt.Sprintf("%s %s = $%.2f USD", c.Amount, symbol, *c.Result)
}

// ViewState is the single in-memory record driving what the dashboard renders.
// Instances handed out by the service are copies; mutating them has no effect.
type ViewState struct {
	Status        ViewStatus       `json:"status"`
	Loading       bool             `json:"loading"`
	SelectedAsset string           `json:"selectedAsset"`
	Range         DateRange        `json:"range"`
	Snapshot      *AssetSnapshot   `json:"snapshot"`
	History       HistoricalSeries `json:"history"`
	Error         *string          `json:"error"`
	Alert         AlertState       `json:"alert"`
	Converter     ConverterState   `json:"converter"`
	LastUpdated   *time.Time       `json:"lastUpdated"`
	Generation    uint64           `json:"generation"`
}

// Clone returns a deep copy of the view state.
func (v ViewState) Clone() ViewState {
	out := v
	if v.Snapshot != nil {
		s := *v.Snapshot
		out.Snapshot = &s
	}
	if v.History != nil {
		out.History = make(HistoricalSeries, len(v.History))
		copy(out.History, v.History)
	}
	out.Error = clonePtr(v.Error)
	out.LastUpdated = clonePtr(v.LastUpdated)
	out.Alert.Threshold = clonePtr(v.Alert.Threshold)
	out.Converter.Result = clonePtr(v.Converter.Result)
	out.Converter.Price = clonePtr(v.Converter.Price)
	out.Converter.ConvertedAt = clonePtr(v.Converter.ConvertedAt)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
