package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// MaxFetchHistoryLimit bounds the limit query parameter of the fetch history endpoint.
const MaxFetchHistoryLimit = 200

// SelectAssetRequest represents the request body for selecting a coin
type SelectAssetRequest struct {
	ID string `json:"id"`
}

// DateRangeRequest represents the request body for changing the historical range.
// Dates are "2006-01-02" or RFC3339. Either bound may be omitted to keep its current value.
type DateRangeRequest struct {
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
}

// AlertThresholdRequest represents the request body for setting the alert threshold.
// A null threshold clears the alert.
type AlertThresholdRequest struct {
	Threshold *float64 `json:"threshold"`
}

// ConverterRequest represents the request body for updating the converter inputs
type ConverterRequest struct {
	Amount    *Amount `json:"amount,omitempty"`
	Direction *string `json:"direction,omitempty"`
}

// Amount is the converter amount as typed by the user. It accepts a JSON string or number;
// the text is kept as-is and only parsed when a conversion is triggered.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or number")
	}
	*a = Amount(n.String())
	return nil
}

// ParseTime parses a date string in "2006-01-02" or RFC3339 format. The result is in UTC.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse("2006-01-02", str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}

// ParseFetchHistoryFilter extracts the fetch history filter from query parameters.
//
// Validation rules:
//   - asset: optional coin ID, lowercased
//   - limit: optional, between 1 and MaxFetchHistoryLimit
func ParseFetchHistoryFilter(assetParam, limitParam string) (model.FetchCycleFilter, error) {
	filter := model.FetchCycleFilter{
		AssetID: strings.ToLower(strings.TrimSpace(assetParam)),
	}

	if limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return model.FetchCycleFilter{}, fmt.Errorf("invalid limit: %s", limitParam)
		}
		if limit < 1 || limit > MaxFetchHistoryLimit {
			return model.FetchCycleFilter{}, fmt.Errorf("limit must be between 1 and %d", MaxFetchHistoryLimit)
		}
		filter.Limit = limit
	}

	return filter, nil
}
