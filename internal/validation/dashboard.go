package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/api/request"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// ValidateSelectAsset checks that the coin is part of the catalog.
func ValidateSelectAsset(req request.SelectAssetRequest, coins []model.Coin) error {
	errors := make(map[string]string)

	id := strings.TrimSpace(req.ID)
	if id == "" {
		errors["id"] = "id is required"
	} else if !knownCoin(coins, id) {
		errors["id"] = fmt.Sprintf("unknown coin: %s", id)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateDateRange parses the requested range bounds.
// At least one bound is required; when both are given the end must not precede the start.
// A nil return value means the bound is kept as it is.
func ValidateDateRange(req request.DateRangeRequest) (start, end *time.Time, err error) {
	errors := make(map[string]string)

	if req.StartDate == nil && req.EndDate == nil {
		errors["startDate"] = "startDate and/or endDate are required"
	}

	if req.StartDate != nil {
		t, err := request.ParseTime(*req.StartDate)
		if err != nil {
			errors["startDate"] = "startDate must be YYYY-MM-DD or RFC3339"
		} else {
			start = &t
		}
	}
	if req.EndDate != nil {
		t, err := request.ParseTime(*req.EndDate)
		if err != nil {
			errors["endDate"] = "endDate must be YYYY-MM-DD or RFC3339"
		} else {
			end = &t
		}
	}

	if start != nil && end != nil && end.Before(*start) {
		errors["endDate"] = "endDate must not be before startDate"
	}

	if len(errors) > 0 {
		return nil, nil, &Error{Fields: errors}
	}
	return start, end, nil
}

// ValidateAlertThreshold checks that a given threshold is a non-negative finite price.
func ValidateAlertThreshold(req request.AlertThresholdRequest) error {
	if req.Threshold == nil {
		return nil
	}
	v := *req.Threshold
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return &Error{Fields: map[string]string{"threshold": "threshold must be a non-negative number"}}
	}
	return nil
}

// ValidateConverter checks the converter update. The amount is free text and is not
// validated here; an unusable amount simply yields no conversion.
func ValidateConverter(req request.ConverterRequest) error {
	errors := make(map[string]string)

	if req.Amount == nil && req.Direction == nil {
		errors["amount"] = "amount and/or direction are required"
	}
	if req.Amount != nil && len(*req.Amount) > 64 {
		errors["amount"] = "amount must be 64 characters or less"
	}
	if req.Direction != nil && !model.ValidConversionDirections[model.ConversionDirection(*req.Direction)] {
		errors["direction"] = fmt.Sprintf("invalid direction: %s (usdToCoin, coinToUsd)", *req.Direction)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

func knownCoin(coins []model.Coin, id string) bool {
	for _, c := range coins {
		if c.ID == id {
			return true
		}
	}
	return false
}
