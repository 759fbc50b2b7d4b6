package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// Convert maps an amount to the other side of the pair using price (USD per unit of asset).
//
//   - usdToCoin: amount / price
//   - coinToUsd: amount * price
//
// No rounding is applied; display rounding is done by model.ConverterState.Display.
// Converting and converting back with the opposite direction returns the original amount
// within floating-point tolerance.
//
// Returns ErrInvalidAmount for negative or non-finite amounts, ErrInvalidDirection for an
// unknown direction and ErrInvalidPrice for a non-positive or non-finite price.
func Convert(amount float64, direction model.ConversionDirection, price float64) (float64, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, apperrors.ErrInvalidAmount
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, apperrors.ErrInvalidPrice
	}

	switch direction {
	case model.FiatToAsset:
		return amount / price, nil
	case model.AssetToFiat:
		return amount * price, nil
	default:
		return 0, fmt.Errorf("%w: %s", apperrors.ErrInvalidDirection, direction)
	}
}

// decimalAmount is plain decimal notation with an optional exponent, e.g. "100", "2.5", ".5", "1e3".
var decimalAmount = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseAmount parses a converter amount as typed by the user.
// Only plain decimal notation is accepted; hex floats ("0x1p4"), signs, digit separators,
// "Inf" and "NaN" are rejected with ErrInvalidAmount, as are empty and non-finite input.
func ParseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperrors.ErrInvalidAmount
	}
	if !decimalAmount.MatchString(raw) {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidAmount, raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidAmount, raw)
	}
	return v, nil
}
