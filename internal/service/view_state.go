package service

import (
	"time"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// The functions in this file are the only way the dashboard view state changes.
// Each takes the current state by value and returns the next one; none of them
// perform I/O. DashboardService applies them under its mutex.

// initialViewState is the state before the first fetch: loading with no data.
func initialViewState(asset string, rng model.DateRange) model.ViewState {
	return model.ViewState{
		Status:        model.StatusLoading,
		Loading:       true,
		SelectedAsset: asset,
		Range:         rng,
		Converter:     model.ConverterState{Direction: model.FiatToAsset},
	}
}

// defaultRange returns the window of the last days days ending at now.
func defaultRange(now time.Time, days int) model.DateRange {
	end := now.UTC()
	return model.DateRange{Start: end.AddDate(0, 0, -days), End: end}
}

func beginFetch(s model.ViewState, generation uint64) model.ViewState {
	s.Status = model.StatusLoading
	s.Loading = true
	s.Generation = generation
	return s
}

// applyFetch commits a successful fetch cycle. Snapshot and history are replaced
// together, the error flag is cleared and the alert is re-evaluated.
// The returned bool reports whether the alert turned visible.
func applyFetch(s model.ViewState, snapshot model.AssetSnapshot, history model.HistoricalSeries, at time.Time) (model.ViewState, bool) {
	s.Status = model.StatusReady
	s.Loading = false
	s.Snapshot = &snapshot
	s.History = history
	s.Error = nil
	s.LastUpdated = &at

	var triggered bool
	s.Alert, triggered = EvaluateAlert(s.Alert, s.Snapshot)
	return s, triggered
}

// failFetch records a failed cycle. Snapshot and history keep their prior values.
func failFetch(s model.ViewState, message string) model.ViewState {
	s.Status = model.StatusReady
	s.Loading = false
	s.Error = &message
	return s
}

// selectAsset switches the selected coin. The converter amount and result belong
// to the previous coin and are cleared. Re-selecting the current coin keeps them.
func selectAsset(s model.ViewState, assetID string) model.ViewState {
	if s.SelectedAsset == assetID {
		return s
	}
	s.SelectedAsset = assetID
	s.Converter = clearConversion(s.Converter)
	s.Converter.Amount = ""
	return s
}

func setDateRange(s model.ViewState, rng model.DateRange) model.ViewState {
	s.Range = rng
	return s
}

// setAlertThreshold replaces the threshold, hides the alert and evaluates it
// against the current snapshot right away. A nil threshold clears the alert.
func setAlertThreshold(s model.ViewState, threshold *float64) (model.ViewState, bool) {
	s.Alert = model.AlertState{Threshold: threshold}
	if threshold == nil {
		return s, false
	}
	var triggered bool
	s.Alert, triggered = EvaluateAlert(s.Alert, s.Snapshot)
	return s, triggered
}

func dismissAlert(s model.ViewState) model.ViewState {
	s.Alert.Visible = false
	return s
}

func dismissError(s model.ViewState) model.ViewState {
	s.Error = nil
	return s
}

func setConverterAmount(s model.ViewState, amount string) model.ViewState {
	s.Converter.Amount = amount
	return s
}

func setConverterDirection(s model.ViewState, direction model.ConversionDirection) model.ViewState {
	s.Converter.Direction = direction
	return s
}

// convert resolves the converter amount against the current snapshot price.
// The result is fixed at this moment and not recomputed on later snapshots.
// When the conversion cannot be performed the prior result is cleared and the
// reason is returned; the view state carries no error for it.
func convert(s model.ViewState, at time.Time) (model.ViewState, error) {
	s.Converter = clearConversion(s.Converter)

	amount, err := ParseAmount(s.Converter.Amount)
	if err != nil {
		return s, err
	}
	price, err := conversionPrice(s)
	if err != nil {
		return s, err
	}
	result, err := Convert(amount, s.Converter.Direction, price)
	if err != nil {
		return s, err
	}

	s.Converter.Result = &result
	s.Converter.Price = &price
	s.Converter.ConvertedAt = &at
	return s, nil
}

// conversionPrice returns the snapshot price of the selected coin. A snapshot
// still showing the previously selected coin is not usable.
func conversionPrice(s model.ViewState) (float64, error) {
	if s.Snapshot == nil || s.Snapshot.ID != s.SelectedAsset {
		return 0, apperrors.ErrNoSnapshot
	}
	return s.Snapshot.CurrentPrice, nil
}

func clearConversion(c model.ConverterState) model.ConverterState {
	c.Result = nil
	c.Price = nil
	c.ConvertedAt = nil
	return c
}
