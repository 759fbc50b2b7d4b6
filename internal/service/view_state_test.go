package service

import (
	"errors"
	"testing"
	"time"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

var reducerNow = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

func readyState(t *testing.T) model.ViewState {
	t.Helper()

	s := initialViewState("bitcoin", defaultRange(reducerNow, 30))
	s = beginFetch(s, 1)
	s, _ = applyFetch(s,
		model.AssetSnapshot{ID: "bitcoin", Symbol: "btc", CurrentPrice: 50000},
		model.HistoricalSeries{{Date: "2024-01-30", Price: 49000}, {Date: "2024-01-31", Price: 50000}},
		reducerNow,
	)
	return s
}

// TestViewStateTransitions tests the pure view state transitions.
//
// WHY: Every change of the dashboard goes through these functions. Loading and error
// flags, snapshot atomicity and converter invalidation are all decided here.
func TestViewStateTransitions(t *testing.T) {
	t.Run("initial state is loading without data", func(t *testing.T) {
		s := initialViewState("bitcoin", defaultRange(reducerNow, 30))

		if s.Status != model.StatusLoading || !s.Loading {
			t.Errorf("Expected loading, got status %s loading %v", s.Status, s.Loading)
		}
		if s.Snapshot != nil || s.History != nil || s.Error != nil {
			t.Error("Expected no data in initial state")
		}
		if !s.Range.End.Equal(reducerNow) || !s.Range.Start.Equal(reducerNow.AddDate(0, 0, -30)) {
			t.Errorf("Unexpected default range %+v", s.Range)
		}
		if s.Converter.Direction != model.FiatToAsset {
			t.Errorf("Expected default direction usdToCoin, got %s", s.Converter.Direction)
		}
	})

	t.Run("apply replaces data and clears error", func(t *testing.T) {
		s := failFetch(readyState(t), apperrors.FetchErrorMessage)
		s = beginFetch(s, 2)

		s, _ = applyFetch(s, model.AssetSnapshot{ID: "bitcoin", CurrentPrice: 51000}, model.HistoricalSeries{}, reducerNow)

		if s.Status != model.StatusReady || s.Loading {
			t.Errorf("Expected ready, got status %s loading %v", s.Status, s.Loading)
		}
		if s.Error != nil {
			t.Errorf("Expected error cleared, got %q", *s.Error)
		}
		if s.Snapshot.CurrentPrice != 51000 || len(s.History) != 0 {
			t.Errorf("Expected new data, got %+v / %d points", s.Snapshot, len(s.History))
		}
		if s.Generation != 2 {
			t.Errorf("Expected generation 2, got %d", s.Generation)
		}
	})

	t.Run("failure keeps prior data", func(t *testing.T) {
		before := readyState(t)
		s := failFetch(beginFetch(before, 2), apperrors.FetchErrorMessage)

		if s.Status != model.StatusReady || s.Loading {
			t.Errorf("Expected ready with error, got status %s loading %v", s.Status, s.Loading)
		}
		if s.Error == nil || *s.Error != apperrors.FetchErrorMessage {
			t.Errorf("Expected fetch error message, got %v", s.Error)
		}
		if s.Snapshot != before.Snapshot || len(s.History) != len(before.History) {
			t.Error("Expected snapshot and history untouched")
		}
	})

	t.Run("dismiss error keeps data", func(t *testing.T) {
		s := dismissError(failFetch(readyState(t), "boom"))
		if s.Error != nil || s.Snapshot == nil {
			t.Errorf("Expected error cleared and data kept, got %+v", s)
		}
	})

	t.Run("selecting another asset clears converter", func(t *testing.T) {
		s := setConverterAmount(readyState(t), "100")
		s, err := convert(s, reducerNow)
		if err != nil {
			t.Fatalf("convert() returned unexpected error: %v", err)
		}

		s = selectAsset(s, "ethereum")

		if s.SelectedAsset != "ethereum" {
			t.Errorf("Expected ethereum selected, got %s", s.SelectedAsset)
		}
		if s.Converter.Amount != "" || s.Converter.Result != nil || s.Converter.Price != nil {
			t.Errorf("Expected converter cleared, got %+v", s.Converter)
		}
	})

	t.Run("reselecting the same asset keeps converter", func(t *testing.T) {
		s := setConverterAmount(readyState(t), "100")
		s, _ = convert(s, reducerNow)

		s = selectAsset(s, "bitcoin")

		if s.Converter.Amount != "100" || s.Converter.Result == nil {
			t.Errorf("Expected converter kept, got %+v", s.Converter)
		}
	})
}

func TestConvertTransition(t *testing.T) {
	t.Run("resolves against snapshot price at trigger time", func(t *testing.T) {
		s := setConverterAmount(readyState(t), "100")

		s, err := convert(s, reducerNow)
		if err != nil {
			t.Fatalf("convert() returned unexpected error: %v", err)
		}

		if s.Converter.Result == nil || *s.Converter.Result != 0.002 {
			t.Fatalf("Expected result 0.002, got %v", s.Converter.Result)
		}
		if s.Converter.Price == nil || *s.Converter.Price != 50000 {
			t.Errorf("Expected price 50000 recorded, got %v", s.Converter.Price)
		}

		s, _ = applyFetch(s, model.AssetSnapshot{ID: "bitcoin", CurrentPrice: 40000}, nil, reducerNow)
		if *s.Converter.Result != 0.002 {
			t.Errorf("Expected result not recomputed on new snapshot, got %v", *s.Converter.Result)
		}
	})

	t.Run("invalid amount clears prior result", func(t *testing.T) {
		s := setConverterAmount(readyState(t), "100")
		s, _ = convert(s, reducerNow)

		s = setConverterAmount(s, "abc")
		s, err := convert(s, reducerNow)

		if !errors.Is(err, apperrors.ErrInvalidAmount) {
			t.Errorf("Expected ErrInvalidAmount, got %v", err)
		}
		if s.Converter.Result != nil || s.Converter.ConvertedAt != nil {
			t.Errorf("Expected result cleared, got %+v", s.Converter)
		}
		if s.Error != nil {
			t.Error("Expected no error on view state for invalid converter input")
		}
	})

	t.Run("no snapshot yet is not converted", func(t *testing.T) {
		s := setConverterAmount(initialViewState("bitcoin", defaultRange(reducerNow, 30)), "1")

		s, err := convert(s, reducerNow)

		if !errors.Is(err, apperrors.ErrNoSnapshot) || s.Converter.Result != nil {
			t.Errorf("Expected ErrNoSnapshot and no result, got %v / %+v", err, s.Converter)
		}
	})

	t.Run("snapshot of previous asset is not used", func(t *testing.T) {
		s := selectAsset(readyState(t), "ethereum")
		s = setConverterAmount(s, "1")

		s, err := convert(s, reducerNow)

		if !errors.Is(err, apperrors.ErrNoSnapshot) || s.Converter.Result != nil {
			t.Errorf("Expected ErrNoSnapshot while bitcoin snapshot is shown, got %v", err)
		}
	})

	t.Run("direction coin to usd", func(t *testing.T) {
		s := setConverterDirection(setConverterAmount(readyState(t), "0.5"), model.AssetToFiat)

		s, err := convert(s, reducerNow)
		if err != nil {
			t.Fatalf("convert() returned unexpected error: %v", err)
		}
		if *s.Converter.Result != 25000 {
			t.Errorf("Expected 25000, got %v", *s.Converter.Result)
		}
		if got := s.Converter.Display("btc"); got != "0.5 BTC = $25000.00 USD" {
			t.Errorf("Unexpected display %q", got)
		}
	})
}

func TestAlertTransitions(t *testing.T) {
	t.Run("threshold below price shows alert immediately", func(t *testing.T) {
		s, triggered := setAlertThreshold(readyState(t), ptr(2000.0))

		if !s.Alert.Visible || !triggered {
			t.Errorf("Expected alert visible, got %+v", s.Alert)
		}
	})

	t.Run("new threshold resets visibility first", func(t *testing.T) {
		s, _ := setAlertThreshold(readyState(t), ptr(2000.0))

		s, _ = setAlertThreshold(s, ptr(60000.0))

		if s.Alert.Visible {
			t.Error("Expected alert hidden after raising threshold above price")
		}
	})

	t.Run("nil threshold clears alert", func(t *testing.T) {
		s, _ := setAlertThreshold(readyState(t), ptr(2000.0))

		s, _ = setAlertThreshold(s, nil)

		if s.Alert.Visible || s.Alert.Threshold != nil {
			t.Errorf("Expected alert cleared, got %+v", s.Alert)
		}
	})

	t.Run("dismissed alert is evaluated on next snapshot", func(t *testing.T) {
		s, _ := setAlertThreshold(readyState(t), ptr(2000.0))
		s = dismissAlert(s)
		if s.Alert.Visible {
			t.Fatal("Expected alert hidden after dismiss")
		}

		s, triggered := applyFetch(s, model.AssetSnapshot{ID: "bitcoin", CurrentPrice: 50100}, nil, reducerNow)

		if !s.Alert.Visible || !triggered {
			t.Error("Expected alert visible again after next snapshot above threshold")
		}
	})
}

func ptr[T any](v T) *T { return &v }
