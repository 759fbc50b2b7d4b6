package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/api/handlers"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/testutil"
)

func decodeDashboard(t *testing.T, w *httptest.ResponseRecorder) handlers.DashboardResponse {
	t.Helper()
	var resp handlers.DashboardResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

func startedService(t *testing.T, client *testutil.MockMarketClient) *service.DashboardService {
	t.Helper()
	svc := testutil.NewTestDashboardService(t, nil, client)
	if _, err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() returned unexpected error: %v", err)
	}
	return svc
}

// TestDashboardHandler_Dashboard tests the GET /api/dashboard endpoint.
//
// WHY: The render layer polls this endpoint for everything it shows. It must return
// the full view state as JSON, including before the first fetch has completed.
func TestDashboardHandler_Dashboard(t *testing.T) {
	t.Run("returns loading state before first fetch", func(t *testing.T) {
		svc := testutil.NewTestDashboardService(t, nil, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.Dashboard(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
		}

		resp := decodeDashboard(t, w)
		if resp.Status != model.StatusLoading {
			t.Errorf("Expected status 'loading', got '%s'", resp.Status)
		}
		if resp.Snapshot != nil {
			t.Error("Expected no snapshot before first fetch")
		}
	})

	t.Run("returns snapshot and history after start", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.Dashboard(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

		resp := decodeDashboard(t, w)
		if resp.Status != model.StatusReady {
			t.Errorf("Expected status 'ready', got '%s'", resp.Status)
		}
		if resp.Snapshot == nil || resp.Snapshot.CurrentPrice != 50000 {
			t.Errorf("Expected bitcoin snapshot at 50000, got %+v", resp.Snapshot)
		}
		if len(resp.History) == 0 {
			t.Error("Expected history points")
		}
	})
}

// TestDashboardHandler_SelectAsset tests the PUT /api/dashboard/asset endpoint.
//
// WHY: Selecting a coin is the main interaction. Unknown coins must be rejected with 400,
// while provider failures must still return 200 with the error carried in the view state
// so the render layer can show its banner.
func TestDashboardHandler_SelectAsset(t *testing.T) {
	t.Run("switches to ethereum", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.SelectAsset(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/asset", `{"id":"ethereum"}`))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := decodeDashboard(t, w)
		if resp.SelectedAsset != "ethereum" {
			t.Errorf("Expected selected asset 'ethereum', got '%s'", resp.SelectedAsset)
		}
		if resp.Snapshot == nil || resp.Snapshot.CurrentPrice != 2500 {
			t.Errorf("Expected ethereum snapshot at 2500, got %+v", resp.Snapshot)
		}
	})

	t.Run("unknown coin returns 400", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.SelectAsset(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/asset", `{"id":"dogecoin"}`))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
		if svc.State().SelectedAsset != "bitcoin" {
			t.Errorf("Expected selection to stay 'bitcoin', got '%s'", svc.State().SelectedAsset)
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		svc := testutil.NewTestDashboardService(t, nil, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.SelectAsset(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/asset", `{"id":`))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("provider failure returns 200 with error in state", func(t *testing.T) {
		client := testutil.NewMockMarketClient()
		svc := startedService(t, client)
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)
		client.WithError(errors.New("rate limited"))

		w := httptest.NewRecorder()
		handler.SelectAsset(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/asset", `{"id":"ethereum"}`))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := decodeDashboard(t, w)
		if resp.Error == nil {
			t.Error("Expected error message in view state")
		}
		if resp.Snapshot == nil || resp.Snapshot.ID != "bitcoin" {
			t.Errorf("Expected previous bitcoin snapshot to be kept, got %+v", resp.Snapshot)
		}
	})
}

func TestDashboardHandler_SetDateRange(t *testing.T) {
	t.Run("applies range and returns matching history", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		body := `{"startDate":"2024-01-01","endDate":"2024-01-10"}`
		w := httptest.NewRecorder()
		handler.SetDateRange(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/range", body))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := decodeDashboard(t, w)
		if len(resp.History) != 10 {
			t.Errorf("Expected 10 history points, got %d", len(resp.History))
		}
		if resp.Range.Start.Format("2006-01-02") != "2024-01-01" {
			t.Errorf("Expected range start 2024-01-01, got %v", resp.Range.Start)
		}
	})

	t.Run("end before start returns 400", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		body := `{"startDate":"2024-01-10","endDate":"2024-01-01"}`
		w := httptest.NewRecorder()
		handler.SetDateRange(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/range", body))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("malformed date returns 400", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.SetDateRange(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/range", `{"startDate":"01/01/2024"}`))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestDashboardHandler_Refresh(t *testing.T) {
	client := testutil.NewMockMarketClient()
	svc := startedService(t, client)
	handler := handlers.NewDashboardHandler(svc, 5*time.Second)
	client.WithPrice("bitcoin", 51000)

	w := httptest.NewRecorder()
	handler.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/dashboard/refresh", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	resp := decodeDashboard(t, w)
	if resp.Snapshot == nil || resp.Snapshot.CurrentPrice != 51000 {
		t.Errorf("Expected refreshed price 51000, got %+v", resp.Snapshot)
	}
	if resp.Generation != 2 {
		t.Errorf("Expected generation 2, got %d", resp.Generation)
	}
}

// TestDashboardHandler_Alert tests setting, clearing and dismissing the alert.
//
// WHY: The alert fires when the price rises above the threshold. A negative threshold
// must be rejected, and a null threshold clears the alert.
func TestDashboardHandler_Alert(t *testing.T) {
	t.Run("threshold below price shows alert", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.SetAlert(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/alert", `{"threshold":40000}`))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if resp := decodeDashboard(t, w); !resp.Alert.Visible {
			t.Error("Expected alert to be visible")
		}

		w = httptest.NewRecorder()
		handler.DismissAlert(w, httptest.NewRequest(http.MethodDelete, "/api/dashboard/alert", nil))

		resp := decodeDashboard(t, w)
		if resp.Alert.Visible {
			t.Error("Expected alert to be hidden after dismiss")
		}
		if resp.Alert.Threshold == nil || *resp.Alert.Threshold != 40000 {
			t.Errorf("Expected threshold to be kept, got %v", resp.Alert.Threshold)
		}
	})

	t.Run("null threshold clears alert", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)
		if _, err := svc.SetAlertThreshold(testutil.Ptr(40000.0)); err != nil {
			t.Fatalf("SetAlertThreshold() returned unexpected error: %v", err)
		}

		w := httptest.NewRecorder()
		handler.SetAlert(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/alert", `{"threshold":null}`))

		resp := decodeDashboard(t, w)
		if resp.Alert.Threshold != nil || resp.Alert.Visible {
			t.Errorf("Expected cleared alert, got %+v", resp.Alert)
		}
	})

	t.Run("negative threshold returns 400", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.SetAlert(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/alert", `{"threshold":-1}`))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestDashboardHandler_DismissError(t *testing.T) {
	client := testutil.NewMockMarketClient().WithError(errors.New("offline"))
	svc := testutil.NewTestDashboardService(t, nil, client)
	svc.Start(context.Background()) //nolint:errcheck // failure is the point of this test
	handler := handlers.NewDashboardHandler(svc, 5*time.Second)

	if svc.State().Error == nil {
		t.Fatal("Expected error after failed start")
	}

	w := httptest.NewRecorder()
	handler.DismissError(w, httptest.NewRequest(http.MethodDelete, "/api/dashboard/error", nil))

	if resp := decodeDashboard(t, w); resp.Error != nil {
		t.Errorf("Expected error to be cleared, got '%s'", *resp.Error)
	}
}

// TestDashboardHandler_Converter tests the converter endpoints.
//
// WHY: The converter accepts free text. Invalid input must not be an HTTP error; it
// simply yields no result. Only an unknown direction is a client error.
func TestDashboardHandler_Converter(t *testing.T) {
	t.Run("converts usd to coin", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.SetConverter(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/converter",
			`{"amount":"100","direction":"usdToCoin"}`))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		w = httptest.NewRecorder()
		handler.Convert(w, httptest.NewRequest(http.MethodPost, "/api/dashboard/converter/convert", nil))

		resp := decodeDashboard(t, w)
		if resp.Converter.Result == nil || *resp.Converter.Result != 0.002 {
			t.Errorf("Expected result 0.002, got %v", resp.Converter.Result)
		}
		if resp.ConverterDisplay != "$100 USD = 0.002000 BTC" {
			t.Errorf("Unexpected display '%s'", resp.ConverterDisplay)
		}
	})

	t.Run("numeric amount is accepted", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.SetConverter(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/converter",
			`{"amount":2,"direction":"coinToUsd"}`))
		handler.Convert(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/dashboard/converter/convert", nil))

		state := svc.State()
		if state.Converter.Result == nil || *state.Converter.Result != 100000 {
			t.Errorf("Expected result 100000, got %v", state.Converter.Result)
		}
	})

	t.Run("direction change alone converts the stored amount", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.SetConverter(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/converter", `{"amount":"3"}`))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		w = httptest.NewRecorder()
		handler.SetConverter(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/converter", `{"direction":"coinToUsd"}`))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := decodeDashboard(t, w)
		if resp.Converter.Amount != "3" || resp.Converter.Direction != model.AssetToFiat {
			t.Fatalf("Expected amount '3' and direction coinToUsd, got %+v", resp.Converter)
		}

		w = httptest.NewRecorder()
		handler.Convert(w, httptest.NewRequest(http.MethodPost, "/api/dashboard/converter/convert", nil))

		resp = decodeDashboard(t, w)
		if resp.Converter.Result == nil || *resp.Converter.Result != 150000 {
			t.Errorf("Expected 3 BTC = 150000 USD, got %v", resp.Converter.Result)
		}
		if resp.ConverterDisplay != "3 BTC = $150000.00 USD" {
			t.Errorf("Unexpected display '%s'", resp.ConverterDisplay)
		}
	})

	t.Run("invalid amount yields no result", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		handler.SetConverter(httptest.NewRecorder(), testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/converter",
			`{"amount":"abc"}`))
		w := httptest.NewRecorder()
		handler.Convert(w, httptest.NewRequest(http.MethodPost, "/api/dashboard/converter/convert", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		resp := decodeDashboard(t, w)
		if resp.Converter.Result != nil {
			t.Errorf("Expected no result, got %v", *resp.Converter.Result)
		}
		if resp.ConverterDisplay != "" {
			t.Errorf("Expected empty display, got '%s'", resp.ConverterDisplay)
		}
	})

	t.Run("unknown direction returns 400", func(t *testing.T) {
		svc := startedService(t, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		w := httptest.NewRecorder()
		handler.SetConverter(w, testutil.NewJSONRequest(http.MethodPut, "/api/dashboard/converter",
			`{"direction":"sideways"}`))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestDashboardHandler_Coins(t *testing.T) {
	svc := testutil.NewTestDashboardService(t, nil, testutil.NewMockMarketClient())
	handler := handlers.NewDashboardHandler(svc, 5*time.Second)

	w := httptest.NewRecorder()
	handler.Coins(w, httptest.NewRequest(http.MethodGet, "/api/coin", nil))

	var coins []model.Coin
	if err := json.NewDecoder(w.Body).Decode(&coins); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(coins) != len(testutil.TestCoins) {
		t.Errorf("Expected %d coins, got %d", len(testutil.TestCoins), len(coins))
	}
}

// TestDashboardHandler_FetchHistory tests the fetch history endpoints.
//
// WHY: Recorded cycles are the only trace of failed or superseded fetches.
// Lookups of unknown IDs must be 404, not 500.
func TestDashboardHandler_FetchHistory(t *testing.T) {
	t.Run("lists recorded cycles", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDashboardService(t, db, testutil.NewMockMarketClient())
		if _, err := svc.Start(context.Background()); err != nil {
			t.Fatalf("Start() returned unexpected error: %v", err)
		}
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/dashboard/fetches",
			map[string]string{"asset": "bitcoin", "limit": "10"})
		w := httptest.NewRecorder()
		handler.FetchHistory(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var cycles []model.FetchCycle
		if err := json.NewDecoder(w.Body).Decode(&cycles); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(cycles) != 1 {
			t.Fatalf("Expected 1 cycle, got %d", len(cycles))
		}
		if cycles[0].Trigger != model.TriggerMount || cycles[0].Status != model.FetchApplied {
			t.Errorf("Unexpected cycle %+v", cycles[0])
		}

		w = httptest.NewRecorder()
		handler.FetchCycle(w, testutil.NewRequestWithURLParams(http.MethodGet,
			"/api/dashboard/fetches/"+cycles[0].ID, map[string]string{"uuid": cycles[0].ID}))
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("invalid limit returns 400", func(t *testing.T) {
		svc := testutil.NewTestDashboardService(t, nil, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/dashboard/fetches",
			map[string]string{"limit": "lots"})
		w := httptest.NewRecorder()
		handler.FetchHistory(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("unknown cycle returns 404", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDashboardService(t, db, testutil.NewMockMarketClient())
		handler := handlers.NewDashboardHandler(svc, 5*time.Second)

		id := testutil.MakeID()
		w := httptest.NewRecorder()
		handler.FetchCycle(w, testutil.NewRequestWithURLParams(http.MethodGet,
			"/api/dashboard/fetches/"+id, map[string]string{"uuid": id}))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}
