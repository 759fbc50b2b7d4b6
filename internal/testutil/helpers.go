package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/repository"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/service"
)

// TestNow is the fixed clock used by test dashboard services.
var TestNow = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

// TestFetchTimeout bounds fetch cycles of test dashboard services.
const TestFetchTimeout = 5 * time.Second

// TestCoins is the catalog used by test dashboard services.
var TestCoins = []model.Coin{
	{ID: "bitcoin", Name: "Bitcoin"},
	{ID: "ethereum", Name: "Ethereum"},
	{ID: "litecoin", Name: "Litecoin"},
}

// NewTestMetrics creates metrics on a private registry so tests never collide on registration.
func NewTestMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	return metrics.NewMetrics(prometheus.NewRegistry())
}

// NewTestDashboardService creates a DashboardService for bitcoin over the 30 days before TestNow.
// A nil db records nothing.
func NewTestDashboardService(t *testing.T, db *sql.DB, client *MockMarketClient) *service.DashboardService {
	t.Helper()

	var recorder service.FetchRecorder = repository.NewNoopFetchRecorder()
	if db != nil {
		recorder = repository.NewFetchCycleRepository(db)
	}

	return service.NewDashboardService(client, recorder, NewTestMetrics(t), service.DashboardOptions{
		Coins:            TestCoins,
		DefaultAsset:     "bitcoin",
		DefaultRangeDays: 30,
		VsCurrency:       "usd",
		FetchTimeout:     TestFetchTimeout,
		Now:              func() time.Time { return TestNow },
	})
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
