package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/repository"
)

// FetchCycleBuilder provides a fluent interface for creating test fetch cycles.
type FetchCycleBuilder struct {
	cycle model.FetchCycle
}

// NewFetchCycle creates a builder for an applied bitcoin cycle started at TestNow.
//
// Example usage:
//
//	cycle := testutil.NewFetchCycle().WithAsset("ethereum").Failed("timeout").Build(t, db)
func NewFetchCycle() *FetchCycleBuilder {
	return &FetchCycleBuilder{
		cycle: model.FetchCycle{
			ID:          MakeID(),
			Generation:  1,
			AssetID:     "bitcoin",
			RangeStart:  TestNow.AddDate(0, 0, -30),
			RangeEnd:    TestNow,
			Trigger:     model.TriggerManual,
			Status:      model.FetchApplied,
			PricePoints: 31,
			StartedAt:   TestNow,
			FinishedAt:  TestNow.Add(250 * time.Millisecond),
		},
	}
}

func (b *FetchCycleBuilder) WithID(id string) *FetchCycleBuilder {
	b.cycle.ID = id
	return b
}

func (b *FetchCycleBuilder) WithAsset(assetID string) *FetchCycleBuilder {
	b.cycle.AssetID = assetID
	return b
}

func (b *FetchCycleBuilder) WithTrigger(trigger model.FetchTrigger) *FetchCycleBuilder {
	b.cycle.Trigger = trigger
	return b
}

// StartedAt sets the start time; the cycle finishes 250ms later.
func (b *FetchCycleBuilder) StartedAt(at time.Time) *FetchCycleBuilder {
	b.cycle.StartedAt = at
	b.cycle.FinishedAt = at.Add(250 * time.Millisecond)
	return b
}

// Failed marks the cycle as failed with the given error message.
func (b *FetchCycleBuilder) Failed(msg string) *FetchCycleBuilder {
	b.cycle.Status = model.FetchFailed
	b.cycle.Error = msg
	b.cycle.PricePoints = 0
	return b
}

// Stale marks the cycle as superseded.
func (b *FetchCycleBuilder) Stale() *FetchCycleBuilder {
	b.cycle.Status = model.FetchStale
	return b
}

// Cycle returns the cycle without storing it.
func (b *FetchCycleBuilder) Cycle() model.FetchCycle {
	return b.cycle
}

// Build inserts the cycle into the database and returns it.
func (b *FetchCycleBuilder) Build(t *testing.T, db *sql.DB) model.FetchCycle {
	t.Helper()

	if err := repository.NewFetchCycleRepository(db).RecordFetch(context.Background(), b.cycle); err != nil {
		t.Fatalf("Failed to create fetch cycle: %v", err)
	}
	return b.cycle
}

// CreateFetchCycles inserts count applied cycles for assetID, one minute apart, oldest first.
func CreateFetchCycles(t *testing.T, db *sql.DB, assetID string, count int) []model.FetchCycle {
	t.Helper()

	cycles := make([]model.FetchCycle, count)
	for i := range count {
		cycles[i] = NewFetchCycle().
			WithAsset(assetID).
			StartedAt(TestNow.Add(time.Duration(i)*time.Minute)).
			Build(t, db)
	}
	return cycles
}
