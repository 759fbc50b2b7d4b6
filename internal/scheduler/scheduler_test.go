package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

type fakeRefresher struct {
	mu       sync.Mutex
	triggers []model.FetchTrigger
	err      error
	calls    chan struct{}
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{calls: make(chan struct{}, 16)}
}

func (f *fakeRefresher) Refresh(_ context.Context, trigger model.FetchTrigger) (model.ViewState, error) {
	f.mu.Lock()
	f.triggers = append(f.triggers, trigger)
	f.mu.Unlock()
	f.calls <- struct{}{}
	return model.ViewState{Snapshot: &model.AssetSnapshot{ID: "bitcoin", CurrentPrice: 1}}, f.err
}

// TestScheduler tests the recurring refresh timer.
//
// WHY: The dashboard refreshes itself daily. Ticks must use the timer trigger and
// the timer must stop cleanly on shutdown.
func TestScheduler(t *testing.T) {
	t.Run("invalid spec is rejected", func(t *testing.T) {
		if _, err := New("every day", newFakeRefresher(), time.Second); err == nil {
			t.Error("Expected error for invalid cron spec, got nil")
		}
	})

	t.Run("ticks refresh with timer trigger", func(t *testing.T) {
		f := newFakeRefresher()
		s, err := New("@every 1s", f, time.Second)
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}

		s.Start()
		defer s.Stop()

		select {
		case <-f.calls:
		case <-time.After(3 * time.Second):
			t.Fatal("Timed out waiting for scheduled refresh")
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.triggers[0] != model.TriggerTimer {
			t.Errorf("Expected trigger 'timer', got '%s'", f.triggers[0])
		}
	})

	t.Run("run now refreshes once even on failure", func(t *testing.T) {
		f := newFakeRefresher()
		f.err = errors.New("offline")
		s, err := New("@every 24h", f, time.Second)
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}

		s.RunNow()

		if len(f.calls) != 1 {
			t.Errorf("Expected 1 refresh, got %d", len(f.calls))
		}
	})

	t.Run("next is scheduled after start", func(t *testing.T) {
		s, err := New("@every 24h", newFakeRefresher(), time.Second)
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}

		s.Start()
		next := s.Next()
		s.Stop()

		if d := time.Until(next); d < 23*time.Hour || d > 25*time.Hour {
			t.Errorf("Expected next run in about 24h, got %v", d)
		}
	})
}
