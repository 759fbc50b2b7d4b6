package service_test

import (
	"testing"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/testutil"
)

// TestEvaluateAlert tests the alert condition.
//
// WHY: The alert must fire when the price reaches the threshold and must not hide
// itself again when the price drops; only the user hides it.
func TestEvaluateAlert(t *testing.T) {
	snap := func(price float64) *model.AssetSnapshot {
		return &model.AssetSnapshot{ID: "bitcoin", CurrentPrice: price}
	}

	t.Run("price at threshold turns alert on", func(t *testing.T) {
		alert, triggered := service.EvaluateAlert(model.AlertState{Threshold: testutil.Ptr(2000.0)}, snap(2000))
		if !alert.Visible || !triggered {
			t.Errorf("Expected alert visible and triggered, got %+v (triggered %v)", alert, triggered)
		}
	})

	t.Run("price below threshold keeps alert off", func(t *testing.T) {
		alert, triggered := service.EvaluateAlert(model.AlertState{Threshold: testutil.Ptr(2000.0)}, snap(1999.99))
		if alert.Visible || triggered {
			t.Errorf("Expected alert hidden, got %+v", alert)
		}
	})

	t.Run("no threshold never fires", func(t *testing.T) {
		alert, _ := service.EvaluateAlert(model.AlertState{}, snap(1e9))
		if alert.Visible {
			t.Error("Expected alert hidden without threshold")
		}
	})

	t.Run("no snapshot never fires", func(t *testing.T) {
		alert, _ := service.EvaluateAlert(model.AlertState{Threshold: testutil.Ptr(0.0)}, nil)
		if alert.Visible {
			t.Error("Expected alert hidden without snapshot")
		}
	})

	t.Run("visible alert stays visible as price drops", func(t *testing.T) {
		alert := model.AlertState{Threshold: testutil.Ptr(2000.0)}
		for _, price := range []float64{2500, 1900, 100, 0.01} {
			var triggered bool
			alert, triggered = service.EvaluateAlert(alert, snap(price))
			if !alert.Visible {
				t.Fatalf("Alert hidden itself at price %v", price)
			}
			if triggered && price != 2500 {
				t.Errorf("Alert re-triggered at price %v", price)
			}
		}
	})
}
