package service

import "github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"

// EvaluateAlert re-checks the price alert against the latest snapshot.
//
// The alert becomes visible when a threshold is set, a snapshot exists and
// snapshot.CurrentPrice >= threshold. Evaluation only ever turns the alert on:
// a visible alert stays visible when the price later drops, until the user
// dismisses it or sets a new threshold.
//
// Returns the new alert state and true when this evaluation turned the alert on.
func EvaluateAlert(alert model.AlertState, snapshot *model.AssetSnapshot) (model.AlertState, bool) {
	if alert.Visible || alert.Threshold == nil || snapshot == nil {
		return alert, false
	}
	if snapshot.CurrentPrice >= *alert.Threshold {
		alert.Visible = true
		return alert, true
	}
	return alert, false
}
