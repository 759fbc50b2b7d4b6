package model

import "time"

// FetchTrigger names the event that started a fetch cycle.
type FetchTrigger string

const (
	TriggerMount  FetchTrigger = "mount"
	TriggerAsset  FetchTrigger = "asset"
	TriggerRange  FetchTrigger = "range"
	TriggerManual FetchTrigger = "manual"
	TriggerTimer  FetchTrigger = "timer"
)

// FetchStatus is the outcome of a fetch cycle.
type FetchStatus string

const (
	FetchApplied FetchStatus = "applied" // Result committed to view state
	FetchFailed  FetchStatus = "failed"  // Provider error, prior data kept
	FetchStale   FetchStatus = "stale"   // Superseded by a newer cycle, result discarded
)

// FetchCycle records one pair of snapshot and historical requests.
type FetchCycle struct {
	ID          string       `json:"id"`
	Generation  uint64       `json:"generation"`
	AssetID     string       `json:"assetId"`
	RangeStart  time.Time    `json:"rangeStart"`
	RangeEnd    time.Time    `json:"rangeEnd"`
	Trigger     FetchTrigger `json:"trigger"`
	Status      FetchStatus  `json:"status"`
	Error       string       `json:"error,omitempty"`
	PricePoints int          `json:"pricePoints"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
}

// FetchCycleFilter for querying recorded fetch cycles.
type FetchCycleFilter struct {
	AssetID string
	Limit   int
}
