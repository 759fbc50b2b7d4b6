package repository

import (
	"context"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// NoopFetchRecorder discards fetch cycles. It is used when no database is configured.
type NoopFetchRecorder struct{}

// NewNoopFetchRecorder creates a recorder that stores nothing.
func NewNoopFetchRecorder() *NoopFetchRecorder {
	return &NoopFetchRecorder{}
}

func (NoopFetchRecorder) RecordFetch(context.Context, model.FetchCycle) error { return nil }

func (NoopFetchRecorder) GetFetchHistory(context.Context, model.FetchCycleFilter) ([]model.FetchCycle, error) {
	return []model.FetchCycle{}, nil
}

func (NoopFetchRecorder) GetFetchCycle(context.Context, string) (model.FetchCycle, error) {
	return model.FetchCycle{}, apperrors.ErrFetchCycleNotFound
}
