package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// DefaultFetchHistoryLimit caps GetFetchHistory when no limit is given.
const DefaultFetchHistoryLimit = 50

// timestampLayout has fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// FetchCycleRepository provides data access methods for the fetch_cycle table.
// It stores one row per fetch cycle; rows are only ever inserted.
type FetchCycleRepository struct {
	db *sql.DB
}

// NewFetchCycleRepository creates a new FetchCycleRepository with the provided database connection.
func NewFetchCycleRepository(db *sql.DB) *FetchCycleRepository {
	return &FetchCycleRepository{db: db}
}

// RecordFetch inserts a finished fetch cycle.
func (r *FetchCycleRepository) RecordFetch(ctx context.Context, c model.FetchCycle) error {
	query := `
		INSERT INTO fetch_cycle (
			id, generation, asset_id, range_start, range_end, trigger_event,
			status, error, price_points, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errMsg sql.NullString
	if c.Error != "" {
		errMsg = sql.NullString{String: c.Error, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		int64(c.Generation), //#nosec G115 -- generation counts cycles of one process
		c.AssetID,
		c.RangeStart.UTC().Format(timestampLayout),
		c.RangeEnd.UTC().Format(timestampLayout),
		string(c.Trigger),
		string(c.Status),
		errMsg,
		c.PricePoints,
		c.StartedAt.UTC().Format(timestampLayout),
		c.FinishedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToRecordFetch, err)
	}
	return nil
}

// GetFetchHistory retrieves recorded fetch cycles, newest first.
// An empty AssetID returns cycles of all assets. A non-positive Limit uses DefaultFetchHistoryLimit.
// Returns an empty slice if no cycles are found.
func (r *FetchCycleRepository) GetFetchHistory(ctx context.Context, filter model.FetchCycleFilter) ([]model.FetchCycle, error) {
	query := `
		SELECT id, generation, asset_id, range_start, range_end, trigger_event,
			status, error, price_points, started_at, finished_at
		FROM fetch_cycle
	`
	var args []any

	if filter.AssetID != "" {
		query += ` WHERE asset_id = ?`
		args = append(args, filter.AssetID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultFetchHistoryLimit
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch_cycle table: %w", err)
	}
	defer rows.Close()

	cycles := []model.FetchCycle{}
	for rows.Next() {
		c, err := scanFetchCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fetch_cycle table: %w", err)
	}

	return cycles, nil
}

// GetFetchCycle retrieves one fetch cycle by ID.
// Returns apperrors.ErrFetchCycleNotFound if no cycle has that ID.
func (r *FetchCycleRepository) GetFetchCycle(ctx context.Context, id string) (model.FetchCycle, error) {
	query := `
		SELECT id, generation, asset_id, range_start, range_end, trigger_event,
			status, error, price_points, started_at, finished_at
		FROM fetch_cycle
		WHERE id = ?
	`

	c, err := scanFetchCycle(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.FetchCycle{}, apperrors.ErrFetchCycleNotFound
	}
	if err != nil {
		return model.FetchCycle{}, err
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFetchCycle(row rowScanner) (model.FetchCycle, error) {
	var (
		c                                       model.FetchCycle
		generation                              int64
		trigger, status                         string
		errMsg                                  sql.NullString
		rangeStart, rangeEnd, started, finished string
	)

	err := row.Scan(
		&c.ID,
		&generation,
		&c.AssetID,
		&rangeStart,
		&rangeEnd,
		&trigger,
		&status,
		&errMsg,
		&c.PricePoints,
		&started,
		&finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FetchCycle{}, err
	}
	if err != nil {
		return model.FetchCycle{}, fmt.Errorf("failed to scan fetch_cycle results: %w", err)
	}

	c.Generation = uint64(generation) //#nosec G115 -- stored from a uint64
	c.Trigger = model.FetchTrigger(trigger)
	c.Status = model.FetchStatus(status)
	c.Error = errMsg.String

	if c.RangeStart, err = ParseTime(rangeStart); err != nil {
		return model.FetchCycle{}, fmt.Errorf("failed to parse range_start: %w", err)
	}
	if c.RangeEnd, err = ParseTime(rangeEnd); err != nil {
		return model.FetchCycle{}, fmt.Errorf("failed to parse range_end: %w", err)
	}
	if c.StartedAt, err = ParseTime(started); err != nil {
		return model.FetchCycle{}, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if c.FinishedAt, err = ParseTime(finished); err != nil {
		return model.FetchCycle{}, fmt.Errorf("failed to parse finished_at: %w", err)
	}

	return c, nil
}
