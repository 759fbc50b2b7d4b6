package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/coingecko"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// FetchRecorder stores the outcome of every fetch cycle.
// Recorded cycles are informational and never read back into the view state.
type FetchRecorder interface {
	RecordFetch(ctx context.Context, cycle model.FetchCycle) error
	GetFetchHistory(ctx context.Context, filter model.FetchCycleFilter) ([]model.FetchCycle, error)
	GetFetchCycle(ctx context.Context, id string) (model.FetchCycle, error)
}

// DashboardOptions configures a DashboardService.
type DashboardOptions struct {
	Coins            []model.Coin
	DefaultAsset     string
	DefaultRangeDays int
	VsCurrency       string
	FetchTimeout     time.Duration
	Now              func() time.Time // Defaults to time.Now
}

const (
	defaultFetchTimeout = 30 * time.Second
	subscriberBuffer    = 16
)

// DashboardService owns the dashboard view state and runs fetch cycles against the provider.
//
// All transitions of the view state go through the functions in view_state.go and are applied
// under mu. Every committed state is pushed to subscribers.
//
// Fetch cycles:
//   - Each started cycle takes the next generation number. Only the cycle holding the latest
//     generation may commit; older ones are recorded as stale and dropped.
//   - Selecting an asset or changing the range bumps the selection epoch. Cycles are
//     single-flighted per asset, range and epoch, so an overlapping timer tick and manual
//     update share one pair of provider requests.
//   - The snapshot and history requests run concurrently and both must succeed.
type DashboardService struct {
	mu         sync.Mutex
	state      model.ViewState
	generation uint64
	epoch      uint64

	client       coingecko.Client
	recorder     FetchRecorder
	metrics      *metrics.Metrics
	flights      singleflight.Group
	coins        []model.Coin
	vsCurrency   string
	fetchTimeout time.Duration
	now          func() time.Time

	// Lock order: mu before subsMu.
	subsMu sync.Mutex
	subs   map[chan model.ViewState]struct{}
}

// NewDashboardService creates a DashboardService in the initial loading state.
// No request is issued until Start or another fetch trigger is called.
func NewDashboardService(
	client coingecko.Client,
	recorder FetchRecorder,
	m *metrics.Metrics,
	opts DashboardOptions,
) *DashboardService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.VsCurrency == "" {
		opts.VsCurrency = "usd"
	}
	if opts.DefaultRangeDays <= 0 {
		opts.DefaultRangeDays = 30
	}

	coins := make([]model.Coin, len(opts.Coins))
	copy(coins, opts.Coins)

	return &DashboardService{
		state:        initialViewState(opts.DefaultAsset, defaultRange(opts.Now(), opts.DefaultRangeDays)),
		client:       client,
		recorder:     recorder,
		metrics:      m,
		coins:        coins,
		vsCurrency:   opts.VsCurrency,
		fetchTimeout: opts.FetchTimeout,
		now:          opts.Now,
		subs:         make(map[chan model.ViewState]struct{}),
	}
}

// Coins returns the selectable coin catalog.
func (s *DashboardService) Coins() []model.Coin {
	out := make([]model.Coin, len(s.coins))
	copy(out, s.coins)
	return out
}

// State returns a copy of the current view state.
func (s *DashboardService) State() model.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Start runs the initial fetch cycle for the default selection.
func (s *DashboardService) Start(ctx context.Context) (model.ViewState, error) {
	return s.Refresh(ctx, model.TriggerMount)
}

// Refresh runs a fetch cycle for the current selection and waits for it.
//
// If a cycle for the same selection is already in flight the call joins it.
// A cycle that fails leaves snapshot and history untouched, sets the error message
// on the view state and returns an error wrapping apperrors.ErrFetchFailed.
// A cycle that is superseded while in flight returns no error.
//
// ctx only bounds the wait; the cycle itself is bounded by the fetch timeout.
func (s *DashboardService) Refresh(ctx context.Context, trigger model.FetchTrigger) (model.ViewState, error) {
	s.mu.Lock()
	asset, rng, epoch := s.state.SelectedAsset, s.state.Range, s.epoch
	s.mu.Unlock()

	return s.refresh(ctx, trigger, asset, rng, epoch)
}

// SelectAsset switches the selected coin and fetches its data.
// Returns apperrors.ErrUnknownAsset when the coin is not in the catalog.
func (s *DashboardService) SelectAsset(ctx context.Context, assetID string) (model.ViewState, error) {
	if !s.knownCoin(assetID) {
		return s.State(), fmt.Errorf("%w: %s", apperrors.ErrUnknownAsset, assetID)
	}

	s.mu.Lock()
	s.epoch++
	s.commit(selectAsset(s.state, assetID))
	rng, epoch := s.state.Range, s.epoch
	s.mu.Unlock()

	return s.refresh(ctx, model.TriggerAsset, assetID, rng, epoch)
}

// SetDateRange changes the start and/or end of the historical range and fetches again.
// A nil bound keeps its current value. Returns apperrors.ErrInvalidDateRange when the
// resulting end precedes the start.
func (s *DashboardService) SetDateRange(ctx context.Context, start, end *time.Time) (model.ViewState, error) {
	s.mu.Lock()
	rng := s.state.Range
	if start != nil {
		rng.Start = start.UTC()
	}
	if end != nil {
		rng.End = end.UTC()
	}
	if rng.End.Before(rng.Start) {
		s.mu.Unlock()
		return s.State(), apperrors.ErrInvalidDateRange
	}

	s.epoch++
	s.commit(setDateRange(s.state, rng))
	asset, epoch := s.state.SelectedAsset, s.epoch
	s.mu.Unlock()

	return s.refresh(ctx, model.TriggerRange, asset, rng, epoch)
}

// SetAlertThreshold sets or clears (nil) the alert threshold.
// The alert is hidden and evaluated against the current snapshot immediately.
func (s *DashboardService) SetAlertThreshold(threshold *float64) (model.ViewState, error) {
	if threshold != nil && (*threshold < 0 || math.IsNaN(*threshold) || math.IsInf(*threshold, 0)) {
		return s.State(), apperrors.ErrInvalidThreshold
	}
	if threshold != nil {
		v := *threshold
		threshold = &v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, triggered := setAlertThreshold(s.state, threshold)
	if triggered {
		s.metrics.AlertsTriggered.Inc()
	}
	return s.commit(next), nil
}

// DismissAlert hides the alert. The threshold is kept and evaluated again on the next snapshot.
func (s *DashboardService) DismissAlert() model.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(dismissAlert(s.state))
}

// DismissError clears the fetch error message.
func (s *DashboardService) DismissError() model.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(dismissError(s.state))
}

// SetConverter updates the converter amount and/or direction. A nil argument is left unchanged.
// The amount is stored as typed; it is only parsed when a conversion is triggered.
func (s *DashboardService) SetConverter(amount *string, direction *model.ConversionDirection) (model.ViewState, error) {
	if direction != nil && !model.ValidConversionDirections[*direction] {
		return s.State(), fmt.Errorf("%w: %s", apperrors.ErrInvalidDirection, *direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	if amount != nil {
		next = setConverterAmount(next, *amount)
	}
	if direction != nil {
		next = setConverterDirection(next, *direction)
	}
	return s.commit(next), nil
}

// Convert resolves the converter amount against the current snapshot price.
// Invalid input or a missing snapshot clears the previous result; no error is surfaced.
func (s *DashboardService) Convert() model.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := convert(s.state, s.now().UTC())
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	s.metrics.ConversionsTotal.WithLabelValues(string(next.Converter.Direction), outcome).Inc()
	return s.commit(next)
}

// Subscribe registers a listener for view state changes. The channel receives the current
// state first and then every committed state. When the listener falls behind, the oldest
// pending state is dropped. The returned function unsubscribes and closes the channel.
func (s *DashboardService) Subscribe() (<-chan model.ViewState, func()) {
	ch := make(chan model.ViewState, subscriberBuffer)

	s.mu.Lock()
	ch <- s.state.Clone()
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()
	s.mu.Unlock()
	s.metrics.StreamSubscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, ch)
			close(ch)
			s.subsMu.Unlock()
			s.metrics.StreamSubscribers.Dec()
		})
	}
}

// FetchHistory lists recorded fetch cycles, newest first.
func (s *DashboardService) FetchHistory(ctx context.Context, filter model.FetchCycleFilter) ([]model.FetchCycle, error) {
	cycles, err := s.recorder.GetFetchHistory(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveFetchHistory, err)
	}
	return cycles, nil
}

// FetchCycle returns one recorded fetch cycle.
// Returns apperrors.ErrFetchCycleNotFound when no cycle has the given ID.
func (s *DashboardService) FetchCycle(ctx context.Context, id string) (model.FetchCycle, error) {
	return s.recorder.GetFetchCycle(ctx, id)
}

func (s *DashboardService) knownCoin(id string) bool {
	for _, c := range s.coins {
		if c.ID == id {
			return true
		}
	}
	return false
}

// commit replaces the state and publishes it. Caller must hold mu.
func (s *DashboardService) commit(next model.ViewState) model.ViewState {
	s.state = next
	s.publish(next.Clone())
	return next.Clone()
}

// publish pushes state to every subscriber without blocking. Caller must hold mu.
func (s *DashboardService) publish(state model.ViewState) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

func (s *DashboardService) refresh(
	ctx context.Context,
	trigger model.FetchTrigger,
	asset string,
	rng model.DateRange,
	epoch uint64,
) (model.ViewState, error) {
	key := fmt.Sprintf("%s|%d|%d|%d", asset, rng.Start.Unix(), rng.End.Unix(), epoch)
	ch := s.flights.DoChan(key, func() (any, error) {
		return nil, s.runCycle(trigger, asset, rng, epoch)
	})

	select {
	case res := <-ch:
		return s.State(), res.Err
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

// runCycle performs one fetch cycle and commits its result if it is still the latest.
func (s *DashboardService) runCycle(trigger model.FetchTrigger, asset string, rng model.DateRange, epoch uint64) error {
	s.mu.Lock()
	if epoch != s.epoch {
		// The selection changed before this cycle started; the newer selection has its own cycle.
		s.mu.Unlock()
		return nil
	}
	s.generation++
	gen := s.generation
	s.commit(beginFetch(s.state, gen))
	s.mu.Unlock()

	cycle := model.FetchCycle{
		ID:         uuid.New().String(),
		Generation: gen,
		AssetID:    asset,
		RangeStart: rng.Start,
		RangeEnd:   rng.End,
		Trigger:    trigger,
		StartedAt:  s.now().UTC(),
	}

	started := time.Now()
	s.metrics.FetchesInFlight.Inc()
	snapshot, history, err := s.fetch(asset, rng)
	s.metrics.FetchesInFlight.Dec()
	s.metrics.FetchDuration.Observe(time.Since(started).Seconds())
	cycle.FinishedAt = s.now().UTC()
	if err != nil {
		cycle.Error = err.Error()
	}

	s.mu.Lock()
	switch {
	case gen != s.generation:
		cycle.Status = model.FetchStale
	case err != nil:
		cycle.Status = model.FetchFailed
		s.commit(failFetch(s.state, apperrors.FetchErrorMessage))
	default:
		cycle.Status = model.FetchApplied
		cycle.PricePoints = len(history)
		next, triggered := applyFetch(s.state, snapshot, history, cycle.FinishedAt)
		s.commit(next)
		if triggered {
			s.metrics.AlertsTriggered.Inc()
		}
		s.metrics.CurrentAssetPrice.WithLabelValues(asset).Set(snapshot.CurrentPrice)
	}
	s.mu.Unlock()

	s.metrics.FetchCyclesTotal.WithLabelValues(string(trigger), string(cycle.Status)).Inc()
	s.record(cycle)

	switch cycle.Status {
	case model.FetchFailed:
		log.Printf("Fetch cycle %s for %s failed: %v", cycle.ID, asset, err)
		return fmt.Errorf("%w: %w", apperrors.ErrFetchFailed, err)
	case model.FetchStale:
		log.Printf("Fetch cycle %s for %s superseded, result discarded", cycle.ID, asset)
	}
	return nil
}

// fetch issues the snapshot and history requests concurrently.
// The cycle may be shared by several callers, so it runs on its own context
// bounded by the fetch timeout rather than on any caller's context.
func (s *DashboardService) fetch(asset string, rng model.DateRange) (model.AssetSnapshot, model.HistoricalSeries, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
	defer cancel()

	var (
		snapshot model.AssetSnapshot
		history  model.HistoricalSeries
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := s.client.QueryCoin(gctx, asset)
		if err != nil {
			return fmt.Errorf("snapshot request: %w", err)
		}
		snapshot, err = coingecko.ParseSnapshot(raw, s.vsCurrency, s.now())
		return err
	})
	g.Go(func() error {
		raw, err := s.client.QueryMarketChartRange(gctx, asset, rng.Start, rng.End)
		if err != nil {
			return fmt.Errorf("history request: %w", err)
		}
		history, err = coingecko.ParseMarketChart(raw)
		return err
	})

	if err := g.Wait(); err != nil {
		return model.AssetSnapshot{}, nil, err
	}
	return snapshot, history, nil
}

func (s *DashboardService) record(cycle model.FetchCycle) {
	if err := s.recorder.RecordFetch(context.Background(), cycle); err != nil {
		log.Printf("%v %s: %v", apperrors.ErrFailedToRecordFetch, cycle.ID, err)
	}
}
