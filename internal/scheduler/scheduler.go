// Package scheduler runs the recurring dashboard refresh.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// Refresher runs a fetch cycle for the current selection.
type Refresher interface {
	Refresh(ctx context.Context, trigger model.FetchTrigger) (model.ViewState, error)
}

// Scheduler triggers a timer refresh on a cron schedule.
// A tick that arrives while the previous one is still running is skipped.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	ctx       context.Context
	cancel    context.CancelFunc
	timeout   time.Duration
}

// New creates a Scheduler running refresher on spec, e.g. "@every 24h" or "0 6 * * *".
// Each tick waits at most timeout for its cycle.
func New(spec string, refresher Refresher, timeout time.Duration) (*Scheduler, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron:      c,
		refresher: refresher,
		ctx:       ctx,
		cancel:    cancel,
		timeout:   timeout,
	}

	if _, err := c.AddFunc(spec, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("register refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("Refresh scheduler started")
}

// Stop stops the scheduler and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	log.Println("Refresh scheduler stopped")
}

// Next returns the time of the next scheduled refresh, or zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow runs one timer refresh immediately.
func (s *Scheduler) RunNow() {
	s.tick()
}

func (s *Scheduler) tick() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	state, err := s.refresher.Refresh(ctx, model.TriggerTimer)
	if err != nil {
		log.Printf("Scheduled refresh failed: %v", err)
		return
	}
	if state.Snapshot != nil {
		log.Printf("Scheduled refresh: %s at %.2f USD (%+.2f%%)",
			state.Snapshot.ID, state.Snapshot.CurrentPrice, state.Snapshot.PriceChange24h)
	}
}
