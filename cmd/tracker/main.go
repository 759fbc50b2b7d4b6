// Command tracker follows a single coin without serving the dashboard API.
// It fetches on start and on the refresh schedule and logs the price after every applied cycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/coingecko"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/config"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/repository"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/scheduler"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	coin := flag.String("coin", cfg.Dashboard.DefaultAsset, "coin id to track")
	schedule := flag.String("schedule", cfg.Refresh.Schedule, "refresh schedule (cron spec)")
	flag.Parse()

	client := coingecko.NewMarketClient(coingecko.Options{
		BaseURL:      cfg.Provider.BaseURL,
		APIKey:       cfg.Provider.APIKey,
		APIKeyHeader: cfg.Provider.APIKeyHeader,
		VsCurrency:   cfg.Provider.VsCurrency,
		Timeout:      cfg.Provider.Timeout,
	})

	coins := cfg.Dashboard.Coins
	if !hasCoin(coins, *coin) {
		coins = append(coins, model.Coin{ID: *coin, Name: *coin})
	}

	dashboardService := service.NewDashboardService(
		client,
		repository.NewNoopFetchRecorder(),
		metrics.NewMetrics(prometheus.NewRegistry()),
		service.DashboardOptions{
			Coins:            coins,
			DefaultAsset:     *coin,
			DefaultRangeDays: cfg.Dashboard.DefaultRangeDays,
			VsCurrency:       cfg.Provider.VsCurrency,
			FetchTimeout:     cfg.Refresh.FetchTimeout,
		},
	)

	updates, unsubscribe := dashboardService.Subscribe()
	defer unsubscribe()
	go logUpdates(updates)

	sched, err := scheduler.New(*schedule, dashboardService, cfg.Refresh.FetchTimeout)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	log.Printf("Tracking %s on schedule %q", *coin, *schedule)
	if _, err := dashboardService.Start(context.Background()); err != nil {
		log.Printf("Initial fetch failed: %v", err)
	}
	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	log.Println("Tracker exited")
}

// logUpdates logs once per finished fetch cycle, i.e. on every loading to ready transition.
func logUpdates(updates <-chan model.ViewState) {
	wasLoading := false
	for state := range updates {
		finished := wasLoading && !state.Loading
		wasLoading = state.Loading
		if !finished {
			continue
		}

		switch {
		case state.Error != nil && state.Snapshot == nil:
			log.Printf("%s: %s", state.SelectedAsset, *state.Error)
		case state.Error != nil:
			log.Printf("%s: %s (last price $%.2f)", state.SelectedAsset, *state.Error, state.Snapshot.CurrentPrice)
		case state.Snapshot != nil:
			log.Printf("%s (%s): $%.2f, 24h %+.2f%%, %d history points",
				state.Snapshot.Name, state.Snapshot.Symbol, state.Snapshot.CurrentPrice,
				state.Snapshot.PriceChange24h, len(state.History))
		}
	}
}

func hasCoin(coins []model.Coin, id string) bool {
	for _, c := range coins {
		if c.ID == id {
			return true
		}
	}
	return false
}
