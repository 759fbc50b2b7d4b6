package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/api"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/coingecko"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/config"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/database"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/repository"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/scheduler"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Crypto Price Dashboard %s", version.Version)

	// Open the fetch history database; an empty DB_PATH runs without one
	var db *sql.DB
	var recorder service.FetchRecorder = repository.NewNoopFetchRecorder()
	if cfg.Database.Path != "" {
		db, err = database.Open(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		log.Printf("Connected to database: %s", cfg.Database.Path)
		recorder = repository.NewFetchCycleRepository(db)
	} else {
		log.Println("DB_PATH is empty, fetch history is disabled")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	// Create services
	client := coingecko.NewMarketClient(coingecko.Options{
		BaseURL:      cfg.Provider.BaseURL,
		APIKey:       cfg.Provider.APIKey,
		APIKeyHeader: cfg.Provider.APIKeyHeader,
		VsCurrency:   cfg.Provider.VsCurrency,
		Timeout:      cfg.Provider.Timeout,
	})

	systemService := service.NewSystemService(db)
	dashboardService := service.NewDashboardService(client, recorder, m, service.DashboardOptions{
		Coins:            cfg.Dashboard.Coins,
		DefaultAsset:     cfg.Dashboard.DefaultAsset,
		DefaultRangeDays: cfg.Dashboard.DefaultRangeDays,
		VsCurrency:       cfg.Provider.VsCurrency,
		FetchTimeout:     cfg.Refresh.FetchTimeout,
	})

	// Initial fetch runs in the background so the API is reachable while it loads
	if cfg.Refresh.OnStart {
		go func() {
			if _, err := dashboardService.Start(context.Background()); err != nil {
				log.Printf("Initial fetch failed: %v", err)
			}
		}()
	}

	// Recurring refresh
	sched, err := scheduler.New(cfg.Refresh.Schedule, dashboardService, cfg.Refresh.FetchTimeout)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()
	log.Printf("Next refresh at %s", sched.Next().Format(time.RFC3339))

	// Create router
	router := api.NewRouter(systemService, dashboardService, m, registry, cfg)

	// Create HTTP server. WriteTimeout stays above the fetch timeout so a
	// fetch-triggering request can return its view state.
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Refresh.FetchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	sched.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
