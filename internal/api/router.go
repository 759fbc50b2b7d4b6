package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/api/middleware"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/config"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	dashboardService *service.DashboardService,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(custommiddleware.Metrics(m))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		dashboardHandler := handlers.NewDashboardHandler(dashboardService, cfg.Refresh.FetchTimeout)
		streamHandler := handlers.NewStreamHandler(dashboardService, cfg.CORS.AllowedOrigins)

		r.Get("/coin", dashboardHandler.Coins)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", dashboardHandler.Dashboard)
			r.Get("/stream", streamHandler.Stream)
			r.Put("/asset", dashboardHandler.SelectAsset)
			r.Put("/range", dashboardHandler.SetDateRange)
			r.Post("/refresh", dashboardHandler.Refresh)
			r.Put("/alert", dashboardHandler.SetAlert)
			r.Delete("/alert", dashboardHandler.DismissAlert)
			r.Delete("/error", dashboardHandler.DismissError)
			r.Put("/converter", dashboardHandler.SetConverter)
			r.Post("/converter/convert", dashboardHandler.Convert)

			r.Route("/fetches", func(r chi.Router) {
				r.Get("/", dashboardHandler.FetchHistory)
				r.With(custommiddleware.ValidateUUIDMiddleware).Get("/{uuid}", dashboardHandler.FetchCycle)
			})
		})
	})

	return r
}
