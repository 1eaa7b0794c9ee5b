// Trade import service
// Entry point for the web server
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/findosh/tradeimport/internal/config"
	"github.com/findosh/tradeimport/internal/handlers"
	"github.com/findosh/tradeimport/internal/logger"
	"github.com/findosh/tradeimport/internal/middleware"
	"github.com/findosh/tradeimport/internal/services/importer"
	"github.com/findosh/tradeimport/internal/services/telemetry"
	"github.com/findosh/tradeimport/internal/storage"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.L

	// Initialize database
	db, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	eventRepo := storage.NewEventRepository(db)
	hub := telemetry.NewHub(log, cfg.TelemetryOrigins...)
	defer hub.Close()

	// Telemetry never blocks an import; a nil emitter disables it
	var events importer.Emitter
	if cfg.Telemetry {
		recorder := telemetry.NewRecorder(cfg.TelemetryBuffer, log,
			telemetry.NewLogSink(log), eventRepo, hub)
		defer recorder.Close()
		events = recorder
	}

	importService := importer.NewService(events)
	h := handlers.New(cfg, importService, eventRepo, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.RateTTL, log)

	r := chi.NewRouter()
	r.Use(
		middleware.Recover(log),
		middleware.Logger(log),
		middleware.SecurityHeaders,
	)

	r.Get("/health", h.Health)
	r.Handle("/ws/telemetry", hub)

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Get("/brokers", h.Brokers)
		r.Get("/telemetry/stats", h.TelemetryStats)

		r.Post("/import", h.Import)
		r.Post("/import/mapped", h.ImportMapped)
		r.Post("/detect", h.Detect)
		r.Post("/validate", h.Validate)
		r.Post("/mapping", h.Mapping)
		r.Post("/realized", h.Realized)
		r.Post("/export/{format}", h.Export)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("environment", cfg.Environment).
			Str("upload_limit", cfg.UploadLimit()).
			Bool("telemetry", cfg.Telemetry).
			Msg("Trade import server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
