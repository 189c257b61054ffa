package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomvargas/cardmarket-data/internal/coldstore"
	"github.com/tomvargas/cardmarket-data/internal/config"
	"github.com/tomvargas/cardmarket-data/internal/database"
	"github.com/tomvargas/cardmarket-data/internal/eventlog"
	"github.com/tomvargas/cardmarket-data/internal/jobs"
	"github.com/tomvargas/cardmarket-data/internal/marketapi"
	"github.com/tomvargas/cardmarket-data/internal/model"
	"github.com/tomvargas/cardmarket-data/internal/scheduler"
	"github.com/tomvargas/cardmarket-data/internal/sink"
	"github.com/tomvargas/cardmarket-data/internal/status"
	"github.com/tomvargas/cardmarket-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/tracker.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting tracker",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.BaseURL,
		"season", cfg.Tracking.Season,
		"cards", len(cfg.Tracking.Cards),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to the listing database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := sink.NewListingStore(pool, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Open the event log
	log, err := eventlog.Open(cfg.EventLog.Path, logger)
	if err != nil {
		logger.Error("failed to open event log", "error", err)
		os.Exit(1)
	}
	defer log.Close()

	// Create marketplace API client
	apiClient := marketapi.NewClient(
		cfg.API.BaseURL,
		marketapi.WithLogger(logger),
		marketapi.WithTimeout(cfg.API.Timeout),
		marketapi.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
	)

	// Status hub broadcasts job transitions to websocket subscribers
	hub := status.NewHub(status.DefaultConfig(), logger)

	// Scheduler with the hub as its notifier
	manager := scheduler.New(scheduler.Config{
		TickInterval: cfg.Scheduler.TickInterval,
		JobTimeout:   cfg.Scheduler.JobTimeout,
	}, hub, logger)

	cards := make([]model.CardID, len(cfg.Tracking.Cards))
	for i, id := range cfg.Tracking.Cards {
		cards[i] = model.CardID(id)
	}

	importJob := jobs.NewImportJob(apiClient, log, cards, cfg.Import.Concurrency, logger)

	drainer := sink.NewDrainer(log, store, logger)
	drainJob := jobs.NewRelationalDrainJob(drainer, cfg.Drain.BatchSize, logger)

	coldWriter := coldstore.NewWriter(coldstore.Config{
		Dir:            cfg.ColdStore.Dir,
		MaxRowsPerFile: cfg.ColdStore.MaxRowsPerFile,
	}, log, logger)
	coldJob := jobs.NewColdStoreDrainJob(coldWriter, cfg.ColdStore.BatchSize, logger)

	manager.Register(jobs.TypeImport, importJob.Func())
	manager.Register(jobs.TypeDrain, drainJob.Func())
	manager.Register(jobs.TypeColdStore, coldJob.Func())

	season := strconv.Itoa(cfg.Tracking.Season)
	manager.AddSchedule(scheduler.Key{Type: jobs.TypeImport, Input: season}, cfg.Import.Interval)
	manager.AddSchedule(scheduler.Key{Type: jobs.TypeDrain, Input: season}, cfg.Drain.Interval)
	manager.AddSchedule(scheduler.Key{Type: jobs.TypeColdStore, Input: season}, cfg.ColdStore.Interval)

	// Health and status server
	statusServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Status.Port),
		Handler: createStatusHandler(pool, hub, manager, logger),
	}

	go func() {
		logger.Info("starting status server", "port", cfg.Status.Port)
		if err := statusServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("status server error", "error", err)
		}
	}()

	if err := manager.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	logger.Info("tracker running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Status.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler shutdown", "error", err)
	}
	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Warn("status hub shutdown", "error", err)
	}
	statusServer.Shutdown(shutdownCtx)

	logger.Info("tracker stopped")
}

// createStatusHandler creates the HTTP handler for health checks and the
// websocket status feed.
func createStatusHandler(pool *pgxpool.Pool, hub *status.Hub, manager *scheduler.Manager, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		// Check database
		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		inflight := manager.InFlight()
		jobNames := make([]string, len(inflight))
		for i, key := range inflight {
			jobNames[i] = key.String()
		}
		health.Components["scheduler"] = map[string]any{
			"in_flight": jobNames,
		}
		health.Components["status_hub"] = map[string]any{
			"subscribers": hub.Subscribers(),
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.Handle("/ws/status", hub)

	return mux
}
