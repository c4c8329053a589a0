// Package main provides the entrypoint for the fuelsync watchdog worker.
// The worker sweeps the fleet on a fixed interval, checking license
// expiry and sync staleness, and exposes a health endpoint for the
// orchestrator.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelsync/fuelsync/internal/changeflag"
	"github.com/fuelsync/fuelsync/internal/database"
	"github.com/fuelsync/fuelsync/internal/event"
	"github.com/fuelsync/fuelsync/internal/notify"
	"github.com/fuelsync/fuelsync/internal/station"
	"github.com/fuelsync/fuelsync/internal/watchdog"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "fuelsync-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting fuelsync worker")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	interval := 24 * time.Hour
	if raw := os.Getenv("WATCHDOG_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatal().Err(err).Str("value", raw).Msg("invalid WATCHDOG_INTERVAL")
		}
		interval = parsed
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbConfig := database.ConfigFromEnv()
	pool, err := database.ConnectWithRetry(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// The worker never raises change flags itself but the station
	// service wants a cache; state transitions applied by the sweep do
	// not need to reach devices through the flag channel.
	var flags changeflag.Cache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisFlags, err := changeflag.NewRedisCache(redisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisFlags.Close()
		flags = redisFlags
	} else {
		flags = changeflag.NewInMemoryCache()
	}

	stationService := station.NewService(station.ServiceConfig{
		Repo:   station.NewPostgresRepository(pool),
		Fuels:  station.NewPostgresFuelRepository(pool),
		Flags:  flags,
		Logger: log,
	})
	eventService := event.NewService(event.NewPostgresRepository(pool), log)

	notifyURL := os.Getenv("NOTIFY_URL")
	notifier := notify.NewClient(notify.ClientConfig{URL: notifyURL})
	if notifier.Enabled() {
		log.Info().Str("url", notifyURL).Msg("event notifications enabled")
	} else {
		log.Warn().Msg("NOTIFY_URL not set - event notifications disabled")
	}

	job := watchdog.NewJob(watchdog.JobConfig{
		Stations: stationService,
		Events:   eventService,
		Notifier: notifier,
		Logger:   log,
	})

	// Health endpoint for the orchestrator.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Sweep loop. One sweep runs immediately on startup so a worker
	// restarted mid-cycle does not push alerts a full interval out.
	go func() {
		log.Info().Dur("interval", interval).Msg("watchdog started")
		job.Run(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				job.Run(ctx)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
