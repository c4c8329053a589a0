// Package main provides the entrypoint for the fuelsync API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelsync/fuelsync/internal/api"
	"github.com/fuelsync/fuelsync/internal/api/handler"
	"github.com/fuelsync/fuelsync/internal/api/middleware"
	"github.com/fuelsync/fuelsync/internal/auth"
	"github.com/fuelsync/fuelsync/internal/changeflag"
	"github.com/fuelsync/fuelsync/internal/company"
	"github.com/fuelsync/fuelsync/internal/database"
	"github.com/fuelsync/fuelsync/internal/event"
	"github.com/fuelsync/fuelsync/internal/keyring"
	"github.com/fuelsync/fuelsync/internal/station"
	"github.com/fuelsync/fuelsync/internal/syncproto"
	"github.com/fuelsync/fuelsync/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "fuelsync-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting fuelsync API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.ConnectWithRetry(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database schema")
	}

	// Change flag cache: Redis when configured, otherwise in-process.
	// Multi-instance deployments must set REDIS_ADDR or devices polling
	// a different instance than the one that took the edit never see
	// their flags.
	var flags changeflag.Cache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisFlags, err := changeflag.NewRedisCache(redisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisFlags.Close()
		flags = redisFlags
		log.Info().Str("addr", redisAddr).Msg("redis change flag cache initialized")
	} else {
		flags = changeflag.NewInMemoryCache()
		log.Warn().Msg("using in-memory change flag cache - single instance only")
	}

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	authService := auth.NewService(auth.ServiceConfig{
		Admins: auth.NewPostgresAdminRepository(pool),
		Codes:  auth.NewInMemoryCodeStore(),
		Sender: &auth.LogSender{Logger: log},
		JWT: auth.NewJWTService(auth.JWTConfig{
			SigningKey: jwtSigningKey,
		}),
		Logger: log,
	})
	log.Info().Msg("auth service initialized")

	companyService := company.NewService(company.NewPostgresRepository(pool))
	log.Info().Msg("company service initialized")

	stationService := station.NewService(station.ServiceConfig{
		Repo:   station.NewPostgresRepository(pool),
		Fuels:  station.NewPostgresFuelRepository(pool),
		Flags:  flags,
		Logger: log,
	})
	log.Info().Msg("station service initialized")

	eventService := event.NewService(event.NewPostgresRepository(pool), log)
	log.Info().Msg("event service initialized")

	keyTTL := keyring.DefaultTTL
	if raw := os.Getenv("KEY_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatal().Err(err).Str("value", raw).Msg("invalid KEY_TTL")
		}
		keyTTL = parsed
	}
	keyService := keyring.NewService(keyring.ServiceConfig{
		Repo:   keyring.NewPostgresRepository(pool),
		Logger: log,
		TTL:    keyTTL,
	})

	sharedPassphrase := os.Getenv("SYNC_SHARED_SECRET")
	if sharedPassphrase == "" {
		log.Fatal().Msg("SYNC_SHARED_SECRET is required")
	}
	syncService := syncproto.NewService(syncproto.ServiceConfig{
		Stations:         stationService,
		Keys:             keyService,
		Flags:            flags,
		Logger:           log,
		SharedPassphrase: sharedPassphrase,
	})
	log.Info().Dur("key_ttl", keyTTL).Msg("sync service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		AuthService:    authService,
		CompanyService: companyService,
		StationService: stationService,
		EventService:   eventService,
		SyncService:    syncService,
		ReadinessChecks: map[string]handler.ReadinessChecker{
			"database": func(r *http.Request) error {
				return pool.Ping(r.Context())
			},
		},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
