// Package api provides the HTTP API for fuelsync.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/fuelsync/fuelsync/internal/api/handler"
	"github.com/fuelsync/fuelsync/internal/api/middleware"
	"github.com/fuelsync/fuelsync/internal/auth"
	"github.com/fuelsync/fuelsync/internal/company"
	"github.com/fuelsync/fuelsync/internal/event"
	"github.com/fuelsync/fuelsync/internal/station"
	"github.com/fuelsync/fuelsync/internal/syncproto"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	AuthService     *auth.Service
	CompanyService  *company.Service
	StationService  *station.Service
	EventService    *event.Service
	SyncService     *syncproto.Service
	ReadinessChecks map[string]handler.ReadinessChecker
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "fuelsync-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.ReadinessChecks)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	companyHandler := handler.NewCompanyHandler(cfg.CompanyService)
	stationHandler := handler.NewStationHandler(cfg.StationService, cfg.EventService)
	fuelHandler := handler.NewFuelHandler(cfg.StationService)
	eventHandler := handler.NewEventHandler(cfg.EventService)
	syncHandler := handler.NewSyncHandler(cfg.SyncService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)      // 10 req/min
	syncRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	adminRateLimit := middleware.RateLimitByAdmin(middleware.StandardRateLimit)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/code", authHandler.RequestCode)
			r.Post("/verify", authHandler.VerifyCode)
			// me requires authentication
			r.With(authMiddleware).Get("/me", authHandler.Me)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Station-facing sync endpoints. No JWT: the device proves
		// itself by decrypting with its key, or with the shared
		// passphrase for key issuance.
		r.Route("/sync", func(r chi.Router) {
			r.Use(syncRateLimit)
			r.Post("/key", syncHandler.IssueKey)
			r.Route("/{stationId}", func(r chi.Router) {
				r.Get("/options", syncHandler.FetchOptions)
				r.Get("/fuels", syncHandler.FetchFuels)
				r.Get("/license", syncHandler.FetchLicense)
			})
		})

		// Admin endpoints (authenticated) - per-admin rate limiting
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminRateLimit)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", companyHandler.ListCompanies)
				r.Post("/", companyHandler.CreateCompany)
				r.Route("/{companyId}", func(r chi.Router) {
					r.Get("/", companyHandler.GetCompany)
					r.Put("/", companyHandler.UpdateCompany)
					r.Delete("/", companyHandler.DeleteCompany)
				})
			})

			r.Route("/stations", func(r chi.Router) {
				r.Get("/", stationHandler.ListStations)
				r.Post("/", stationHandler.CreateStation)
				r.Route("/{stationId}", func(r chi.Router) {
					r.Get("/", stationHandler.GetStation)
					r.Put("/", stationHandler.UpdateStation)
					r.Delete("/", stationHandler.DeleteStation)
					r.Put("/options", stationHandler.UpdateOptions)
					r.Get("/fuels", stationHandler.ListAssignedFuels)
					r.Put("/fuels", stationHandler.AssignFuels)
					r.Get("/events", stationHandler.ListStationEvents)
				})
			})

			r.Route("/fuels", func(r chi.Router) {
				r.Get("/", fuelHandler.ListFuels)
				r.Post("/", fuelHandler.CreateFuel)
				r.Route("/{fuelId}", func(r chi.Router) {
					r.Get("/", fuelHandler.GetFuel)
					r.Put("/", fuelHandler.UpdateFuel)
					r.Delete("/", fuelHandler.DeleteFuel)
				})
			})

			r.Route("/events", func(r chi.Router) {
				r.Get("/unviewed", eventHandler.ListUnviewed)
				r.Post("/{eventId}/viewed", eventHandler.MarkViewed)
			})
		})
	})

	return r
}
