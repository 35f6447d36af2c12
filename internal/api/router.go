// Package api provides the HTTP API for the itinerary service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/api/handler"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/api/middleware"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/auth"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/provider/resilience"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/render"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version          string
	BuildTime        string
	Logger           zerolog.Logger
	ServiceName      string
	Metrics          *middleware.Metrics
	JWTService       *auth.JWTService
	EditorKeys       map[string]string
	ItineraryService *itinerary.Service
	RenderService    *render.Service
	Enqueuer         handler.RecomputeEnqueuer
	Fetcher          handler.ContentFetcher
	DB               handler.Pinger
	Providers        *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(cfg.ServiceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.Providers)
	tokenHandler := handler.NewTokenHandler(cfg.JWTService, cfg.EditorKeys)
	itineraryHandler := handler.NewItineraryHandler(cfg.ItineraryService, cfg.RenderService, cfg.Enqueuer, cfg.Fetcher)

	authMiddleware := middleware.Auth(cfg.JWTService)

	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)         // 10 req/min
	renderRateLimit := middleware.RateLimitByIP(middleware.RenderRateLimit)     // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min
	editorRateLimit := middleware.RateLimitByEditor(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Token exchange (public) - strict rate limiting
		r.With(authRateLimit).Post("/auth/token", tokenHandler.IssueToken)

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Itineraries: reads are public, writes require an editor token
		r.Route("/itineraries", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", itineraryHandler.List)
			r.With(authMiddleware, editorRateLimit).Post("/", itineraryHandler.Create)
			r.With(authMiddleware, editorRateLimit).Post("/import", itineraryHandler.Import)

			r.Route("/{itineraryId}", func(r chi.Router) {
				r.With(standardRateLimit).Get("/", itineraryHandler.Get)
				r.With(authMiddleware, editorRateLimit).Put("/", itineraryHandler.Update)
				r.With(authMiddleware, editorRateLimit).Delete("/", itineraryHandler.Delete)

				// Render is the expensive path
				r.With(renderRateLimit).Get("/render", itineraryHandler.Render)

				r.With(authMiddleware, editorRateLimit).Post("/recompute", itineraryHandler.Recompute)
			})
		})
	})

	return r
}
