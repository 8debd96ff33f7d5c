// Package api provides the HTTP API for GrowNEX.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/analysis"
	"github.com/grownex/grownex/internal/api/handler"
	"github.com/grownex/grownex/internal/api/middleware"
	"github.com/grownex/grownex/internal/auth"
	"github.com/grownex/grownex/internal/featureflags"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	AuthService        *auth.Service
	AnalysisService    *analysis.Service
	FeatureFlagService *featureflags.Service
	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "grownex-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type
	r.Use(middleware.RequireJSON)                // Reject non-JSON bodies

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.AnalysisService, cfg.Logger)
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.FeatureFlagService, cfg.Logger)
	soilHandler := handler.NewSoilHandler(cfg.AnalysisService, cfg.FeatureFlagService, cfg.Logger)
	recommendationsHandler := handler.NewRecommendationsHandler(cfg.AnalysisService, cfg.Logger)
	metadataHandler := handler.NewMetadataHandler()
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	analysisRateLimit := middleware.RateLimitByUser(middleware.AnalysisRateLimit) // 30 req/min
	quickRateLimit := middleware.RateLimitByIP(middleware.AnalysisRateLimit)      // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min
	userRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit)     // 100 req/min per user

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Auth endpoints - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit)
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.With(authMiddleware).Get("/me", authHandler.Me)
		})

		// Stored analyses (authenticated)
		r.Route("/soil/analyses", func(r chi.Router) {
			r.Use(authMiddleware)
			r.With(userRateLimit).Get("/", soilHandler.ListAnalyses)
			r.With(analysisRateLimit).Post("/", soilHandler.CreateAnalysis)
			r.Route("/{analysisId}", func(r chi.Router) {
				r.With(userRateLimit).Get("/", soilHandler.GetAnalysis)
				r.With(analysisRateLimit).Put("/", soilHandler.UpdateAnalysis)
				r.With(adminOnly).Delete("/", soilHandler.DeleteAnalysis)
			})
		})

		// Recommendations (public)
		r.Route("/recommendations", func(r chi.Router) {
			r.With(quickRateLimit).Post("/quick", recommendationsHandler.Quick)
			r.Group(func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/fertilizers/{soilType}", recommendationsHandler.FertilizerTargets)
				r.Get("/crops/{soilType}", recommendationsHandler.CropsForSoil)
			})
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/soil-types", metadataHandler.ListSoilTypes)
			r.Get("/irrigation-types", metadataHandler.ListIrrigationTypes)
		})

		// Admin endpoints (admin role)
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminOnly)
			r.Use(userRateLimit)

			// Feature flags management
			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
				r.Delete("/{key}", featureFlagsHandler.ResetFeatureFlag)
			})
		})
	})

	return r
}
