package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/config"
	"github.com/jivhala-motors/backoffice/internal/metrics"
	"github.com/jivhala-motors/backoffice/internal/ratelimit"
)

// Router assembles the HTTP surface: middleware chain, API routes, the
// metrics endpoint and stored-file serving.
type Router struct {
	auth     *AuthHandler
	vehicles *VehicleHandler
	exports  *ExportHandler
	files    *FilesHandler

	authMiddleware func(http.Handler) http.Handler
	limiter        ratelimit.Limiter
	metrics        *metrics.Metrics
	health         func(ctx context.Context) error
	cors           config.CORSConfig
	metricsCfg     config.MetricsConfig
	logger         zerolog.Logger
}

// RouterConfig contains the wiring for the router.
type RouterConfig struct {
	AuthHandler    *AuthHandler
	VehicleHandler *VehicleHandler
	ExportHandler  *ExportHandler
	FilesHandler   *FilesHandler

	// AuthMiddleware guards the bearer-token routes.
	AuthMiddleware func(http.Handler) http.Handler

	// Limiter, when non-nil, rate-limits the /api surface.
	Limiter ratelimit.Limiter

	// Metrics, when non-nil, instruments requests and serves the
	// metrics endpoint.
	Metrics *metrics.Metrics

	// HealthCheck probes the database for the health endpoint.
	HealthCheck func(ctx context.Context) error

	CORS          config.CORSConfig
	MetricsConfig config.MetricsConfig
	Logger        zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		auth:           cfg.AuthHandler,
		vehicles:       cfg.VehicleHandler,
		exports:        cfg.ExportHandler,
		files:          cfg.FilesHandler,
		authMiddleware: cfg.AuthMiddleware,
		limiter:        cfg.Limiter,
		metrics:        cfg.Metrics,
		health:         cfg.HealthCheck,
		cors:           cfg.CORS,
		metricsCfg:     cfg.MetricsConfig,
		logger:         cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(middleware.Recoverer)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cors.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", rt.handleHealth)
	if rt.metrics != nil && rt.metricsCfg.Enabled {
		r.Method(http.MethodGet, rt.metricsCfg.Path, rt.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if rt.limiter != nil {
			r.Use(ratelimit.Middleware(rt.limiter))
		}

		r.Post("/auth/login", rt.auth.HandleLogin)
		r.Get("/export/vehicle/{id}/pdf", rt.exports.HandleVehiclePDF)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware)
			rt.auth.RegisterRoutes(r)
			rt.vehicles.RegisterRoutes(r)
			rt.exports.RegisterRoutes(r)
		})
	})

	r.Get("/uploads/*", rt.files.ServeHTTP)

	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		if err := rt.health(r.Context()); err != nil {
			rt.logger.Error().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// requestLogger logs one line per request with latency and status.
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rt.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request completed")
	})
}
