package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/smurfatcher/harrier/internal/audit"
	"github.com/smurfatcher/harrier/internal/domain"
	"github.com/smurfatcher/harrier/internal/engine"
	"github.com/smurfatcher/harrier/internal/insight"
	"github.com/smurfatcher/harrier/internal/session"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, manager *session.Manager, engineClient *engine.Client, generator *insight.Generator, recorder *audit.Recorder, cache domain.Cache, bus domain.EventBus, version string) *Server {
	handler := NewHandler(manager, engineClient, generator, recorder, cache, bus, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for the browser UI
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no session required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (session required)
	router.Route("/", func(r chi.Router) {
		r.Use(SessionMiddleware)

		// Case lifecycle
		r.Post("/cases/analyze", handler.Analyze)
		r.Post("/cases/sample", handler.LoadSample)
		r.Get("/cases", handler.ListCases)
		r.Get("/cases/current", handler.GetCurrentCase)
		r.Delete("/cases/current", handler.ResetCase)

		// Accounts
		r.Get("/accounts", handler.ListAccounts)
		r.Get("/accounts/{id}", handler.GetAccount)
		r.Get("/accounts/{id}/risk", handler.GetAccountRisk)
		r.Get("/accounts/{id}/risk/text", handler.GetAccountRiskText)
		r.Get("/accounts/{id}/datapoints", handler.GetAccountDatapoints)
		r.Get("/accounts/{id}/approach", handler.GetAccountApproach)

		// Rings
		r.Get("/rings", handler.ListRings)
		r.Get("/rings/{id}", handler.GetRing)
		r.Get("/rings/{id}/interpretation", handler.GetRingInterpretation)
		r.Get("/rings/{id}/narrative", handler.GetRingNarrative)

		// Insights
		r.Get("/insights", handler.GetInsights)
		r.Get("/insights/patterns", handler.GetPatternNarratives)
		r.Get("/insights/recommendations", handler.GetRecommendations)
		r.Get("/insights/summary", handler.GetSummary)
		r.Get("/report/compliance", handler.ComplianceReport)

		// Settings
		r.Get("/settings", handler.GetSettings)
		r.Put("/settings", handler.UpdateSettings)

		// Intervention scenario
		r.Post("/interventions", handler.AddIntervention)
		r.Delete("/interventions/{index}", handler.RemoveIntervention)
		r.Post("/interventions/preview", handler.PreviewIntervention)
		r.Post("/interventions/apply", handler.ApplyIntervention)
		r.Post("/interventions/reset", handler.ResetIntervention)

		// Selection
		r.Get("/selection", handler.GetSelection)
		r.Put("/selection", handler.UpdateSelection)

		// Audit trail
		r.Get("/audit/events", handler.GetAuditEvents)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
