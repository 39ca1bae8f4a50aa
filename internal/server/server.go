package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"predicta/internal/config"
	"predicta/internal/core"
	"predicta/internal/forecast"
	"predicta/internal/geocode"
	"predicta/internal/insights"
	"predicta/internal/logger"
	"predicta/internal/market"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Intelligence is the orchestration surface the server depends on. Satisfied
// by orchestrator.Orchestrator; narrowed to an interface so handlers can be
// tested with a stub.
type Intelligence interface {
	FetchGlobalIntelligence(ctx context.Context, prefs core.UserPreferences, searchQuery string, location *core.LocationCoordinates) ([]core.IntelligenceReport, error)
	RunScenarioSimulation(ctx context.Context, prefs core.UserPreferences, scenarioText string, deepResearch bool) (*core.IntelligenceReport, error)
}

// Server is the HTTP surface of the intelligence dashboard.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     config.Server
	log        *slog.Logger

	intel    Intelligence
	market   *market.Client
	insights *insights.Service
	forecast *forecast.Service
	geocode  *geocode.Client
}

// Deps bundles the collaborators the server exposes over HTTP. Any nil entry
// disables its endpoints with a 503 rather than panicking.
type Deps struct {
	Intelligence Intelligence
	Market       *market.Client
	Insights     *insights.Service
	Forecast     *forecast.Service
	Geocode      *geocode.Client
}

// New creates a new HTTP server instance.
func New(cfg config.Server, deps Deps) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		log:      logger.Get(),
		intel:    deps.Intelligence,
		market:   deps.Market,
		insights: deps.Insights,
		forecast: deps.Forecast,
		geocode:  deps.Geocode,
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	// Generation calls can take a while; the timeout must cover them.
	s.router.Use(middleware.Timeout(2 * time.Minute))

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/agents", s.handleAgents)

		r.Post("/intelligence", s.handleIntelligence)
		r.Post("/simulate", s.handleSimulate)

		r.Get("/market", s.handleMarket)
		r.Get("/global-feed", s.handleGlobalFeed)
		r.Get("/insights", s.handleInsights)
		r.Get("/risk-analysis", s.handleRiskAnalysis)
		r.Get("/predictions", s.handlePredictions)
		r.Get("/geocode", s.handleGeocode)
	})
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the chi mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
