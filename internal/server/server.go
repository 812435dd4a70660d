// Package server provides the HTTP server and routing for Vantage.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	analyticshandlers "github.com/vantagefi/vantage/internal/analytics/handlers"
	"github.com/vantagefi/vantage/internal/cache"
	"github.com/vantagefi/vantage/internal/clients/pricefeed"
	"github.com/vantagefi/vantage/internal/config"
	"github.com/vantagefi/vantage/internal/database"
	"github.com/vantagefi/vantage/internal/portfolio"
	portfoliohandlers "github.com/vantagefi/vantage/internal/portfolio/handlers"
)

// Config carries the wired dependencies for the HTTP server.
type Config struct {
	Log           zerolog.Logger
	Config        *config.Config
	PortfolioDB   *database.DB
	CacheDB       *database.DB
	PortfolioRepo *portfolio.Repository
	CacheRepo     *cache.Repository
	PriceFeed     *pricefeed.Client
}

// Server is the HTTP server.
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	portfolioDB    *database.DB
	cacheDB        *database.DB
	portfolioRepo  *portfolio.Repository
	cacheRepo      *cache.Repository
	priceFeed      *pricefeed.Client
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		log:           cfg.Log.With().Str("component", "server").Logger(),
		cfg:           cfg.Config,
		portfolioDB:   cfg.PortfolioDB,
		cacheDB:       cfg.CacheDB,
		portfolioRepo: cfg.PortfolioRepo,
		cacheRepo:     cfg.CacheRepo,
		priceFeed:     cfg.PriceFeed,
	}

	s.systemHandlers = NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		cfg.PortfolioDB,
		cfg.CacheDB,
		cfg.PriceFeed,
	)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	analyticsHandler := analyticshandlers.NewHandler(
		s.portfolioRepo,
		s.cacheRepo,
		analyticshandlers.Options{
			RecoveryThreshold: s.cfg.RecoveryThreshold,
			MonthlyBaseline:   s.cfg.MonthlyBaseline,
		},
		s.log,
	)
	portfolioHandler := portfoliohandlers.NewHandler(s.portfolioRepo, s.cacheRepo, s.log)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/system", func(r chi.Router) {
			r.Get("/info", s.systemHandlers.HandleSystemInfo)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
		})

		analyticsHandler.RegisterRoutes(r)
		portfolioHandler.RegisterRoutes(r)
	})
}

// Start begins serving HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
