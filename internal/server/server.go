// Package server provides the HTTP server and routing for rfqdesk.
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

	"github.com/aristath/rfqdesk/internal/config"
	"github.com/aristath/rfqdesk/internal/di"
	allocationhandlers "github.com/aristath/rfqdesk/internal/modules/allocation/handlers"
	quoteshandlers "github.com/aristath/rfqdesk/internal/modules/quotes/handlers"
	reportinghandlers "github.com/aristath/rfqdesk/internal/modules/reporting/handlers"
	rfqhandlers "github.com/aristath/rfqdesk/internal/modules/rfq/handlers"
	"github.com/aristath/rfqdesk/internal/session"
)

// requestTimeout bounds every non-streaming request
const requestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
	eventsHandler  *EventsStreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	c := cfg.Container

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: c,
		systemHandlers: NewSystemHandlers(
			c.DB,
			c.EventBus,
			c.Scheduler,
			c.BackupService,
			c.AccessService,
			cfg.Log,
		),
		eventsHandler: NewEventsStreamHandler(c.EventBus, c.AccessService, cfg.Log),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	// No WriteTimeout: event streams stay open. Regular routes are bounded by requestTimeout.
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	c := s.container

	s.router.Route("/api", func(r chi.Router) {
		r.Use(session.Middleware(c.SessionIssuer, s.log))

		// Change feeds are long-lived and sit outside the request timeout
		r.Get("/events/stream", s.eventsHandler.ServeSSE)
		r.Get("/events/ws", s.eventsHandler.ServeWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			rfqhandlers.NewHandler(c.RFQService, c.AccessService, s.log).RegisterRoutes(r)
			quoteshandlers.NewHandler(c.QuoteService, c.AccessService, s.log).RegisterRoutes(r)
			allocationhandlers.NewHandler(c.AllocationEngine, c.AccessService, s.log).RegisterRoutes(r)
			reportinghandlers.NewHandler(c.ReportingService, c.AccessService, s.log).RegisterRoutes(r)

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
				r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
				r.Get("/backups", s.systemHandlers.HandleListBackups)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	s.eventsHandler.Close()
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
