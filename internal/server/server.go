// Package server exposes parsing, previews and exports over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	routinepdf "github.com/alnah/go-routinepdf"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 1 << 20

// shutdownTimeout bounds the graceful shutdown in Run.
const shutdownTimeout = 10 * time.Second

// RoutineParser turns text into a routine on behalf of a client.
// *parse.Service implements it.
type RoutineParser interface {
	Parse(ctx context.Context, clientKey, text string) (*routinepdf.Routine, error)
}

// Config holds values applied to every export.
type Config struct {
	AllowedOrigins []string // empty allows any origin
	Theme          string   // used when a request names none; may be a file
	Contact        routinepdf.Contact
	RenewalDays    int
	Calendar       routinepdf.Calendar
	DateFormat     string
	Page           *routinepdf.PageSettings
	MaxBodyBytes   int64
}

// Deps are the collaborators behind the handlers. Parser may be nil when no
// API key is configured; /api/v1/parse then answers 503.
type Deps struct {
	Pool     *routinepdf.ExporterPool
	Themes   *routinepdf.ThemeCatalog
	Renderer *routinepdf.Renderer
	Parser   RoutineParser
	Logger   *slog.Logger
	Now      func() time.Time
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg      Config
	pool     *routinepdf.ExporterPool
	themes   *routinepdf.ThemeCatalog
	renderer *routinepdf.Renderer
	parser   RoutineParser
	log      *slog.Logger
	now      func() time.Time
	router   chi.Router
}

// New creates a Server with all routes configured.
func New(cfg Config, deps Deps) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RenewalDays <= 0 {
		cfg.RenewalDays = routinepdf.DefaultRenewalDays
	}
	s := &Server{
		cfg:      cfg,
		pool:     deps.Pool,
		themes:   deps.Themes,
		renderer: deps.Renderer,
		parser:   deps.Parser,
		log:      deps.Logger,
		now:      deps.Now,
		router:   chi.NewRouter(),
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestID)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.cors().Handler)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/themes", s.handleThemes)
		r.Post("/parse", s.handleParse)
		r.Post("/preview", s.handlePreview)
		r.Post("/export/{format}", s.handleExport)
	})
}

func (s *Server) cors() *cors.Cors {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", RequestIDHeader},
	})
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
