package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sozercan/qa-mole/apimodels"
	"github.com/sozercan/qa-mole/internal/config"
	"github.com/sozercan/qa-mole/internal/examples"
)

// Predictor answers questions about a passage.
type Predictor interface {
	Predict(ctx context.Context, req apimodels.PredictRequest) (*apimodels.PredictResponse, error)
	Loaded() bool
}

// ExampleStore is the read side of the example catalog and of the
// prediction history.
type ExampleStore interface {
	Get(ctx context.Context, id string) (examples.Example, error)
	Random(ctx context.Context) (examples.Example, error)
	List(ctx context.Context) ([]examples.Example, error)
	RecentPredictions(ctx context.Context, limit int) ([]examples.PredictionRecord, error)
}

type Server struct {
	cfg       config.ServerConfig
	backend   string
	defaultID string

	server    *http.Server
	router    *chi.Mux
	predictor Predictor
	store     ExampleStore
	pages     *pages
}

func New(cfg config.Config, predictor Predictor, store ExampleStore) (*Server, error) {
	p, err := newPages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg.Server,
		backend:   cfg.Model.Backend,
		defaultID: cfg.Store.DefaultExample,
		router:    chi.NewRouter(),
		predictor: predictor,
		store:     store,
		pages:     p,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	s.router.Get("/", s.handleIndex)
	s.router.Handle("/static/*", s.pages.static)

	s.router.Post("/predict", s.handlePredict)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/example", s.handleLegacyExample)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/predict", s.handlePredict)
		r.Get("/health", s.handleHealth)
		r.Get("/load_example", s.handleLoadExample)
		r.Get("/examples", s.handleListExamples)
		r.Get("/history", s.handleHistory)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)

		slog.Info("HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Run serves until the listener fails or the process gets SIGINT/SIGTERM.
func (s *Server) Run() error {
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "address", s.server.Addr, "backend", s.backend)
		serverErrors <- s.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info("Starting shutdown", "signal", sig)

		// Give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	return nil
}

// responseWriter captures the status code for the request log.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
