// Package server wires the chi router, its middleware stack and the routes
// of the shop, and owns the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/giygas/medicine-shop/config"
	"github.com/giygas/medicine-shop/interfaces"
	"github.com/giygas/medicine-shop/logging"
	"github.com/giygas/medicine-shop/metrics"
	"github.com/giygas/medicine-shop/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StaticDir holds the images and scripts the storefront links to
const StaticDir = "static"

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	router   chi.Router
	handler  interfaces.HTTPHandler
	sessions *session.Manager
	limiter  *RateLimiter
	config   *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler, sessions *session.Manager) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:        router,
			Addr:           cfg.Address + ":" + cfg.Port,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: int(cfg.MaxHeaderSize),
		},
		router:   router,
		handler:  handler,
		sessions: sessions,
		limiter:  NewRateLimiter(30 * time.Minute),
		config:   cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Router exposes the configured router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Metrics)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(cors.Handler(corsOptions(s.config.CORSOrigins)))
	s.router.Use(s.limiter.Handler)
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders: []string{"Link", "X-Notification"},
		// Browsers refuse credentialed responses to a wildcard origin
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/purchase_medicines", s.handler.ServeCatalog)
	s.router.Get("/purchase_medicines/search", s.handler.SearchCatalog)
	s.router.Get("/symptoms/suggest", s.handler.SuggestSymptoms)
	s.router.Post("/predict", s.handler.Predict)
	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	// Cart and medications live in the caller's session
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)

		r.Get("/cart", s.handler.GetCart)
		r.Delete("/cart", s.handler.ClearCart)
		r.Post("/cart/items", s.handler.AddCartItem)
		r.Post("/cart/items/{index}/remove", s.handler.RemoveCartItem)
		r.Post("/cart/items/{index}/quantity", s.handler.UpdateCartQuantity)

		r.Get("/get_medications", s.handler.GetMedications)
		r.Post("/add_medication", s.handler.AddMedication)
		r.Post("/delete_medication", s.handler.DeleteMedication)
	})

	s.setupStaticRoutes()
}

// setupStaticRoutes serves product images and other storefront assets
func (s *Server) setupStaticRoutes() {
	files := http.StripPrefix("/static/", http.FileServer(http.Dir(StaticDir)))
	s.router.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400") // 1 day
		files.ServeHTTP(w, r)
	})
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.limiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode.
// The pprof handlers are registered on the default mux by main.
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Error("Profiling server failed", "error", err)
		}
	}()
}
