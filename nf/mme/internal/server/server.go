// Package server exposes the MME's debug/control-plane HTTP API: a view
// onto the UE EMM context store, an administrative release endpoint that
// tears a context down through the Attach Coordinator, and process
// statistics,
// modeled on the teacher's UDM HTTP server (nf/udm/internal/server/server.go)
// down to the chi middleware stack and the health/ready/status trio.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// Config carries the subset of MME configuration the HTTP server needs.
type Config struct {
	Scheme      string
	BindAddress string
	Port        int
	TLSEnabled  bool
	CertFile    string
	KeyFile     string
}

// Server is the MME's debug HTTP server.
type Server struct {
	cfg    Config
	router *chi.Mux
	server *http.Server
	logger *zap.Logger

	store    *emmcontext.Store
	releaser Releaser
}

// New constructs a Server over store.
func New(cfg Config, store *emmcontext.Store, logger *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logger,
		store:  store,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)

	s.router.Route("/ue-contexts", func(r chi.Router) {
		r.Get("/", s.handleListUEContexts)
		r.Get("/{ueid}", s.handleGetUEContext)
		r.Post("/{ueid}/release", s.handleReleaseUEContext)
	})

	s.router.Get("/stats", s.handleGetStats)
}

// Start starts the HTTP server, blocking until it stops or fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting MME debug HTTP server", zap.String("address", addr))

	if s.cfg.TLSEnabled {
		return s.server.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	}
	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping MME debug HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string, err error) {
	s.logger.Warn(message, zap.Error(err))

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"status": status,
		"title":  message,
	}
	if err != nil {
		resp["detail"] = err.Error()
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
