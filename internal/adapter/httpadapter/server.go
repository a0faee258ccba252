package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes health, readiness, metrics and the monitor API.
type Server struct {
	httpServer *http.Server
	monitor    Monitor
	sessions   Sessions
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes. A nil Sessions leaves the session routes unregistered.
func NewServer(addr string, ready sharedobs.ReadinessChecker, monitor Monitor, sessions Sessions, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		monitor:  monitor,
		sessions: sessions,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/v1/location", s.handleGetLocation)
	mux.HandleFunc("PUT /api/v1/location", s.handleSelectLocation)
	mux.HandleFunc("POST /api/v1/classify", s.handleClassify)
	mux.HandleFunc("POST /api/v1/predict-risk", s.handlePredictRisk)
	mux.HandleFunc("GET /api/v1/kinds/{kind}", s.handleKind)

	if sessions != nil {
		mux.HandleFunc("GET /api/v1/session", s.handleSession)
		mux.HandleFunc("POST /api/v1/session", s.handleSignIn)
		mux.HandleFunc("POST /api/v1/session/signup", s.handleSignUp)
		mux.HandleFunc("DELETE /api/v1/session", s.handleSignOut)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
