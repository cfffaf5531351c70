package daemon

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
)

// PassController is what the admin server needs from the daemon.
type PassController interface {
	Snapshot() StatusSnapshot
	TriggerPass(trigger Trigger) error
}

// AdminServer serves health, status, metrics and the manual pass trigger.
type AdminServer struct {
	ctrl     PassController
	metrics  http.Handler
	errors   *errors.HTTPErrorAdapter
	logger   *slog.Logger
	server   *http.Server
	listener net.Listener
}

// NewAdminServer creates an admin server. A nil metrics handler leaves /metrics unrouted.
func NewAdminServer(ctrl PassController, metrics http.Handler, logger *slog.Logger) *AdminServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminServer{
		ctrl:    ctrl,
		metrics: metrics,
		errors:  errors.NewHTTPErrorAdapter(logger),
		logger:  logger,
	}
}

// Handler returns the routed admin mux.
func (s *AdminServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /passes", s.handleTrigger)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Start binds addr and serves in a worker of wg.
func (s *AdminServer) Start(addr string, wg *WorkerGroup) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.DaemonError("failed to bind admin listener").
			WithCause(err).
			WithContext("addr", addr).
			Build()
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	wg.Go("admin-http", func() {
		if err := s.server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Admin server failed", logfields.Error(err))
		}
	})
	s.logger.Info("Admin server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *AdminServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down gracefully.
func (s *AdminServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *AdminServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *AdminServer) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.TriggerPass(TriggerManual); err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
