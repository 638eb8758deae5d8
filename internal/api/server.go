// Package api serves grouping over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tx-grouper/internal/grouper"
	"github.com/tx-grouper/internal/service"
	"github.com/tx-grouper/internal/storage"
	"github.com/tx-grouper/pkg/config"
	apperrors "github.com/tx-grouper/pkg/errors"
	"github.com/tx-grouper/pkg/utils"
)

// Server exposes a Service over HTTP.
//
//	POST /api/group        group the batch in the request body
//	GET  /api/strategies   list strategies
//	GET  /api/stats        service statistics
//	GET  /healthz          health check
//	GET  /metrics          Prometheus metrics, when the service has a registry
type Server struct {
	svc    *service.Service
	cfg    config.ServerConfig
	logger utils.Logger
	server *http.Server
}

// NewServer creates a new Server. svc must be initialized.
func NewServer(svc *service.Service, cfg config.ServerConfig, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	s := &Server{svc: svc, cfg: cfg, logger: logger}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/group", s.handleGroup)
	mux.HandleFunc("GET /api/strategies", s.handleStrategies)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if reg := s.svc.Registry(); reg != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	return mux
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Listening on %s", s.cfg.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleGroup groups the request body. Query parameters chain, strategy,
// cores and store override the defaults; store also saves the plan.
func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := service.GroupOptions{
		ChainID:   q.Get("chain"),
		Strategy:  q.Get("strategy"),
		OutputKey: q.Get("store"),
	}
	if v := q.Get("cores"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, apperrors.Newf(apperrors.CodeInvalidParameter, "invalid cores: %q", v))
			return
		}
		opts.CoreCount = &n
	}

	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	batch, err := storage.DecodeBatch(body, "request", opts.ChainID)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Code:    apperrors.CodeInvalidParameter,
				Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		s.writeError(w, err)
		return
	}

	plan, err := s.svc.Group(ctx, batch, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if opts.OutputKey != "" {
		if err := s.svc.Store().SavePlan(ctx, opts.OutputKey, plan); err != nil {
			s.writeError(w, err)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, grouper.AllStrategies())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.HealthCheck(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed: %v", err)
	}
	s.writeJSON(w, status, errorBody{Code: apperrors.GetErrorCode(err), Message: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response: %v", err)
	}
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch apperrors.GetErrorCode(err) {
	case apperrors.CodeInvalidParameter:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
