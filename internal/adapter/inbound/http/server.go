// Package http exposes the agent core's local diagnostic REST listener:
// the "show check-fog-connection" action, the "/access-manager/health/live"
// liveness probe, and the Prometheus "/metrics" scrape target. Grounded on
// the teacher's internal/adapter/inbound/http (mux construction, health
// checker shape, promhttp wiring), trimmed to this repository's one-way
// diagnostics surface instead of the teacher's MCP proxy transport.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FogChecker is the narrow capability the "check-fog-connection" action
// needs from the messaging client; satisfied by
// internal/adapter/outbound/messaging.Client.CheckFogConnection.
type FogChecker interface {
	CheckFogConnection(ctx context.Context) (bool, string)
}

// Server hosts the diagnostic REST listener (spec.md §6 "REST actions").
type Server struct {
	addr       string
	logger     *slog.Logger
	fogChecker FogChecker
	reg        *prometheus.Registry

	httpServer *http.Server
}

// New builds a Server bound to addr. reg is the Prometheus registry scraped
// at "/metrics"; fogChecker backs "show check-fog-connection".
func New(addr string, fogChecker FogChecker, reg *prometheus.Registry, logger *slog.Logger) *Server {
	return &Server{addr: addr, fogChecker: fogChecker, reg: reg, logger: logger}
}

// checkFogConnectionResponse is the JSON body for
// "show check-fog-connection" (spec.md §6 "REST actions").
type checkFogConnectionResponse struct {
	ConnectedToFog bool   `json:"connected_to_fog"`
	Error          string `json:"error,omitempty"`
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/show/check-fog-connection", func(w http.ResponseWriter, r *http.Request) {
		connected, errMsg := s.fogChecker.CheckFogConnection(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if !connected {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(checkFogConnectionResponse{
			ConnectedToFog: connected,
			Error:          errMsg,
		})
	})

	mux.HandleFunc("/access-manager/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{Registry: s.reg}))

	return mux
}

// Start begins serving until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.mux(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("diagnostic REST listener starting", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
