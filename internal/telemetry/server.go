package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Server exposes a hub over HTTP: /ws streams snapshots, /healthz answers
// liveness probes.
type Server struct {
	Hub *Hub

	httpServer *http.Server
	listener   net.Listener
}

// Listen binds addr and prepares the routes. Use "127.0.0.1:0" to pick a free
// port.
func Listen(addr string, hub *Hub) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok clients=%d\n", hub.ClientCount())
	})

	return &Server{
		Hub:        hub,
		httpServer: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		listener:   ln,
	}, nil
}

// Addr returns the bound address
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve runs the hub and the HTTP server until ctx is cancelled
func (s *Server) Serve(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.Hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(s.listener)
	}()
	s.Hub.log.WithField("addr", s.Addr()).Info("telemetry listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down telemetry server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("telemetry server stopped: %w", err)
	}
}
