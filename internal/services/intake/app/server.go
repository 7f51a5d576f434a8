package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MichaelAguilera/intake/internal/platform/timeouts"
)

// Server hosts the intake HTTP surface and its lifecycle.
type Server struct {
	app        *App
	httpServer *http.Server
}

// NewServer validates the address and composes the app.
func NewServer(httpAddr string, cfg Config) (*Server, error) {
	httpAddr = strings.TrimSpace(httpAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	a, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose intake app: %w", err)
	}
	return &Server{
		app: a,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           a,
			ReadHeaderTimeout: timeouts.ReadHeader,
			IdleTimeout:       timeouts.Idle,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server
// stop. Idle sessions are swept while serving.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("intake server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.app.Workspace().Run(sweepCtx, 0)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		s.app.Close()
		if err != nil {
			return fmt.Errorf("shutdown intake http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		s.app.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve intake http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
	s.app.Close()
}
