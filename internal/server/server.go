// Package server owns the HTTP listener lifecycle: binding, the accept
// loop, and graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Server wraps an http.Server with idempotent graceful shutdown.
type Server struct {
	httpSrv    *http.Server
	metricsSrv *http.Server
	log        *slog.Logger
	shutdownOnce sync.Once
}

// New constructs a Server bound to addr serving handler. If metricsAddr is
// non-empty, a second listener is bound serving metricsHandler; it shares
// the same shutdown lifecycle as the main listener.
func New(addr string, handler http.Handler, metricsAddr string, metricsHandler http.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		httpSrv: &http.Server{Addr: addr, Handler: handler},
		log:     log,
	}
	if metricsAddr != "" {
		s.metricsSrv = &http.Server{Addr: metricsAddr, Handler: metricsHandler}
	}
	return s
}

// Run binds the listener(s) and blocks until a SIGINT/SIGTERM is received or
// Shutdown is called, at which point it stops accepting new connections and
// waits for in-flight handlers to finish before returning. Individual
// requests are never cancelled mid-flight.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	closed := make(chan struct{})

	s.log.Info("starting server", "addr", s.httpSrv.Addr)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		close(closed)
	}()

	if s.metricsSrv != nil {
		s.log.Info("starting metrics server", "addr", s.metricsSrv.Addr)
		go func() {
			if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		s.log.Info("shutdown signal received")
	case <-closed:
		// Shutdown was called directly; the call below waits for it to finish.
	case err := <-errCh:
		s.log.Error("server error", "error", err)
		s.Shutdown(context.Background())
		return err
	}

	return s.Shutdown(context.Background())
}

// Shutdown stops accepting new connections and waits for in-flight handlers
// to finish. It is safe to call more than once; only the first call acts.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if shutErr := s.httpSrv.Shutdown(shutdownCtx); shutErr != nil {
			err = shutErr
		}
		if s.metricsSrv != nil {
			_ = s.metricsSrv.Shutdown(shutdownCtx)
		}
		s.log.Info("server stopped")
	})
	return err
}
