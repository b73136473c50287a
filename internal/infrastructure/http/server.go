package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 15 * time.Second

// ShutdownFunc releases a dependency once the server stopped accepting
// requests.
type ShutdownFunc func(context.Context) error

// Server runs an Echo instance until its context is cancelled, then drains
// in-flight requests and closes registered dependencies in reverse order.
type Server struct {
	echo    *echo.Echo
	addr    string
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	closers []ShutdownFunc
}

func NewServer(e *echo.Echo, addr string, timeout time.Duration, log zerolog.Logger) *Server {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return &Server{echo: e, addr: addr, timeout: timeout, log: log}
}

// OnShutdown registers fn to run after the HTTP server has stopped.
func (s *Server) OnShutdown(fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// Run blocks until ctx is done or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("http server listening")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.log.Info().Dur("timeout", s.timeout).Msg("shutting down http server")

	var errs []error
	if err := s.echo.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}

	s.mu.Lock()
	closers := s.closers
	s.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Error().Err(err).Msg("shutdown finished with errors")
		return err
	}
	s.log.Info().Msg("shutdown complete")
	return nil
}
