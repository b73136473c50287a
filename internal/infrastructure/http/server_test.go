package http

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

func TestServer_RunStopsOnCancelAndClosesInReverse(t *testing.T) {
	srv := NewServer(newEcho(), "127.0.0.1:0", time.Second, zerolog.Nop())

	var order []string
	srv.OnShutdown(func(context.Context) error { order = append(order, "store"); return nil })
	srv.OnShutdown(func(context.Context) error { order = append(order, "audit"); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("server did not stop")
	}

	if len(order) != 2 || order[0] != "audit" || order[1] != "store" {
		t.Fatalf("closers ran in wrong order: %v", order)
	}
}

func TestServer_CloserErrorsAreReturned(t *testing.T) {
	srv := NewServer(newEcho(), "127.0.0.1:0", time.Second, zerolog.Nop())
	boom := errors.New("close failed")
	srv.OnShutdown(func(context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := srv.Run(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected closer error, got %v", err)
	}
}

func TestServer_ListenFailure(t *testing.T) {
	srv := NewServer(newEcho(), "127.0.0.1:-1", time.Second, zerolog.Nop())

	err := srv.Run(context.Background())
	if err == nil {
		t.Fatalf("expected listen error")
	}
}
