package ports

import (
	"context"
	"time"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// WindowStore holds fixed-window rate counters. Hit atomically increments the
// counter for key, starting a fresh window when the previous one has elapsed,
// and returns the state after the increment.
type WindowStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (domain.RateWindow, error)
}
