// Package memory holds process-local adapters used when no shared store is
// configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

const defaultSize = 100_000

// WindowStore keeps fixed-window counters in a bounded LRU. Entries expire
// after ttl, which should be at least the longest configured window.
type WindowStore struct {
	mu      sync.Mutex
	entries *expirable.LRU[string, domain.RateWindow]
	now     func() time.Time
}

func NewWindowStore(size int, ttl time.Duration) *WindowStore {
	if size <= 0 {
		size = defaultSize
	}
	return &WindowStore{
		entries: expirable.NewLRU[string, domain.RateWindow](size, nil, ttl),
		now:     time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *WindowStore) WithClock(now func() time.Time) *WindowStore {
	s.now = now
	return s
}

// Hit never fails; the error is part of the port signature.
func (s *WindowStore) Hit(_ context.Context, key string, window time.Duration) (domain.RateWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.entries.Get(key)
	if !ok || !now.Before(w.ResetAt(window)) {
		w = domain.RateWindow{WindowStart: now}
	}
	w.Count++
	s.entries.Add(key, w)
	return w, nil
}

// Len reports the number of tracked keys.
func (s *WindowStore) Len() int {
	return s.entries.Len()
}
