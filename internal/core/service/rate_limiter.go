package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/ports"
)

// RatePolicy is the budget of one endpoint class.
type RatePolicy struct {
	Max    int64
	Window time.Duration
}

// DefaultRatePolicies returns the built-in budgets per endpoint class.
func DefaultRatePolicies() map[domain.EndpointClass]RatePolicy {
	return map[domain.EndpointClass]RatePolicy{
		domain.ClassPublic:        {Max: 1000, Window: 15 * time.Minute},
		domain.ClassAuth:          {Max: 5, Window: time.Minute},
		domain.ClassAuthenticated: {Max: 1000, Window: time.Minute},
		domain.ClassAdmin:         {Max: 1000, Window: time.Minute},
		domain.ClassAPI:           {Max: 1000, Window: time.Minute},
		domain.ClassUpload:        {Max: 20, Window: time.Hour},
		domain.ClassDownload:      {Max: 100, Window: 15 * time.Minute},
	}
}

// RateDecision is the outcome of one Allow call.
type RateDecision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, minimum 1.
func (d RateDecision) RetryAfterSeconds() int64 {
	secs := int64((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RateLimiter enforces fixed-window budgets per endpoint class.
type RateLimiter struct {
	store    ports.WindowStore
	policies map[domain.EndpointClass]RatePolicy
	disabled bool
	log      zerolog.Logger
	now      func() time.Time
}

// NewRateLimiter builds a limiter. disabled turns every call into an allow
// without touching the store (test mode).
func NewRateLimiter(store ports.WindowStore, policies map[domain.EndpointClass]RatePolicy, disabled bool, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{store: store, policies: policies, disabled: disabled, log: log, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

func (l *RateLimiter) Enabled() bool { return !l.disabled }

func (l *RateLimiter) Policy(class domain.EndpointClass) (RatePolicy, bool) {
	p, ok := l.policies[class]
	return p, ok
}

// Allow counts one request for callerKey in class. When the window store
// fails the request is allowed and the error is returned for logging.
func (l *RateLimiter) Allow(ctx context.Context, class domain.EndpointClass, callerKey string) (RateDecision, error) {
	policy, ok := l.policies[class]
	if !ok {
		return RateDecision{Allowed: true}, fmt.Errorf("rate limit: unknown endpoint class %q", class)
	}
	if l.disabled {
		return RateDecision{Allowed: true, Limit: policy.Max, Remaining: policy.Max}, nil
	}

	w, err := l.store.Hit(ctx, string(class)+":"+callerKey, policy.Window)
	if err != nil {
		return RateDecision{Allowed: true, Limit: policy.Max, Remaining: policy.Max},
			fmt.Errorf("rate limit %s: %w", class, err)
	}

	reset := w.ResetAt(policy.Window)
	remaining := policy.Max - w.Count
	if remaining < 0 {
		remaining = 0
	}
	d := RateDecision{
		Allowed:   w.Count <= policy.Max,
		Limit:     policy.Max,
		Remaining: remaining,
		ResetAt:   reset,
	}
	if !d.Allowed {
		d.RetryAfter = reset.Sub(l.now())
		l.log.Debug().
			Str("class", string(class)).
			Str("key", callerKey).
			Int64("count", w.Count).
			Msg("rate limit exceeded")
	}
	return d, nil
}
