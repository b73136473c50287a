// Package metrics defines the custom Prometheus metrics of the security
// pipeline. HTTP request metrics come from echoprometheus; everything here is
// about authentication and throttling decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gatekeeper"

// ── Authentication ────────────────────────────────────────────────────────────

// AuthDecisionsTotal counts pipeline decisions.
// Labels:
//   - stage: "authenticate", "tenant" or "role"
//   - outcome: "allow" or the error code returned (e.g. "INVALID_TOKEN")
var AuthDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_decisions_total",
		Help:      "Total number of security pipeline decisions, by stage and outcome.",
	},
	[]string{"stage", "outcome"},
)

// TokensVerifiedTotal counts successfully verified tokens by wire schema
// ("legacy" or "v2"). Used to track when legacy tokens can be retired.
var TokensVerifiedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_verified_total",
		Help:      "Total number of verified access tokens, by payload schema.",
	},
	[]string{"schema"},
)

// SessionStoreFailuresTotal counts session store errors.
// Label:
//   - outcome: "fail_open" or "fail_closed"
var SessionStoreFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_store_failures_total",
		Help:      "Total number of session store failures, by how the request was resolved.",
	},
	[]string{"outcome"},
)

// UserLookupDuration measures the live user lookup.
// Label:
//   - outcome: "found", "not_found" or "error"
var UserLookupDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "user_lookup_duration_seconds",
		Help:      "Duration of the per-request user context lookup.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Rate limiting ─────────────────────────────────────────────────────────────

// RateLimitRejectionsTotal counts requests rejected by an endpoint class.
var RateLimitRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Total number of requests rejected by the rate limiter, by endpoint class.",
	},
	[]string{"class"},
)

// RateLimitStoreErrorsTotal counts window store failures (requests allowed).
var RateLimitStoreErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_store_errors_total",
		Help:      "Total number of window store failures that let a request through.",
	},
	[]string{"class"},
)
