package domain

import "time"

// EndpointClass groups routes that share one rate-limit budget.
type EndpointClass string

const (
	ClassPublic        EndpointClass = "public"
	ClassAuth          EndpointClass = "auth"
	ClassAuthenticated EndpointClass = "authenticated"
	ClassAdmin         EndpointClass = "admin"
	ClassAPI           EndpointClass = "api"
	ClassUpload        EndpointClass = "upload"
	ClassDownload      EndpointClass = "download"
)

// RateWindow is the fixed-window counter state for one caller key.
type RateWindow struct {
	Count       int64
	WindowStart time.Time
}

// ResetAt is the instant the window rolls over.
func (w RateWindow) ResetAt(window time.Duration) time.Time {
	return w.WindowStart.Add(window)
}
