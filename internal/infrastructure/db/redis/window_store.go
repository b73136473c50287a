package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

const keyPrefix = "ratelimit:"

// hitScript increments the counter and arms the expiry on the first hit of a
// window. It returns {count, pttl}.
var hitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// WindowStore keeps fixed-window rate counters in Redis so every instance
// shares one budget.
// Key format: ratelimit:<class>:<caller key>
type WindowStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewWindowStore creates a WindowStore wrapping the given Redis client.
func NewWindowStore(client *redis.Client) *WindowStore {
	return &WindowStore{client: client, now: time.Now}
}

func (s *WindowStore) Hit(ctx context.Context, key string, window time.Duration) (domain.RateWindow, error) {
	res, err := hitScript.Run(ctx, s.client, []string{keyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return domain.RateWindow{}, fmt.Errorf("rate window hit: %w", err)
	}
	if len(res) != 2 {
		return domain.RateWindow{}, fmt.Errorf("rate window hit: unexpected reply %v", res)
	}

	remaining := time.Duration(res[1]) * time.Millisecond
	return domain.RateWindow{
		Count:       res[0],
		WindowStart: s.now().Add(remaining - window),
	}, nil
}
