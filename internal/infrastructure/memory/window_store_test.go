package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowStore_FixedWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	s := NewWindowStore(10, time.Hour).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		w, err := s.Hit(ctx, "auth:ip", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, w.Count)
		assert.Equal(t, start, w.WindowStart)
	}

	now = start.Add(59 * time.Second)
	w, _ := s.Hit(ctx, "auth:ip", time.Minute)
	assert.Equal(t, int64(4), w.Count)

	now = start.Add(time.Minute)
	w, _ = s.Hit(ctx, "auth:ip", time.Minute)
	assert.Equal(t, int64(1), w.Count)
	assert.Equal(t, now, w.WindowStart)
}

func TestWindowStore_ConcurrentHitsAreCounted(t *testing.T) {
	s := NewWindowStore(10, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Hit(ctx, "api:ip", time.Minute)
		}()
	}
	wg.Wait()

	w, err := s.Hit(ctx, "api:ip", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(51), w.Count)
}

func TestWindowStore_BoundedSize(t *testing.T) {
	s := NewWindowStore(2, time.Hour)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		_, _ = s.Hit(ctx, k, time.Minute)
	}
	assert.Equal(t, 2, s.Len())
}
