package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// AuditDispatcher moves audit events off the request path. Events are sharded
// by actor tenant so one tenant's trail is written in order.
type AuditDispatcher struct {
	workers []chan domain.AuditEvent
	service ports.AuditService
	log     zerolog.Logger
	dropped atomic.Int64
	warn    rate.Sometimes
	wg      sync.WaitGroup
}

var _ ports.AuditSink = (*AuditDispatcher)(nil)

// NewAuditDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		service: service,
		log:     log,
		warn:    rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

func (d *AuditDispatcher) Wait() {
	d.wg.Wait()
}

// Publish never blocks. When the shard's buffer is full the event is dropped
// and counted; the warning is emitted at most once per interval.
func (d *AuditDispatcher) Publish(event domain.AuditEvent) {
	select {
	case d.workers[d.shardIndex(event.ActorTenantID)] <- event:
	default:
		total := d.dropped.Add(1)
		d.warn.Do(func() {
			d.log.Warn().
				Str("action", string(event.Action)).
				Int64("actor_id", event.ActorID).
				Int64("dropped_total", total).
				Msg("audit queue full, event dropped")
		})
	}
}

// Dropped reports how many events were discarded because a queue was full.
func (d *AuditDispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *AuditDispatcher) shardIndex(tenantID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(tenantID, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			d.record(ctx, id, event)
		}
	}
}

// drain flushes what is already queued using a fresh context, so events
// published just before shutdown still reach the store.
func (d *AuditDispatcher) drain(id int, ch <-chan domain.AuditEvent) {
	for {
		select {
		case event := <-ch:
			d.record(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *AuditDispatcher) record(ctx context.Context, id int, event domain.AuditEvent) {
	if err := d.service.Record(ctx, event); err != nil {
		d.log.Error().Err(err).
			Str("action", string(event.Action)).
			Int("worker_id", id).
			Msg("audit event not persisted")
	}
}
