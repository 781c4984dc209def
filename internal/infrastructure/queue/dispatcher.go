package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/identitylab/account-service/internal/api/metrics"
	"github.com/identitylab/account-service/internal/core/domain"
	"github.com/identitylab/account-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher persists audit events asynchronously through a fixed set of
// workers, sharded by actor with consistent hashing, guaranteeing per-user
// event ordering.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues an event to the worker responsible for its actor without
// blocking the request path; events are dropped with a log line when the
// worker channel is full.
func (d *Dispatcher) Record(event domain.AuditEvent) {
	idx := d.shardIndex(event.Actor)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.log.Warn().Str("actor", event.Actor).Str("action", event.Action).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps an actor deterministically to a worker index.
func (d *Dispatcher) shardIndex(actor string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actor))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if err := d.repo.Insert(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("actor", event.Actor).
					Str("action", event.Action).
					Int("worker_id", id).
					Msg("audit event persistence failed")
			}
		}
	}
}
