package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Sink delivers an account event to the notification collaborator.
type Sink interface {
	Deliver(ctx context.Context, event domain.AccountEvent) error
}

// Dispatcher routes account events to a fixed set of workers using consistent
// hashing on the user id, guaranteeing per-user event ordering. It implements
// ports.EventPublisher.
type Dispatcher struct {
	mu      sync.RWMutex
	closed  bool
	workers []chan domain.AccountEvent
	wg      sync.WaitGroup
	sink    Sink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink Sink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AccountEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AccountEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and exit
// after Close.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish enqueues event without blocking. When the worker queue is full or
// the dispatcher is closed the event is dropped and logged; the originating
// request never fails because of it.
func (d *Dispatcher) Publish(_ context.Context, event domain.AccountEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped(event, "closed")
		return
	}

	idx := d.shardIndex(event.UserID)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.dropped(event, "queue_full")
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) dropped(event domain.AccountEvent, reason string) {
	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "dropped").Inc()
	d.log.Warn().
		Str("event_type", string(event.Type)).
		Str("user_id", event.UserID).
		Str("reason", reason).
		Msg("account event dropped")
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AccountEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for event := range ch {
		metrics.EventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
		if err := d.sink.Deliver(context.WithoutCancel(ctx), event); err != nil {
			metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
			d.log.Error().Err(err).
				Str("event_type", string(event.Type)).
				Str("user_id", event.UserID).
				Int("worker_id", id).
				Msg("account event delivery failed")
			continue
		}
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "ok").Inc()
	}
}
