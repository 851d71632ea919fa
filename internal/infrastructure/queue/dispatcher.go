package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-admin/internal/api/metrics"
	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher writes audit events off the request path. Events are routed to a
// fixed set of workers by hashing the user's email, so the events of one user
// are persisted in the order they were recorded.
type Dispatcher struct {
	workers []chan domain.UserEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.UserEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.UserEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Record hands an event to the worker responsible for its user. It never
// blocks: when the worker's buffer is full the event is dropped and counted.
func (d *Dispatcher) Record(event domain.UserEvent) {
	idx := d.shardIndex(event.Email)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditErrorsTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().
			Str("type", string(event.Type)).
			Uint("user_id", event.UserID).
			Int("worker_id", idx).
			Msg("audit queue full, dropping event")
	}
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.UserEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.write(context.Background(), id, event)
		}
	}
}

// drain persists whatever is still buffered at shutdown.
func (d *Dispatcher) drain(id int, ch <-chan domain.UserEvent) {
	for {
		select {
		case event := <-ch:
			d.write(context.Background(), id, event)
		default:
			metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(0)
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, event domain.UserEvent) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	start := time.Now()
	err := d.repo.InsertUserEvent(ctx, event)
	metrics.AuditWriteDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AuditErrorsTotal.WithLabelValues("write_failed").Inc()
		d.log.Error().Err(err).
			Str("type", string(event.Type)).
			Uint("user_id", event.UserID).
			Int("worker_id", id).
			Msg("audit event write failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues(string(event.Type)).Inc()
}
