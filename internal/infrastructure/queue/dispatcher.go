package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/api/metrics"
	"github.com/opsdesk/dashboard/internal/core/domain"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

type listener struct {
	id     uint64
	fn     func(domain.AuthEvent)
	active atomic.Bool
}

// Dispatcher routes auth events to a fixed set of workers using consistent
// hashing on the session id, guaranteeing per-session event ordering.
type Dispatcher struct {
	workers []chan domain.AuthEvent
	log     zerolog.Logger

	mu        sync.RWMutex
	listeners map[string][]*listener
	nextID    uint64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.AuthEvent, numWorkers),
		log:       log,
		listeners: make(map[string][]*listener),
		stop:      make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuthEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Cancelling ctx stops the dispatcher
// as Stop does, so Publish no longer waits on a full buffer.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case <-ctx.Done():
			d.halt()
		case <-d.stop:
		}
	}()
}

// Stop halts the workers and waits for them to exit. Events still queued are
// dropped. It is idempotent.
func (d *Dispatcher) Stop() {
	d.halt()
	d.wg.Wait()
}

func (d *Dispatcher) halt() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// Publish sends an event to the worker responsible for its session. It blocks
// while that worker's buffer is full, and drops the event once stopped.
func (d *Dispatcher) Publish(event domain.AuthEvent) {
	idx := d.shardIndex(event.SessionID)
	select {
	case d.workers[idx] <- event:
		metrics.AuthEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	case <-d.stop:
		d.log.Debug().Str("kind", string(event.Kind)).Msg("dispatcher stopped, auth event dropped")
	}
}

// Subscribe registers fn for the events of sessionID. The returned func is
// idempotent; after it returns fn is not invoked for undelivered events.
func (d *Dispatcher) Subscribe(sessionID string, fn func(domain.AuthEvent)) (unsubscribe func()) {
	d.mu.Lock()
	d.nextID++
	l := &listener{id: d.nextID, fn: fn}
	l.active.Store(true)
	d.listeners[sessionID] = append(d.listeners[sessionID], l)
	d.mu.Unlock()

	return func() {
		if !l.active.CompareAndSwap(true, false) {
			return
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		ls := d.listeners[sessionID]
		for i, other := range ls {
			if other.id == l.id {
				ls = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
		if len(ls) == 0 {
			delete(d.listeners, sessionID)
			return
		}
		d.listeners[sessionID] = ls
	}
}

// Listeners returns how many listeners are registered for sessionID.
func (d *Dispatcher) Listeners(sessionID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[sessionID])
}

// shardIndex maps a session id deterministically to a worker index.
func (d *Dispatcher) shardIndex(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	defer d.wg.Done()
	depth := metrics.AuthEventsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case event := <-ch:
			depth.Set(float64(len(ch)))
			d.deliver(id, event)
		}
	}
}

func (d *Dispatcher) deliver(workerID int, event domain.AuthEvent) {
	d.mu.RLock()
	ls := append([]*listener(nil), d.listeners[event.SessionID]...)
	d.mu.RUnlock()

	for _, l := range ls {
		if !l.active.Load() {
			continue
		}
		d.invoke(workerID, l, event)
	}
}

func (d *Dispatcher) invoke(workerID int, l *listener, event domain.AuthEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Str("kind", string(event.Kind)).
				Int("worker_id", workerID).
				Msg("auth event listener panicked")
		}
	}()
	l.fn(event)
}
