package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"scorekit/core"
)

type DispatchMode int

const (
	DispatchSync DispatchMode = iota
	DispatchAsync
)

// AnyEvent subscribes a handler to every event type.
const AnyEvent core.EventType = "*"

type subscription struct {
	id int64
	fn func(context.Context, core.Event)
}

// EventBus provides thread-safe pub/sub with sync and async dispatch.
type EventBus struct {
	mode       DispatchMode
	mu         sync.RWMutex
	subs       map[core.EventType]map[int64]subscription
	nextID     int64
	asyncQueue chan core.Event
	workers    sync.WaitGroup
	closeOnce  sync.Once
	closed     chan struct{}
	dropped    atomic.Int64
	logger     *slog.Logger
}

// BusOption configures an EventBus.
type BusOption func(*EventBus)

// WithBusLogger sets the logger used to report dropped events.
func WithBusLogger(l *slog.Logger) BusOption {
	return func(e *EventBus) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithQueueSize overrides the async queue capacity.
func WithQueueSize(n int) BusOption {
	return func(e *EventBus) {
		if n > 0 {
			e.asyncQueue = make(chan core.Event, n)
		}
	}
}

func NewEventBus(mode DispatchMode, opts ...BusOption) *EventBus {
	eb := &EventBus{
		mode:       mode,
		subs:       make(map[core.EventType]map[int64]subscription),
		asyncQueue: make(chan core.Event, 1024),
		closed:     make(chan struct{}),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(eb)
	}
	if mode == DispatchAsync {
		eb.startWorkers(2)
	}
	return eb
}

func (e *EventBus) startWorkers(n int) {
	for i := 0; i < n; i++ {
		e.workers.Add(1)
		go func() {
			defer e.workers.Done()
			for {
				select {
				case ev := <-e.asyncQueue:
					e.dispatchSync(context.Background(), ev)
				case <-e.closed:
					// drain what was queued before Close
					for {
						select {
						case ev := <-e.asyncQueue:
							e.dispatchSync(context.Background(), ev)
						default:
							return
						}
					}
				}
			}
		}()
	}
}

// Close stops async workers after the queue is drained. Safe to call twice.
func (e *EventBus) Close() {
	e.closeOnce.Do(func() {
		close(e.closed)
		e.workers.Wait()
	})
}

// Dropped returns how many events were discarded because the async queue was full.
func (e *EventBus) Dropped() int64 { return e.dropped.Load() }

// Subscribe registers a handler for an event type (or AnyEvent). Returns unsubscribe func.
func (e *EventBus) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	if e.subs[typ] == nil {
		e.subs[typ] = make(map[int64]subscription)
	}
	e.subs[typ][id] = subscription{id: id, fn: handler}
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if m := e.subs[typ]; m != nil {
			delete(m, id)
		}
	}
}

// Publish sends an event to subscribers. In async mode a full queue drops the event.
func (e *EventBus) Publish(ctx context.Context, ev core.Event) {
	if e.mode == DispatchAsync {
		select {
		case <-e.closed:
			return
		default:
		}
		select {
		case e.asyncQueue <- ev:
		default:
			n := e.dropped.Add(1)
			e.logger.Warn("event queue full, dropping event", "type", ev.Type, "dropped_total", n)
		}
		return
	}
	e.dispatchSync(ctx, ev)
}

func (e *EventBus) dispatchSync(ctx context.Context, ev core.Event) {
	e.mu.RLock()
	handlers := make([]func(context.Context, core.Event), 0, len(e.subs[ev.Type])+len(e.subs[AnyEvent]))
	for _, s := range e.subs[ev.Type] {
		handlers = append(handlers, s.fn)
	}
	for _, s := range e.subs[AnyEvent] {
		handlers = append(handlers, s.fn)
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}
