package repository

import (
	"context"
	"fmt"
	"hash/maphash"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// EventKind tells what happened to a document.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// UpdateEvent describes a change of a single document.
// Before is nil for EventCreated, After is nil for EventDeleted.
type UpdateEvent[T any] struct {
	Kind   EventKind
	ID     string
	Before *Document[T]
	After  *Document[T]
}

// BeforeUpdateObserver is called synchronously before a change is written.
// Returning an error vetoes the change.
type BeforeUpdateObserver[T any] func(ctx context.Context, event UpdateEvent[T]) error

// AfterUpdateObserver is called asynchronously after a change was committed.
type AfterUpdateObserver[T any] func(ctx context.Context, event UpdateEvent[T])

type observerRegistry[O any] struct {
	nextID    atomic.Uint64
	observers *xsync.MapOf[uint64, O]
}

func newObserverRegistry[O any]() *observerRegistry[O] {
	return &observerRegistry[O]{observers: xsync.NewMapOf[uint64, O]()}
}

func (r *observerRegistry[O]) add(observer O) func() {
	id := r.nextID.Add(1)
	r.observers.Store(id, observer)

	return func() { r.observers.Delete(id) }
}

// snapshot returns the registered observers in registration order.
func (r *observerRegistry[O]) snapshot() []O {
	ids := make([]uint64, 0, r.observers.Size())
	r.observers.Range(func(id uint64, _ O) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)

	observers := make([]O, 0, len(ids))
	for _, id := range ids {
		if observer, ok := r.observers.Load(id); ok {
			observers = append(observers, observer)
		}
	}

	return observers
}

// subscription queues the after-events of one observer. A single goroutine drains
// the queue at a time, so the observer sees events in the order they were committed.
type subscription[T any] struct {
	observer AfterUpdateObserver[T]
	mu       sync.Mutex
	queue    []queuedEvent[T]
	draining bool
}

type queuedEvent[T any] struct {
	ctx   context.Context
	event UpdateEvent[T]
}

// notifier runs before-observers inline and queues after-events per observer.
type notifier[T any] struct {
	before *observerRegistry[BeforeUpdateObserver[T]]
	after  *observerRegistry[*subscription[T]]

	mu      sync.Mutex
	idle    *sync.Cond
	pending int

	// sequencers serialize store write and enqueue per document id.
	seed       maphash.Seed
	sequencers [sequencerCount]sync.Mutex

	obs observability
}

const sequencerCount = 64

func newNotifier[T any](obs observability) *notifier[T] {
	n := &notifier[T]{
		before: newObserverRegistry[BeforeUpdateObserver[T]](),
		after:  newObserverRegistry[*subscription[T]](),
		seed:   maphash.MakeSeed(),
		obs:    obs,
	}
	n.idle = sync.NewCond(&n.mu)

	return n
}

func (n *notifier[T]) subscribe(observer AfterUpdateObserver[T]) func() {
	return n.after.add(&subscription[T]{observer: observer})
}

// sequence locks the sequencer of id and returns the unlock func.
func (n *notifier[T]) sequence(id string) func() {
	mu := &n.sequencers[maphash.String(n.seed, id)%sequencerCount]
	mu.Lock()

	return mu.Unlock
}

func (n *notifier[T]) notifyBefore(ctx context.Context, event UpdateEvent[T]) error {
	for _, observer := range n.before.snapshot() {
		if err := observer(ctx, event); err != nil {
			n.obs.logInfo(ctx, logMsgVetoed, logAttrDocumentID, event.ID, logAttrError, err.Error())
			return fmt.Errorf("%w: %w", ErrVetoed, err)
		}
	}

	return nil
}

// notifyAfter queues event for every after-observer and returns without waiting for delivery.
func (n *notifier[T]) notifyAfter(ctx context.Context, event UpdateEvent[T]) {
	detached := context.WithoutCancel(ctx)

	for _, sub := range n.after.snapshot() {
		n.mu.Lock()
		n.pending++
		n.mu.Unlock()

		sub.mu.Lock()
		sub.queue = append(sub.queue, queuedEvent[T]{ctx: detached, event: event})
		start := !sub.draining
		sub.draining = true
		sub.mu.Unlock()

		if start {
			go n.drain(sub)
		}
	}
}

func (n *notifier[T]) drain(sub *subscription[T]) {
	for {
		sub.mu.Lock()
		if len(sub.queue) == 0 {
			sub.draining = false
			sub.mu.Unlock()

			return
		}

		next := sub.queue[0]
		sub.queue[0] = queuedEvent[T]{}
		sub.queue = sub.queue[1:]
		sub.mu.Unlock()

		n.deliver(sub.observer, next)
		n.done()
	}
}

func (n *notifier[T]) deliver(observer AfterUpdateObserver[T], queued queuedEvent[T]) {
	defer func() {
		if r := recover(); r != nil {
			n.obs.logError(queued.ctx, logMsgObserverPanicked, fmt.Errorf("%v", r), logAttrDocumentID, queued.event.ID)
			n.obs.incrementCounter(queued.ctx, MetricObserverFailures, n.obs.labels(string(queued.event.Kind), StatusError))
		}
	}()

	observer(queued.ctx, queued.event)
}

func (n *notifier[T]) done() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.pending--
	if n.pending == 0 {
		n.idle.Broadcast()
	}
}

// wait blocks until no queued after-event is left.
func (n *notifier[T]) wait() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for n.pending > 0 {
		n.idle.Wait()
	}
}
