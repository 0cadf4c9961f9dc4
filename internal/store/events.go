package store

import (
	"sync"
)

// EventKind identifies which mutation produced an event.
type EventKind int

const (
	EventLoaded EventKind = iota + 1
	EventAdded
	EventUpdated
	EventDeleted
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventAdded:
		return "added"
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after a successful mutation.
// Item is the zero value for EventLoaded.
type Event[E any] struct {
	Kind EventKind
	Item E
}

// Handler receives store events. It runs on the goroutine that performed the
// mutation and must not call back into a write method of the same store.
// Events from one goroutine arrive in mutation order; events from concurrent
// writers are published after the lock is released and may arrive in either order.
type Handler[E any] func(Event[E])

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// broker fans events out to the registered handlers in subscription order.
type broker[E any] struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []registered[E]
}

type registered[E any] struct {
	id uint64
	fn Handler[E]
}

func (b *broker[E]) subscribe(h Handler[E]) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, registered[E]{id: id, fn: h})

	return &Subscription{cancel: func() { b.remove(id) }}
}

func (b *broker[E]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, r := range b.handlers {
		if r.id == id {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return
		}
	}
}

func (b *broker[E]) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// publish snapshots the handler list so handlers may unsubscribe while running.
func (b *broker[E]) publish(ev Event[E]) {
	b.mu.Lock()
	handlers := make([]Handler[E], len(b.handlers))
	for i, r := range b.handlers {
		handlers[i] = r.fn
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
