package services

import (
	"context"
	"sync"
	"time"

	"tithe/internal/amqp"
	"tithe/internal/core"
	applog "tithe/internal/log"
	"tithe/internal/store"
)

// Publisher sends change messages to the broker.
type Publisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// ChangeObserver counts published change messages.
type ChangeObserver interface {
	ObserveChange(entity, action, direction string)
}

// defaultQueueSize bounds the changes waiting for the broker.
const defaultQueueSize = 256

type change struct {
	entity string
	action string
	id     int64
}

// ChangePublisher forwards every store event to the broker. The mutation has
// already happened by the time an event fires, so failures are only logged.
// Events are queued and published by a single goroutine, so a slow broker
// never delays the writer; when the queue is full the change is dropped and
// logged. Close drains the queue.
type ChangePublisher struct {
	pub      Publisher
	logger   *applog.Logger
	observer ChangeObserver
	timeout  time.Duration
	subs     []*store.Subscription

	mu        sync.Mutex
	closed    bool
	queue     chan change
	done      chan struct{}
	closeOnce sync.Once
}

func NewChangePublisher(pub Publisher, members MemberSource, payments PaymentSource, logger *applog.Logger, observer ChangeObserver) *ChangePublisher {
	return newChangePublisher(pub, members, payments, logger, observer, defaultQueueSize)
}

func newChangePublisher(pub Publisher, members MemberSource, payments PaymentSource, logger *applog.Logger, observer ChangeObserver, queueSize int) *ChangePublisher {
	if logger == nil {
		logger = applog.Discard()
	}
	p := &ChangePublisher{
		pub:      pub,
		logger:   logger.WithComponent(applog.ComponentAMQP),
		observer: observer,
		timeout:  5 * time.Second,
		queue:    make(chan change, queueSize),
		done:     make(chan struct{}),
	}
	go p.loop()

	p.subs = append(p.subs,
		members.Subscribe(func(ev store.Event[core.Member]) {
			p.enqueue(amqp.EntityMember, ev.Kind, ev.Item.ID)
		}),
		payments.Subscribe(func(ev store.Event[core.Payment]) {
			p.enqueue(amqp.EntityPayment, ev.Kind, ev.Item.ID)
		}),
	)
	return p
}

// Close stops forwarding events and waits for queued changes to be published.
func (p *ChangePublisher) Close() {
	p.closeOnce.Do(func() {
		for _, sub := range p.subs {
			sub.Unsubscribe()
		}
		p.subs = nil

		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()

		<-p.done
	})
}

func (p *ChangePublisher) enqueue(entity string, kind store.EventKind, id int64) {
	action := actionFor(kind)
	if action == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- change{entity: entity, action: action, id: id}:
	default:
		p.logger.Warn("Change queue full, dropping change message",
			applog.FieldOperation, applog.OpPublish,
			"entity", entity, "action", action, "id", id)
	}
}

func (p *ChangePublisher) loop() {
	defer close(p.done)
	for c := range p.queue {
		p.publish(c)
	}
}

func (p *ChangePublisher) publish(c change) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	msg := amqp.NewChangeMessage(c.entity, c.action, c.id)
	if err := p.pub.PublishChange(ctx, msg); err != nil {
		fields := applog.NewFields().
			WithOperation(applog.OpPublish).
			WithError(err).
			WithErrorType(applog.ClassifyError(err))
		p.logger.Error("Failed to publish change message",
			append(fields.ToSlice(), "entity", c.entity, "action", c.action, "id", c.id)...)
		return
	}
	if p.observer != nil {
		p.observer.ObserveChange(c.entity, c.action, "out")
	}
}

func actionFor(kind store.EventKind) string {
	switch kind {
	case store.EventLoaded:
		return amqp.ActionLoaded
	case store.EventAdded:
		return amqp.ActionCreated
	case store.EventUpdated:
		return amqp.ActionUpdated
	case store.EventDeleted:
		return amqp.ActionDeleted
	default:
		return ""
	}
}
