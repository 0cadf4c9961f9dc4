package store

import (
	"context"
	"errors"
	"fmt"

	"tithe/internal/core"
	applog "tithe/internal/log"
)

// Repository is the persistence boundary behind a Backed store.
type Repository[E any] interface {
	GetAll(ctx context.Context) ([]E, error)
	GetByID(ctx context.Context, id int64) (E, error)
	Add(ctx context.Context, item E) (int64, error)
	Update(ctx context.Context, item E) error
	Delete(ctx context.Context, id int64) error
}

// Observer is notified of the outcome of every Backed operation.
type Observer interface {
	ObserveStoreOp(store, operation string, err error)
}

// Backed mirrors a Repository in a Store. The repository is always called
// without holding the store lock; the in-memory collection is only touched
// once the repository call has succeeded.
type Backed[E any] struct {
	*Store[E]
	name     string
	repo     Repository[E]
	withID   func(E, int64) E
	logger   *applog.Logger
	observer Observer
}

// Option configures a Backed store.
type Option func(*options)

type options struct {
	logger   *applog.Logger
	observer Observer
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *applog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver records operation outcomes, typically into metrics.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// NewBacked creates a repository-backed store named name (used in logs and metrics).
// withID returns a copy of an entity carrying the id assigned by the repository.
func NewBacked[E any](name string, repo Repository[E], idOf func(E) int64, withID func(E, int64) E, opts ...Option) *Backed[E] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = applog.New(applog.DefaultConfig())
	}
	return &Backed[E]{
		Store:    New(idOf),
		name:     name,
		repo:     repo,
		withID:   withID,
		logger:   o.logger.WithComponent(applog.ComponentStore),
		observer: o.observer,
	}
}

// Name returns the store name.
func (b *Backed[E]) Name() string {
	return b.name
}

// Refresh reloads the whole collection from the repository.
func (b *Backed[E]) Refresh(ctx context.Context) error {
	items, err := b.repo.GetAll(ctx)
	if err != nil {
		return b.fail(ctx, applog.OpLoad, err)
	}
	b.Load(items)
	b.observe(applog.OpLoad, nil)
	b.logger.InfoContext(ctx, "Store loaded", "store", b.name, "count", len(items))
	return nil
}

// Create persists item, then adds it with the id assigned by the repository.
// If the id is already in memory the store has drifted from the repository;
// it is reloaded so the persisted row is visible, and the error is returned.
func (b *Backed[E]) Create(ctx context.Context, item E) (E, error) {
	id, err := b.repo.Add(ctx, item)
	if err != nil {
		var zero E
		return zero, b.fail(ctx, applog.OpCreate, err)
	}
	item = b.withID(item, id)
	if err := b.Add(item); err != nil {
		if rerr := b.Refresh(ctx); rerr != nil {
			err = errors.Join(err, rerr)
		}
		var zero E
		return zero, b.fail(ctx, applog.OpCreate, err)
	}
	b.observe(applog.OpCreate, nil)
	return item, nil
}

// Save persists item, then replaces the in-memory copy.
func (b *Backed[E]) Save(ctx context.Context, item E) error {
	if err := b.repo.Update(ctx, item); err != nil {
		return b.fail(ctx, applog.OpUpdate, err)
	}
	if err := b.Update(item); err != nil {
		return b.fail(ctx, applog.OpUpdate, err)
	}
	b.observe(applog.OpUpdate, nil)
	return nil
}

// Remove deletes the entity from the repository, then from memory.
func (b *Backed[E]) Remove(ctx context.Context, id int64) (E, error) {
	if err := b.repo.Delete(ctx, id); err != nil {
		var zero E
		return zero, b.fail(ctx, applog.OpDelete, err)
	}
	removed, err := b.Delete(id)
	if err != nil {
		var zero E
		return zero, b.fail(ctx, applog.OpDelete, err)
	}
	b.observe(applog.OpDelete, nil)
	return removed, nil
}

func (b *Backed[E]) fail(ctx context.Context, op string, err error) error {
	b.observe(op, err)
	fields := applog.NewFields().
		WithOperation(op).
		WithError(err).
		WithErrorType(applog.ClassifyError(err))
	b.logger.ErrorContext(ctx, "Store operation failed", append(fields.ToSlice(), "store", b.name)...)
	return fmt.Errorf("%s %s: %w", b.name, op, err)
}

func (b *Backed[E]) observe(op string, err error) {
	if b.observer != nil {
		b.observer.ObserveStoreOp(b.name, op, err)
	}
}

// MemberStore is the store of church members.
type MemberStore = Backed[core.Member]

// PaymentStore is the store of payments.
type PaymentStore = Backed[core.Payment]

// NewMemberStore builds the member store over repo.
func NewMemberStore(repo Repository[core.Member], opts ...Option) *MemberStore {
	return NewBacked("members", repo,
		func(m core.Member) int64 { return m.ID },
		func(m core.Member, id int64) core.Member { m.ID = id; return m },
		opts...)
}

// NewPaymentStore builds the payment store over repo.
func NewPaymentStore(repo Repository[core.Payment], opts ...Option) *PaymentStore {
	return NewBacked("payments", repo,
		func(p core.Payment) int64 { return p.ID },
		func(p core.Payment, id int64) core.Payment { p.ID = id; return p },
		opts...)
}
