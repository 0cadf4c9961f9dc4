package services

import (
	"context"
	"fmt"

	"tithe/internal/core"
	applog "tithe/internal/log"
	"tithe/internal/store"
)

// Ledger validates member and payment writes before they reach the stores.
type Ledger struct {
	members  *store.MemberStore
	payments *store.PaymentStore
	logger   *applog.Logger
}

func NewLedger(members *store.MemberStore, payments *store.PaymentStore, logger *applog.Logger) *Ledger {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Ledger{members: members, payments: payments, logger: logger.WithComponent(applog.ComponentApp)}
}

func (l *Ledger) Members() []core.Member {
	return l.members.GetAll()
}

func (l *Ledger) Member(id int64) (core.Member, error) {
	m, ok := l.members.GetByID(id)
	if !ok {
		return core.Member{}, fmt.Errorf("member %d: %w", id, core.ErrNotFound)
	}
	return m, nil
}

func (l *Ledger) CreateMember(ctx context.Context, m core.Member) (core.Member, error) {
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	m.ID = 0
	created, err := l.members.Create(ctx, m)
	if err != nil {
		return core.Member{}, err
	}
	l.logger.InfoContext(ctx, "Member created", applog.FieldMemberID, created.ID)
	return created, nil
}

func (l *Ledger) UpdateMember(ctx context.Context, m core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return l.members.Save(ctx, m)
}

// DeleteMember removes the member. Their payments stay and drop out of reports.
func (l *Ledger) DeleteMember(ctx context.Context, id int64) (core.Member, error) {
	return l.members.Remove(ctx, id)
}

func (l *Ledger) Payments() []core.Payment {
	return l.payments.GetAll()
}

func (l *Ledger) Payment(id int64) (core.Payment, error) {
	p, ok := l.payments.GetByID(id)
	if !ok {
		return core.Payment{}, fmt.Errorf("payment %d: %w", id, core.ErrNotFound)
	}
	return p, nil
}

// RecordPayment validates p and requires its member to exist.
func (l *Ledger) RecordPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := l.validatePayment(p); err != nil {
		return core.Payment{}, err
	}
	p.ID = 0
	created, err := l.payments.Create(ctx, p)
	if err != nil {
		return core.Payment{}, err
	}
	l.logger.InfoContext(ctx, "Payment recorded", applog.NewFields().WithPayment(created).ToSlice()...)
	return created, nil
}

func (l *Ledger) UpdatePayment(ctx context.Context, p core.Payment) error {
	if err := l.validatePayment(p); err != nil {
		return err
	}
	return l.payments.Save(ctx, p)
}

func (l *Ledger) DeletePayment(ctx context.Context, id int64) (core.Payment, error) {
	return l.payments.Remove(ctx, id)
}

func (l *Ledger) validatePayment(p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := l.members.GetByID(p.MemberID); !ok {
		return core.FieldErrors{"member_id": "unknown member"}
	}
	return nil
}
