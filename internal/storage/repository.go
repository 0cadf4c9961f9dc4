package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tithe/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns the database handle shared by the member and
// payment repositories.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Members() *MemberRepository {
	return &MemberRepository{q: r.queries}
}

func (r *SQLiteRepository) Payments() *PaymentRepository {
	return &PaymentRepository{q: r.queries}
}

// MemberRepository persists members.
type MemberRepository struct {
	q *Queries
}

func (r *MemberRepository) GetAll(ctx context.Context) ([]core.Member, error) {
	rows, err := r.q.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]core.Member, 0, len(rows))
	for _, row := range rows {
		m, err := memberFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (core.Member, error) {
	row, err := r.q.GetMember(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, fmt.Errorf("member %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get member %d: %w", id, err)
	}
	return memberFromRow(row)
}

func (r *MemberRepository) Add(ctx context.Context, m core.Member) (int64, error) {
	id, err := r.q.CreateMember(ctx, memberToRow(m))
	if err != nil {
		return 0, fmt.Errorf("create member: %w", err)
	}
	return id, nil
}

func (r *MemberRepository) Update(ctx context.Context, m core.Member) error {
	n, err := r.q.UpdateMember(ctx, memberToRow(m))
	if err != nil {
		return fmt.Errorf("update member %d: %w", m.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("member %d: %w", m.ID, core.ErrNotFound)
	}
	return nil
}

func (r *MemberRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.q.DeleteMember(ctx, id)
	if err != nil {
		return fmt.Errorf("delete member %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("member %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// PaymentRepository persists payments.
type PaymentRepository struct {
	q *Queries
}

func (r *PaymentRepository) GetAll(ctx context.Context) ([]core.Payment, error) {
	rows, err := r.q.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]core.Payment, 0, len(rows))
	for _, row := range rows {
		p, err := paymentFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (core.Payment, error) {
	row, err := r.q.GetPayment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, fmt.Errorf("payment %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment %d: %w", id, err)
	}
	return paymentFromRow(row)
}

func (r *PaymentRepository) Add(ctx context.Context, p core.Payment) (int64, error) {
	id, err := r.q.CreatePayment(ctx, paymentToRow(p))
	if err != nil {
		return 0, fmt.Errorf("create payment: %w", err)
	}
	return id, nil
}

func (r *PaymentRepository) Update(ctx context.Context, p core.Payment) error {
	n, err := r.q.UpdatePayment(ctx, paymentToRow(p))
	if err != nil {
		return fmt.Errorf("update payment %d: %w", p.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("payment %d: %w", p.ID, core.ErrNotFound)
	}
	return nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.q.DeletePayment(ctx, id)
	if err != nil {
		return fmt.Errorf("delete payment %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("payment %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func memberToRow(m core.Member) MemberRow {
	return MemberRow{
		ID:           m.ID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Contact:      m.Contact,
		Gender:       string(m.Gender),
		Address:      m.Address,
		Organization: m.Organization.String(),
		BibleClass:   m.BibleClass.String(),
		IsLeader:     m.IsLeader,
	}
}

func memberFromRow(row MemberRow) (core.Member, error) {
	org, err := core.ParseOrganization(row.Organization)
	if err != nil {
		return core.Member{}, fmt.Errorf("member %d: %w", row.ID, err)
	}
	class, err := core.ParseBibleClass(row.BibleClass)
	if err != nil {
		return core.Member{}, fmt.Errorf("member %d: %w", row.ID, err)
	}
	return core.Member{
		ID:           row.ID,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Contact:      row.Contact,
		Gender:       core.Gender(row.Gender),
		Address:      row.Address,
		Organization: org,
		BibleClass:   class,
		IsLeader:     row.IsLeader,
	}, nil
}

func paymentToRow(p core.Payment) PaymentRow {
	return PaymentRow{
		ID:       p.ID,
		MemberID: p.MemberID,
		Amount:   p.Amount.Amount.String(),
		DatePaid: p.DatePaid.String(),
	}
}

func paymentFromRow(row PaymentRow) (core.Payment, error) {
	amount, err := core.ParseMoney(row.Amount)
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment %d amount: %w", row.ID, err)
	}
	date, err := core.ParseDate(row.DatePaid)
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment %d date: %w", row.ID, err)
	}
	return core.Payment{
		ID:       row.ID,
		MemberID: row.MemberID,
		Amount:   amount,
		DatePaid: date,
	}, nil
}
