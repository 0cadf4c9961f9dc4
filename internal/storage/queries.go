package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type MemberRow struct {
	ID           int64
	FirstName    string
	LastName     string
	Contact      string
	Gender       string
	Address      string
	Organization string
	BibleClass   string
	IsLeader     bool
}

type PaymentRow struct {
	ID       int64
	MemberID int64
	Amount   string
	DatePaid string
}

const listMembers = `SELECT id, first_name, last_name, contact, gender, address, organization, bible_class, is_leader
FROM members ORDER BY id`

func (q *Queries) ListMembers(ctx context.Context) ([]MemberRow, error) {
	rows, err := q.db.QueryContext(ctx, listMembers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MemberRow
	for rows.Next() {
		var i MemberRow
		if err := rows.Scan(&i.ID, &i.FirstName, &i.LastName, &i.Contact, &i.Gender, &i.Address,
			&i.Organization, &i.BibleClass, &i.IsLeader); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getMember = `SELECT id, first_name, last_name, contact, gender, address, organization, bible_class, is_leader
FROM members WHERE id = ?`

func (q *Queries) GetMember(ctx context.Context, id int64) (MemberRow, error) {
	row := q.db.QueryRowContext(ctx, getMember, id)
	var i MemberRow
	err := row.Scan(&i.ID, &i.FirstName, &i.LastName, &i.Contact, &i.Gender, &i.Address,
		&i.Organization, &i.BibleClass, &i.IsLeader)
	return i, err
}

const createMember = `INSERT INTO members (first_name, last_name, contact, gender, address, organization, bible_class, is_leader)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateMember(ctx context.Context, arg MemberRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, createMember, arg.FirstName, arg.LastName, arg.Contact, arg.Gender,
		arg.Address, arg.Organization, arg.BibleClass, arg.IsLeader)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updateMember = `UPDATE members
SET first_name = ?, last_name = ?, contact = ?, gender = ?, address = ?, organization = ?, bible_class = ?, is_leader = ?
WHERE id = ?`

func (q *Queries) UpdateMember(ctx context.Context, arg MemberRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateMember, arg.FirstName, arg.LastName, arg.Contact, arg.Gender,
		arg.Address, arg.Organization, arg.BibleClass, arg.IsLeader, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteMember = `DELETE FROM members WHERE id = ?`

func (q *Queries) DeleteMember(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteMember, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listPayments = `SELECT id, member_id, amount, date_paid FROM payments ORDER BY date_paid, id`

func (q *Queries) ListPayments(ctx context.Context) ([]PaymentRow, error) {
	rows, err := q.db.QueryContext(ctx, listPayments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PaymentRow
	for rows.Next() {
		var i PaymentRow
		if err := rows.Scan(&i.ID, &i.MemberID, &i.Amount, &i.DatePaid); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPayment = `SELECT id, member_id, amount, date_paid FROM payments WHERE id = ?`

func (q *Queries) GetPayment(ctx context.Context, id int64) (PaymentRow, error) {
	row := q.db.QueryRowContext(ctx, getPayment, id)
	var i PaymentRow
	err := row.Scan(&i.ID, &i.MemberID, &i.Amount, &i.DatePaid)
	return i, err
}

const createPayment = `INSERT INTO payments (member_id, amount, date_paid) VALUES (?, ?, ?)`

func (q *Queries) CreatePayment(ctx context.Context, arg PaymentRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, createPayment, arg.MemberID, arg.Amount, arg.DatePaid)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updatePayment = `UPDATE payments SET member_id = ?, amount = ?, date_paid = ? WHERE id = ?`

func (q *Queries) UpdatePayment(ctx context.Context, arg PaymentRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updatePayment, arg.MemberID, arg.Amount, arg.DatePaid, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deletePayment = `DELETE FROM payments WHERE id = ?`

func (q *Queries) DeletePayment(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deletePayment, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
