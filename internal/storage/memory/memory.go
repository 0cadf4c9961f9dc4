// Package memory provides slice-backed repositories used when
// DATA_BACKEND=memory and in tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tithe/internal/core"
)

// Repository keeps entities in insertion order and assigns increasing ids.
type Repository[E any] struct {
	mu     sync.Mutex
	items  []E
	nextID int64
	idOf   func(E) int64
	withID func(E, int64) E
}

func newRepository[E any](idOf func(E) int64, withID func(E, int64) E, seed []E) *Repository[E] {
	r := &Repository[E]{idOf: idOf, withID: withID}
	for _, it := range seed {
		if id := idOf(it); id > r.nextID {
			r.nextID = id
		}
		r.items = append(r.items, it)
	}
	return r
}

// GetAll returns a copy of every stored entity.
func (r *Repository[E]) GetAll(_ context.Context) ([]E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]E(nil), r.items...), nil
}

func (r *Repository[E]) GetByID(_ context.Context, id int64) (E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		return r.items[i], nil
	}
	var zero E
	return zero, fmt.Errorf("id %d: %w", id, core.ErrNotFound)
}

// Add stores item under a fresh id and returns it. Any id on item is ignored.
func (r *Repository[E]) Add(_ context.Context, item E) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.items = append(r.items, r.withID(item, r.nextID))
	return r.nextID, nil
}

func (r *Repository[E]) Update(_ context.Context, item E) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(r.idOf(item))
	if i < 0 {
		return fmt.Errorf("id %d: %w", r.idOf(item), core.ErrNotFound)
	}
	r.items[i] = item
	return nil
}

func (r *Repository[E]) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("id %d: %w", id, core.ErrNotFound)
	}
	r.items = append(r.items[:i:i], r.items[i+1:]...)
	return nil
}

func (r *Repository[E]) indexOf(id int64) int {
	for i, it := range r.items {
		if r.idOf(it) == id {
			return i
		}
	}
	return -1
}

type (
	MemberRepository  = Repository[core.Member]
	PaymentRepository = Repository[core.Payment]
)

func NewMemberRepository(seed ...core.Member) *MemberRepository {
	return newRepository(
		func(m core.Member) int64 { return m.ID },
		func(m core.Member, id int64) core.Member { m.ID = id; return m },
		seed)
}

func NewPaymentRepository(seed ...core.Payment) *PaymentRepository {
	return newRepository(
		func(p core.Payment) int64 { return p.ID },
		func(p core.Payment, id int64) core.Payment { p.ID = id; return p },
		seed)
}

// NewFromFiles seeds both repositories from members.json and payments.json
// under base. Missing files yield empty repositories; malformed ones are errors.
func NewFromFiles(base string) (*MemberRepository, *PaymentRepository, error) {
	var members []core.Member
	if err := readJSON(filepath.Join(base, "members.json"), &members); err != nil {
		return nil, nil, err
	}
	var payments []core.Payment
	if err := readJSON(filepath.Join(base, "payments.json"), &payments); err != nil {
		return nil, nil, err
	}
	return NewMemberRepository(members...), NewPaymentRepository(payments...), nil
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
