package store

import (
	"context"
	"errors"
	"testing"

	"tithe/internal/core"
	applog "tithe/internal/log"
	"tithe/internal/storage/memory"
)

type failingRepo struct {
	err error
}

func (f failingRepo) GetAll(context.Context) ([]core.Payment, error) { return nil, f.err }
func (f failingRepo) GetByID(context.Context, int64) (core.Payment, error) {
	return core.Payment{}, f.err
}
func (f failingRepo) Add(context.Context, core.Payment) (int64, error) { return 0, f.err }
func (f failingRepo) Update(context.Context, core.Payment) error       { return f.err }
func (f failingRepo) Delete(context.Context, int64) error              { return f.err }

type recordingObserver struct {
	ops []string
}

func (r *recordingObserver) ObserveStoreOp(store, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.ops = append(r.ops, store+":"+op+":"+outcome)
}

func TestBackedLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMemberRepository(core.Member{ID: 1, FirstName: "John", LastName: "Doe"})
	obs := &recordingObserver{}
	s := NewMemberStore(repo, WithLogger(applog.Discard()), WithObserver(obs))

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("len after refresh = %d", s.Len())
	}

	created, err := s.Create(ctx, core.Member{FirstName: "Jane", LastName: "Smith"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 2 {
		t.Fatalf("created id = %d, want 2", created.ID)
	}
	if got, ok := s.GetByID(2); !ok || got.FirstName != "Jane" {
		t.Fatalf("store missing created member")
	}

	created.LastName = "Doe"
	if err := s.Save(ctx, created); err != nil {
		t.Fatalf("Save: %v", err)
	}
	persisted, _ := repo.GetByID(ctx, 2)
	if persisted.LastName != "Doe" {
		t.Fatalf("repository not updated: %v", persisted)
	}

	removed, err := s.Remove(ctx, 1)
	if err != nil || removed.FirstName != "John" {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	if s.Len() != 1 {
		t.Fatalf("len after remove = %d", s.Len())
	}

	want := []string{"members:load:ok", "members:create:ok", "members:update:ok", "members:delete:ok"}
	if len(obs.ops) != len(want) {
		t.Fatalf("observed %v, want %v", obs.ops, want)
	}
	for i := range want {
		if obs.ops[i] != want[i] {
			t.Fatalf("observed %v, want %v", obs.ops, want)
		}
	}
}

func TestBackedMissingIDPropagatesNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemberStore(memory.NewMemberRepository(), WithLogger(applog.Discard()))

	if err := s.Save(ctx, core.Member{ID: 8}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Save err = %v, want ErrNotFound", err)
	}
	if _, err := s.Remove(ctx, 8); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Remove err = %v, want ErrNotFound", err)
	}
}

func TestBackedRepositoryFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	obs := &recordingObserver{}
	s := NewPaymentStore(failingRepo{err: boom}, WithLogger(applog.Discard()), WithObserver(obs))
	s.Load([]core.Payment{{ID: 1, MemberID: 1, Amount: core.MustMoney("10")}})

	fired := 0
	s.Subscribe(func(Event[core.Payment]) { fired++ })

	tests := []struct {
		name string
		run  func() error
	}{
		{"refresh", func() error { return s.Refresh(ctx) }},
		{"create", func() error { _, err := s.Create(ctx, core.Payment{MemberID: 1}); return err }},
		{"save", func() error { return s.Save(ctx, core.Payment{ID: 1}) }},
		{"remove", func() error { _, err := s.Remove(ctx, 1); return err }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, boom) {
				t.Fatalf("err = %v, want wrapped %v", err, boom)
			}
		})
	}

	if fired != 0 {
		t.Fatalf("failed operations fired %d events", fired)
	}
	if s.Len() != 1 {
		t.Fatalf("store mutated by failed operations")
	}
	if len(obs.ops) != 4 {
		t.Fatalf("observed %v", obs.ops)
	}
	for _, op := range obs.ops {
		if op[len(op)-5:] != "error" {
			t.Fatalf("expected error outcome, got %q", op)
		}
	}
}

func TestBackedName(t *testing.T) {
	if got := NewPaymentStore(memory.NewPaymentRepository()).Name(); got != "payments" {
		t.Fatalf("Name = %q", got)
	}
}

// reusingRepo hands out max(id)+1, so an id freed by an external delete is
// handed out again while the store may still hold it.
type reusingRepo struct {
	items []core.Member
}

func (r *reusingRepo) GetAll(context.Context) ([]core.Member, error) {
	return append([]core.Member(nil), r.items...), nil
}

func (r *reusingRepo) GetByID(_ context.Context, id int64) (core.Member, error) {
	for _, m := range r.items {
		if m.ID == id {
			return m, nil
		}
	}
	return core.Member{}, core.ErrNotFound
}

func (r *reusingRepo) Add(_ context.Context, m core.Member) (int64, error) {
	var max int64
	for _, it := range r.items {
		if it.ID > max {
			max = it.ID
		}
	}
	m.ID = max + 1
	r.items = append(r.items, m)
	return m.ID, nil
}

func (r *reusingRepo) Update(context.Context, core.Member) error { return nil }

func (r *reusingRepo) Delete(_ context.Context, id int64) error {
	for i, m := range r.items {
		if m.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func TestCreateResyncsWhenIDAlreadyInMemory(t *testing.T) {
	ctx := context.Background()
	repo := &reusingRepo{items: []core.Member{
		{ID: 1, FirstName: "John", LastName: "Doe"},
		{ID: 2, FirstName: "Jane", LastName: "Smith"},
	}}
	s := NewMemberStore(repo, WithLogger(applog.Discard()))
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	// Another process removes Jane behind the store's back.
	if err := repo.Delete(ctx, 2); err != nil {
		t.Fatal(err)
	}

	_, err := s.Create(ctx, core.Member{FirstName: "Ruth", LastName: "Moab"})
	if !errors.Is(err, core.ErrAlreadyExists) {
		t.Fatalf("Create err = %v, want ErrAlreadyExists", err)
	}

	got, ok := s.GetByID(2)
	if !ok || got.FirstName != "Ruth" {
		t.Fatalf("store not resynced: id 2 = %+v, %v", got, ok)
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
}
