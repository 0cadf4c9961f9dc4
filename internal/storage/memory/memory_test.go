package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tithe/internal/core"
)

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemberRepository()

	id, err := r.Add(ctx, core.Member{ID: 99, FirstName: "John", LastName: "Doe"})
	if err != nil || id != 1 {
		t.Fatalf("Add = %d, %v; want 1, nil", id, err)
	}
	got, err := r.GetByID(ctx, 1)
	if err != nil || got.FirstName != "John" || got.ID != 1 {
		t.Fatalf("GetByID = %v, %v", got, err)
	}

	got.FirstName = "Johnny"
	if err := r.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	all, _ := r.GetAll(ctx)
	if len(all) != 1 || all[0].FirstName != "Johnny" {
		t.Fatalf("GetAll = %v", all)
	}

	if err := r.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.GetByID(ctx, 1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("GetByID after delete err = %v", err)
	}
}

func TestRepositoryMissingIDs(t *testing.T) {
	ctx := context.Background()
	r := NewPaymentRepository()
	if err := r.Update(ctx, core.Payment{ID: 5}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Update err = %v", err)
	}
	if err := r.Delete(ctx, 5); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Delete err = %v", err)
	}
}

func TestSeedAdvancesIDs(t *testing.T) {
	r := NewMemberRepository(core.Member{ID: 4}, core.Member{ID: 2})
	id, _ := r.Add(context.Background(), core.Member{})
	if id != 5 {
		t.Fatalf("next id = %d, want 5", id)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()

	m, p, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("missing files should not fail: %v", err)
	}
	if all, _ := m.GetAll(context.Background()); len(all) != 0 {
		t.Fatalf("expected empty members")
	}
	_ = p

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("members.json", `[{"id":1,"first_name":"John","last_name":"Doe","organization":"choir","bible_class":"genesis"}]`)
	mustWrite("payments.json", `[{"id":3,"member_id":1,"amount":"100.50","date_paid":"2023-01-01"}]`)

	m, p, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("NewFromFiles: %v", err)
	}
	members, _ := m.GetAll(context.Background())
	if len(members) != 1 || members[0].Organization != core.OrganizationChoir || members[0].BibleClass != core.BibleClassGenesis {
		t.Fatalf("members = %v", members)
	}
	payments, _ := p.GetAll(context.Background())
	if len(payments) != 1 || payments[0].Amount.String() != "100.50" || payments[0].DatePaid.Month() != 1 {
		t.Fatalf("payments = %v", payments)
	}

	mustWrite("members.json", `{not json`)
	if _, _, err := NewFromFiles(dir); err == nil {
		t.Fatalf("expected decode error")
	}
}
