package report

import (
	"testing"

	"tithe/internal/core"
)

func q1(year int) Predicate {
	return core.Period{Unit: core.UnitQuarter, Index: 1, Year: year}.Contains
}

func pay(id, member int64, amount string, y, m, d int) core.Payment {
	return core.Payment{ID: id, MemberID: member, Amount: core.MustMoney(amount), DatePaid: core.NewDate(y, m, d)}
}

func TestByMemberScenario(t *testing.T) {
	members := []core.Member{
		{ID: 1, FirstName: "John", LastName: "Doe"},
		{ID: 2, FirstName: "Jane", LastName: "Smith"},
	}
	payments := []core.Payment{
		pay(1, 1, "100.50", 2023, 1, 1),
		pay(2, 2, "200.75", 2023, 1, 2),
		pay(3, 1, "50.00", 2023, 2, 1),
	}

	got := ByMember(members, payments, q1(2023))

	want := []core.MemberTotal{
		{FullName: "Jane Smith", Total: core.MustMoney("200.75")},
		{FullName: "John Doe", Total: core.MustMoney("150.50")},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].FullName != want[i].FullName || !got[i].Total.Equal(want[i].Total) {
			t.Errorf("row %d = %s %s, want %s %s", i, got[i].FullName, got[i].Total, want[i].FullName, want[i].Total)
		}
	}
}

func TestByMemberFiltersByPeriod(t *testing.T) {
	members := []core.Member{{ID: 1, FirstName: "John", LastName: "Doe"}}
	payments := []core.Payment{
		pay(1, 1, "10", 2023, 3, 31),
		pay(2, 1, "20", 2023, 4, 1),
		pay(3, 1, "40", 2022, 1, 15),
	}

	got := ByMember(members, payments, q1(2023))
	if len(got) != 1 || !got[0].Total.Equal(core.MustMoney("10")) {
		t.Fatalf("expected only the Q1 2023 payment, got %+v", got)
	}
}

func TestByMemberMergesHomonyms(t *testing.T) {
	members := []core.Member{
		{ID: 1, FirstName: "John", LastName: "Doe"},
		{ID: 2, FirstName: "John", LastName: "Doe"},
	}
	payments := []core.Payment{
		pay(1, 1, "10", 2023, 1, 1),
		pay(2, 2, "15", 2023, 1, 1),
	}

	got := ByMember(members, payments, q1(2023))
	if len(got) != 1 || !got[0].Total.Equal(core.MustMoney("25")) {
		t.Fatalf("expected one merged row of 25, got %+v", got)
	}
}

func TestByMemberTiesKeepFirstAppearance(t *testing.T) {
	members := []core.Member{
		{ID: 1, FirstName: "B", LastName: "B"},
		{ID: 2, FirstName: "A", LastName: "A"},
	}
	payments := []core.Payment{
		pay(1, 1, "10", 2023, 1, 1),
		pay(2, 2, "10", 2023, 1, 2),
	}

	got := ByMember(members, payments, q1(2023))
	if got[0].FullName != "B B" || got[1].FullName != "A A" {
		t.Fatalf("tie order changed: %+v", got)
	}
}

func TestByClassSortsByDeclarationOrder(t *testing.T) {
	members := []core.Member{
		{ID: 1, FirstName: "Big", LastName: "Giver", BibleClass: core.BibleClassDeuteronomy},
		{ID: 2, FirstName: "Small", LastName: "Giver", BibleClass: core.BibleClassGenesis},
	}
	payments := []core.Payment{
		pay(1, 1, "500", 2023, 1, 5),
		pay(2, 2, "10", 2023, 1, 6),
	}

	got := ByClass(members, payments, q1(2023))
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].Class != core.BibleClassGenesis || got[1].Class != core.BibleClassDeuteronomy {
		t.Fatalf("expected ascending class order, got %+v", got)
	}
	if got[0].Total.Cmp(got[1].Total) >= 0 {
		t.Fatalf("test premise broken: lower class should have the smaller total")
	}
	if !got[0].Total.Equal(core.MustMoney("10")) || !got[1].Total.Equal(core.MustMoney("500")) {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestByOrganization(t *testing.T) {
	members := []core.Member{
		{ID: 1, FirstName: "A", LastName: "A", Organization: core.OrganizationChoir},
		{ID: 2, FirstName: "B", LastName: "B", Organization: core.OrganizationYouth},
		{ID: 3, FirstName: "C", LastName: "C", Organization: core.OrganizationChoir},
	}
	payments := []core.Payment{
		pay(1, 1, "5", 2023, 2, 1),
		pay(2, 2, "7", 2023, 2, 1),
		pay(3, 3, "1.25", 2023, 3, 1),
	}

	got := ByOrganization(members, payments, q1(2023))
	if len(got) != 2 || got[0].Organization != core.OrganizationYouth || got[1].Organization != core.OrganizationChoir {
		t.Fatalf("unexpected order %+v", got)
	}
	if !got[1].Total.Equal(core.MustMoney("6.25")) {
		t.Fatalf("choir total = %s, want 6.25", got[1].Total)
	}
}

func TestDanglingPaymentsAreDropped(t *testing.T) {
	members := []core.Member{{ID: 1, FirstName: "John", LastName: "Doe"}}
	payments := []core.Payment{
		pay(1, 1, "10", 2023, 1, 1),
		pay(2, 99, "1000", 2023, 1, 1),
	}

	byMember := ByMember(members, payments, q1(2023))
	if len(byMember) != 1 || !byMember[0].Total.Equal(core.MustMoney("10")) {
		t.Fatalf("dangling payment leaked into member totals: %+v", byMember)
	}
	byClass := ByClass(members, payments, q1(2023))
	if len(byClass) != 1 || !byClass[0].Total.Equal(core.MustMoney("10")) {
		t.Fatalf("dangling payment leaked into class totals: %+v", byClass)
	}
	if named := WithNames(members, payments); len(named) != 1 {
		t.Fatalf("dangling payment leaked into named payments: %+v", named)
	}
}

func TestEmptyPeriodYieldsEmptySlices(t *testing.T) {
	members := []core.Member{{ID: 1, FirstName: "John", LastName: "Doe"}}
	payments := []core.Payment{pay(1, 1, "10", 2023, 7, 1)}

	if got := ByMember(members, payments, q1(2023)); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil member result, got %#v", got)
	}
	if got := ByClass(members, payments, q1(2023)); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil class result, got %#v", got)
	}
	if got := ByMember(nil, nil, q1(2023)); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result for nil inputs, got %#v", got)
	}
}

func TestWithNamesResolvesCurrentName(t *testing.T) {
	members := []core.Member{{ID: 1, FirstName: "Ama", LastName: "Mensah"}}
	payments := []core.Payment{pay(1, 1, "10", 2023, 1, 1)}

	named := WithNames(members, payments)
	if named[0].FirstName != "Ama" {
		t.Fatalf("unexpected name %+v", named[0])
	}

	members[0].LastName = "Owusu"
	named = WithNames(members, payments)
	if named[0].LastName != "Owusu" {
		t.Fatalf("rename not reflected: %+v", named[0])
	}
}
