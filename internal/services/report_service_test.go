package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tithe/internal/app"
	"tithe/internal/core"
	applog "tithe/internal/log"
	"tithe/internal/report"
	"tithe/internal/storage/memory"
	"tithe/internal/store"
)

type countingObserver struct {
	hits, misses, builds int
}

func (o *countingObserver) ObserveReport(string, string, time.Duration) { o.builds++ }

func (o *countingObserver) ObserveCacheLookup(hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func fixedClock(year int, month time.Month) *app.Context {
	return app.NewContext(app.ThemeLight, app.WithClock(func() time.Time {
		return time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
	}))
}

func newStores(t *testing.T) (*store.MemberStore, *store.PaymentStore) {
	t.Helper()
	ctx := context.Background()
	members := store.NewMemberStore(memory.NewMemberRepository(
		core.Member{ID: 1, FirstName: "John", LastName: "Doe", BibleClass: core.BibleClassGenesis},
		core.Member{ID: 2, FirstName: "Jane", LastName: "Smith", BibleClass: core.BibleClassExodus},
	), store.WithLogger(applog.Discard()))
	payments := store.NewPaymentStore(memory.NewPaymentRepository(
		core.Payment{ID: 1, MemberID: 1, Amount: core.MustMoney("100"), DatePaid: core.NewDate(2023, 2, 1)},
		core.Payment{ID: 2, MemberID: 2, Amount: core.MustMoney("250"), DatePaid: core.NewDate(2023, 3, 10)},
		core.Payment{ID: 3, MemberID: 1, Amount: core.MustMoney("50"), DatePaid: core.NewDate(2023, 7, 4)},
	), store.WithLogger(applog.Discard()))
	if err := members.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if err := payments.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	return members, payments
}

func TestReportUsesCacheUntilStoreChanges(t *testing.T) {
	ctx := context.Background()
	members, payments := newStores(t)
	obs := &countingObserver{}
	svc := NewReportService(members, payments, fixedClock(2023, 5), DefaultReportServiceConfig(), applog.Discard(), obs)
	defer svc.Close()

	req := ReportRequest{Dimension: core.DimensionMember, Unit: core.UnitQuarter, Index: 1, Year: 2023}
	first, err := svc.Report(ctx, req)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(first.Rows) != 2 || first.Rows[0].Key != "Jane Smith" {
		t.Fatalf("unexpected rows %v", first.Rows)
	}
	if _, err := svc.Report(ctx, req); err != nil {
		t.Fatal(err)
	}
	if obs.hits != 1 || obs.misses != 1 || obs.builds != 1 {
		t.Fatalf("hits=%d misses=%d builds=%d", obs.hits, obs.misses, obs.builds)
	}

	if _, err := payments.Create(ctx, core.Payment{MemberID: 1, Amount: core.MustMoney("500"), DatePaid: core.NewDate(2023, 1, 5)}); err != nil {
		t.Fatal(err)
	}
	after, err := svc.Report(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if after.Rows[0].Key != "John Doe" || after.Rows[0].Total.String() != "600.00" {
		t.Fatalf("stale report after store change: %v", after.Rows)
	}
	if obs.builds != 2 {
		t.Fatalf("builds = %d, want 2", obs.builds)
	}
}

func TestReportDefaultsToCurrentPeriod(t *testing.T) {
	members, payments := newStores(t)
	svc := NewReportService(members, payments, fixedClock(2023, 8), DefaultReportServiceConfig(), nil, nil)
	defer svc.Close()

	r, err := svc.Report(context.Background(), ReportRequest{Dimension: core.DimensionClass, Unit: core.UnitHalfYear})
	if err != nil {
		t.Fatal(err)
	}
	if r.Label != "H2 2023" {
		t.Fatalf("label = %q, want H2 2023", r.Label)
	}
	if len(r.Rows) != 1 || r.Rows[0].Key != "genesis" || r.Rows[0].Total.String() != "50.00" {
		t.Fatalf("unexpected rows %v", r.Rows)
	}
}

func TestReportRejectsBadRequests(t *testing.T) {
	members, payments := newStores(t)
	svc := NewReportService(members, payments, fixedClock(2023, 1), DefaultReportServiceConfig(), nil, nil)
	defer svc.Close()
	ctx := context.Background()

	tests := []struct {
		name       string
		req        ReportRequest
		want       error
		compareToo bool
	}{
		{"unknown dimension", ReportRequest{Dimension: "gender", Unit: core.UnitYear}, report.ErrUnknownDimension, true},
		{"quarter out of range", ReportRequest{Dimension: core.DimensionMember, Unit: core.UnitQuarter, Index: 5}, core.ErrInvalidPeriod, false},
		{"unknown unit", ReportRequest{Dimension: core.DimensionMember, Unit: core.Unit(9)}, core.ErrInvalidPeriod, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Report(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("Report err = %v, want %v", err, tc.want)
			}
			if !tc.compareToo {
				return
			}
			if _, err := svc.Compare(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("Compare err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCompareDefaultsYear(t *testing.T) {
	members, payments := newStores(t)
	svc := NewReportService(members, payments, fixedClock(2023, 12), DefaultReportServiceConfig(), nil, nil)
	defer svc.Close()

	c, err := svc.Compare(context.Background(), ReportRequest{Dimension: core.DimensionMember, Unit: core.UnitQuarter})
	if err != nil {
		t.Fatal(err)
	}
	if c.Year != 2023 || len(c.Columns) != 4 {
		t.Fatalf("year=%d columns=%v", c.Year, c.Columns)
	}
	if len(c.Rows) != 2 {
		t.Fatalf("rows = %v", c.Rows)
	}
}

func TestCloseStopsInvalidation(t *testing.T) {
	members, payments := newStores(t)
	svc := NewReportService(members, payments, nil, DefaultReportServiceConfig(), nil, nil)
	before := members.Subscribers()
	svc.Close()
	if members.Subscribers() != before-1 {
		t.Fatalf("subscribers = %d, want %d", members.Subscribers(), before-1)
	}
}

func TestPaymentsWithNamesDropsDangling(t *testing.T) {
	ctx := context.Background()
	members, payments := newStores(t)
	svc := NewReportService(members, payments, nil, DefaultReportServiceConfig(), nil, nil)
	defer svc.Close()

	if _, err := members.Remove(ctx, 2); err != nil {
		t.Fatal(err)
	}
	rows := svc.PaymentsWithNames()
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	for _, r := range rows {
		if r.FirstName != "John" {
			t.Fatalf("unexpected row %v", r)
		}
	}
}

// leaderAggregator splits totals between leaders and everyone else.
type leaderAggregator struct{}

func (leaderAggregator) Aggregate(members []core.Member, payments []core.Payment, pred report.Predicate) []core.GroupTotal {
	leaders := make(map[int64]bool, len(members))
	for _, m := range members {
		leaders[m.ID] = m.IsLeader
	}
	sums := map[bool]core.Money{true: core.ZeroMoney(), false: core.ZeroMoney()}
	for _, p := range payments {
		if pred(p.DatePaid) {
			sums[leaders[p.MemberID]] = sums[leaders[p.MemberID]].Add(p.Amount)
		}
	}
	return []core.GroupTotal{
		{Key: "leaders", Total: sums[true]},
		{Key: "members", Total: sums[false]},
	}
}

func (leaderAggregator) Less(a, b core.ComparisonRow) bool { return a.Key < b.Key }

func TestRegisterDimension(t *testing.T) {
	members, payments := newStores(t)
	svc := NewReportService(members, payments, fixedClock(2023, 3), DefaultReportServiceConfig(), nil, nil)
	defer svc.Close()

	const dim core.Dimension = "leadership"
	svc.RegisterDimension(dim, leaderAggregator{})
	rep, err := svc.Report(context.Background(), ReportRequest{Dimension: dim, Unit: core.UnitYear})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Rows) != 2 || rep.Rows[1].Total.String() != "400.00" {
		t.Fatalf("rows = %+v, want members total 400.00", rep.Rows)
	}
}

// racingPayments lets one write land right after the payment snapshot is
// taken, before the report built from it is cached.
type racingPayments struct {
	*store.PaymentStore
	write func()
}

func (r *racingPayments) GetAll() []core.Payment {
	snapshot := r.PaymentStore.GetAll()
	if r.write != nil {
		write := r.write
		r.write = nil
		write()
	}
	return snapshot
}

func TestReportNotCachedAcrossConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	members, payments := newStores(t)
	racing := &racingPayments{PaymentStore: payments}
	svc := NewReportService(members, racing, fixedClock(2023, 5), DefaultReportServiceConfig(), applog.Discard(), nil)
	defer svc.Close()

	late := core.Payment{MemberID: 1, Amount: core.MustMoney("500"), DatePaid: core.NewDate(2023, 1, 5)}
	racing.write = func() {
		if _, err := payments.Create(ctx, late); err != nil {
			t.Errorf("Create: %v", err)
		}
	}

	req := ReportRequest{Dimension: core.DimensionMember, Unit: core.UnitQuarter, Index: 1, Year: 2023}
	first, err := svc.Report(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Total.String() != "350.00" {
		t.Fatalf("first total = %s, want the pre-write 350.00", first.Total)
	}

	second, err := svc.Report(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if second.Total.String() != "850.00" {
		t.Fatalf("second total = %s, want 850.00 after the write", second.Total)
	}
}

func TestCompareNotCachedAcrossConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	members, payments := newStores(t)
	racing := &racingPayments{PaymentStore: payments}
	svc := NewReportService(members, racing, fixedClock(2023, 5), DefaultReportServiceConfig(), applog.Discard(), nil)
	defer svc.Close()

	racing.write = func() {
		late := core.Payment{MemberID: 2, Amount: core.MustMoney("10"), DatePaid: core.NewDate(2023, 11, 2)}
		if _, err := payments.Create(ctx, late); err != nil {
			t.Errorf("Create: %v", err)
		}
	}

	req := ReportRequest{Dimension: core.DimensionClass, Unit: core.UnitYear, Year: 2023}
	if _, err := svc.Compare(ctx, req); err != nil {
		t.Fatal(err)
	}
	c, err := svc.Compare(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	var exodus string
	for _, row := range c.Rows {
		if row.Key == "exodus" {
			exodus = row.Overall.String()
		}
	}
	if exodus != "260.00" {
		t.Fatalf("exodus overall = %q, want 260.00 after the write", exodus)
	}
}
