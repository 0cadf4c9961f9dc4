package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tithe/internal/amqp"
	"tithe/internal/app"
	"tithe/internal/core"
	applog "tithe/internal/log"
	"tithe/internal/services"
	sheetsmem "tithe/internal/sheets/memory"
	"tithe/internal/storage/memory"
	"tithe/internal/store"
)

type recorder struct {
	exports []error
	changes []string
}

func (r *recorder) ObserveExport(err error) { r.exports = append(r.exports, err) }

func (r *recorder) ObserveChange(entity, action, direction string) {
	r.changes = append(r.changes, entity+"."+action+":"+direction)
}

type failingWriter struct{}

func (failingWriter) WriteTable(context.Context, string, [][]string) error {
	return errors.New("quota exceeded")
}

type fixture struct {
	memberRepo  *memory.MemberRepository
	paymentRepo *memory.PaymentRepository
	members     *store.MemberStore
	payments    *store.PaymentStore
	reports     *services.ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		memberRepo: memory.NewMemberRepository(
			core.Member{ID: 1, FirstName: "John", LastName: "Doe", BibleClass: core.BibleClassGenesis},
			core.Member{ID: 2, FirstName: "Jane", LastName: "Smith", BibleClass: core.BibleClassExodus},
		),
		paymentRepo: memory.NewPaymentRepository(
			core.Payment{ID: 1, MemberID: 1, Amount: core.MustMoney("100"), DatePaid: core.NewDate(2023, 4, 2)},
			core.Payment{ID: 2, MemberID: 2, Amount: core.MustMoney("40"), DatePaid: core.NewDate(2023, 5, 9)},
		),
	}
	f.members = store.NewMemberStore(f.memberRepo, store.WithLogger(applog.Discard()))
	f.payments = store.NewPaymentStore(f.paymentRepo, store.WithLogger(applog.Discard()))
	clock := app.NewContext(app.ThemeLight, app.WithClock(func() time.Time {
		return time.Date(2023, 5, 20, 0, 0, 0, 0, time.UTC)
	}))
	f.reports = services.NewReportService(f.members, f.payments, clock, services.DefaultReportServiceConfig(), nil, nil)
	t.Cleanup(f.reports.Close)
	return f
}

func TestExportWritesReportAndComparisonSheets(t *testing.T) {
	f := newFixture(t)
	writer := sheetsmem.New()
	rec := &recorder{}
	w := NewExportWorker(f.members, f.payments, f.reports, writer, Config{SheetName: "Tithes"}, nil, rec)

	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	want := []string{
		"2023 Tithes - class Q2",
		"2023 Tithes - class by quarter",
		"2023 Tithes - member Q2",
		"2023 Tithes - member by quarter",
	}
	got := writer.Sheets()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", got, want)
		}
	}

	rows, err := writer.ReadTable(context.Background(), "2023 Tithes - member Q2")
	if err != nil {
		t.Fatal(err)
	}
	if rows[1][0] != "John Doe" || rows[len(rows)-1][1] != "140.00" {
		t.Fatalf("unexpected member table %v", rows)
	}
	if len(rec.exports) != 1 || rec.exports[0] != nil {
		t.Fatalf("exports observed %v", rec.exports)
	}
	if w.Dirty() {
		t.Fatalf("still dirty after a successful export")
	}
}

func TestTickSkipsWhenClean(t *testing.T) {
	f := newFixture(t)
	writer := sheetsmem.New()
	w := NewExportWorker(f.members, f.payments, f.reports, writer, Config{SheetName: "Tithes"}, nil, nil)
	ctx := context.Background()

	if err := w.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	writes := writer.Writes()
	if err := w.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	if writer.Writes() != writes {
		t.Fatalf("clean tick wrote %d tables", writer.Writes()-writes)
	}
}

func TestChangeMessageTriggersFreshExport(t *testing.T) {
	f := newFixture(t)
	writer := sheetsmem.New()
	rec := &recorder{}
	w := NewExportWorker(f.members, f.payments, f.reports, writer, Config{SheetName: "Tithes"}, nil, rec)
	ctx := context.Background()

	if err := w.Tick(ctx); err != nil {
		t.Fatal(err)
	}

	// Another process wrote to the shared repository.
	if _, err := f.paymentRepo.Add(ctx, core.Payment{MemberID: 2, Amount: core.MustMoney("200"), DatePaid: core.NewDate(2023, 6, 1)}); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleChange(ctx, amqp.NewChangeMessage(amqp.EntityPayment, amqp.ActionCreated, 3)); err != nil {
		t.Fatal(err)
	}
	if !w.Dirty() {
		t.Fatalf("change did not mark export dirty")
	}
	if err := w.Tick(ctx); err != nil {
		t.Fatal(err)
	}

	rows, _ := writer.ReadTable(ctx, "2023 Tithes - member Q2")
	if rows[1][0] != "Jane Smith" || rows[1][1] != "240.00" {
		t.Fatalf("export not refreshed: %v", rows)
	}
	if len(rec.changes) != 1 || rec.changes[0] != "payment.created:in" {
		t.Fatalf("changes observed %v", rec.changes)
	}
}

func TestFailedExportStaysDirty(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	w := NewExportWorker(f.members, f.payments, f.reports, failingWriter{}, Config{SheetName: "Tithes"}, nil, rec)

	if err := w.Tick(context.Background()); err == nil {
		t.Fatalf("expected export error")
	}
	if !w.Dirty() {
		t.Fatalf("failed export must be retried")
	}
	if len(rec.exports) != 1 || rec.exports[0] == nil {
		t.Fatalf("exports observed %v", rec.exports)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	writer := sheetsmem.New()
	w := NewExportWorker(f.members, f.payments, f.reports, writer, Config{SheetName: "Tithes"}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, time.Hour) }()

	deadline := time.After(2 * time.Second)
	for writer.Writes() < 4 {
		select {
		case <-deadline:
			t.Fatalf("startup export did not run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}
