// Package worker keeps the spreadsheet export in step with the ledger.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"tithe/internal/amqp"
	"tithe/internal/core"
	applog "tithe/internal/log"
	"tithe/internal/services"
	"tithe/internal/sheets"
	"tithe/internal/store"
)

// Observer records export outcomes and consumed change messages.
type Observer interface {
	ObserveExport(err error)
	ObserveChange(entity, action, direction string)
}

// Config selects what gets exported.
type Config struct {
	SheetName string
	Unit      core.Unit
}

// ExportWorker rebuilds the report sheets whenever a change message arrives.
// Messages only mark the export dirty; the actual export runs on Tick so a
// burst of changes costs one export.
type ExportWorker struct {
	members  *store.MemberStore
	payments *store.PaymentStore
	reports  *services.ReportService
	writer   sheets.ReportWriter
	cfg      Config
	logger   *applog.Logger
	observer Observer

	dirty atomic.Bool
}

func NewExportWorker(members *store.MemberStore, payments *store.PaymentStore, reports *services.ReportService, writer sheets.ReportWriter, cfg Config, logger *applog.Logger, observer Observer) *ExportWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	if cfg.Unit == 0 {
		cfg.Unit = core.UnitQuarter
	}
	w := &ExportWorker{
		members:  members,
		payments: payments,
		reports:  reports,
		writer:   writer,
		cfg:      cfg,
		logger:   logger.WithComponent(applog.ComponentWorker),
		observer: observer,
	}
	// The first tick always exports.
	w.dirty.Store(true)
	return w
}

// HandleChange is the AMQP consumer callback.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.DebugContext(ctx, "Change received", "routing_key", msg.RoutingKey(), "id", msg.ID)
	w.dirty.Store(true)
	if w.observer != nil {
		w.observer.ObserveChange(msg.Entity, msg.Action, "in")
	}
	return nil
}

// Dirty reports whether an export is pending.
func (w *ExportWorker) Dirty() bool {
	return w.dirty.Load()
}

// Tick exports if anything changed since the last successful export.
func (w *ExportWorker) Tick(ctx context.Context) error {
	if !w.dirty.Swap(false) {
		return nil
	}
	if err := w.Export(ctx); err != nil {
		w.dirty.Store(true)
		return err
	}
	return nil
}

// Run calls Tick every interval until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.Tick(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup export failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}

// Export reloads both stores and rewrites the member and class sheets for the
// current period and the current year's comparison.
func (w *ExportWorker) Export(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		if w.observer != nil {
			w.observer.ObserveExport(err)
		}
	}()

	if err := w.refresh(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, dim := range []core.Dimension{core.DimensionMember, core.DimensionClass} {
		g.Go(func() error { return w.exportReport(gctx, dim) })
		g.Go(func() error { return w.exportComparison(gctx, dim) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	w.logger.InfoContext(ctx, "Export completed",
		applog.FieldOperation, applog.OpExport,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (w *ExportWorker) refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.members.Refresh(gctx) })
	g.Go(func() error { return w.payments.Refresh(gctx) })
	return g.Wait()
}

func (w *ExportWorker) exportReport(ctx context.Context, dim core.Dimension) error {
	r, err := w.reports.Report(ctx, services.ReportRequest{Dimension: dim, Unit: w.cfg.Unit})
	if err != nil {
		return err
	}
	name := sheets.SheetName(w.cfg.SheetName, r.Period.Year, fmt.Sprintf("%s %s", dim, periodTag(r.Period)))
	if err := w.writer.WriteTable(ctx, name, sheets.ReportTable(r)); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	return nil
}

func (w *ExportWorker) exportComparison(ctx context.Context, dim core.Dimension) error {
	c, err := w.reports.Compare(ctx, services.ReportRequest{Dimension: dim, Unit: w.cfg.Unit})
	if err != nil {
		return err
	}
	name := sheets.SheetName(w.cfg.SheetName, c.Year, fmt.Sprintf("%s by %s", dim, w.cfg.Unit))
	if err := w.writer.WriteTable(ctx, name, sheets.ComparisonTable(c)); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	return nil
}

func periodTag(p core.Period) string {
	switch p.Unit {
	case core.UnitQuarter:
		return fmt.Sprintf("Q%d", p.Index)
	case core.UnitHalfYear:
		return fmt.Sprintf("H%d", p.Index)
	default:
		return "year"
	}
}
