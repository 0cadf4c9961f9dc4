// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"tithe/internal/app"
	"tithe/internal/cache"
	"tithe/internal/core"
	applog "tithe/internal/log"
	"tithe/internal/report"
	"tithe/internal/store"
)

// MemberSource is the read side of the member store.
type MemberSource interface {
	GetAll() []core.Member
	Subscribe(h store.Handler[core.Member]) *store.Subscription
}

// PaymentSource is the read side of the payment store.
type PaymentSource interface {
	GetAll() []core.Payment
	Subscribe(h store.Handler[core.Payment]) *store.Subscription
}

// ReportObserver receives report timings and cache outcomes.
type ReportObserver interface {
	ObserveReport(dimension, kind string, d time.Duration)
	ObserveCacheLookup(hit bool)
}

// ReportRequest selects a report. Index is the quarter or half number and is
// ignored for yearly reports; Year 0 means the current year.
type ReportRequest struct {
	Dimension core.Dimension
	Unit      core.Unit
	Index     int
	Year      int
}

// ReportServiceConfig tunes the report cache.
type ReportServiceConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultReportServiceConfig returns sensible defaults
func DefaultReportServiceConfig() ReportServiceConfig {
	return ReportServiceConfig{
		CacheSize: 128,
		CacheTTL:  5 * time.Minute,
	}
}

// generational tags a cached value with the invalidation generation that was
// current before its snapshots were taken.
type generational[T any] struct {
	gen   uint64
	value T
}

// ReportService builds reports from store snapshots and memoises them until
// either store changes. An entry built from snapshots that predate the latest
// invalidation is never served.
type ReportService struct {
	members  MemberSource
	payments PaymentSource
	appCtx   *app.Context
	logger   *applog.Logger
	observer ReportObserver

	reports     *cache.LRUCache[generational[core.Report]]
	comparisons *cache.LRUCache[generational[core.Comparison]]
	generation  atomic.Uint64
	subs        []*store.Subscription
}

func NewReportService(members MemberSource, payments PaymentSource, appCtx *app.Context, cfg ReportServiceConfig, logger *applog.Logger, observer ReportObserver) *ReportService {
	if logger == nil {
		logger = applog.Discard()
	}
	if appCtx == nil {
		appCtx = app.NewContext(app.ThemeLight)
	}
	s := &ReportService{
		members:     members,
		payments:    payments,
		appCtx:      appCtx,
		logger:      logger.WithComponent(applog.ComponentReport),
		observer:    observer,
		reports:     cache.NewLRUCache[generational[core.Report]](cfg.CacheSize, cfg.CacheTTL),
		comparisons: cache.NewLRUCache[generational[core.Comparison]](cfg.CacheSize, cfg.CacheTTL),
	}
	s.subs = append(s.subs,
		members.Subscribe(func(store.Event[core.Member]) { s.Invalidate() }),
		payments.Subscribe(func(store.Event[core.Payment]) { s.Invalidate() }),
	)
	return s
}

// Invalidate drops every cached report.
func (s *ReportService) Invalidate() {
	s.generation.Add(1)
	s.reports.Purge()
	s.comparisons.Purge()
}

// Cleaners exposes the caches for periodic expiry.
func (s *ReportService) Cleaners() []cache.Cleaner {
	return []cache.Cleaner{s.reports, s.comparisons}
}

// Close stops listening to store changes.
func (s *ReportService) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}

// Report returns the totals of one period grouped by req.Dimension.
func (s *ReportService) Report(ctx context.Context, req ReportRequest) (core.Report, error) {
	agg, err := report.Lookup(req.Dimension)
	if err != nil {
		return core.Report{}, err
	}
	period, err := core.ResolvePeriod(req.Unit, req.Index, req.Year, s.appCtx.Now())
	if err != nil {
		return core.Report{}, err
	}

	key := fmt.Sprintf("%s|%s", req.Dimension, period)
	gen := s.generation.Load()
	if e, ok := s.reports.Get(key); ok && e.gen == gen {
		s.observeCache(true)
		return e.value, nil
	}
	s.observeCache(false)

	start := time.Now()
	r := report.Build(req.Dimension, agg, period, s.members.GetAll(), s.payments.GetAll())
	s.observeReport(req.Dimension, "report", time.Since(start))
	s.reports.Set(key, generational[core.Report]{gen: gen, value: r})

	s.logger.DebugContext(ctx, "Report built",
		applog.NewFields().WithReport(req.Dimension, r.Label).ToSlice()...)
	return r, nil
}

// Compare lays every period of req.Unit in req.Year side by side.
func (s *ReportService) Compare(ctx context.Context, req ReportRequest) (core.Comparison, error) {
	agg, err := report.Lookup(req.Dimension)
	if err != nil {
		return core.Comparison{}, err
	}
	year := req.Year
	if year == 0 {
		year = s.appCtx.CurrentYear()
	}
	if _, err := core.NewPeriod(req.Unit, 1, year); err != nil {
		return core.Comparison{}, err
	}

	key := fmt.Sprintf("%s|%s|%d", req.Dimension, req.Unit, year)
	gen := s.generation.Load()
	if e, ok := s.comparisons.Get(key); ok && e.gen == gen {
		s.observeCache(true)
		return e.value, nil
	}
	s.observeCache(false)

	start := time.Now()
	c := report.Compare(req.Dimension, agg, req.Unit, year, s.members.GetAll(), s.payments.GetAll())
	s.observeReport(req.Dimension, "compare", time.Since(start))
	s.comparisons.Set(key, generational[core.Comparison]{gen: gen, value: c})

	s.logger.DebugContext(ctx, "Comparison built",
		applog.NewFields().WithReport(req.Dimension, fmt.Sprintf("%s %d", req.Unit, year)).ToSlice()...)
	return c, nil
}

// PaymentsWithNames joins every payment with its payer's current name.
func (s *ReportService) PaymentsWithNames() []core.PaymentWithName {
	return report.WithNames(s.members.GetAll(), s.payments.GetAll())
}

// RegisterDimension adds a report dimension at runtime.
func (s *ReportService) RegisterDimension(dim core.Dimension, agg report.Aggregator) {
	report.Register(dim, agg)
	s.Invalidate()
}

func (s *ReportService) observeCache(hit bool) {
	if s.observer != nil {
		s.observer.ObserveCacheLookup(hit)
	}
}

func (s *ReportService) observeReport(dim core.Dimension, kind string, d time.Duration) {
	if s.observer != nil {
		s.observer.ObserveReport(string(dim), kind, d)
	}
}
