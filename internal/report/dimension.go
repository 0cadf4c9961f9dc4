package report

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"tithe/internal/core"
)

// Aggregator is the strategy interface for one report dimension.
// Each implementation decides how rows are keyed and in which order they are shown.
type Aggregator interface {
	// Aggregate returns the ordered rows for payments selected by pred.
	Aggregate(members []core.Member, payments []core.Payment, pred Predicate) []core.GroupTotal

	// Less orders comparison rows, which span several periods.
	Less(a, b core.ComparisonRow) bool
}

// MemberAggregator groups by full name, largest total first.
type MemberAggregator struct{}

func (MemberAggregator) Aggregate(members []core.Member, payments []core.Payment, pred Predicate) []core.GroupTotal {
	totals := ByMember(members, payments, pred)
	out := make([]core.GroupTotal, len(totals))
	for i, t := range totals {
		out[i] = core.GroupTotal{Key: t.FullName, Total: t.Total}
	}
	return out
}

func (MemberAggregator) Less(a, b core.ComparisonRow) bool {
	return a.Overall.Cmp(b.Overall) > 0
}

// ClassAggregator groups by Bible class in declaration order.
type ClassAggregator struct{}

func (ClassAggregator) Aggregate(members []core.Member, payments []core.Payment, pred Predicate) []core.GroupTotal {
	totals := ByClass(members, payments, pred)
	out := make([]core.GroupTotal, len(totals))
	for i, t := range totals {
		out[i] = core.GroupTotal{Key: t.Class.String(), Total: t.Total}
	}
	return out
}

func (ClassAggregator) Less(a, b core.ComparisonRow) bool {
	ca, _ := core.ParseBibleClass(a.Key)
	cb, _ := core.ParseBibleClass(b.Key)
	return ca < cb
}

// OrganizationAggregator groups by organization in declaration order.
type OrganizationAggregator struct{}

func (OrganizationAggregator) Aggregate(members []core.Member, payments []core.Payment, pred Predicate) []core.GroupTotal {
	totals := ByOrganization(members, payments, pred)
	out := make([]core.GroupTotal, len(totals))
	for i, t := range totals {
		out[i] = core.GroupTotal{Key: t.Organization.String(), Total: t.Total}
	}
	return out
}

func (OrganizationAggregator) Less(a, b core.ComparisonRow) bool {
	oa, _ := core.ParseOrganization(a.Key)
	ob, _ := core.ParseOrganization(b.Key)
	return oa < ob
}

// ErrUnknownDimension is returned by Lookup for unregistered dimensions.
var ErrUnknownDimension = errors.New("unknown report dimension")

var (
	aggregatorsMu sync.RWMutex
	aggregators   = map[core.Dimension]Aggregator{
		core.DimensionMember:       MemberAggregator{},
		core.DimensionClass:        ClassAggregator{},
		core.DimensionOrganization: OrganizationAggregator{},
	}
)

// Lookup returns the aggregator registered for a dimension.
func Lookup(dim core.Dimension) (Aggregator, error) {
	aggregatorsMu.RLock()
	defer aggregatorsMu.RUnlock()
	agg, ok := aggregators[dim]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDimension, dim)
	}
	return agg, nil
}

// Register adds or replaces the aggregator for a dimension.
func Register(dim core.Dimension, agg Aggregator) {
	aggregatorsMu.Lock()
	defer aggregatorsMu.Unlock()
	aggregators[dim] = agg
}

// Build produces the report of one dimension for one period.
func Build(dim core.Dimension, agg Aggregator, period core.Period, members []core.Member, payments []core.Payment) core.Report {
	rows := agg.Aggregate(members, payments, period.Contains)
	return core.Report{
		Dimension: dim,
		Period:    period,
		Label:     period.Label(),
		Rows:      rows,
		Total:     Total(rows),
	}
}

// Compare lays every period of unit in year side by side.
// Groups absent from a period get a zero in that column.
func Compare(dim core.Dimension, agg Aggregator, unit core.Unit, year int, members []core.Member, payments []core.Payment) core.Comparison {
	periods := core.Periods(unit, year)
	cmp := core.Comparison{
		Dimension: dim,
		Unit:      unit,
		Year:      year,
		Columns:   make([]string, len(periods)),
		Rows:      []core.ComparisonRow{},
	}

	index := make(map[string]int)
	for col, p := range periods {
		cmp.Columns[col] = p.Label()
		for _, r := range agg.Aggregate(members, payments, p.Contains) {
			i, ok := index[r.Key]
			if !ok {
				i = len(cmp.Rows)
				index[r.Key] = i
				row := core.ComparisonRow{Key: r.Key, Totals: make([]core.Money, len(periods)), Overall: core.ZeroMoney()}
				for c := range row.Totals {
					row.Totals[c] = core.ZeroMoney()
				}
				cmp.Rows = append(cmp.Rows, row)
			}
			cmp.Rows[i].Totals[col] = r.Total
			cmp.Rows[i].Overall = cmp.Rows[i].Overall.Add(r.Total)
		}
	}

	sort.SliceStable(cmp.Rows, func(i, j int) bool {
		return agg.Less(cmp.Rows[i], cmp.Rows[j])
	})
	return cmp
}
