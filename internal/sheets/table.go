package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"tithe/internal/core"
)

// ReportTable lays out a single-period report: a header, one row per group
// and a closing total.
func ReportTable(r core.Report) [][]string {
	rows := make([][]string, 0, len(r.Rows)+2)
	rows = append(rows, []string{string(r.Dimension), r.Label})
	for _, g := range r.Rows {
		rows = append(rows, []string{g.Key, g.Total.String()})
	}
	rows = append(rows, []string{"Total", r.Total.String()})
	return rows
}

// ComparisonTable lays out a comparison: one column per period plus an
// overall column, and a totals row per period.
func ComparisonTable(c core.Comparison) [][]string {
	header := append([]string{string(c.Dimension)}, c.Columns...)
	header = append(header, "Total")

	rows := make([][]string, 0, len(c.Rows)+2)
	rows = append(rows, header)

	colTotals := make([]core.Money, len(c.Columns))
	for i := range colTotals {
		colTotals[i] = core.ZeroMoney()
	}
	overall := core.ZeroMoney()

	for _, r := range c.Rows {
		line := make([]string, 0, len(r.Totals)+2)
		line = append(line, r.Key)
		for i, t := range r.Totals {
			line = append(line, t.String())
			colTotals[i] = colTotals[i].Add(t)
		}
		line = append(line, r.Overall.String())
		overall = overall.Add(r.Overall)
		rows = append(rows, line)
	}

	footer := []string{"Total"}
	for _, t := range colTotals {
		footer = append(footer, t.String())
	}
	footer = append(footer, overall.String())
	return append(rows, footer)
}

// SheetName builds "<year> <base> - <suffix>". A base already starting with
// a four-digit year is kept as is.
func SheetName(base string, year int, suffix string) string {
	name := YearPrefixedName(base, year)
	if suffix == "" {
		return name
	}
	if name == "" {
		return suffix
	}
	return name + " - " + suffix
}

// YearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func YearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
