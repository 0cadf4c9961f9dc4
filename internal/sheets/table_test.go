package sheets

import (
	"reflect"
	"testing"

	"tithe/internal/core"
)

func TestReportTable(t *testing.T) {
	p, _ := core.NewPeriod(core.UnitQuarter, 1, 2023)
	r := core.Report{
		Dimension: core.DimensionMember,
		Period:    p,
		Label:     p.Label(),
		Rows: []core.GroupTotal{
			{Key: "Jane Smith", Total: core.MustMoney("200.75")},
			{Key: "John Doe", Total: core.MustMoney("150.5")},
		},
		Total: core.MustMoney("351.25"),
	}

	want := [][]string{
		{"member", "Q1 2023"},
		{"Jane Smith", "200.75"},
		{"John Doe", "150.50"},
		{"Total", "351.25"},
	}
	if got := ReportTable(r); !reflect.DeepEqual(got, want) {
		t.Fatalf("ReportTable = %v, want %v", got, want)
	}
}

func TestComparisonTable(t *testing.T) {
	c := core.Comparison{
		Dimension: core.DimensionClass,
		Unit:      core.UnitHalfYear,
		Year:      2023,
		Columns:   []string{"H1 2023", "H2 2023"},
		Rows: []core.ComparisonRow{
			{Key: "genesis", Totals: []core.Money{core.MustMoney("10"), core.MustMoney("0")}, Overall: core.MustMoney("10")},
			{Key: "exodus", Totals: []core.Money{core.MustMoney("1.5"), core.MustMoney("2")}, Overall: core.MustMoney("3.5")},
		},
	}

	want := [][]string{
		{"class", "H1 2023", "H2 2023", "Total"},
		{"genesis", "10.00", "0.00", "10.00"},
		{"exodus", "1.50", "2.00", "3.50"},
		{"Total", "11.50", "2.00", "13.50"},
	}
	if got := ComparisonTable(c); !reflect.DeepEqual(got, want) {
		t.Fatalf("ComparisonTable = %v, want %v", got, want)
	}
}

func TestSheetNames(t *testing.T) {
	tests := []struct {
		base, suffix string
		year         int
		want         string
	}{
		{"Tithes", "member", 2025, "2025 Tithes - member"},
		{"2024 Tithes", "class", 2025, "2024 Tithes - class"},
		{"Tithes", "", 2023, "2023 Tithes"},
		{"", "member", 2023, "member"},
	}
	for _, tt := range tests {
		if got := SheetName(tt.base, tt.year, tt.suffix); got != tt.want {
			t.Errorf("SheetName(%q, %d, %q) = %q, want %q", tt.base, tt.year, tt.suffix, got, tt.want)
		}
	}
}
