// Package sheets defines the spreadsheet export ports and the table layout
// shared by every adapter.
package sheets

import (
	"context"
)

// Ports for outbound adapters.
type (
	// ReportWriter replaces the whole content of a sheet with rows,
	// creating the sheet when it does not exist.
	ReportWriter interface {
		WriteTable(ctx context.Context, sheet string, rows [][]string) error
	}

	// ReportReader returns the rows previously written to a sheet.
	ReportReader interface {
		ReadTable(ctx context.Context, sheet string) ([][]string, error)
	}
)
