// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tithe/internal/core"
	"tithe/internal/services"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ReportParams holds the parsed ?unit=&period=&year= query.
type ReportParams struct {
	Unit  core.Unit
	Index int
	Year  int
}

// ParseReportParams reads unit, period and year. Missing values are zero and
// resolved later against the clock; malformed ones are errors.
func ParseReportParams(query url.Values) (ReportParams, error) {
	var p ReportParams
	unit, err := core.ParseUnit(query.Get("unit"))
	if err != nil {
		return p, err
	}
	p.Unit = unit

	if p.Index, err = optionalInt(query, "period"); err != nil {
		return p, err
	}
	if p.Year, err = optionalInt(query, "year"); err != nil {
		return p, err
	}
	return p, nil
}

// Request builds the service request for dim.
func (p ReportParams) Request(dim core.Dimension) services.ReportRequest {
	return services.ReportRequest{Dimension: dim, Unit: p.Unit, Index: p.Index, Year: p.Year}
}

func optionalInt(query url.Values, key string) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", core.ErrInvalidPeriod, key)
	}
	return n, nil
}

// ParseID reads the {id} path value.
func ParseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// DecodeJSON reads a JSON body into dst, rejecting unknown fields and
// trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON object")
	}
	return nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizeMember(m core.Member) core.Member {
	m.FirstName = sanitizeInput(m.FirstName)
	m.LastName = sanitizeInput(m.LastName)
	m.Contact = sanitizeInput(m.Contact)
	m.Address = sanitizeInput(m.Address)
	return m
}

// boolQuery reads a true/false query flag; anything unparsable is false.
func boolQuery(query url.Values, key string) bool {
	b, _ := strconv.ParseBool(query.Get(key))
	return b
}
