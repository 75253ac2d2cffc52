package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Column names in daily report headers.
const (
	ColumnRegion      = "Country/Region"
	ColumnSubdivision = "Province/State"
	ColumnConfirmed   = "Confirmed"
	ColumnDeaths      = "Deaths"
	ColumnRecovered   = "Recovered"
)

var (
	// ErrMissingField is returned when a required column is absent or blank.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidNumber is returned when a count column is not a non-negative integer.
	ErrInvalidNumber = errors.New("invalid count")
)

// reportNameRe matches "MM-DD-YYYY.<ext>" report file names.
var reportNameRe = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})\.[A-Za-z0-9]+$`)

// ReportFile identifies one daily report on disk.
type ReportFile struct {
	Name string
	Path string
	Day  time.Time
}

// Report is the parsed content of one report file. RowErrors holds rows the
// table reader itself rejected; they never appear in Rows.
type Report struct {
	File      ReportFile
	Rows      []RawRow
	RowErrors []error
}

// RawRow is one data row of a report keyed by trimmed header name.
type RawRow struct {
	Line   int
	Fields map[string]string
}

// Counts are the three cumulative values reported in one row.
type Counts struct {
	Confirmed int64
	Deaths    int64
	Recovered int64
}

// RowRecord is a successfully parsed report row.
type RowRecord struct {
	Region      string
	Subdivision string
	Counts      Counts
}

// RowError describes a report row that could not be parsed.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ParseReportName extracts the report date from a file name. It reports false
// for names that are not "MM-DD-YYYY.<ext>" or that name an impossible date.
func ParseReportName(name string) (time.Time, bool) {
	m := reportNameRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (02-30 → 03-02); reject instead.
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// WindowStart returns the first day still inside a trailing window of
// windowDays days ending today.
func WindowStart(windowDays int) time.Time {
	return Today().AddDate(0, 0, -windowDays)
}

// InWindow reports whether day falls within the trailing window.
func InWindow(day time.Time, windowDays int) bool {
	return !day.Before(WindowStart(windowDays))
}

// ParseRow validates and converts a raw row. No partial result is returned:
// either every field parses or the row is rejected.
func ParseRow(row RawRow) (RowRecord, error) {
	region := strings.TrimSpace(row.Fields[ColumnRegion])
	if region == "" {
		return RowRecord{}, fmt.Errorf("%s: %w", ColumnRegion, ErrMissingField)
	}

	confirmed, err := parseCount(row.Fields, ColumnConfirmed)
	if err != nil {
		return RowRecord{}, err
	}
	deaths, err := parseCount(row.Fields, ColumnDeaths)
	if err != nil {
		return RowRecord{}, err
	}
	recovered, err := parseCount(row.Fields, ColumnRecovered)
	if err != nil {
		return RowRecord{}, err
	}

	return RowRecord{
		Region:      region,
		Subdivision: strings.TrimSpace(row.Fields[ColumnSubdivision]),
		Counts: Counts{
			Confirmed: confirmed,
			Deaths:    deaths,
			Recovered: recovered,
		},
	}, nil
}

// parseCount reads a count column; missing or empty values are zero.
func parseCount(fields map[string]string, column string) (int64, error) {
	raw := strings.TrimSpace(fields[column])
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s %q: %w", column, raw, ErrInvalidNumber)
	}
	return v, nil
}
