// Package csvdir reads daily reports from a local directory of CSV files.
package csvdir

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/outbreak-trends/internal/domain"
)

const utf8BOM = "\ufeff"

// Source discovers and reads report files from a directory.
// It implements pipeline.ReportSource.
type Source struct {
	dir    string
	logger *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger used for skipped directory entries.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// NewSource creates a Source rooted at dir.
func NewSource(dir string, opts ...Option) *Source {
	s := &Source{dir: dir, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory the source reads from.
func (s *Source) Dir() string { return s.dir }

// ListReports returns every "MM-DD-YYYY.<ext>" file in the directory, sorted
// by file name as a plain string. Other entries are ignored.
func (s *Source) ListReports(_ context.Context) ([]domain.ReportFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list reports in %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	files := make([]domain.ReportFile, 0, len(names))
	for _, name := range names {
		day, ok := domain.ParseReportName(name)
		if !ok {
			s.logger.Debug("not a report file, skipping", "file", name)
			continue
		}
		files = append(files, domain.ReportFile{
			Name: name,
			Path: filepath.Join(s.dir, name),
			Day:  day,
		})
	}
	return files, nil
}

// ReadReport parses a report file as a header-indexed table.
func (s *Source) ReadReport(_ context.Context, file domain.ReportFile) (domain.Report, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return domain.Report{}, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	report, err := Parse(f, file.Name)
	if err != nil {
		return domain.Report{}, err
	}
	report.File = file
	return report, nil
}

// Parse reads CSV content whose first record is the header row. Header names
// are trimmed of surrounding whitespace. Rows shorter than the header simply
// lack the trailing columns; extra fields are dropped.
func Parse(r io.Reader, name string) (domain.Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Report{}, nil
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("read header of %s: %w", name, err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = strings.TrimSpace(h)
	}

	var report domain.Report
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			report.RowErrors = append(report.RowErrors, &domain.RowError{File: name, Line: pe.Line, Err: pe.Err})
			continue
		}
		if err != nil {
			return domain.Report{}, fmt.Errorf("read %s: %w", name, err)
		}

		line, _ := cr.FieldPos(0)
		fields := make(map[string]string, len(header))
		for i, v := range record {
			if i >= len(header) {
				break
			}
			fields[header[i]] = v
		}
		report.Rows = append(report.Rows, domain.RawRow{Line: line, Fields: fields})
	}
	return report, nil
}
