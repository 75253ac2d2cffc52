package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/outbreak-trends/internal/domain"
	"github.com/couchcryptid/outbreak-trends/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ReportSource lists and reads daily report files.
type ReportSource interface {
	ListReports(ctx context.Context) ([]domain.ReportFile, error)
	ReadReport(ctx context.Context, file domain.ReportFile) (domain.Report, error)
}

// SeriesSink writes reconciled region series to a destination.
type SeriesSink interface {
	LoadBatch(ctx context.Context, series []*domain.RegionSeries) error
}

// Snapshot is the result of one complete load. Its Index is read-only.
type Snapshot struct {
	Index      domain.RegionIndex
	Generation uint64
	LoadedAt   time.Time
}

// Pipeline loads report files into reconciled per-region series.
type Pipeline struct {
	source     ReportSource
	logger     *slog.Logger
	metrics    *observability.Metrics
	windowDays int
	clock      clockwork.Clock

	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock driving the refresh loop.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a Pipeline reading from source and keeping reports no older
// than windowDays.
func New(source ReportSource, logger *slog.Logger, metrics *observability.Metrics, windowDays int, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:     source,
		logger:     logger,
		metrics:    metrics,
		windowDays: windowDays,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once at least one load has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.current.Load() == nil {
		return errors.New("no reports loaded yet")
	}
	return nil
}

// Snapshot returns the most recent load, or nil before the first one.
func (p *Pipeline) Snapshot() *Snapshot {
	return p.current.Load()
}

// Load reads every report inside the window, reconciles the resulting series,
// and stores them as the current snapshot. Bad rows and unreadable files are
// logged and skipped; only a failure to list the reports is returned.
func (p *Pipeline) Load(ctx context.Context) (domain.RegionIndex, error) {
	start := time.Now()

	files, err := p.source.ListReports(ctx)
	if err != nil {
		return nil, err
	}

	builder := domain.NewSeriesBuilder()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !domain.InWindow(file.Day, p.windowDays) {
			p.metrics.ReportsSkipped.WithLabelValues("outside_window").Inc()
			continue
		}
		p.loadReport(ctx, builder, file)
	}

	idx, stats := builder.Build()
	p.recordRepairs(stats)

	p.metrics.RegionsLoaded.Set(float64(len(idx)))
	p.metrics.LoadDuration.Observe(time.Since(start).Seconds())

	snap := &Snapshot{
		Index:      idx,
		Generation: p.generation.Add(1),
		LoadedAt:   p.clock.Now(),
	}
	p.current.Store(snap)
	p.logger.Info("reports loaded", "regions", len(idx), "files", len(files), "generation", snap.Generation)

	return idx, nil
}

// loadReport parses one file into the builder. Rows are validated in full
// before anything is appended, so a bad row contributes nothing.
func (p *Pipeline) loadReport(ctx context.Context, builder *domain.SeriesBuilder, file domain.ReportFile) {
	report, err := p.source.ReadReport(ctx, file)
	if err != nil {
		p.logger.Error("read report failed, skipping file", "file", file.Name, "error", err)
		p.metrics.ReportsSkipped.WithLabelValues("unreadable").Inc()
		return
	}

	for _, rowErr := range report.RowErrors {
		p.logger.Warn("row skipped", "file", file.Name, "error", rowErr)
		p.metrics.RowErrors.Inc()
	}

	accepted := 0
	for _, row := range report.Rows {
		rec, err := domain.ParseRow(row)
		if err != nil {
			p.logger.Warn("row skipped", "error", &domain.RowError{File: file.Name, Line: row.Line, Err: err})
			p.metrics.RowErrors.Inc()
			continue
		}
		builder.Add(file, rec)
		accepted++
	}

	p.metrics.RowsParsed.Add(float64(accepted))
	p.metrics.ReportsProcessed.Inc()
	p.logger.Info("report processed",
		"file", file.Name,
		"rows", accepted,
		"rejected", len(report.Rows)-accepted+len(report.RowErrors),
	)
}

func (p *Pipeline) recordRepairs(stats map[string]domain.ReconcileStats) {
	for _, perMetric := range stats {
		for metric, rc := range perMetric {
			if rc.Merged > 0 {
				p.metrics.ObservationsRepaired.WithLabelValues(string(metric), "merged").Add(float64(rc.Merged))
			}
			if rc.Clamped > 0 {
				p.metrics.ObservationsRepaired.WithLabelValues(string(metric), "clamped").Add(float64(rc.Clamped))
			}
		}
	}
}

// Run loads immediately and then every interval until the context is
// cancelled. A failed reload keeps the previous snapshot.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	p.logger.Info("refresh loop started", "interval", interval, "window_days", p.windowDays)

	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.Load(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("refresh loop stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("reload failed, keeping previous snapshot", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// Publish writes every series of idx to sink in region order.
func (p *Pipeline) Publish(ctx context.Context, idx domain.RegionIndex, sink SeriesSink) error {
	names := idx.Regions()
	if len(names) == 0 {
		return nil
	}
	batch := make([]*domain.RegionSeries, 0, len(names))
	for _, name := range names {
		batch = append(batch, idx[name])
	}
	if err := sink.LoadBatch(ctx, batch); err != nil {
		return fmt.Errorf("publish %d series: %w", len(batch), err)
	}
	p.metrics.SeriesPublished.Add(float64(len(batch)))
	p.logger.Info("series published", "count", len(batch))
	return nil
}
