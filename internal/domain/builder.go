package domain

// SeriesBuilder accumulates parsed report rows into per-region series.
// A builder belongs to a single load and is not safe for concurrent use.
type SeriesBuilder struct {
	index RegionIndex
}

// NewSeriesBuilder returns an empty builder.
func NewSeriesBuilder() *SeriesBuilder {
	return &SeriesBuilder{index: make(RegionIndex)}
}

// Add appends the row's counts for the report day to its region, creating the region on
// first sight. Subsequent rows for the same region keep the first subdivision.
func (b *SeriesBuilder) Add(report ReportFile, rec RowRecord) {
	s, ok := b.index[rec.Region]
	if !ok {
		s = NewRegionSeries(rec.Region, rec.Subdivision)
		b.index[rec.Region] = s
	}
	s.append(report.Day, rec.Counts)
}

// Len returns the number of regions seen so far.
func (b *SeriesBuilder) Len() int { return len(b.index) }

// Build reconciles every region and hands the index over to the caller. The
// builder is reset and may be reused for another load.
func (b *SeriesBuilder) Build() (RegionIndex, map[string]ReconcileStats) {
	stats := make(map[string]ReconcileStats, len(b.index))
	for name, s := range b.index {
		stats[name] = s.Reconcile()
	}
	idx := b.index
	b.index = make(RegionIndex)
	return idx, stats
}
