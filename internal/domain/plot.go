package domain

import (
	"fmt"
	"time"
)

// PlotTriple is the display form of one observation series.
type PlotTriple struct {
	Dates      []time.Time
	Cumulative []float64
	Deltas     []float64
}

// DerivePlot converts observations to dates, cumulative values and daily
// deltas. The first delta is zero and negative deltas are clamped to zero.
func DerivePlot(obs []Observation) (PlotTriple, error) {
	if len(obs) == 0 {
		return PlotTriple{}, ErrEmptySeries
	}
	p := PlotTriple{
		Dates:      make([]time.Time, len(obs)),
		Cumulative: make([]float64, len(obs)),
		Deltas:     make([]float64, len(obs)),
	}
	for i, o := range obs {
		p.Dates[i] = o.Day
		p.Cumulative[i] = float64(o.Value)
		if i > 0 {
			p.Deltas[i] = float64(max(0, o.Value-obs[i-1].Value))
		}
	}
	return p, nil
}

// DeriveRegionPlots derives a PlotTriple for every metric of s.
func DeriveRegionPlots(s *RegionSeries) (map[Metric]PlotTriple, error) {
	plots := make(map[Metric]PlotTriple, len(Metrics))
	for _, m := range Metrics {
		p, err := DerivePlot(s.Series(m))
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", s.Region, m, err)
		}
		plots[m] = p
	}
	return plots, nil
}
