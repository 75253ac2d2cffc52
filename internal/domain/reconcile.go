package domain

import "sort"

// minReconcileLen is the shortest series Clean will touch. Shorter series are
// returned as-is, duplicates and decreases included.
const minReconcileLen = 3

// RepairCounts records how many observations reconciliation changed.
type RepairCounts struct {
	Merged  int // same-day observations folded into a predecessor
	Clamped int // values raised to match the previous day
}

// ReconcileStats holds repair counts per metric for one RegionSeries.
type ReconcileStats map[Metric]RepairCounts

// Clean returns a day-ordered, duplicate-free, non-decreasing copy of obs.
// Same-day observations are summed; a value lower than the previous day's is
// raised to it. Inputs shorter than three observations are returned unchanged.
// Clean is idempotent.
func Clean(obs []Observation) []Observation {
	out, _ := clean(obs)
	return out
}

func clean(obs []Observation) ([]Observation, RepairCounts) {
	var rc RepairCounts
	if len(obs) < minReconcileLen {
		return obs, rc
	}

	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Day.Before(sorted[j].Day)
	})

	merged := make([]Observation, 0, len(sorted))
	for _, o := range sorted {
		if n := len(merged); n > 0 && merged[n-1].Day.Equal(o.Day) {
			merged[n-1].Value += o.Value
			rc.Merged++
			continue
		}
		merged = append(merged, o)
	}

	for i := 1; i < len(merged); i++ {
		if merged[i].Value < merged[i-1].Value {
			merged[i].Value = merged[i-1].Value
			rc.Clamped++
		}
	}
	return merged, rc
}

// Reconcile cleans the three sequences of s in place and reports what changed.
func (s *RegionSeries) Reconcile() ReconcileStats {
	stats := make(ReconcileStats, len(Metrics))
	var rc RepairCounts

	s.Confirmed, rc = clean(s.Confirmed)
	stats[MetricConfirmed] = rc
	s.Deaths, rc = clean(s.Deaths)
	stats[MetricDeaths] = rc
	s.Recovered, rc = clean(s.Recovered)
	stats[MetricRecovered] = rc

	return stats
}
