package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrRegionNotFound is returned when a requested region is absent from a RegionIndex.
	ErrRegionNotFound = errors.New("region not found")
	// ErrEmptySeries is returned when a chart is requested for a series with no observations.
	ErrEmptySeries = errors.New("empty observation series")
)

// Metric names one of the three cumulative counts carried by a RegionSeries.
type Metric string

const (
	MetricConfirmed Metric = "confirmed"
	MetricDeaths    Metric = "deaths"
	MetricRecovered Metric = "recovered"
)

// Metrics lists the tracked metrics in display order.
var Metrics = []Metric{MetricConfirmed, MetricDeaths, MetricRecovered}

// Observation is one cumulative count for one calendar day.
type Observation struct {
	Day   time.Time `json:"day"`
	Value int64     `json:"value"`
}

// RegionSeries bundles the three observation sequences of one region.
// Region is the identity; Subdivision is whatever the creating row carried.
type RegionSeries struct {
	Region      string        `json:"region"`
	Subdivision string        `json:"subdivision,omitempty"`
	Confirmed   []Observation `json:"confirmed"`
	Deaths      []Observation `json:"deaths"`
	Recovered   []Observation `json:"recovered"`
}

// NewRegionSeries creates an empty bundle for a region.
func NewRegionSeries(region, subdivision string) *RegionSeries {
	return &RegionSeries{Region: region, Subdivision: subdivision}
}

// Series returns the observation sequence for a metric.
func (s *RegionSeries) Series(m Metric) []Observation {
	switch m {
	case MetricConfirmed:
		return s.Confirmed
	case MetricDeaths:
		return s.Deaths
	case MetricRecovered:
		return s.Recovered
	default:
		return nil
	}
}

// Latest returns the most recent observation of a metric, or false when the
// series is empty. It assumes the series has been reconciled.
func (s *RegionSeries) Latest(m Metric) (Observation, bool) {
	obs := s.Series(m)
	if len(obs) == 0 {
		return Observation{}, false
	}
	return obs[len(obs)-1], true
}

func (s *RegionSeries) append(day time.Time, c Counts) {
	s.Confirmed = append(s.Confirmed, Observation{Day: day, Value: c.Confirmed})
	s.Deaths = append(s.Deaths, Observation{Day: day, Value: c.Deaths})
	s.Recovered = append(s.Recovered, Observation{Day: day, Value: c.Recovered})
}

// RegionIndex maps region names to their series. It is the loader's output
// and is read-only once returned.
type RegionIndex map[string]*RegionSeries

// Lookup returns the series for a region name.
func (idx RegionIndex) Lookup(region string) (*RegionSeries, error) {
	s, ok := idx[region]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", region, ErrRegionNotFound)
	}
	return s, nil
}

// Regions returns the region names in ascending order.
func (idx RegionIndex) Regions() []string {
	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegionSummary is the latest state of one region.
type RegionSummary struct {
	Region      string    `json:"region"`
	Subdivision string    `json:"subdivision,omitempty"`
	Days        int       `json:"days"`
	LastDay     time.Time `json:"last_day"`
	Confirmed   int64     `json:"confirmed"`
	Deaths      int64     `json:"deaths"`
	Recovered   int64     `json:"recovered"`
}

// Summarize reports the latest values of every metric of s.
func Summarize(s *RegionSeries) RegionSummary {
	sum := RegionSummary{
		Region:      s.Region,
		Subdivision: s.Subdivision,
		Days:        len(s.Confirmed),
	}
	if o, ok := s.Latest(MetricConfirmed); ok {
		sum.Confirmed = o.Value
		sum.LastDay = o.Day
	}
	if o, ok := s.Latest(MetricDeaths); ok {
		sum.Deaths = o.Value
	}
	if o, ok := s.Latest(MetricRecovered); ok {
		sum.Recovered = o.Value
	}
	return sum
}

// Summaries summarizes every region of idx in region order.
func (idx RegionIndex) Summaries() []RegionSummary {
	out := make([]RegionSummary, 0, len(idx))
	for _, name := range idx.Regions() {
		out = append(out, Summarize(idx[name]))
	}
	return out
}
