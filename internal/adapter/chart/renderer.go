// Package chart renders region series as dual-axis line and bar charts.
package chart

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/couchcryptid/outbreak-trends/internal/domain"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an output image format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// barPadding widens the X range so the first and last bars are not clipped.
const barPadding = 12 * time.Hour

var (
	confirmedColor = gochart.ColorGreen
	deathsColor    = gochart.ColorRed
	recoveredColor = gochart.ColorBlue
)

// Renderer draws one RegionSeries per call.
type Renderer struct {
	format Format
	width  int
	height int
}

// NewRenderer creates a Renderer producing images of the given size.
func NewRenderer(format string, width, height int) (*Renderer, error) {
	f := Format(format)
	if f != PNG && f != SVG {
		return nil, fmt.Errorf("unsupported chart format %q", format)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid chart size %dx%d", width, height)
	}
	return &Renderer{format: f, width: width, height: height}, nil
}

// Format returns the output format.
func (r *Renderer) Format() Format { return r.format }

// ContentType returns the MIME type of rendered images.
func (r *Renderer) ContentType() string {
	if r.format == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Render writes the chart for s to w. Confirmed and recovered counts share
// the left axis; deaths use the right axis. It returns domain.ErrEmptySeries
// when any of the three series has no observations.
func (r *Renderer) Render(w io.Writer, s *domain.RegionSeries) error {
	plots, err := domain.DeriveRegionPlots(s)
	if err != nil {
		return err
	}

	ch := r.build(s.Region, plots)

	provider := gochart.PNG
	if r.format == SVG {
		provider = gochart.SVG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render %s chart: %w", s.Region, err)
	}
	return nil
}

func (r *Renderer) build(title string, plots map[domain.Metric]domain.PlotTriple) gochart.Chart {
	confirmed := plots[domain.MetricConfirmed]
	deaths := plots[domain.MetricDeaths]
	recovered := plots[domain.MetricRecovered]

	series := []gochart.Series{
		barSeries("new cases", confirmed, confirmedColor, gochart.YAxisPrimary),
		barSeries("new recovered", recovered, recoveredColor, gochart.YAxisPrimary),
		barSeries("new deaths", deaths, deathsColor, gochart.YAxisSecondary),
		lineSeries("# cases", confirmed, confirmedColor, gochart.YAxisPrimary),
		lineSeries("# recovered", recovered, recoveredColor, gochart.YAxisPrimary),
		lineSeries("# deaths", deaths, deathsColor, gochart.YAxisSecondary),
	}

	first, last := dateBounds(confirmed, deaths, recovered)

	ch := gochart.Chart{
		Title:      title,
		Width:      r.width,
		Height:     r.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat("2006-01-02"),
			Range: &gochart.ContinuousRange{
				Min: gochart.TimeToFloat64(first.Add(-barPadding)),
				Max: gochart.TimeToFloat64(last.Add(barPadding)),
			},
			Style: gochart.Style{FontSize: 8, TextRotationDegrees: 90},
		},
		YAxis: gochart.YAxis{
			Name:           "cases / recovered",
			ValueFormatter: gochart.IntValueFormatter,
			Range:          &gochart.ContinuousRange{Min: 0, Max: axisMax(confirmed, recovered)},
			Style:          gochart.Style{FontSize: 8, FontColor: confirmedColor},
		},
		YAxisSecondary: gochart.YAxis{
			Name:           "deaths",
			ValueFormatter: gochart.IntValueFormatter,
			Range:          &gochart.ContinuousRange{Min: 0, Max: axisMax(deaths)},
			Style:          gochart.Style{FontSize: 8, FontColor: deathsColor},
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch
}

func timeSeries(name string, p domain.PlotTriple, values []float64, axis gochart.YAxisType, style gochart.Style) gochart.TimeSeries {
	return gochart.TimeSeries{
		Name:    name,
		XValues: p.Dates,
		YValues: values,
		YAxis:   axis,
		Style:   style,
	}
}

func lineSeries(name string, p domain.PlotTriple, col drawing.Color, axis gochart.YAxisType) gochart.Series {
	return timeSeries(name, p, p.Cumulative, axis, gochart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	})
}

func barSeries(name string, p domain.PlotTriple, col drawing.Color, axis gochart.YAxisType) gochart.Series {
	style := gochart.Style{
		StrokeColor: col.WithAlpha(160),
		FillColor:   col.WithAlpha(96),
	}
	return gochart.HistogramSeries{
		Name:        name,
		YAxis:       axis,
		Style:       style,
		InnerSeries: timeSeries(name, p, p.Deltas, axis, style),
	}
}

// dateBounds returns the earliest and latest date across the plots.
func dateBounds(plots ...domain.PlotTriple) (time.Time, time.Time) {
	var first, last time.Time
	for _, p := range plots {
		for _, d := range p.Dates {
			if first.IsZero() || d.Before(first) {
				first = d
			}
			if d.After(last) {
				last = d
			}
		}
	}
	return first, last
}

// axisMax returns a Y maximum with 5% headroom that is never zero, since
// go-chart rejects empty ranges.
func axisMax(plots ...domain.PlotTriple) float64 {
	highest := 0.0
	for _, p := range plots {
		for i := range p.Cumulative {
			highest = math.Max(highest, math.Max(p.Cumulative[i], p.Deltas[i]))
		}
	}
	if highest <= 0 {
		return 1
	}
	return math.Ceil(highest * 1.05)
}
