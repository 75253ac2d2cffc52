package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePlot_ClampsNegativeDeltas(t *testing.T) {
	p, err := DerivePlot(obs(1, 10, 2, 10, 3, 15, 4, 12))
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 10, 15, 12}, p.Cumulative)
	assert.Equal(t, []float64{0, 0, 5, 0}, p.Deltas)
	assert.Equal(t, day(1), p.Dates[0])
	assert.Equal(t, day(4), p.Dates[3])
}

func TestDerivePlot_SingleObservation(t *testing.T) {
	p, err := DerivePlot(obs(1, 7))
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, p.Cumulative)
	assert.Equal(t, []float64{0}, p.Deltas)
}

func TestDerivePlot_Empty(t *testing.T) {
	_, err := DerivePlot(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestDeriveRegionPlots(t *testing.T) {
	s := &RegionSeries{
		Region:    "Italy",
		Confirmed: obs(1, 100, 2, 150),
		Deaths:    obs(1, 3, 2, 5),
		Recovered: obs(1, 0, 2, 10),
	}
	plots, err := DeriveRegionPlots(s)
	require.NoError(t, err)
	require.Len(t, plots, 3)
	assert.Equal(t, []float64{0, 50}, plots[MetricConfirmed].Deltas)
	assert.Equal(t, []float64{0, 2}, plots[MetricDeaths].Deltas)
	assert.Equal(t, []float64{0, 10}, plots[MetricRecovered].Deltas)
}

func TestDeriveRegionPlots_EmptyMetric(t *testing.T) {
	s := &RegionSeries{Region: "Italy", Confirmed: obs(1, 100)}
	_, err := DeriveRegionPlots(s)
	require.ErrorIs(t, err, ErrEmptySeries)
	assert.Contains(t, err.Error(), "Italy deaths")
}
