package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/couchcryptid/outbreak-trends/internal/adapter/chart"
	httpadapter "github.com/couchcryptid/outbreak-trends/internal/adapter/http"
	"github.com/couchcryptid/outbreak-trends/internal/domain"
	"github.com/couchcryptid/outbreak-trends/internal/observability"
	"github.com/couchcryptid/outbreak-trends/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	snap *pipeline.Snapshot
}

func (m *mockSource) CheckReadiness(_ context.Context) error {
	if m.snap == nil {
		return errors.New("no reports loaded yet")
	}
	return nil
}

func (m *mockSource) Snapshot() *pipeline.Snapshot { return m.snap }

// countingRenderer wraps a real renderer and counts calls.
type countingRenderer struct {
	*chart.Renderer
	calls int
}

func (c *countingRenderer) Render(w io.Writer, s *domain.RegionSeries) error {
	c.calls++
	return c.Renderer.Render(w, s)
}

func testSnapshot() *pipeline.Snapshot {
	d1 := time.Date(2020, time.March, 20, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	return &pipeline.Snapshot{
		Generation: 3,
		LoadedAt:   time.Date(2020, time.March, 22, 6, 0, 0, 0, time.UTC),
		Index: domain.RegionIndex{
			"US": {
				Region:    "US",
				Confirmed: []domain.Observation{{Day: d1, Value: 19100}, {Day: d2, Value: 25489}},
				Deaths:    []domain.Observation{{Day: d1, Value: 244}, {Day: d2, Value: 307}},
				Recovered: []domain.Observation{{Day: d1, Value: 147}, {Day: d2, Value: 171}},
			},
			"Korea, South": {
				Region:    "Korea, South",
				Confirmed: []domain.Observation{{Day: d1, Value: 8652}, {Day: d2, Value: 8799}},
				Deaths:    []domain.Observation{{Day: d1, Value: 94}, {Day: d2, Value: 102}},
				Recovered: []domain.Observation{{Day: d1, Value: 1540}, {Day: d2, Value: 1540}},
			},
			"Holy See": {Region: "Holy See"},
		},
	}
}

func newTestServer(t *testing.T, snap *pipeline.Snapshot) (*httpadapter.Server, *countingRenderer, *observability.Metrics) {
	t.Helper()
	r, err := chart.NewRenderer("png", 400, 300)
	require.NoError(t, err)
	renderer := &countingRenderer{Renderer: r}
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", &mockSource{snap: snap}, renderer, 4, metrics, logger), renderer, metrics
}

func get(srv http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	rec := get(srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _, _ := newTestServer(t, testSnapshot())
	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no reports loaded yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	rec := get(srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegions(t *testing.T) {
	srv, _, _ := newTestServer(t, testSnapshot())
	rec := get(srv, "/regions")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Generation uint64                 `json:"generation"`
		Regions    []domain.RegionSummary `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(3), body.Generation)
	require.Len(t, body.Regions, 3)
	assert.Equal(t, "Holy See", body.Regions[0].Region)
	assert.Equal(t, "US", body.Regions[2].Region)
	assert.Equal(t, int64(25489), body.Regions[2].Confirmed)
}

func TestRegions_NotLoaded(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	rec := get(srv, "/regions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChart_RendersAndCaches(t *testing.T) {
	srv, renderer, metrics := newTestServer(t, testSnapshot())

	first := get(srv, "/charts/US")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "image/png", first.Header().Get("Content-Type"))
	assert.Equal(t, []byte("\x89PNG"), first.Body.Bytes()[:4])

	second := get(srv, "/charts/US")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())

	assert.Equal(t, 1, renderer.calls)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RenderCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RenderCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ChartsRendered.WithLabelValues("png")), 0)
}

func TestChart_EscapedRegionName(t *testing.T) {
	srv, _, _ := newTestServer(t, testSnapshot())
	rec := get(srv, "/charts/"+url.PathEscape("Korea, South"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChart_UnknownRegion(t *testing.T) {
	srv, renderer, _ := newTestServer(t, testSnapshot())
	rec := get(srv, "/charts/Narnia")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "region not found")
	assert.Equal(t, 0, renderer.calls)
}

func TestChart_EmptySeries(t *testing.T) {
	srv, _, _ := newTestServer(t, testSnapshot())
	rec := get(srv, "/charts/"+url.PathEscape("Holy See"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty observation series")
}

func TestChart_NotLoaded(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	rec := get(srv, "/charts/US")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
