package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/outbreak-trends/internal/adapter/chart"
	"github.com/couchcryptid/outbreak-trends/internal/domain"
	"github.com/couchcryptid/outbreak-trends/internal/observability"
	"github.com/couchcryptid/outbreak-trends/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// SnapshotSource exposes the most recent reconciled load.
type SnapshotSource interface {
	ReadinessChecker
	Snapshot() *pipeline.Snapshot
}

// ChartRenderer draws one region series.
type ChartRenderer interface {
	Render(w io.Writer, s *domain.RegionSeries) error
	ContentType() string
	Format() chart.Format
}

// Server exposes health, readiness, metrics, region, and chart endpoints.
type Server struct {
	httpServer *http.Server
	source     SnapshotSource
	renderer   ChartRenderer
	cache      *renderCache
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /regions, and /charts/{region} routes. Rendered charts are cached per load
// generation, up to cacheSize images.
func NewServer(addr string, source SnapshotSource, renderer ChartRenderer, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:   source,
		renderer: renderer,
		cache:    newRenderCache(cacheSize),
		metrics:  metrics,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(source))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /regions", s.handleRegions)
	mux.HandleFunc("GET /charts/{region}", s.handleChart)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type regionsResponse struct {
	Generation uint64                 `json:"generation"`
	LoadedAt   time.Time              `json:"loaded_at"`
	Regions    []domain.RegionSummary `json:"regions"`
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	snap := s.source.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no reports loaded yet")
		return
	}
	writeJSON(w, http.StatusOK, regionsResponse{
		Generation: snap.Generation,
		LoadedAt:   snap.LoadedAt,
		Regions:    snap.Index.Summaries(),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no reports loaded yet")
		return
	}

	region := r.PathValue("region")
	key := strconv.FormatUint(snap.Generation, 10) + "|" + region

	if img, ok := s.cache.get(key); ok {
		s.metrics.RenderCache.WithLabelValues("hit").Inc()
		s.writeImage(w, img)
		return
	}
	s.metrics.RenderCache.WithLabelValues("miss").Inc()

	series, err := snap.Index.Lookup(region)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, series); err != nil {
		if errors.Is(err, domain.ErrEmptySeries) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("chart render failed", "region", region, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("render %s: failed", region))
		return
	}
	s.metrics.ChartsRendered.WithLabelValues(string(s.renderer.Format())).Inc()

	img := buf.Bytes()
	s.cache.put(key, img)
	s.writeImage(w, img)
}

func (s *Server) writeImage(w http.ResponseWriter, img []byte) {
	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	w.Write(img) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
