// Command trends loads daily outbreak reports, reconciles them into
// per-region cumulative series, and renders, serves, or publishes them.
//
// Usage:
//
//	trends --reports-dir data/daily_reports --region Italy --output italy.png
//	trends regions
//	trends serve --addr :8080
//	trends publish
//	trends validate
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/outbreak-trends/internal/adapter/csvdir"
	"github.com/couchcryptid/outbreak-trends/internal/config"
	"github.com/couchcryptid/outbreak-trends/internal/domain"
	"github.com/couchcryptid/outbreak-trends/internal/observability"
	"github.com/couchcryptid/outbreak-trends/internal/pipeline"
	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	stdout  io.Writer
	logOut  io.Writer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, stdout: os.Stdout, logOut: os.Stdout}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		a.logError(err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "trends",
		Short: "Reconcile daily outbreak reports and chart one region",
		Long: "Reads MM-DD-YYYY report files, repairs duplicate days and decreasing\n" +
			"cumulative counts per region, and renders a dual-axis chart of the\n" +
			"selected region. Without a subcommand it behaves like \"render\".",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runRender,
	}

	cfg := a.cfg
	f := root.PersistentFlags()
	f.StringVar(&cfg.ReportsDir, "reports-dir", cfg.ReportsDir, "directory containing daily report files")
	f.IntVar(&cfg.WindowDays, "window-days", cfg.WindowDays, "ignore reports older than this many days")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text, json)")
	addRenderFlags(root, cfg)

	root.AddCommand(
		newRenderCmd(a),
		newRegionsCmd(a),
		newServeCmd(a),
		newPublishCmd(a),
		newValidateCmd(a),
	)
	return root
}

// setup validates the flag-adjusted config and builds the logger and metrics
// unless they were provided. Logs move to stderr when the chart itself is
// written to stdout.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.logger == nil {
		logOut := a.logOut
		if a.cfg.ChartOutput == "-" {
			logOut = os.Stderr
		}
		a.logger = observability.NewLogger(a.cfg.LogLevel, a.cfg.LogFormat, logOut)
	}
	if a.metrics == nil {
		a.metrics = observability.NewMetrics()
	}
	return nil
}

func (a *app) logError(err error) {
	if a.logger == nil {
		slog.Error("command failed", "error", err)
		return
	}
	a.logger.Error("command failed", "error", err)
}

func (a *app) newPipeline(opts ...pipeline.Option) *pipeline.Pipeline {
	source := csvdir.NewSource(a.cfg.ReportsDir, csvdir.WithLogger(a.logger))
	return pipeline.New(source, a.logger, a.metrics, a.cfg.WindowDays, opts...)
}

// load runs one complete load of the reports directory.
func (a *app) load(ctx context.Context) (domain.RegionIndex, *pipeline.Pipeline, error) {
	p := a.newPipeline()
	idx, err := p.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load reports from %s: %w", a.cfg.ReportsDir, err)
	}
	return idx, p, nil
}
