package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/couchcryptid/outbreak-trends/internal/adapter/chart"
	"github.com/couchcryptid/outbreak-trends/internal/config"
	"github.com/spf13/cobra"
)

func addRenderFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.PersistentFlags()
	f.StringVarP(&cfg.Region, "region", "r", cfg.Region, "region to chart (Country/Region value)")
	f.StringVarP(&cfg.ChartOutput, "output", "o", cfg.ChartOutput, "chart output path, - for stdout")
	f.StringVar(&cfg.ChartFormat, "format", cfg.ChartFormat, "chart format (png, svg)")
	f.IntVar(&cfg.ChartWidth, "width", cfg.ChartWidth, "chart width in pixels")
	f.IntVar(&cfg.ChartHeight, "height", cfg.ChartHeight, "chart height in pixels")
}

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Render the selected region as a chart image",
		Args:  cobra.NoArgs,
		RunE:  a.runRender,
	}
}

func (a *app) runRender(cmd *cobra.Command, _ []string) error {
	renderer, err := chart.NewRenderer(a.cfg.ChartFormat, a.cfg.ChartWidth, a.cfg.ChartHeight)
	if err != nil {
		return err
	}

	idx, _, err := a.load(cmd.Context())
	if err != nil {
		return err
	}
	series, err := idx.Lookup(a.cfg.Region)
	if err != nil {
		return err
	}

	// Render fully before touching the output so a failed render leaves no
	// partial file behind.
	var buf bytes.Buffer
	if err := renderer.Render(&buf, series); err != nil {
		return err
	}
	a.metrics.ChartsRendered.WithLabelValues(string(renderer.Format())).Inc()

	if a.cfg.ChartOutput == "-" {
		if _, err := a.stdout.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write chart to stdout: %w", err)
		}
	} else if err := os.WriteFile(a.cfg.ChartOutput, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}

	a.logger.Info("chart rendered",
		"region", series.Region,
		"format", renderer.Format(),
		"output", a.cfg.ChartOutput,
		"days", len(series.Confirmed),
	)
	return nil
}
