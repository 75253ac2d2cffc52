package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/couchcryptid/outbreak-trends/internal/adapter/chart"
	httpadapter "github.com/couchcryptid/outbreak-trends/internal/adapter/http"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Reload reports periodically and serve charts over HTTP",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
	f := cmd.Flags()
	f.StringVar(&a.cfg.HTTPAddr, "addr", a.cfg.HTTPAddr, "HTTP listen address")
	f.DurationVar(&a.cfg.RefreshInterval, "refresh", a.cfg.RefreshInterval, "interval between report reloads")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	renderer, err := chart.NewRenderer(a.cfg.ChartFormat, a.cfg.ChartWidth, a.cfg.ChartHeight)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := a.newPipeline()
	srv := httpadapter.NewServer(a.cfg.HTTPAddr, p, renderer, a.cfg.RenderCacheSize, a.metrics, a.logger)

	// Start HTTP server.
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	// Start refresh loop.
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := p.Run(ctx, a.cfg.RefreshInterval); err != nil {
			a.logger.Error("refresh loop error", "error", err)
		}
	}()

	var result error
	select {
	case <-ctx.Done():
	case err := <-srvErr:
		result = err
	}
	a.logger.Info("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}
	<-runDone

	a.logger.Info("shutdown complete")
	return result
}
