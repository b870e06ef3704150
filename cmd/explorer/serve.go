package main

import (
	"context"
	"log/slog"
	"time"

	"chainexplorer/internal/infrastructure/telemetry"
	"chainexplorer/internal/interfaces/httpapi"
	"chainexplorer/internal/interfaces/web"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the explorer pages and JSON API.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		shutdownTracing, err := telemetry.InitTracer(ctx, "chainexplorer", cfg.OtelEndpoint)
		if err != nil {
			slog.Warn("tracing init error", "err", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				slog.Warn("tracing shutdown error", "err", err)
			}
		}()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		pages, err := web.NewHandler(a.explorer, cfg)
		if err != nil {
			return err
		}
		opts := []httpapi.Option{httpapi.WithPages(pages)}
		if a.cache != nil {
			opts = append(opts, httpapi.WithCache(a.cache))
		}
		server, err := httpapi.NewServer(cfg, a.explorer, a.client, a.metrics, httpapi.BuildInfo{
			Version:   version,
			Commit:    commit,
			BuildTime: buildTime,
		}, opts...)
		if err != nil {
			return err
		}

		slog.Info("explorer starting", "rpc_url", cfg.RPCURL, "cache", cfg.CacheBackend, "version", version)
		return server.ListenAndServe(ctx, cfg.HTTPAddr)
	},
}
