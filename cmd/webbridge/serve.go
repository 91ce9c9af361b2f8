// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/webbridge-dev/webbridge/internal/server"
	"github.com/webbridge-dev/webbridge/internal/telemetry"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge to browser pages",
		Long: "Start the HTTP host. Pages load /bridge.js and /bridge-ws.js from it and " +
			"connect over a websocket to reach the configured plugins.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd)
		},
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func (c *cli) runServe(cmd *cobra.Command) error {
	cfg := c.cfg
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	host, err := WireHost(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Close(); err != nil {
			slog.Warn("closing host", "error", err)
		}
	}()

	srv, err := server.New(server.Config{
		ListenAddr:     cfg.Server.Listen,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		},
		Namespace:     cfg.Bridge.Namespace,
		ScriptTimeout: cfg.Bridge.ScriptTimeout,
		Version:       version,
	}, server.Services{
		Catalog:  host.Catalog,
		Provider: host.Provider,
		Plugins:  host.Plugins,
	})
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "webbridge serving on http://%s (%d plugins)\n",
		cfg.Server.Listen, len(host.Catalog.Names())); err != nil {
		return err
	}
	return srv.Start(ctx)
}
