// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	bridgemgr "github.com/webbridge-dev/webbridge/internal/bridge"
	"github.com/webbridge-dev/webbridge/internal/surface/jsvm"
	"github.com/webbridge-dev/webbridge/internal/telemetry"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// resultProbe yields "" while the page has not published a result.
const resultProbe = `(typeof window.__result === "undefined") ? null : JSON.stringify(window.__result)`

const resultPoll = 20 * time.Millisecond

func newRunCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <page.js|->",
		Short: "Run a page script against the configured plugins",
		Long: "Load a script into a headless page with the bridge installed, wait for it " +
			"to set window.__result, and print that value as JSON.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd, args[0])
		},
	}

	cmd.Flags().String("url", "http://localhost/", "URL the page is loaded as; selects page rules")
	cmd.Flags().Duration("timeout", 30*time.Second, "how long to wait for window.__result")

	return cmd
}

func readSource(cmd *cobra.Command, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeCLIInputInvalid, "reading page script %s", name)
	}
	return string(data), nil
}

func (c *cli) runRun(cmd *cobra.Command, name string) error {
	cfg := c.cfg
	pageURL, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	source, err := readSource(cmd, name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	host, err := WireHost(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = host.Close() }()

	page := jsvm.New(jsvm.WithNamespace(cfg.Bridge.Namespace), jsvm.WithName("run"))
	defer page.Close()

	bridgemgr.NewManager("run", page, host.Provider,
		bridgemgr.WithNamespace(cfg.Bridge.Namespace),
		bridgemgr.WithScriptTimeout(cfg.Bridge.ScriptTimeout),
	)

	if err := page.Load(ctx, pageURL, source); err != nil {
		return err
	}

	result, err := awaitResult(ctx, page)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
	return err
}

// awaitResult polls the page until it publishes window.__result.
func awaitResult(ctx context.Context, page *jsvm.Surface) (string, error) {
	ticker := time.NewTicker(resultPoll)
	defer ticker.Stop()

	for {
		out, err := page.ExecuteScript(ctx, resultProbe)
		switch {
		case err != nil && ctx.Err() == nil:
			return "", err
		case err == nil && out != "":
			return out, nil
		}

		select {
		case <-ctx.Done():
			slog.Debug("page never published a result", "error", ctx.Err())
			return "", errors.Wrap(ctx.Err(), errors.CodeCLIRunTimeout, "waiting for window.__result")
		case <-ticker.C:
		}
	}
}
