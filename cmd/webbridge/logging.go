// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package main

import (
	"io"
	"log/slog"

	"github.com/webbridge-dev/webbridge/internal/config"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// setupLogging installs the process-wide slog handler described by cfg.
func setupLogging(w io.Writer, cfg config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, errors.Wrapf(err, errors.CodeCLIInputInvalid, "parsing log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch cfg.Format {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, errors.Errorf(errors.CodeCLIInputInvalid, "unknown log format %q", cfg.Format)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, nil
}
