// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/webbridge-dev/webbridge/internal/config"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip-config"

// cli is the state shared by every subcommand of one invocation.
type cli struct {
	cfg     *config.Config
	cfgPath string
}

// NewRootCmd creates the root webbridge command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "webbridge",
		Short:         "webbridge: native plugins for web pages",
		Long:          "webbridge connects script running in a page to native plugins on the host.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}
			return c.init(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file (default ~/.config/webbridge/webbridge.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("log-format", "", "log format override (text, json)")

	root.AddCommand(
		newServeCmd(c),
		newRunCmd(c),
		newPluginCmd(c),
		newVersionCmd(),
	)

	return root
}

// init resolves the config file, bootstrapping the default one when none
// was named, then loads it and installs the logger.
func (c *cli) init(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("WEBBRIDGE_CONFIG")
	}
	if path == "" {
		def, err := config.DefaultConfigPath()
		if err != nil {
			return errors.Wrap(err, errors.CodeCLISetupFailure, "resolving default config path")
		}
		config.BootstrapConfig(def)
		if _, statErr := os.Stat(def); statErr == nil {
			path = def
		}
	}

	if path != "" {
		config.WarnInsecurePermissions(path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Logging.Format = format
	}
	if _, err := setupLogging(cmd.ErrOrStderr(), cfg.Logging); err != nil {
		return err
	}

	c.cfg = cfg
	c.cfgPath = path
	return nil
}
