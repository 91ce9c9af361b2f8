// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/webbridge-dev/webbridge/internal/plugin"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

func newPluginCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Inspect the plugins pages can use",
	}

	cmd.AddCommand(
		newPluginListCmd(c),
		newPluginInspectCmd(c),
	)

	return cmd
}

func newPluginListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and external plugins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			host, err := WireHost(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = host.Close() }()
			return printPluginList(cmd.OutOrStdout(), host)
		},
	}
}

func newPluginInspectCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <name>",
		Short: "Show a plugin's actions and manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := WireHost(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = host.Close() }()
			return printPluginDetail(cmd.OutOrStdout(), host, args[0])
		},
	}
}

func external(host *Host) map[string]*plugin.Instance {
	out := make(map[string]*plugin.Instance)
	if host.Plugins == nil {
		return out
	}
	for _, inst := range host.Plugins.List() {
		out[inst.Name()] = inst
	}
	return out
}

func printPluginList(w io.Writer, host *Host) error {
	described := host.Catalog.Describe()
	ext := external(host)

	names := host.Catalog.Names()
	for name := range ext {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	if len(names) == 0 {
		_, err := fmt.Fprintln(w, dimStyle.Render("No plugins available"))
		return err
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Plugins") + "\n")
	for _, name := range names {
		source := "builtin"
		status := okStyle.Render("ready")
		if inst, ok := ext[name]; ok {
			source = string(inst.Manifest().Tier)
			status = okStyle.Render(inst.State().String())
			if inst.Err() != nil {
				status = errorStyle.Render(inst.State().String())
			}
		}
		fmt.Fprintf(&b, "  %-36s %-8s %-10s %s\n",
			nameStyle.Render(name), source, status,
			dimStyle.Render(strings.Join(described[name], ", ")))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func printPluginDetail(w io.Writer, host *Host, name string) error {
	inst, isExternal := external(host)[name]
	if !host.Catalog.Has(name) && !isExternal {
		return errors.New(errors.CodePluginNotFound, "no such plugin", errors.FieldPlugin(name))
	}

	methods := host.Catalog.Describe()[name]

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(name))
	if isExternal {
		m := inst.Manifest()
		fmt.Fprintf(&b, "version: %s\n", m.Version)
		fmt.Fprintf(&b, "tier:    %s\n", m.Tier)
		fmt.Fprintf(&b, "entry:   %s\n", m.EntryPath())
		fmt.Fprintf(&b, "state:   %s\n", inst.State())
		if m.Description != "" {
			fmt.Fprintf(&b, "about:   %s\n", m.Description)
		}
		if err := inst.Err(); err != nil {
			fmt.Fprintf(&b, "error:   %s\n", errorStyle.Render(err.Error()))
		}
	} else {
		b.WriteString("source:  builtin\n")
	}

	b.WriteString("actions:\n")
	if len(methods) == 0 {
		b.WriteString("  " + dimStyle.Render("(none)") + "\n")
	}
	for _, m := range methods {
		fmt.Fprintf(&b, "  - %s\n", m)
	}

	_, err := fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
	return err
}
