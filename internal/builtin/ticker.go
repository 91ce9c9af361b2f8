// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package builtin

import (
	"time"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

const (
	maxTicks            = 1000
	defaultTickInterval = 10 * time.Millisecond
)

// NewTicker returns the ticker plugin. count(n, intervalMs) reports 1..n as
// progress results and completes with "done".
func NewTicker() bridge.Plugin {
	return bridge.NewPlugin(TickerName, map[string]bridge.Handler{
		"count": func(cmd *bridge.Command) {
			n := cmd.IntAt(0, 1)
			if n < 0 || n > maxTicks {
				cmd.ErrorWithStatus(bridge.StatusInvalidAction,
					bridge.StringMessage("count must be between 0 and 1000"))
				return
			}
			interval := defaultTickInterval
			if ms := cmd.IntAt(1, 0); ms > 0 {
				interval = time.Duration(ms) * time.Millisecond
			}
			go tick(cmd, n, interval)
		},
	})
}

func tick(cmd *bridge.Command, n int, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for i := 1; i <= n; i++ {
		<-t.C
		cmd.ProgressWithInt(i)
	}
	cmd.SuccessWithString("done")
}
