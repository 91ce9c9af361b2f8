// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Command webbridge-plugin-text is a process-tier plugin offering simple
// string transforms. Drop it next to its plugin.yaml in the plugins dir.
package main

import (
	"github.com/webbridge-dev/webbridge/internal/plugin/goplugin"
)

func main() {
	goplugin.Serve(backend())
}
