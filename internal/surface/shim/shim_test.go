// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package shim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/webbridge-dev/webbridge/internal/surface/shim"
)

func TestBridge(t *testing.T) {
	src := shim.Bridge("wb")

	assert.NotContains(t, src, "__NS__")
	assert.Contains(t, src, `var NS = "wb";`)
	assert.Contains(t, src, "_didFinishLoad")
}

func TestWebSocket(t *testing.T) {
	src := shim.WebSocket("wb", "/api/v1/bridge")

	assert.NotContains(t, src, "__ENDPOINT__")
	assert.Contains(t, src, `var ENDPOINT = "/api/v1/bridge";`)
}
