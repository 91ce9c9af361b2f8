// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg RateLimitConfig) (*limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := newLimiter(cfg)
	l.now = clock.now
	return l, clock
}

func TestLimiter_Allow(t *testing.T) {
	l, clock := newTestLimiter(RateLimitConfig{RequestsPerSecond: 2, Burst: 3})

	for i := range 3 {
		assert.True(t, l.allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "buckets are per IP")

	clock.advance(500 * time.Millisecond)
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))

	clock.advance(time.Hour)
	for range 3 {
		assert.True(t, l.allow("10.0.0.1"))
	}
	assert.False(t, l.allow("10.0.0.1"), "refill is capped at burst")
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, MaxVisitors: 2})

	l.allow("stale")
	clock.advance(visitorStaleAfter + time.Second)
	for i := range 3 {
		l.allow(fmt.Sprintf("10.0.0.%d", i))
		clock.advance(time.Second)
	}
	require.Equal(t, 4, l.size())

	l.sweep()
	assert.Equal(t, 2, l.size())

	l.mu.Lock()
	_, oldest := l.visitors["10.0.0.0"]
	_, newest := l.visitors["10.0.0.2"]
	l.mu.Unlock()
	assert.False(t, oldest)
	assert.True(t, newest)
}

func TestRateLimitConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RateLimitConfig
		wantErr string
		wantMax int
	}{
		{name: "disabled", cfg: RateLimitConfig{}, wantMax: defaultMaxVisitors},
		{name: "valid", cfg: RateLimitConfig{RequestsPerSecond: 5, Burst: 10, MaxVisitors: 50}, wantMax: 50},
		{name: "negative rate", cfg: RateLimitConfig{RequestsPerSecond: -1}, wantErr: "must not be negative"},
		{name: "missing burst", cfg: RateLimitConfig{RequestsPerSecond: 1}, wantErr: "burst must be positive"},
		{name: "negative visitors", cfg: RateLimitConfig{MaxVisitors: -1}, wantErr: "max visitors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMax, tt.cfg.MaxVisitors)
		})
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	h := rateLimitMiddleware(RateLimitConfig{}, done)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for range 20 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}
