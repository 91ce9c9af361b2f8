// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Package server exposes the bridge to browser pages over HTTP: the page
// scripts, a websocket endpoint that attaches one bridge per page, and a
// small REST API describing plugins and live sessions.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"

	"github.com/webbridge-dev/webbridge/internal/plugin"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr string
	// AllowedOrigins gates both CORS and the bridge websocket. Empty allows
	// any origin.
	AllowedOrigins []string
	RateLimit      RateLimitConfig

	Namespace     string
	ScriptTimeout time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Version string
}

// Services are the parts of the host the server reads from.
type Services struct {
	Catalog  *plugin.Catalog
	Provider bridge.ConfigProvider
	// Plugins reports external plugin state. May be nil.
	Plugins *plugin.Manager
	// Tracer overrides the global tracer for bridge spans. May be nil.
	Tracer trace.Tracer
}

// Server wraps a chi router with a huma API and the bridge endpoints.
type Server struct {
	router chi.Router
	api    huma.API
	cfg    Config
	svc    Services

	sessions *sessions
	baseCtx  context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

// New builds the router. Start serves it.
func New(cfg Config, svc Services) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, errors.New(errors.CodeServerConfigInvalid, "listen address is required")
	}
	if svc.Catalog == nil {
		svc.Catalog = plugin.NewCatalog()
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{
		cfg:      cfg,
		svc:      svc,
		sessions: newSessions(),
		baseCtx:  ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	humaConfig := huma.DefaultConfig("webbridge", cfg.Version)
	humaConfig.Info.Description = "Native plugin bridge for browser pages"
	api := humachi.New(r, humaConfig)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, func(context.Context, *struct{}) (*HealthResponse, error) {
		return &HealthResponse{Body: HealthBody{Status: "ok", Version: cfg.Version}}, nil
	})

	srv.router = r
	srv.api = api
	srv.registerRoutes()
	srv.registerBridgeRoutes()

	return srv, nil
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API for registering additional operations.
func (s *Server) API() huma.API {
	return s.api
}

// Start serves on the configured address until ctx is cancelled, then shuts
// down gracefully and closes every page connection.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, errors.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		_ = s.Close()
		if err != nil {
			return errors.Wrap(err, errors.CodeServerStartFailure, "serving http")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Hijacked websockets are not tracked by Shutdown.
	_ = s.Close()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.CodeServerShutdownFailure, "shutting down")
	}

	if err := <-errCh; err != nil {
		return errors.Wrap(err, errors.CodeServerStartFailure, "serving http")
	}
	return nil
}

// Close disconnects every page and stops background work. It is idempotent.
func (s *Server) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.cancel()
		s.sessions.closeAll()
	})
	return nil
}

// HealthBody is the JSON body of the health endpoint response.
type HealthBody struct {
	Status  string `json:"status" example:"ok" doc:"Health status"`
	Version string `json:"version" example:"1.0.0" doc:"Host version"`
}

// HealthResponse wraps the health check response.
type HealthResponse struct {
	Body HealthBody
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}
