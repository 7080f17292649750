//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package server exposes loaded agent networks over HTTP: one streaming
// chat endpoint speaking newline-delimited JSON plus the discovery
// endpoints (function, connectivity, list, health). Requests carry
// metadata in headers; the configured forwarded list decides which
// headers become request metadata for authorization, journaling and
// relays.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/trpc-agentnet-go/auth"
	"trpc.group/trpc-go/trpc-agentnet-go/chat"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
	"trpc.group/trpc-go/trpc-agentnet-go/registry"
)

const (
	// DefaultPort serves when AGENT_HTTP_PORT is unset.
	DefaultPort = 8080

	// PortEnv overrides the serving port.
	PortEnv = "AGENT_HTTP_PORT"

	// corsEnv enables CORS; its value appends extra allowed headers,
	// comma separated.
	corsEnv = "AGENT_ALLOW_CORS_HEADERS"

	// streamContentType marks the newline-delimited response stream.
	streamContentType = "application/json-lines"
)

// defaultForwardedMetadata is the header set forwarded as request
// metadata when the host configures nothing.
var defaultForwardedMetadata = []string{"request_id", "user_id"}

// Server is the agent-network HTTP service.
type Server struct {
	store     *registry.Store
	sessions  chat.SessionFactory
	gate      *auth.Gate
	router    *mux.Router
	port      int
	timeout   time.Duration
	forwarded []string

	serving  atomic.Bool
	requests atomic.Int64
	http     *http.Server
}

// Option configures the Server.
type Option func(*Server)

// WithStore sets the network store the service reads. Required.
func WithStore(store *registry.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithSessionFactory sets the factory behind every request's session.
// Required; normally a client.Factory sharing the same store.
func WithSessionFactory(factory chat.SessionFactory) Option {
	return func(s *Server) { s.sessions = factory }
}

// WithGate replaces the authorization gate. Defaults to the environment
// configuration (null authorizer unless AGENT_AUTHORIZER names one).
func WithGate(gate *auth.Gate) Option {
	return func(s *Server) { s.gate = gate }
}

// WithPort sets the listening port, overriding AGENT_HTTP_PORT.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithRequestTimeout bounds one chat turn end to end. Zero or negative
// means no umbrella timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.timeout = timeout }
}

// WithForwardedMetadata sets the header names lifted into request
// metadata. The order is kept; request_id is auto-generated when the
// header is absent.
func WithForwardedMetadata(names ...string) Option {
	return func(s *Server) { s.forwarded = names }
}

// New builds the service. The port defaults to AGENT_HTTP_PORT, then
// DefaultPort.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		router:    mux.NewRouter(),
		port:      portFromEnv(),
		forwarded: defaultForwardedMetadata,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		return nil, fmt.Errorf("server: a network store is required")
	}
	if s.sessions == nil {
		return nil, fmt.Errorf("server: a session factory is required")
	}
	if s.gate == nil {
		gate, err := auth.GateFromEnv()
		if err != nil {
			return nil, err
		}
		s.gate = gate
	}

	if extra, ok := os.LookupEnv(corsEnv); ok {
		s.router.Use(cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: s.corsHeaders(extra),
		}).Handler)
	}
	s.router.Use(s.availability)
	s.registerRoutes()
	return s, nil
}

func portFromEnv() int {
	if v := os.Getenv(PortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			return port
		}
		log.Warnf("ignoring invalid %s value %q", PortEnv, v)
	}
	return DefaultPort
}

// corsHeaders assembles the allowed-header list: the wire basics, the
// forwarded metadata names, then whatever the environment appends.
func (s *Server) corsHeaders(extra string) []string {
	headers := []string{"Content-Type", "Transfer-Encoding"}
	headers = append(headers, s.forwarded...)
	for _, h := range strings.Split(extra, ",") {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, h)
		}
	}
	return headers
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/api/v1/list", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/{agent}/streaming_chat", s.handleStreamingChat).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/{agent}/connectivity", s.handleConnectivity).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/{agent}/function", s.handleFunction).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// availability rejects requests once shutdown has begun, so in-flight
// turns can drain while new work bounces.
func (s *Server) availability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.serving.Load() {
			writeError(w, http.StatusServiceUnavailable, "Server is shutting down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	s.serving.Store(true)
	return s.router
}

// Port returns the configured listening port.
func (s *Server) Port() int { return s.port }

// Serve listens until the context is cancelled or the listener fails.
// Shutdown drains cleanly: new requests get 503 while running turns
// finish.
func (s *Server) Serve(ctx context.Context) error {
	s.http = &http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(s.port)),
		Handler: s.router,
	}
	s.serving.Store(true)
	log.Infof("agent service listening on port %d", s.port)

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.serving.Store(false)
		return err
	case <-ctx.Done():
		s.serving.Store(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// metadata lifts the forwarded headers into request metadata. Absent
// request_id gets a generated value so every request stays traceable;
// other absent headers forward the explicit string "None".
func (s *Server) metadata(r *http.Request) map[string]any {
	id := s.requests.Add(1)
	md := make(map[string]any, len(s.forwarded))
	for _, name := range s.forwarded {
		switch {
		case r.Header.Get(name) != "":
			md[name] = r.Header.Get(name)
		case name == "request_id":
			md[name] = fmt.Sprintf("request-%d", id)
		default:
			md[name] = "None"
		}
	}
	return md
}
