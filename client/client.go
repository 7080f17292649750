//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package client implements agent sessions over the supported
// transports. A Factory hands out the right session for a tool
// reference: "/name" resolves against the local network store,
// "http(s)://host/agent" opens a native streaming-chat connection, and
// "a2a://host/agent" talks to a peer speaking the A2A protocol. All
// sessions share the chat.AgentSession surface, so activations never
// care where an agent actually lives.
package client

import (
	"net/http"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-agentnet-go/chat"
	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/registry"
	"trpc.group/trpc-go/trpc-agentnet-go/run"
)

// defaultDialTimeout bounds non-streaming calls (function fetch, A2A
// card resolution) so an unreachable peer fails the activation quickly
// instead of hanging the whole turn.
const defaultDialTimeout = 30 * time.Second

// Factory builds sessions for agent references. It implements
// chat.SessionFactory and injects itself into the runners it creates,
// so a network calling "/other" on the same server routes every nested
// external hop back through the same transports.
type Factory struct {
	store      *registry.Store
	runOpts    []run.Option
	httpClient *http.Client
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithStore sets the local network store "/name" references resolve
// against. Without a store such references fail at session creation.
func WithStore(store *registry.Store) FactoryOption {
	return func(f *Factory) { f.store = store }
}

// WithRunOptions sets the run options applied to every direct session's
// runner: the model factory, the toolbox registry, the executor pool
// size and whatever else the host configured.
func WithRunOptions(opts ...run.Option) FactoryOption {
	return func(f *Factory) { f.runOpts = opts }
}

// WithHTTPClient replaces the HTTP client behind native sessions,
// mainly for tests and custom TLS setups.
func WithHTTPClient(c *http.Client) FactoryOption {
	return func(f *Factory) { f.httpClient = c }
}

// NewFactory builds a session factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateSession implements chat.SessionFactory.
func (f *Factory) CreateSession(ref string, metadata map[string]any) (chat.AgentSession, error) {
	switch {
	case strings.HasPrefix(ref, "a2a://"):
		return NewA2ASession(ref, metadata)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return NewHTTPSession(ref, metadata, f.httpClient)
	case strings.HasPrefix(ref, "/"):
		if f.store == nil {
			return nil, errs.Config("reference %q needs a local network store and none is configured", ref)
		}
		name := strings.TrimPrefix(ref, "/")
		return NewDirectSession(f.store.Provider(name), f.directOpts(metadata)...), nil
	}
	return nil, errs.Config("unsupported agent reference %q", ref)
}

// directOpts assembles the run options for one direct session: the
// factory injects itself first so nested external references keep
// routing through it, then the host's options, then the caller's
// request metadata.
func (f *Factory) directOpts(metadata map[string]any) []run.Option {
	opts := make([]run.Option, 0, len(f.runOpts)+2)
	opts = append(opts, run.WithSessionFactory(f))
	opts = append(opts, f.runOpts...)
	opts = append(opts, run.WithMetadata(metadata))
	return opts
}

// metadataHeaders renders the string-valued metadata entries as HTTP
// headers for transports that forward request metadata.
func metadataHeaders(metadata map[string]any) map[string]string {
	headers := make(map[string]string, len(metadata))
	for key, value := range metadata {
		if s, ok := value.(string); ok && s != "" {
			headers[key] = s
		}
	}
	return headers
}
