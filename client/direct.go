//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package client

import (
	"context"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
	"trpc.group/trpc-go/trpc-agentnet-go/registry"
	"trpc.group/trpc-go/trpc-agentnet-go/run"
)

// DirectSession runs a network that lives in the local store. It holds
// a provider rather than the network itself, so a manifest reload
// between turns takes effect on the next call instead of pinning the
// old graph for the life of the conversation.
type DirectSession struct {
	provider *registry.Provider
	opts     []run.Option
}

// NewDirectSession builds a session over a store provider.
func NewDirectSession(provider *registry.Provider, opts ...run.Option) *DirectSession {
	return &DirectSession{provider: provider, opts: opts}
}

// runner resolves the provider and builds a fresh runner for one call.
func (s *DirectSession) runner() (*run.Runner, error) {
	net, ok := s.provider.Resolve()
	if !ok {
		return nil, errs.Config("agent network %q is not registered", s.provider.Name())
	}
	return run.NewRunner(net, s.opts...), nil
}

// Function implements chat.AgentSession.
func (s *DirectSession) Function(ctx context.Context) (map[string]any, error) {
	r, err := s.runner()
	if err != nil {
		return nil, err
	}
	return r.Function()
}

// Connectivity implements chat.AgentSession.
func (s *DirectSession) Connectivity(ctx context.Context) ([]network.ConnectivityEntry, error) {
	r, err := s.runner()
	if err != nil {
		return nil, err
	}
	return r.Connectivity(), nil
}

// StreamingChat implements chat.AgentSession.
func (s *DirectSession) StreamingChat(ctx context.Context, req *message.ChatRequest) (<-chan *message.ChatResponse, error) {
	r, err := s.runner()
	if err != nil {
		return nil, err
	}
	return r.StreamingChat(ctx, req)
}

// Close implements chat.AgentSession. Direct sessions hold no transport
// state.
func (s *DirectSession) Close() error { return nil }
