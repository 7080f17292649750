//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package chat holds the pieces both sides of a streaming conversation
// share: the agent session surface, the message processor that compiles
// a response stream into an answer, chat filters, and JSON structure
// extraction from compiled text.
package chat

import (
	"context"

	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
)

// AgentSession is one conversation with an agent network, local or
// remote. Implementations are not safe for concurrent turns on the same
// session.
type AgentSession interface {
	// Function returns the network's top-level function block: the
	// front man's description and parameter schema.
	Function(ctx context.Context) (map[string]any, error)

	// Connectivity returns the network's node graph for display.
	Connectivity(ctx context.Context) ([]network.ConnectivityEntry, error)

	// StreamingChat runs one turn. The channel closes when the turn is
	// over; the terminal message has type AGENT_FRAMEWORK.
	StreamingChat(ctx context.Context, req *message.ChatRequest) (<-chan *message.ChatResponse, error)

	// Close releases any transport resources behind the session.
	Close() error
}

// SessionFactory builds sessions from agent references. The metadata is
// the calling request's metadata; transports may forward parts of it.
type SessionFactory interface {
	CreateSession(agentURL string, metadata map[string]any) (AgentSession, error)
}

// Allowed reports whether a journaled message passes the chat filter.
// MINIMAL keeps only the terminal framework message of the turn;
// MAXIMAL passes everything in journal order.
func Allowed(filter message.ChatFilterType, m *message.Message) bool {
	if m == nil {
		return false
	}
	if filter == message.FilterMaximal {
		return true
	}
	return m.Type == message.TypeAgentFramework
}
