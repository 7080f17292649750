//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package chat

import (
	"context"

	"trpc.group/trpc-go/trpc-agentnet-go/message"
)

// Handler observes each message of a response stream. Handlers run
// before the processor updates its own compiled state, in registration
// order.
type Handler interface {
	ProcessMessage(ctx context.Context, m *message.Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, m *message.Message) error

// ProcessMessage implements Handler.
func (f HandlerFunc) ProcessMessage(ctx context.Context, m *message.Message) error {
	return f(ctx, m)
}

// Processor folds a response stream into the pieces a caller keeps
// after the turn: the compiled answer, its parsed structure, the chat
// context to send next turn, and any sly data returned upstream.
//
// Feed it every message of one turn via Process. It is not safe for
// concurrent use.
type Processor struct {
	handlers []Handler

	answer      string
	fallback    string
	structure   map[string]any
	slyData     map[string]any
	chatContext *message.ChatContext
}

// NewProcessor returns a Processor that runs the given handlers on each
// message before compiling.
func NewProcessor(handlers ...Handler) *Processor {
	return &Processor{handlers: handlers}
}

// Process consumes one message of the stream. A handler error stops
// processing of that message and is returned; the compiled state keeps
// whatever it had.
func (p *Processor) Process(ctx context.Context, m *message.Message) error {
	if m == nil {
		return nil
	}
	for _, h := range p.handlers {
		if err := h.ProcessMessage(ctx, m); err != nil {
			return err
		}
	}
	if m.ChatContext != nil && !m.ChatContext.Empty() {
		p.chatContext = m.ChatContext
	}
	if len(m.SlyData) > 0 {
		p.slyData = m.SlyData
	}
	switch m.Type {
	case message.TypeAgentFramework:
		if m.Text != "" {
			p.answer = m.Text
			p.structure = m.Structure
		} else if m.Structure != nil {
			p.structure = m.Structure
		}
	case message.TypeAI:
		// Some servers never send a framework message. Remember the
		// last assistant text as a fallback answer.
		if m.Text != "" {
			p.fallback = m.Text
		}
	}
	return nil
}

// CompiledAnswer returns the turn's answer: the last non-empty
// framework text, or the last assistant text when no framework message
// carried one.
func (p *Processor) CompiledAnswer() string {
	if p.answer != "" {
		return p.answer
	}
	return p.fallback
}

// Structure returns the parsed JSON structure attached to the answer,
// or nil when the answer carried none.
func (p *Processor) Structure() map[string]any {
	return p.structure
}

// ChatContext returns the most recent non-empty chat context seen, for
// continuing the conversation next turn. Nil when the stream carried
// none.
func (p *Processor) ChatContext() *message.ChatContext {
	return p.chatContext
}

// SlyData returns the sly data the network sent back upstream, or nil.
func (p *Processor) SlyData() map[string]any {
	return p.slyData
}
