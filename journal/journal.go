//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package journal carries run messages from activations to the response
// stream. Journals compose: every activation writes through an
// OriginatingJournal stamped with its origin, captures layer in through
// InterceptingJournal, and the root of a request is a ChannelJournal
// the server drains.
package journal

import (
	"context"
	"sync"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
)

// Journal is the append-only sink run messages flow through.
type Journal interface {
	WriteMessage(ctx context.Context, msg *message.Message, origin message.Origin) error
}

// Discard drops every message. Validation paths use it when no client
// is listening.
var Discard Journal = discard{}

type discard struct{}

func (discard) WriteMessage(context.Context, *message.Message, message.Origin) error {
	return nil
}

// ChannelJournal is the root sink of a request: stamped messages land
// on a bounded channel the response stream drains. Writers block when
// the consumer falls behind, which is the backpressure.
type ChannelJournal struct {
	ch   chan *message.Message
	done chan struct{}
	once sync.Once
}

// NewChannelJournal returns a root journal with the given buffer size.
func NewChannelJournal(buffer int) *ChannelJournal {
	return &ChannelJournal{
		ch:   make(chan *message.Message, buffer),
		done: make(chan struct{}),
	}
}

// WriteMessage stamps the message with its origin and queues it for the
// consumer. Writes after Close or past a cancelled context fail.
func (j *ChannelJournal) WriteMessage(ctx context.Context, msg *message.Message, origin message.Origin) error {
	stamped := msg.WithOrigin(origin)
	select {
	case <-j.done:
		return errs.Cancelled("journal is closed")
	default:
	}
	select {
	case j.ch <- stamped:
		return nil
	case <-j.done:
		return errs.Cancelled("journal is closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages returns the consumer side of the journal.
func (j *ChannelJournal) Messages() <-chan *message.Message {
	return j.ch
}

// Close releases blocked writers. Safe to call more than once.
func (j *ChannelJournal) Close() {
	j.once.Do(func() { close(j.done) })
}

// OriginatingJournal stamps outgoing messages with its activation's
// origin, appends them to the in-memory trail, and forwards downstream.
type OriginatingJournal struct {
	wrapped Journal
	origin  message.Origin

	mu      sync.Mutex
	history []*message.Message
}

// NewOriginatingJournal wraps a downstream journal for one activation.
func NewOriginatingJournal(wrapped Journal, origin message.Origin) *OriginatingJournal {
	return &OriginatingJournal{wrapped: wrapped, origin: origin}
}

// Origin returns the origin this journal stamps.
func (j *OriginatingJournal) Origin() message.Origin {
	return j.origin
}

// Write records a message under the journal's own origin.
func (j *OriginatingJournal) Write(ctx context.Context, msg *message.Message) error {
	return j.WriteMessage(ctx, msg, j.origin)
}

// WriteMessage implements Journal. The stamped copy is what lands in
// the trail, so later stamps never mutate recorded history.
func (j *OriginatingJournal) WriteMessage(ctx context.Context, msg *message.Message, origin message.Origin) error {
	stamped := msg.WithOrigin(origin)
	j.mu.Lock()
	j.history = append(j.history, stamped)
	j.mu.Unlock()
	return j.wrapped.WriteMessage(ctx, stamped, origin)
}

// History returns a copy of the messages written so far.
func (j *OriginatingJournal) History() []*message.Message {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*message.Message, len(j.history))
	copy(out, j.history)
	return out
}

// Preload seeds the trail with messages from an earlier turn without
// forwarding them downstream. Used to resume a conversation from a
// chat context.
func (j *OriginatingJournal) Preload(msgs []*message.Message) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, m := range msgs {
		if m != nil {
			j.history = append(j.history, m.Clone())
		}
	}
}

// InterceptingJournal forwards every message to the wrapped journal and
// keeps a copy of those whose origin equals the target. It reconstructs
// one sub-graph's trace without disturbing the main stream.
type InterceptingJournal struct {
	wrapped Journal
	target  message.Origin

	mu       sync.Mutex
	captured []*message.Message
}

// NewInterceptingJournal wraps a journal, capturing the target origin.
func NewInterceptingJournal(wrapped Journal, target message.Origin) *InterceptingJournal {
	return &InterceptingJournal{wrapped: wrapped, target: target}
}

// WriteMessage implements Journal. The wrapped journal always sees the
// message first; capture only happens on origin equality.
func (j *InterceptingJournal) WriteMessage(ctx context.Context, msg *message.Message, origin message.Origin) error {
	if err := j.wrapped.WriteMessage(ctx, msg, origin); err != nil {
		return err
	}
	if origin.Equal(j.target) {
		j.mu.Lock()
		j.captured = append(j.captured, msg)
		j.mu.Unlock()
	}
	return nil
}

// Captured returns a copy of the intercepted messages.
func (j *InterceptingJournal) Captured() []*message.Message {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*message.Message, len(j.captured))
	copy(out, j.captured)
	return out
}
