//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package run

import (
	"context"
	"errors"
	"sync"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-agentnet-go/chat"
	"trpc.group/trpc-go/trpc-agentnet-go/codetool"
	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/journal"
	"trpc.group/trpc-go/trpc-agentnet-go/llm"
	"trpc.group/trpc-go/trpc-agentnet-go/toolbox"
)

// defaultPoolSize bounds the workers dispatching synchronous coded
// tools for one request.
const defaultPoolSize = 16

// LlmFactory builds model resources from an effective llm config.
type LlmFactory func(cfg llm.Config) (*llm.Resources, error)

// InvocationContext carries the per-request machinery every activation
// shares: metadata, the root journal, the origination counter, the
// executor pool and the factories for models, tools and sessions. One
// instance lives exactly as long as its request.
type InvocationContext struct {
	metadata    map[string]any
	rootJournal journal.Journal
	origination *journal.Origination
	pool        *ants.Pool

	llmFactory LlmFactory
	toolbox    *toolbox.Registry
	coded      *codetool.Registry
	sessions   chat.SessionFactory

	mu       sync.Mutex
	contexts []*RunContext
	closed   bool
}

// Option configures an InvocationContext.
type Option func(*InvocationContext)

// WithMetadata sets the request metadata (request_id, user_id and
// whatever else the transport forwarded).
func WithMetadata(md map[string]any) Option {
	return func(ic *InvocationContext) { ic.metadata = md }
}

// WithPoolSize sets the executor pool size. Zero or negative means
// unbounded.
func WithPoolSize(size int) Option {
	return func(ic *InvocationContext) {
		if p, err := ants.NewPool(size); err == nil {
			old := ic.pool
			ic.pool = p
			if old != nil {
				old.Release()
			}
		}
	}
}

// WithLlmFactory replaces the model factory, mainly for tests.
func WithLlmFactory(f LlmFactory) Option {
	return func(ic *InvocationContext) { ic.llmFactory = f }
}

// WithToolbox sets the shared-tool registry activations resolve
// toolbox references against.
func WithToolbox(r *toolbox.Registry) Option {
	return func(ic *InvocationContext) { ic.toolbox = r }
}

// WithCodedRegistry sets the coded-tool registry. Defaults to the
// process-wide registry.
func WithCodedRegistry(r *codetool.Registry) Option {
	return func(ic *InvocationContext) { ic.coded = r }
}

// WithSessionFactory sets the factory external-agent activations open
// sessions through.
func WithSessionFactory(f chat.SessionFactory) Option {
	return func(ic *InvocationContext) { ic.sessions = f }
}

// NewInvocationContext builds the per-request context around the given
// root journal.
func NewInvocationContext(root journal.Journal, opts ...Option) (*InvocationContext, error) {
	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, err
	}
	ic := &InvocationContext{
		rootJournal: root,
		origination: journal.NewOrigination(),
		pool:        pool,
		llmFactory:  llm.NewResources,
		coded:       codetool.Default(),
	}
	for _, opt := range opts {
		opt(ic)
	}
	return ic, nil
}

// Metadata returns the request metadata. Callers must not mutate it.
func (ic *InvocationContext) Metadata() map[string]any {
	return ic.metadata
}

// RequestID returns the request_id metadata entry, or "".
func (ic *InvocationContext) RequestID() string {
	id, _ := ic.metadata["request_id"].(string)
	return id
}

// Journal returns the request's root journal.
func (ic *InvocationContext) Journal() journal.Journal {
	return ic.rootJournal
}

// Origination returns the request's instantiation counter.
func (ic *InvocationContext) Origination() *journal.Origination {
	return ic.origination
}

// RunSync dispatches a blocking function to the executor pool and waits
// for it, honoring context cancellation. The function keeps running to
// completion on the pool even when the wait is abandoned.
func (ic *InvocationContext) RunSync(ctx context.Context, fn func() (any, error)) (any, error) {
	type result struct {
		out any
		err error
	}
	ch := make(chan result, 1)
	if err := ic.pool.Submit(func() {
		out, err := fn()
		ch <- result{out: out, err: err}
	}); err != nil {
		return nil, errs.Wrap(errs.KindTool, err, "dispatch to executor pool")
	}
	select {
	case r := <-ch:
		return r.out, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// register tracks a RunContext for teardown at request end.
func (ic *InvocationContext) register(rc *RunContext) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.contexts = append(ic.contexts, rc)
}

// Close releases every RunContext created under this request and the
// executor pool. Safe to call more than once.
func (ic *InvocationContext) Close(ctx context.Context) error {
	ic.mu.Lock()
	if ic.closed {
		ic.mu.Unlock()
		return nil
	}
	ic.closed = true
	contexts := ic.contexts
	ic.contexts = nil
	ic.mu.Unlock()

	var errList []error
	for i := len(contexts) - 1; i >= 0; i-- {
		if err := contexts[i].DeleteResources(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	ic.pool.Release()
	return errors.Join(errList...)
}
