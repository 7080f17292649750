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
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-agentnet-go/journal"
	"trpc.group/trpc-go/trpc-agentnet-go/llm"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
)

// State tracks where one turn is within its lifecycle.
type State int

const (
	// StateIdle is a freshly created context, nothing submitted.
	StateIdle State = iota
	// StatePromptReady means the user message has been submitted.
	StatePromptReady
	// StateInvoking means a model call is in flight.
	StateInvoking
	// StateToolCallsPending means the model asked for tool calls.
	StateToolCallsPending
	// StateToolRunning means tool activations are executing.
	StateToolRunning
	// StateFinal is terminal success: the answer is journaled.
	StateFinal
	// StateFailed is terminal failure with a propagating error.
	StateFailed
	// StateCancelled is terminal on umbrella timeout or disconnect.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePromptReady:
		return "prompt_ready"
	case StateInvoking:
		return "invoking"
	case StateToolCallsPending:
		return "tool_calls_pending"
	case StateToolRunning:
		return "tool_running"
	case StateFinal:
		return "final"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RunContext owns everything one activation accumulates while it runs:
// its origin, its journal with chat history, its sly data view, its
// model resources and the running conversation. The chat history is
// single-writer; sibling activations never share a RunContext.
type RunContext struct {
	invocation *InvocationContext
	net        *network.Network
	spec       *network.AgentSpec
	origin     message.Origin
	runID      string
	journal    *journal.OriginatingJournal
	intercept  *journal.InterceptingJournal

	mu      sync.Mutex
	state   State
	sly     map[string]any
	ownsSly bool

	resources    []*llm.Resources
	conversation []llm.Message
	tokens       map[string]any
	started      time.Time
	created      bool
}

// newRunContext creates the context for one activation. The origin is
// assigned here, through the invocation's origination counter, so the
// k-th call of the same tool under the same parent gets index k. When
// the request's chat context carries a history for that origin, it is
// preloaded before the first turn.
func newRunContext(inv *InvocationContext, net *network.Network, spec *network.AgentSpec,
	parent message.Origin, name string, sly map[string]any, ownsSly bool,
	cc *message.ChatContext) *RunContext {

	origin := inv.Origination().NextOrigin(parent, name)
	intercept := journal.NewInterceptingJournal(inv.Journal(), origin)
	j := journal.NewOriginatingJournal(intercept, origin)
	if history := cc.HistoryFor(origin); history != nil {
		j.Preload(history.Messages)
	}

	rc := &RunContext{
		invocation: inv,
		net:        net,
		spec:       spec,
		origin:     origin,
		runID:      uuid.NewString(),
		journal:    j,
		intercept:  intercept,
		sly:        sly,
		ownsSly:    ownsSly,
		tokens:     map[string]any{},
		started:    time.Now(),
	}
	inv.register(rc)
	return rc
}

// Origin returns the context's full path from the front man.
func (rc *RunContext) Origin() message.Origin {
	return rc.origin
}

// RunID returns the identifier correlating every model invocation made
// under this context. Assigned once at construction.
func (rc *RunContext) RunID() string {
	return rc.runID
}

// Journal returns the context's originating journal.
func (rc *RunContext) Journal() *journal.OriginatingJournal {
	return rc.journal
}

// Network returns the network this context runs in.
func (rc *RunContext) Network() *network.Network {
	return rc.net
}

// Spec returns the agent spec behind this context, nil for external
// references.
func (rc *RunContext) Spec() *network.AgentSpec {
	return rc.spec
}

// State returns the turn's current state.
func (rc *RunContext) State() State {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.state
}

// setState moves the turn along. Terminal states stick.
func (rc *RunContext) setState(s State) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	switch rc.state {
	case StateFinal, StateFailed, StateCancelled:
		return
	}
	rc.state = s
}

// SlyData returns the context's sly data view. The map is shared with
// the caller unless a redaction policy forced a private copy.
func (rc *RunContext) SlyData() map[string]any {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.sly
}

// OwnsSlyData reports whether the context works on a private sly map
// whose content must merge back to the caller after the run.
func (rc *RunContext) OwnsSlyData() bool {
	return rc.ownsSly
}

// MergeSlyData folds a child's returned sly data into this context,
// last writer wins per key. Serializing here keeps concurrent sibling
// results from racing on the shared map.
func (rc *RunContext) MergeSlyData(returned map[string]any) {
	if len(returned) == 0 {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.sly == nil {
		rc.sly = make(map[string]any, len(returned))
	}
	for k, v := range returned {
		rc.sly[k] = v
	}
}

// ReplaceSlyData swaps the context's private sly map, used by external
// activations whose returned data supersedes what was sent.
func (rc *RunContext) ReplaceSlyData(sly map[string]any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.sly = sly
}

// Write journals a message under the context's own origin.
func (rc *RunContext) Write(ctx context.Context, msg *message.Message) error {
	return rc.journal.Write(ctx, msg)
}

// CreateResources builds the model resources for the effective llm
// config: one Resources per fallback candidate, primary first. Calling
// it again is a no-op, so retries never leak clients.
func (rc *RunContext) CreateResources(ctx context.Context, cfg llm.Config) error {
	if rc.created {
		return nil
	}
	for _, candidate := range cfg.Fallbacks() {
		res, err := rc.invocation.llmFactory(candidate)
		if err != nil {
			return err
		}
		rc.resources = append(rc.resources, res)
	}
	rc.created = true
	return nil
}

// Resources returns the primary model resources, nil before
// CreateResources or for non-LLM activations.
func (rc *RunContext) Resources() *llm.Resources {
	if len(rc.resources) == 0 {
		return nil
	}
	return rc.resources[0]
}

// candidates returns the model resources in fallback order.
func (rc *RunContext) candidates() []*llm.Resources {
	return rc.resources
}

// SubmitMessage appends a turn to the provider conversation. A user
// message moves an idle turn to prompt-ready.
func (rc *RunContext) SubmitMessage(msg llm.Message) {
	rc.conversation = append(rc.conversation, msg)
	if msg.Role == llm.RoleUser {
		rc.setState(StatePromptReady)
	}
}

// Conversation returns the provider conversation so far.
func (rc *RunContext) Conversation() []llm.Message {
	return rc.conversation
}

// recordUsage folds one model call's token usage into the context's
// accounting.
func (rc *RunContext) recordUsage(info llm.Info, usage llm.Usage) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.tokens = MergeDicts(rc.tokens, usageDict(info, usage))
}

// TokenAccounting returns the per-provider token dictionary
// accumulated so far.
func (rc *RunContext) TokenAccounting() map[string]any {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.tokens
}

// journalTokenAccounting writes the turn's token totals as a trace
// message. Nothing is written when no model was ever invoked.
func (rc *RunContext) journalTokenAccounting(ctx context.Context) {
	rc.mu.Lock()
	empty := len(rc.tokens) == 0
	sums := SumAllTokens(rc.tokens, time.Since(rc.started).Seconds())
	rc.mu.Unlock()
	if empty {
		return
	}
	_ = rc.Write(ctx, message.NewAgent("", map[string]any{"token_accounting": sums}))
}

// DeleteResources releases every model client the context created.
func (rc *RunContext) DeleteResources(ctx context.Context) error {
	var errList []error
	for _, res := range rc.resources {
		if err := res.DeleteResources(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	rc.resources = nil
	rc.created = false
	return errors.Join(errList...)
}
