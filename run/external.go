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
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-agentnet-go/chat"
	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
	"trpc.group/trpc-go/trpc-agentnet-go/telemetry"
)

// ExternalActivation relays one tool call to an agent living behind a
// URL. The call arguments travel as a JSON block in a human message;
// the response stream is folded with the same processor the server
// side uses. An unreachable peer produces an explanatory answer, not
// an error, so the calling chain can reason about the gap.
type ExternalActivation struct {
	factory *Factory
	caller  *RunContext
	url     string
	name    string
	rc      *RunContext
	args    map[string]any

	mu      sync.Mutex
	session chat.AgentSession
}

func newExternalActivation(f *Factory, caller *RunContext, url, name string,
	args map[string]any, sly map[string]any) *ExternalActivation {

	return &ExternalActivation{
		factory: f,
		caller:  caller,
		url:     url,
		name:    name,
		rc:      newRunContext(f.inv, f.net, nil, caller.Origin(), name, sly, true, f.cc),
		args:    args,
	}
}

// Name implements Activation.
func (a *ExternalActivation) Name() string { return a.name }

// Origin implements Activation.
func (a *ExternalActivation) Origin() message.Origin { return a.rc.Origin() }

// Build opens a session against the external agent, relays the call and
// compiles the streamed response into a single answer.
func (a *ExternalActivation) Build(ctx context.Context) (*BuildResult, error) {
	ctx, span := telemetry.StartActivationSpan(ctx, a.name, a.rc.Origin().String(), true)
	defer span.End()
	started := time.Now()
	defer func() {
		telemetry.RecordOperationDuration(ctx, telemetry.OperationInvokeAgent, time.Since(started).Seconds())
	}()

	encoded, err := json.Marshal(a.args)
	if err != nil {
		encoded = []byte("{}")
	}
	_ = a.rc.Write(ctx, message.NewAgent(fmt.Sprintf("Received arguments %s", encoded), nil))

	answer, reached := a.dispatch(ctx, encoded)
	if !reached {
		a.rc.setState(StateFailed)
		return &BuildResult{Output: answer}, nil
	}

	_ = a.rc.Write(ctx, message.NewAgent(fmt.Sprintf("Got result: %s", answer), nil))
	a.rc.setState(StateFinal)
	return &BuildResult{Output: chatListOutput(answer), SlyData: a.rc.SlyData()}, nil
}

// DeleteResources closes the session left open by Build.
func (a *ExternalActivation) DeleteResources(ctx context.Context) error {
	a.mu.Lock()
	session := a.session
	a.session = nil
	a.mu.Unlock()

	err := a.rc.DeleteResources(ctx)
	if session != nil {
		if cerr := session.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// dispatch performs the streaming chat. The second return is false when
// the peer could not be reached; the answer then explains the gap and
// is deliberately kept out of the journal.
func (a *ExternalActivation) dispatch(ctx context.Context, encodedArgs []byte) (string, bool) {
	factory := a.factory.inv.sessions
	if factory == nil {
		return a.unreachable(fmt.Errorf("no session factory configured")), false
	}
	session, err := factory.CreateSession(a.url, a.factory.inv.Metadata())
	if err != nil {
		return a.unreachable(err), false
	}
	a.mu.Lock()
	a.session = session
	a.mu.Unlock()

	req := &message.ChatRequest{
		UserMessage: message.NewHuman("```json\n" + string(encodedArgs) + "```"),
	}
	if sly := a.rc.SlyData(); len(sly) > 0 {
		req.SlyData = sly
	}

	stream, err := session.StreamingChat(ctx, req)
	if err != nil {
		return a.unreachable(err), false
	}

	var handlers []chat.Handler
	if reportingAllowed(a.caller.Spec(), a.url) {
		handlers = append(handlers, a.forwarder())
	}
	processor := chat.NewProcessor(handlers...)
	for resp := range stream {
		if resp == nil || resp.Response == nil {
			continue
		}
		if err := processor.Process(ctx, resp.Response); err != nil {
			log.Warnf("agent %s dropped a downstream message: %v", a.rc.Origin().String(), err)
		}
	}

	a.rc.ReplaceSlyData(fromDownstreamSly(a.caller.Spec(), processor.SlyData()))
	return processor.CompiledAnswer(), true
}

// forwarder journals the external agent's own traffic under this
// node's origin so the combined trace reads as one tree.
func (a *ExternalActivation) forwarder() chat.Handler {
	return chat.HandlerFunc(func(ctx context.Context, m *message.Message) error {
		if m.Type == message.TypeAgentFramework {
			return nil
		}
		combined := append(append(message.Origin{}, a.rc.Origin()...), m.Origin...)
		return a.factory.inv.Journal().WriteMessage(ctx, m, combined)
	})
}

func (a *ExternalActivation) unreachable(err error) string {
	log.Infof("agent %s could not reach %s: %v", a.rc.Origin().String(), a.url, err)
	return fmt.Sprintf("Agent/tool %s was unreachable. Cannot rely on results from it as a tool.", a.url)
}

// reportingAllowed decides whether the external agent's own messages
// are forwarded into this request's journal. The policy lives under the
// caller's allow.from_downstream block; "messages" overrides
// "reporting" when both are present.
func reportingAllowed(callerSpec *network.AgentSpec, url string) bool {
	if callerSpec == nil {
		return false
	}
	subtree, ok := confmap.Dig(callerSpec.Raw, "allow.from_downstream")
	if !ok {
		return false
	}
	policy, ok := subtree.(map[string]any)
	if !ok {
		return false
	}
	allowed := false
	for _, key := range []string{"reporting", "messages"} {
		v, present := policy[key]
		if !present {
			continue
		}
		allowed = policyAllowsURL(v, url)
	}
	return allowed
}

func policyAllowsURL(v any, url string) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == url
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == url {
				return true
			}
		}
	case map[string]any:
		return confmap.Truthy(t[url])
	}
	return false
}
