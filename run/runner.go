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

	"trpc.group/trpc-go/trpc-agentnet-go/chat"
	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/journal"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
	"trpc.group/trpc-go/trpc-agentnet-go/telemetry"
)

// journalBuffer sizes the channel between the activation tree and the
// response stream. Writers block once the reader falls this far behind.
const journalBuffer = 256

// Runner serves chat turns over one loaded network. It is stateless
// across requests; per-request machinery lives in the invocation
// context each StreamingChat call creates.
type Runner struct {
	net  *network.Network
	opts []Option
}

// NewRunner creates a runner for the given network. The options are
// applied to every request's invocation context.
func NewRunner(net *network.Network, opts ...Option) *Runner {
	return &Runner{net: net, opts: opts}
}

// Network returns the network this runner serves.
func (r *Runner) Network() *network.Network { return r.net }

// Function returns the function block the network's front man exposes
// to callers.
func (r *Runner) Function() (map[string]any, error) {
	name, err := r.net.FrontMan()
	if err != nil {
		return nil, err
	}
	spec, ok := r.net.Agent(name)
	if !ok {
		return nil, errs.Validation("front man %q is not defined in network %q", name, r.net.Name())
	}
	return spec.Function, nil
}

// Connectivity reports the network's reachable tool graph.
func (r *Runner) Connectivity() []network.ConnectivityEntry {
	return r.net.Connectivity()
}

// StreamingChat runs one chat turn and streams back the journaled
// messages the request's filter admits. The returned channel closes
// after the terminal framework message. Request-level failures before
// the tree starts come back as an error; failures inside the tree
// travel in the framework message so clients always get guidance.
func (r *Runner) StreamingChat(ctx context.Context, req *message.ChatRequest) (<-chan *message.ChatResponse, error) {
	root := journal.NewChannelJournal(journalBuffer)
	inv, err := NewInvocationContext(root, r.opts...)
	if err != nil {
		return nil, err
	}
	factory := NewFactory(inv, r.net, req.ChatContext)
	front, err := factory.NewFrontMan(req.Text(), req.SlyData)
	if err != nil {
		root.Close()
		_ = inv.Close(context.Background())
		return nil, err
	}
	log.Debugf("network %s handling chat request %s", r.net.Name(), inv.RequestID())

	go r.drive(ctx, front, root, inv)

	filter := req.FilterType()
	out := make(chan *message.ChatResponse, journalBuffer)
	go func() {
		defer close(out)
		for msg := range root.Messages() {
			if !chat.Allowed(filter, msg) {
				continue
			}
			out <- &message.ChatResponse{Response: msg}
		}
	}()
	return out, nil
}

// drive builds the front man and publishes the terminal framework
// message carrying the compiled answer, parsed structure, returned sly
// data and the chat context for the next turn.
func (r *Runner) drive(ctx context.Context, front *LlmAgentActivation,
	root *journal.ChannelJournal, inv *InvocationContext) {

	// The turn-level span carries the request metadata and deployment
	// attributes; activation spans nest under it.
	ctx, span := telemetry.StartActivationSpan(ctx, r.net.Name(), r.net.Name(), true)
	span.SetAttributes(telemetry.TracingAttributes(inv.Metadata())...)
	defer span.End()

	framework := r.compile(ctx, front)
	// Teardown happens before the terminal message: once the stream
	// closes, every session and model client of the request is released.
	// The activation cascade closes external sessions; the invocation
	// sweep catches contexts the tree never adopted.
	if err := front.DeleteResources(context.Background()); err != nil {
		log.Warnf("network %s activation teardown: %v", r.net.Name(), err)
	}
	if err := inv.Close(context.Background()); err != nil {
		log.Warnf("network %s resource teardown: %v", r.net.Name(), err)
	}
	// The terminal message must outlive the request context: a timed-out
	// turn still owes the client its framework message.
	if err := root.WriteMessage(context.Background(), framework, front.Origin()); err != nil {
		log.Warnf("network %s could not deliver the terminal message: %v", r.net.Name(), err)
	}
	root.Close()
}

func (r *Runner) compile(ctx context.Context, front *LlmAgentActivation) *message.Message {
	res, err := front.Build(ctx)
	if err != nil {
		// Credential guidance and cancellation both surface here; the
		// text travels to the client instead of a bare status code.
		log.Errorf("network %s chat turn failed: %v", r.net.Name(), err)
		return message.NewFramework(err.Error(), nil, nil, nil)
	}

	answer := toolAnswer(res.Output)
	structure, remainder := chat.ExtractStructure(answer)
	text := answer
	if structure != nil {
		text = remainder
	}

	var slyOut map[string]any
	if returned := upstreamSly(front.spec, front.rc.SlyData()); len(returned) > 0 {
		slyOut = returned
	}

	cc := &message.ChatContext{}
	cc.Upsert(front.Origin(), front.rc.Journal().History())
	return message.NewFramework(text, structure, slyOut, cc)
}
