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
	"fmt"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
	"trpc.group/trpc-go/trpc-agentnet-go/llm"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
)

// Factory builds activations for one request over one network. It
// carries the invocation context and the request's chat context so
// every node it creates rehydrates from the same histories.
type Factory struct {
	inv *InvocationContext
	net *network.Network
	cc  *message.ChatContext
}

// NewFactory creates the activation factory for one request.
func NewFactory(inv *InvocationContext, net *network.Network, cc *message.ChatContext) *Factory {
	return &Factory{inv: inv, net: net, cc: cc}
}

// Network returns the network this factory builds over.
func (f *Factory) Network() *network.Network { return f.net }

// NewFrontMan resolves the network's single front man and creates its
// activation with the request's user text and sly data. The sly map is
// the request's own instance; the runner reads the final content back
// off the activation's run context.
func (f *Factory) NewFrontMan(text string, sly map[string]any) (*LlmAgentActivation, error) {
	name, err := f.net.FrontMan()
	if err != nil {
		return nil, err
	}
	spec, ok := f.net.Agent(name)
	if !ok {
		return nil, errs.Validation("front man %q is not defined in network %q", name, f.net.Name())
	}
	return newLlmAgentActivation(f, nil, spec, nil, text, sly, false), nil
}

// toolEntry pairs one tool definition sent to the model with the
// constructor invoked when the model calls it. Constructors run
// sequentially in tool-call order so instantiation indices stay
// deterministic; the built activations may then run concurrently.
type toolEntry struct {
	def    llm.ToolDef
	create func(ctx context.Context, args map[string]any) (Activation, error)
}

// toolEntries builds the callable surface one agent exposes to its
// model: one entry per reference in its tools list, in declaration
// order.
func (f *Factory) toolEntries(ctx context.Context, caller *RunContext) ([]toolEntry, error) {
	spec := caller.Spec()
	entries := make([]toolEntry, 0, len(spec.Tools))
	for _, ref := range spec.Tools {
		if network.IsExternalRef(ref) {
			entries = append(entries, f.externalEntry(ctx, caller, ref))
			continue
		}
		child, ok := f.net.Agent(ref)
		if !ok {
			return nil, errs.Validation("agent %q references unknown tool %q", spec.Name, ref)
		}
		switch child.Kind() {
		case network.KindCodedTool:
			entries = append(entries, f.codedEntry(caller, child))
		case network.KindToolbox:
			entry, err := f.toolboxEntry(caller, child)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		default:
			entries = append(entries, f.agentEntry(caller, child))
		}
	}
	return entries, nil
}

func (f *Factory) agentEntry(caller *RunContext, child *network.AgentSpec) toolEntry {
	return toolEntry{
		def: toolDef(child.Name, child.FunctionDescription(), child.FunctionParameters()),
		create: func(_ context.Context, args map[string]any) (Activation, error) {
			sly, own := downstreamSly(caller.Spec(), caller.SlyData())
			return newLlmAgentActivation(f, caller.Origin(), child, args, "", sly, own), nil
		},
	}
}

func (f *Factory) codedEntry(caller *RunContext, child *network.AgentSpec) toolEntry {
	return toolEntry{
		def: toolDef(child.Name, child.FunctionDescription(), child.FunctionParameters()),
		create: func(_ context.Context, args map[string]any) (Activation, error) {
			sly, own := downstreamSly(caller.Spec(), caller.SlyData())
			return newClassToolActivation(f, caller.Origin(), child, args, sly, own), nil
		},
	}
}

func (f *Factory) toolboxEntry(caller *RunContext, child *network.AgentSpec) (toolEntry, error) {
	if f.inv.toolbox == nil {
		return toolEntry{}, errs.Config("agent %q references toolbox tool %q but no toolbox registry is configured",
			caller.Spec().Name, child.Toolbox)
	}
	desc := child.FunctionDescription()
	params := child.FunctionParameters()
	if info, ok := f.inv.toolbox.Info(child.Toolbox); ok {
		if desc == "" {
			desc = info.Description
		}
		if params == nil {
			params = info.Parameters
		}
	}
	return toolEntry{
		def: toolDef(child.Name, desc, params),
		create: func(_ context.Context, args map[string]any) (Activation, error) {
			sly, own := downstreamSly(caller.Spec(), caller.SlyData())
			return newToolboxActivation(f, caller.Origin(), child, args, sly, own), nil
		},
	}, nil
}

func (f *Factory) externalEntry(ctx context.Context, caller *RunContext, ref string) toolEntry {
	name := sanitizeToolName(ref)
	desc, params := f.externalFunction(ctx, ref)
	return toolEntry{
		def: toolDef(name, desc, params),
		create: func(_ context.Context, args map[string]any) (Activation, error) {
			sly, _ := downstreamSly(caller.Spec(), caller.SlyData())
			return newExternalActivation(f, caller, ref, name, args, sly), nil
		},
	}
}

// externalFunction fetches the function block an external agent
// advertises. An agent that cannot be reached at build time still gets
// a tool definition so the chain can form; the fallback takes a single
// free-form inquiry.
func (f *Factory) externalFunction(ctx context.Context, ref string) (string, map[string]any) {
	if f.inv.sessions != nil {
		sess, err := f.inv.sessions.CreateSession(ref, f.inv.Metadata())
		if err == nil {
			fn, ferr := sess.Function(ctx)
			_ = sess.Close()
			if ferr == nil {
				return confmap.GetString(fn, "description", ""), confmap.GetMap(fn, "parameters")
			}
			err = ferr
		}
		log.Warnf("could not fetch function spec from external agent %s: %v", ref, err)
	}
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"inquiry": map[string]any{"type": "string"},
		},
	}
	return fmt.Sprintf("Relays an inquiry to the external agent at %s.", ref), params
}

// toolDef normalizes a tool definition for the provider request. A nil
// parameter schema becomes an empty object schema.
func toolDef(name, description string, parameters map[string]any) llm.ToolDef {
	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return llm.ToolDef{Name: name, Description: description, Parameters: parameters}
}
