//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package network holds the immutable in-memory form of one agent
// network: the parsed specs, the resolved front man and the connectivity
// view served to clients. Networks are built once at load time and never
// mutated; a manifest reload installs fresh instances.
package network

import (
	"fmt"
	"sort"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
)

// Network is one loaded agent network.
type Network struct {
	name       string
	config     map[string]any
	agents     map[string]*AgentSpec
	agentOrder []string
	frontMan   string

	defaultLlmConfig map[string]any
	metadata         map[string]any
}

// New builds a Network from a parsed config tree. commondefs replacement
// values are expanded before specs are decoded. Spec-level problems that
// the validators report (missing nodes, ambiguous front man) do not fail
// construction; undecodable entries do.
func New(name string, config map[string]any) (*Network, error) {
	cfg := confmap.ApplyReplacements(config)

	n := &Network{
		name:             name,
		config:           cfg,
		agents:           make(map[string]*AgentSpec),
		defaultLlmConfig: confmap.GetMap(cfg, "llm_config"),
		metadata:         confmap.GetMap(cfg, "metadata"),
	}

	for i, entry := range confmap.GetSlice(cfg, "tools") {
		raw, ok := entry.(map[string]any)
		if !ok {
			return nil, errs.Config("network %q: tools[%d] is not an object", name, i)
		}
		spec, err := DecodeAgentSpec(raw)
		if err != nil {
			return nil, errs.Wrap(errs.KindConfig, err, "network %q: tools[%d]", name, i)
		}
		if spec.Name == "" {
			return nil, errs.Config("network %q: tools[%d] has no name", name, i)
		}
		if _, seen := n.agents[spec.Name]; !seen {
			n.agentOrder = append(n.agentOrder, spec.Name)
		}
		n.agents[spec.Name] = spec
	}

	if men := n.FrontMen(); len(men) == 1 {
		n.frontMan = men[0]
	}
	return n, nil
}

// Name returns the logical network name the manifest registered.
func (n *Network) Name() string { return n.name }

// Config returns the post-replacement config tree. Callers must treat it
// as read-only.
func (n *Network) Config() map[string]any { return n.config }

// Agent returns the spec for a declared agent name.
func (n *Network) Agent(name string) (*AgentSpec, bool) {
	spec, ok := n.agents[name]
	return spec, ok
}

// AgentNames returns declared agent names in file order.
func (n *Network) AgentNames() []string {
	out := make([]string, len(n.agentOrder))
	copy(out, n.agentOrder)
	return out
}

// Empty reports whether the network declares no agents at all.
func (n *Network) Empty() bool { return len(n.agents) == 0 }

// DefaultLlmConfig returns the network-wide llm_config block, overlaid
// by each agent's own block at activation time.
func (n *Network) DefaultLlmConfig() map[string]any { return n.defaultLlmConfig }

// Metadata returns the opaque metadata block of the network file.
func (n *Network) Metadata() map[string]any { return n.metadata }

// FrontMen computes the candidate entry points: agents that reference
// downstream tools while not being referenced by anyone themselves.
// Results come back in declaration order.
func (n *Network) FrontMen() []string {
	isDownstream := make(map[string]bool)
	for _, name := range n.agentOrder {
		for _, ref := range n.agents[name].Tools {
			isDownstream[ref] = true
		}
	}
	var men []string
	for _, name := range n.agentOrder {
		if len(n.agents[name].Tools) == 0 {
			continue
		}
		if !isDownstream[name] {
			men = append(men, name)
		}
	}
	return men
}

// FrontMan returns the unique entry-point agent.
func (n *Network) FrontMan() (string, error) {
	if n.frontMan != "" {
		return n.frontMan, nil
	}
	men := n.FrontMen()
	if len(men) == 0 {
		return "", errs.Validation("network %q has no front man", n.name)
	}
	sort.Strings(men)
	return "", errs.Validation("network %q has multiple front men: %v", n.name, men)
}

// ConnectivityEntry describes one node of the network for clients that
// render the graph.
type ConnectivityEntry struct {
	Origin    string   `json:"origin"`
	Tools     []string `json:"tools"`
	DisplayAs string   `json:"display_as"`
}

// Connectivity walks the network breadth-first from the front man and
// reports every declared agent once, front man first. Agents unreachable
// from the front man trail in declaration order. External references
// appear in their referrer's tools but get no entry of their own.
func (n *Network) Connectivity() []ConnectivityEntry {
	var order []string
	seen := make(map[string]bool)

	if n.frontMan != "" {
		queue := []string{n.frontMan}
		seen[n.frontMan] = true
		for len(queue) > 0 {
			name := queue[0]
			queue = queue[1:]
			order = append(order, name)
			for _, ref := range n.agents[name].Tools {
				if seen[ref] {
					continue
				}
				if _, declared := n.agents[ref]; !declared {
					continue
				}
				seen[ref] = true
				queue = append(queue, ref)
			}
		}
	}
	for _, name := range n.agentOrder {
		if !seen[name] {
			order = append(order, name)
		}
	}

	entries := make([]ConnectivityEntry, 0, len(order))
	for _, name := range order {
		spec := n.agents[name]
		tools := spec.Tools
		if tools == nil {
			tools = []string{}
		}
		entries = append(entries, ConnectivityEntry{
			Origin:    name,
			Tools:     tools,
			DisplayAs: spec.DisplayAs(),
		})
	}
	return entries
}

// String implements fmt.Stringer for log lines.
func (n *Network) String() string {
	return fmt.Sprintf("network %q (%d agents)", n.name, len(n.agents))
}
