//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package run executes chat turns over loaded agent networks. A Runner
// drives one request: it builds the activation tree rooted at the front
// man, runs each LLM, coded-tool, toolbox and external hop, journals
// every message the tree produces and compiles the terminal response.
package run

import (
	"context"
	"regexp"

	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
	"trpc.group/trpc-go/trpc-agentnet-go/slydata"
)

// Activation is one callable node of the activation tree. Activations
// are built lazily and are single-use: one instance per tool call.
type Activation interface {
	// Name is the tool name the caller used to reach this node.
	Name() string
	// Origin is the node's full path from the front man, assigned at
	// construction.
	Origin() message.Origin
	// Build runs the activation to completion and returns its output
	// for the caller's chain. Failures that a chain can continue past
	// come back as string output, not as errors.
	Build(ctx context.Context) (*BuildResult, error)
	// DeleteResources releases model clients, sessions and children.
	DeleteResources(ctx context.Context) error
}

// BuildResult is what an activation hands back to its caller.
type BuildResult struct {
	// Output is the textual result submitted to the calling chain.
	Output string
	// SlyData is non-nil when the activation worked on its own sly map
	// rather than the caller's shared instance; the caller merges it.
	SlyData map[string]any
}

// downstreamSly applies the caller's to_downstream policy to the sly
// data handed to a child. With no policy configured the child shares
// the caller's map instance; a configured policy yields a filtered
// copy the child owns, and its final content merges back after the
// call.
func downstreamSly(callerSpec *network.AgentSpec, callerSly map[string]any) (map[string]any, bool) {
	if callerSpec == nil || !hasSlyPolicy(callerSpec, "allow.to_downstream.sly_data", "allow.sly_data") {
		return callerSly, false
	}
	r := slydata.NewRedactor(callerSpec.Raw, "allow.to_downstream.sly_data", "allow.sly_data")
	return r.Filter(callerSly), true
}

// upstreamSly applies an agent's to_upstream policy to the sly data it
// returns to its caller.
func upstreamSly(spec *network.AgentSpec, sly map[string]any) map[string]any {
	if spec == nil {
		return nil
	}
	r := slydata.NewRedactor(spec.Raw, "allow.to_upstream.sly_data", "allow.sly_data")
	return r.Filter(sly)
}

// fromDownstreamSly applies the caller's from_downstream policy to sly
// data an external agent sent back.
func fromDownstreamSly(callerSpec *network.AgentSpec, returned map[string]any) map[string]any {
	if callerSpec == nil {
		return nil
	}
	subtree, _ := confmap.Dig(callerSpec.Raw, "allow.from_downstream")
	policy, _ := subtree.(map[string]any)
	r := slydata.NewRedactor(policy, "sly_data")
	return r.Filter(returned)
}

func hasSlyPolicy(spec *network.AgentSpec, keys ...string) bool {
	for _, key := range keys {
		if _, ok := confmap.Dig(spec.Raw, key); ok {
			return true
		}
	}
	return false
}

var toolNameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// sanitizeToolName maps an agent reference to a name providers accept
// as a function name. External references keep enough of their shape
// to stay distinguishable: "/hr/benefits" becomes "_hr_benefits".
func sanitizeToolName(ref string) string {
	return toolNameSanitizer.ReplaceAllString(ref, "_")
}
