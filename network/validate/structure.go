//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package validate

import (
	"fmt"
	"regexp"

	"trpc.group/trpc-go/trpc-agentnet-go/network"
)

// KeywordValidator checks required keywords of each agent spec. An LLM
// agent may omit optional keys, but instructions that are present and
// blank are always a mistake.
type KeywordValidator struct{}

// Validate implements Validator.
func (KeywordValidator) Validate(n *network.Network) []string {
	var errors []string
	for _, name := range n.AgentNames() {
		spec, _ := n.Agent(name)
		if spec.HasEmptyInstructions() {
			errors = append(errors, fmt.Sprintf("%s 'instructions' cannot be empty.", name))
		}
	}
	return errors
}

// MissingNodesValidator checks that every in-network tool reference
// names a declared agent. External references are resolved at call time
// and are not expected to be nodes.
type MissingNodesValidator struct{}

// Validate implements Validator.
func (MissingNodesValidator) Validate(n *network.Network) []string {
	var errors []string
	for _, name := range n.AgentNames() {
		spec, _ := n.Agent(name)
		var missing []string
		for _, ref := range spec.Tools {
			if network.IsExternalRef(ref) {
				continue
			}
			if _, ok := n.Agent(ref); !ok {
				missing = append(missing, ref)
			}
		}
		if len(missing) > 0 {
			errors = append(errors, fmt.Sprintf(
				"Agent '%s' references non-existent agent(s) in tools: %s",
				name, quotedJoin(missing)))
		}
	}
	return errors
}

// UnreachableNodesValidator asserts that exactly one front man exists
// and that every declared agent is reachable from it.
type UnreachableNodesValidator struct{}

// Validate implements Validator.
func (UnreachableNodesValidator) Validate(n *network.Network) []string {
	var errors []string

	men := n.FrontMen()
	switch {
	case len(men) == 0:
		errors = append(errors, "No top agent found in network")
	case len(men) > 1:
		errors = append(errors, fmt.Sprintf(
			"Multiple top agents found: %s. Expected exactly one.", sortedList(men)))
	default:
		if unreachable := unreachableFrom(n, men[0]); len(unreachable) > 0 {
			errors = append(errors, fmt.Sprintf(
				"Unreachable agents found: %s", sortedList(unreachable)))
		}
	}
	return errors
}

func unreachableFrom(n *network.Network, root string) []string {
	visited := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		spec, ok := n.Agent(name)
		if !ok {
			continue
		}
		for _, ref := range spec.Tools {
			if visited[ref] {
				continue
			}
			if _, declared := n.Agent(ref); !declared {
				continue
			}
			visited[ref] = true
			queue = append(queue, ref)
		}
	}

	var unreachable []string
	for _, name := range n.AgentNames() {
		if !visited[name] {
			unreachable = append(unreachable, name)
		}
	}
	return unreachable
}

var toolNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_/.-]*$`)

// ToolNameValidator checks that agent names and in-network tool
// references stay within the permitted character class. URL and path
// references are checked by URLValidator instead.
type ToolNameValidator struct{}

// Validate implements Validator.
func (ToolNameValidator) Validate(n *network.Network) []string {
	var errors []string
	for _, name := range n.AgentNames() {
		if !toolNamePattern.MatchString(name) {
			errors = append(errors, fmt.Sprintf(
				"Agent '%s' has invalid tool name: '%s' must match %s",
				name, name, toolNamePattern.String()))
		}
		spec, _ := n.Agent(name)
		for _, ref := range spec.Tools {
			if network.IsExternalRef(ref) {
				continue
			}
			if !toolNamePattern.MatchString(ref) {
				errors = append(errors, fmt.Sprintf(
					"Agent '%s' has invalid tool name: '%s' must match %s",
					name, ref, toolNamePattern.String()))
			}
		}
	}
	return errors
}
