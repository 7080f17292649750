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

	"trpc.group/trpc-go/trpc-agentnet-go/network"
)

// URLValidator checks that every URL or path tool reference appears in
// the configured allow-lists of external agents and MCP servers.
type URLValidator struct {
	ExternalAgents []string
	MCPServers     []string
}

// Validate implements Validator.
func (v URLValidator) Validate(n *network.Network) []string {
	var errors []string
	if n.Empty() {
		return []string{"Agent network is empty."}
	}

	urls := make([]string, 0, len(v.ExternalAgents)+len(v.MCPServers))
	urls = append(urls, v.ExternalAgents...)
	urls = append(urls, v.MCPServers...)
	allowed := make(map[string]bool, len(urls))
	for _, u := range urls {
		allowed[u] = true
	}

	for _, name := range n.AgentNames() {
		spec, _ := n.Agent(name)
		for _, ref := range spec.Tools {
			if !network.IsExternalRef(ref) {
				continue
			}
			if !allowed[ref] {
				errors = append(errors, fmt.Sprintf(
					"Agent '%s' has invalid URL or path in tools: '%s' urls: %s",
					name, ref, bracketList(urls)))
			}
		}
	}
	return errors
}
