//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package validate checks loaded agent networks against the structural
// rules a network must satisfy before it is served: required keywords,
// resolvable tool references, a unique reachable entry point, legal tool
// names and known external URLs. Each validator yields human-readable
// error strings; a composite runs them in a fixed order and concatenates
// the findings.
package validate

import (
	"sort"
	"strings"

	"trpc.group/trpc-go/trpc-agentnet-go/network"
)

// Validator checks one aspect of a network and reports violations as
// error strings. An empty result means the aspect passed.
type Validator interface {
	Validate(n *network.Network) []string
}

// Composite runs its validators in order, concatenating every finding.
type Composite []Validator

// Validate implements Validator.
func (c Composite) Validate(n *network.Network) []string {
	var errors []string
	for _, v := range c {
		errors = append(errors, v.Validate(n)...)
	}
	return errors
}

// Options selects the optional parts of the standard suite.
type Options struct {
	// IncludeCycles permits cyclical agent references. When false, the
	// cycle validator runs and any cycle fails validation.
	IncludeCycles bool
	// ExternalAgents lists the allowed external agent references.
	ExternalAgents []string
	// MCPServers lists the allowed MCP server URLs.
	MCPServers []string
}

// Suite assembles the standard validator chain: keyword, missing nodes,
// unreachable nodes, tool name, optionally cycles, then URL allow-list.
func Suite(opts Options) Validator {
	c := Composite{
		KeywordValidator{},
		MissingNodesValidator{},
		UnreachableNodesValidator{},
		ToolNameValidator{},
	}
	if !opts.IncludeCycles {
		c = append(c, CyclesValidator{})
	}
	c = append(c, URLValidator{
		ExternalAgents: opts.ExternalAgents,
		MCPServers:     opts.MCPServers,
	})
	return c
}

// sortedList renders names sorted and bracketed, matching the format the
// wider tooling greps for in validation reports.
func sortedList(names []string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	return bracketList(sorted)
}

func bracketList(names []string) string {
	if len(names) == 0 {
		return "[]"
	}
	return "['" + strings.Join(names, "', '") + "']"
}

func quotedJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
