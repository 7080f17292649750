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

// CyclesValidator finds cyclical agent references with a colored
// depth-first search. On a back edge, every agent on the current path
// from the re-entered node onward joins the cycle set.
type CyclesValidator struct{}

// Validate implements Validator.
func (CyclesValidator) Validate(n *network.Network) []string {
	const (
		unvisited = iota
		inProgress
		done
	)
	color := make(map[string]int)
	cyclical := make(map[string]bool)
	var path []string

	var visit func(name string)
	visit = func(name string) {
		color[name] = inProgress
		path = append(path, name)
		spec, _ := n.Agent(name)
		for _, ref := range spec.Tools {
			if _, declared := n.Agent(ref); !declared {
				continue
			}
			switch color[ref] {
			case unvisited:
				visit(ref)
			case inProgress:
				for i := len(path) - 1; i >= 0; i-- {
					cyclical[path[i]] = true
					if path[i] == ref {
						break
					}
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = done
	}

	for _, name := range n.AgentNames() {
		if color[name] == unvisited {
			visit(name)
		}
	}

	if len(cyclical) == 0 {
		return nil
	}
	names := make([]string, 0, len(cyclical))
	for name := range cyclical {
		names = append(names, name)
	}
	return []string{fmt.Sprintf(
		"Cyclical dependencies found in agents: %s", sortedList(names))}
}
