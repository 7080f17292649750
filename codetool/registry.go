//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package codetool

import (
	"sort"
	"strings"
	"sync"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
)

// Registry maps symbolic class paths to tool constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register registers a constructor under a class path. Later
// registrations replace earlier ones.
func (r *Registry) Register(class string, ctor Constructor) {
	if class == "" {
		panic("codetool: empty class path")
	}
	if ctor == nil {
		panic("codetool: nil constructor for " + class)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[class] = ctor
}

// Classes returns the registered class paths, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ctors))
	for class := range r.ctors {
		out = append(out, class)
	}
	sort.Strings(out)
	return out
}

// Resolve finds the constructor for a class reference. References are
// looked up under progressively less specific prefixes derived from the
// network's location before falling back to the bare class: for class
// "acme.Searcher" in network "intranet/hr", the candidates are
// "intranet.hr.acme.Searcher", "intranet.acme.Searcher" and
// "acme.Searcher", first registered wins.
func (r *Registry) Resolve(class, networkName string) (Constructor, error) {
	if class == "" {
		return nil, errs.Tool("coded tool class is empty")
	}
	candidates := resolutionCandidates(class, networkName)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, candidate := range candidates {
		if ctor, ok := r.ctors[candidate]; ok {
			return ctor, nil
		}
	}
	return nil, errs.Tool("coded tool class %q is not registered (tried %s)",
		class, strings.Join(candidates, ", "))
}

// Instantiate resolves the class and constructs a fresh instance,
// verifying it implements one of the invocation contracts.
func (r *Registry) Instantiate(class, networkName string) (any, error) {
	ctor, err := r.Resolve(class, networkName)
	if err != nil {
		return nil, err
	}
	instance := ctor()
	switch instance.(type) {
	case CodedTool, SyncTool:
		return instance, nil
	default:
		return nil, errs.Tool("coded tool class %q does not implement Invoke or InvokeSync", class)
	}
}

// resolutionCandidates lists the lookup keys for a class reference, most
// specific first. Network locations may be slash- or dot-separated.
func resolutionCandidates(class, networkName string) []string {
	normalized := strings.ReplaceAll(networkName, "/", ".")
	parts := strings.Split(normalized, ".")
	candidates := make([]string, 0, len(parts)+1)
	for i := len(parts); i > 0; i-- {
		prefix := strings.Join(parts[:i], ".")
		if prefix == "" {
			continue
		}
		candidates = append(candidates, prefix+"."+class)
	}
	return append(candidates, class)
}

var defaultRegistry = NewRegistry()

// Register registers a constructor in the process-wide registry.
func Register(class string, ctor Constructor) {
	defaultRegistry.Register(class, ctor)
}

// Resolve resolves a class reference against the process-wide registry.
func Resolve(class, networkName string) (Constructor, error) {
	return defaultRegistry.Resolve(class, networkName)
}

// Instantiate builds a tool instance from the process-wide registry.
func Instantiate(class, networkName string) (any, error) {
	return defaultRegistry.Instantiate(class, networkName)
}

// Registered reports whether a class reference resolves in the
// process-wide registry.
func Registered(class, networkName string) bool {
	_, err := defaultRegistry.Resolve(class, networkName)
	return err == nil
}

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}
