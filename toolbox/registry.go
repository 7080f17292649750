//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package toolbox

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"

	"trpc.group/trpc-go/trpc-agentnet-go/codetool"
	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/internal/codec"
	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
)

// InfoFileEnv names a file whose entries extend the built-in toolbox
// table. Entries with the same name replace built-ins.
const InfoFileEnv = "AGENT_TOOLBOX_INFO_FILE"

// Registry resolves toolbox entry names to invokable tools.
type Registry struct {
	mu       sync.RWMutex
	infos    map[string]*Info
	classes  map[string]Factory
	coded    *codetool.Registry
	sessions map[string]*mcpSession
}

// Option configures a Registry.
type Option func(*Registry)

// WithCodedRegistry points coded-tool class lookups at a registry other
// than the process-wide one.
func WithCodedRegistry(r *codetool.Registry) Option {
	return func(reg *Registry) {
		reg.coded = r
	}
}

// NewRegistry returns a registry preloaded with the built-in entries.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		infos:    make(map[string]*Info),
		classes:  make(map[string]Factory),
		coded:    codetool.Default(),
		sessions: make(map[string]*mcpSession),
	}
	for _, opt := range opts {
		opt(r)
	}
	registerBuiltins(r)
	return r
}

// NewRegistryFromEnv builds the built-in registry and appends the
// entries of the file named by AGENT_TOOLBOX_INFO_FILE, when set.
func NewRegistryFromEnv(opts ...Option) (*Registry, error) {
	r := NewRegistry(opts...)
	path := os.Getenv(InfoFileEnv)
	if path == "" {
		return r, nil
	}
	if err := r.ExtendFromFile(path); err != nil {
		return nil, err
	}
	log.Infof("toolbox: extended with entries from %s", path)
	return r, nil
}

// RegisterClass registers a tool factory under a class path. Later
// registrations replace earlier ones.
func (r *Registry) RegisterClass(class string, factory Factory) {
	if class == "" {
		panic("toolbox: empty class path")
	}
	if factory.New == nil {
		panic("toolbox: nil factory for " + class)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[class] = factory
}

// SetInfo adds or replaces one toolbox entry.
func (r *Registry) SetInfo(name string, info *Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos[name] = info
}

// Info returns the entry registered under name.
func (r *Registry) Info(name string) (*Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[name]
	return info, ok
}

// Names returns the registered entry names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.infos))
	for name := range r.infos {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Kind reports how an entry invokes: TagCodedTool when its class is a
// registered coded tool, TagLangchainTool otherwise (tool factories and
// MCP servers both produce directly invokable tools).
func (r *Registry) Kind(name string) (string, error) {
	info, ok := r.Info(name)
	if !ok {
		return "", errs.Tool("toolbox entry %q is not defined", name)
	}
	if info.IsMCP() {
		return TagLangchainTool, nil
	}
	r.mu.RLock()
	_, isFactory := r.classes[info.Class]
	r.mu.RUnlock()
	if isFactory {
		return TagLangchainTool, nil
	}
	if _, err := r.coded.Resolve(info.Class, ""); err == nil {
		return TagCodedTool, nil
	}
	return "", errs.Tool("toolbox entry %q references unknown class %q", name, info.Class)
}

// Create resolves an entry and instantiates its tools. User args merge
// over the entry's declared args, user wins; the merged set must stay
// within the factory's accepted names. A single tool comes back as a
// one-element slice; toolkits expand.
func (r *Registry) Create(ctx context.Context, name string, userArgs map[string]any) ([]Tool, error) {
	info, ok := r.Info(name)
	if !ok {
		return nil, errs.Tool("toolbox entry %q is not defined", name)
	}

	merged := mergeArgs(info.Args, userArgs)
	if info.IsMCP() {
		if err := checkArgs(name, merged, mcpArgNames); err != nil {
			return nil, err
		}
		return r.createMCPTools(ctx, name, info, merged)
	}

	r.mu.RLock()
	factory, isFactory := r.classes[info.Class]
	r.mu.RUnlock()
	if !isFactory {
		return nil, errs.Tool("toolbox entry %q references unknown class %q", name, info.Class)
	}
	if err := checkArgs(name, merged, factory.ArgNames); err != nil {
		return nil, err
	}

	instance, err := factory.New(merged)
	if err != nil {
		return nil, errs.Wrap(errs.KindTool, err, "create toolbox entry %q", name)
	}
	switch t := instance.(type) {
	case Toolkit:
		return t.Tools(), nil
	case Tool:
		return []Tool{t}, nil
	default:
		return nil, errs.Tool("toolbox class %q produced neither a tool nor a toolkit", info.Class)
	}
}

// ExtendFromFile merges entries from an info file into the registry.
// The file maps entry names to their definitions.
func (r *Registry) ExtendFromFile(path string) error {
	raw, err := codec.DecodeFile(path)
	if err != nil {
		return err
	}
	for name, value := range raw {
		entry, ok := value.(map[string]any)
		if !ok {
			return errs.Config("toolbox entry %q in %s is not a map", name, path)
		}
		info, err := DecodeInfo(entry)
		if err != nil {
			return errs.Wrap(errs.KindConfig, err, "toolbox entry %q in %s", name, path)
		}
		r.SetInfo(name, info)
	}
	return nil
}

// Close shuts down any MCP sessions the registry opened.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for name, session := range r.sessions {
		if err := session.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.sessions, name)
	}
	return firstErr
}

// mergeArgs overlays user args over declared args, user wins. Both
// inputs are left untouched.
func mergeArgs(declared, user map[string]any) map[string]any {
	merged := confmap.Clone(declared)
	if merged == nil {
		merged = make(map[string]any, len(user))
	}
	for k, v := range user {
		merged[k] = v
	}
	return merged
}

// checkArgs verifies every merged key is accepted. A nil accept list
// admits anything.
func checkArgs(entry string, merged map[string]any, accepted []string) error {
	if accepted == nil {
		return nil
	}
	allowed := make(map[string]bool, len(accepted))
	for _, name := range accepted {
		allowed[name] = true
	}
	var unknown []string
	for key := range merged {
		if !allowed[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return errs.Validation("toolbox entry %q does not accept argument(s) %s (accepts %s)",
		entry, strings.Join(unknown, ", "), strings.Join(accepted, ", "))
}
