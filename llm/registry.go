//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package llm

import (
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
)

// Provider builds Resources for one llm class from a fully-specified
// config.
type Provider func(cfg Config) (*Resources, error)

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Provider)
)

// Register registers a provider under its class name. Later
// registrations replace earlier ones.
func Register(class string, p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[class] = p
}

// Lookup returns the provider registered under class.
func Lookup(class string) (Provider, bool) {
	providersMu.RLock()
	defer providersMu.RUnlock()
	p, ok := providers[class]
	return p, ok
}

// Classes returns the registered class names, sorted.
func Classes() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	out := make([]string, 0, len(providers))
	for class := range providers {
		out = append(out, class)
	}
	sort.Strings(out)
	return out
}

// NewResources resolves the config's class and builds its Resources.
func NewResources(cfg Config) (*Resources, error) {
	class := cfg.EffectiveClass()
	modelName := cfg.ModelName()
	if class == "" {
		return nil, errs.Config(
			"class name for model_name %q is unspecified", modelName)
	}
	provider, ok := Lookup(class)
	if !ok {
		return nil, errs.Config(
			"class %q for model_name %q is unrecognized", class, modelName)
	}
	return provider(cfg)
}
