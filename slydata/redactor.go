//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package slydata filters the out-of-band data channel that travels
// alongside chat text. Sly data never appears in prompts; every hop
// between agents passes it through a Redactor first.
package slydata

import (
	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
)

// Redactor applies an agent spec's allow policy to a sly data map at one
// boundary (downstream call, upstream return, external dispatch).
//
// The policy value is looked up under the configured keys, first hit
// wins, and is one of:
//
//	true            pass everything through
//	false or unset  block everything
//	[k1, k2, ...]   allow only the listed keys
//	{k: true|false} allow or block per key
//	{k: "renamed"}  allow the key and rename it on output
type Redactor struct {
	spec       map[string]any
	configKeys []string
}

// NewRedactor builds a Redactor over the given spec subtree. configKeys
// are dot-separated paths consulted in order of precedence.
func NewRedactor(spec map[string]any, configKeys ...string) *Redactor {
	return &Redactor{spec: spec, configKeys: configKeys}
}

// Filter returns a new map holding only the entries the policy allows.
// The input is never mutated. The result is non-nil whenever data is
// non-nil so callers can merge without nil checks.
func (r *Redactor) Filter(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	policy := r.policy()
	out := make(map[string]any, len(data))

	switch p := policy.(type) {
	case bool:
		if !p {
			return out
		}
		for k, v := range data {
			out[k] = v
		}
	case []any:
		for _, e := range p {
			key, ok := e.(string)
			if !ok {
				continue
			}
			if v, present := data[key]; present {
				out[key] = v
			}
		}
	case map[string]any:
		for key, rule := range p {
			v, present := data[key]
			if !present {
				continue
			}
			switch decision := rule.(type) {
			case bool:
				if decision {
					out[key] = v
				}
			case string:
				out[decision] = v
			}
		}
	}
	return out
}

// policy resolves the effective allow value, defaulting to block-all.
func (r *Redactor) policy() any {
	for _, key := range r.configKeys {
		if v, ok := confmap.Dig(r.spec, key); ok {
			return v
		}
	}
	return false
}
