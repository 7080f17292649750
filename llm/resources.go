//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package llm

import "context"

// ClientPolicy manages the lifecycle of the network client behind a
// model. Adapters that construct their own transport release it here;
// adapters whose SDK owns the connection reach in as far as the SDK
// allows.
type ClientPolicy interface {
	DeleteResources(ctx context.Context) error
}

// ClientPolicyFunc adapts a plain function to ClientPolicy.
type ClientPolicyFunc func(ctx context.Context) error

// DeleteResources implements ClientPolicy.
func (f ClientPolicyFunc) DeleteResources(ctx context.Context) error {
	return f(ctx)
}

// Resources pairs a constructed model with the policy that tears its
// client down. A RunContext owns exactly one Resources at a time and
// must call DeleteResources when it finishes.
type Resources struct {
	Model  Model
	Policy ClientPolicy
}

// DeleteResources releases the model's client, if any. Safe on nil.
func (r *Resources) DeleteResources(ctx context.Context) error {
	if r == nil || r.Policy == nil {
		return nil
	}
	return r.Policy.DeleteResources(ctx)
}
