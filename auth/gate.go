//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package auth

import (
	"os"

	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
)

// Gate applies an authorizer to agent requests. It shapes request
// metadata into actor and resource tuples the way the service forwards
// them; the tuple-shaping keys and the checked relation come from the
// environment with documented defaults.
type Gate struct {
	authorizer  Authorizer
	actorType   string
	actorIDKey  string
	resourceKey string
	relation    string
}

// NewGate builds a gate over authorizer.
func NewGate(authorizer Authorizer) *Gate {
	return &Gate{
		authorizer:  authorizer,
		actorType:   envOr(ActorKeyEnv, "User"),
		actorIDKey:  envOr(ActorIDMetadataEnv, "user_id"),
		resourceKey: envOr(ResourceKeyEnv, "AgentNetwork"),
		relation:    envOr(AllowRelationEnv, RelationRead),
	}
}

// GateFromEnv builds a gate over the environment-configured authorizer.
func GateFromEnv() (*Gate, error) {
	authorizer, err := FromEnv()
	if err != nil {
		return nil, err
	}
	return NewGate(authorizer), nil
}

// Authorizer returns the wrapped authorizer, for grant/revoke tooling.
func (g *Gate) Authorizer() Authorizer { return g.authorizer }

// AllowAgent reports whether the request behind metadata may route to
// the named agent.
func (g *Gate) AllowAgent(agentName string, metadata map[string]any) (bool, error) {
	resource := Entity{Type: g.resourceKey, ID: agentName}
	return g.authorizer.Authorize(g.actor(metadata), g.relation, resource)
}

// AllowedAgents filters names down to those the request may see,
// preserving order. A backend with no opinion allows all names.
func (g *Gate) AllowedAgents(names []string, metadata map[string]any) ([]string, error) {
	allowed, err := g.authorizer.List(g.actor(metadata), g.relation, g.resourceKey)
	if err != nil {
		return nil, err
	}
	if allowed == nil {
		return names, nil
	}
	set := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		set[id] = true
	}
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if set[name] {
			kept = append(kept, name)
		}
	}
	return kept, nil
}

func (g *Gate) actor(metadata map[string]any) Entity {
	return Entity{
		Type: g.actorType,
		ID:   confmap.GetString(metadata, g.actorIDKey, ""),
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
