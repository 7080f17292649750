//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package auth decides who may reach which agent network. The Authorizer
// interface mirrors what relationship-tuple engines such as OpenFGA
// provide: boolean checks, resource listing and direct tuple queries
// over typed actor and resource ids. A NullAuthorizer accepts everything;
// a memory-backed PolicyAuthorizer stores tuples in process. The Gate
// shapes request metadata into tuples and applies the configured
// authorizer at the service boundary.
package auth

import (
	"os"
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
)

// Environment variables steering authorization.
const (
	// AuthorizerEnv selects the authorizer backend by registered name.
	// Empty means the accept-all NullAuthorizer.
	AuthorizerEnv = "AGENT_AUTHORIZER"
	// ActorKeyEnv overrides the actor type used in tuples.
	ActorKeyEnv = "AGENT_AUTHORIZER_ACTOR_KEY"
	// ActorIDMetadataEnv overrides which metadata key carries the actor id.
	ActorIDMetadataEnv = "AGENT_AUTHORIZER_ACTOR_ID_METADATA_KEY"
	// ResourceKeyEnv overrides the resource type used in tuples.
	ResourceKeyEnv = "AGENT_AUTHORIZER_RESOURCE_KEY"
	// AllowRelationEnv overrides the relation checked when routing to an
	// agent.
	AllowRelationEnv = "AGENT_AUTHORIZER_ALLOW_RELATION"
	// DebugEnv turns on decision logging when set at all; the value
	// "hard" additionally escalates denials to errors, which helps pin
	// down where an authorization decision is made during testing.
	DebugEnv = "AGENT_DEBUG_AUTH"
)

// Relations requested for our resources.
const (
	RelationCreate = "create"
	RelationRead   = "read"
	RelationUpdate = "update"
	RelationDelete = "delete"
)

// Entity identifies an actor or a resource as a typed id, rendered
// "type:id" in tuple form.
type Entity struct {
	Type string
	ID   string
}

// String renders the tuple form.
func (e Entity) String() string { return e.Type + ":" + e.ID }

// IsZero reports whether both parts are empty, which query calls treat
// as a wildcard.
func (e Entity) IsZero() bool { return e.Type == "" && e.ID == "" }

// Authorizer answers actor/relation/resource questions.
type Authorizer interface {
	// Authorize reports whether the actor may take the action on the
	// resource.
	Authorize(actor Entity, action string, resource Entity) (bool, error)

	// List returns ids of resourceType objects the actor has the
	// relation to. A nil slice means the backend has no opinion and some
	// other mechanism should decide; an empty non-nil slice means the
	// actor has access to nothing of that type.
	List(actor Entity, relation, resourceType string) ([]string, error)

	// Grant records the relation, reporting whether it was newly added.
	Grant(actor Entity, relation string, resource Entity) (bool, error)

	// Revoke removes the relation, reporting whether it existed.
	Revoke(actor Entity, relation string, resource Entity) (bool, error)

	// Query lists direct tuples matching the given parts without
	// following the policy graph. A zero actor, zero resource or empty
	// relation is the open dimension; the returned strings are the ids
	// (or relations) filling it.
	Query(actor Entity, relation string, resource Entity) ([]string, error)
}

// NullAuthorizer accepts every request and never stores anything.
type NullAuthorizer struct{}

// Authorize always allows.
func (NullAuthorizer) Authorize(Entity, string, Entity) (bool, error) { return true, nil }

// List has no opinion; callers fall back to another mechanism.
func (NullAuthorizer) List(Entity, string, string) ([]string, error) { return nil, nil }

// Grant records nothing.
func (NullAuthorizer) Grant(Entity, string, Entity) (bool, error) { return false, nil }

// Revoke removes nothing.
func (NullAuthorizer) Revoke(Entity, string, Entity) (bool, error) { return false, nil }

// Query has no opinion.
func (NullAuthorizer) Query(Entity, string, Entity) ([]string, error) { return nil, nil }

var (
	backendMu sync.RWMutex
	backends  = map[string]func() (Authorizer, error){
		"null":   func() (Authorizer, error) { return NullAuthorizer{}, nil },
		"policy": func() (Authorizer, error) { return NewPolicyAuthorizer(), nil },
	}
)

// Register installs an authorizer constructor under a name usable in
// the AGENT_AUTHORIZER environment variable. Registering a name twice
// replaces the earlier constructor.
func Register(name string, build func() (Authorizer, error)) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[name] = build
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named authorizer. An empty name yields the accept-all
// NullAuthorizer.
func New(name string) (Authorizer, error) {
	if name == "" {
		return NullAuthorizer{}, nil
	}
	backendMu.RLock()
	build, ok := backends[name]
	backendMu.RUnlock()
	if !ok {
		return nil, errs.Config("unknown authorizer %q set by %s", name, AuthorizerEnv)
	}
	return build()
}

// FromEnv resolves the authorizer the AGENT_AUTHORIZER environment
// variable names. A gate must fail closed on a bad name rather than
// fall back to accept-all, so the error is surfaced.
func FromEnv() (Authorizer, error) {
	return New(os.Getenv(AuthorizerEnv))
}
