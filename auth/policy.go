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
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
)

// tuple is one stored fact: user has relation to object. User and
// object are in "type:id" form.
type tuple struct {
	user     string
	relation string
	object   string
}

// PolicyAuthorizer is a memory-backed relationship-tuple store shaped
// like a hosted fine-grained-authorization service. Facts are granted
// and revoked as (actor, relation, resource) tuples; checks and
// listings read them back. The backing store bootstraps itself lazily
// on first use and bootstrapping again is a no-op, mirroring the
// create-store-if-missing behavior of hosted backends.
type PolicyAuthorizer struct {
	mu    sync.RWMutex
	facts map[tuple]struct{}
	order []tuple

	debug bool
	hard  bool
	once  sync.Once
}

// NewPolicyAuthorizer returns an empty policy store. Decision logging
// and denial escalation follow the AGENT_DEBUG_AUTH environment
// variable.
func NewPolicyAuthorizer() *PolicyAuthorizer {
	debug, set := os.LookupEnv(DebugEnv)
	return &PolicyAuthorizer{
		debug: set,
		hard:  debug == "hard",
	}
}

// Bootstrap initializes the backing store. Calling it is optional and
// idempotent; every operation bootstraps on demand.
func (p *PolicyAuthorizer) Bootstrap() {
	p.once.Do(func() {
		p.mu.Lock()
		p.facts = make(map[tuple]struct{})
		p.mu.Unlock()
	})
}

// Authorize implements Authorizer. With AGENT_DEBUG_AUTH=hard a denial
// returns an error naming the full decision, not just false.
func (p *PolicyAuthorizer) Authorize(actor Entity, action string, resource Entity) (bool, error) {
	p.Bootstrap()
	if p.debug {
		log.Debugf("authorize(%s, %s, %s)", actor, action, resource)
	}

	p.mu.RLock()
	_, allowed := p.facts[tuple{user: actor.String(), relation: action, object: resource.String()}]
	p.mu.RUnlock()

	if !allowed {
		message := fmt.Sprintf("Actor: %s   action: %s   resource: %s", actor, action, resource)
		if p.debug {
			log.Debugf("%s denied", message)
		}
		if p.hard {
			return false, errs.Auth("%s", message)
		}
	}
	return allowed, nil
}

// List implements Authorizer. The result is never nil: this backend
// always has an opinion, even when it is "nothing".
func (p *PolicyAuthorizer) List(actor Entity, relation, resourceType string) ([]string, error) {
	p.Bootstrap()
	prefix := resourceType + ":"
	user := actor.String()

	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.order))
	for _, fact := range p.order {
		if fact.user != user || fact.relation != relation {
			continue
		}
		if strings.HasPrefix(fact.object, prefix) {
			ids = append(ids, strings.TrimPrefix(fact.object, prefix))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Grant implements Authorizer.
func (p *PolicyAuthorizer) Grant(actor Entity, relation string, resource Entity) (bool, error) {
	p.Bootstrap()
	fact := tuple{user: actor.String(), relation: relation, object: resource.String()}
	if p.debug {
		log.Debugf("Granting to %s : %s on %s", actor, relation, resource)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.facts[fact]; exists {
		return false, nil
	}
	p.facts[fact] = struct{}{}
	p.order = append(p.order, fact)
	return true, nil
}

// Revoke implements Authorizer.
func (p *PolicyAuthorizer) Revoke(actor Entity, relation string, resource Entity) (bool, error) {
	p.Bootstrap()
	fact := tuple{user: actor.String(), relation: relation, object: resource.String()}
	if p.debug {
		log.Debugf("Revoking from %s : %s on %s", actor, relation, resource)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.facts[fact]; !exists {
		return false, nil
	}
	delete(p.facts, fact)
	for i, kept := range p.order {
		if kept == fact {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Query implements Authorizer. Matching follows direct tuples only; the
// open dimension of the request decides what comes back: actor ids for
// a zero actor, resource ids for a zero resource, relations when the
// relation is empty.
func (p *PolicyAuthorizer) Query(actor Entity, relation string, resource Entity) ([]string, error) {
	p.Bootstrap()
	user := ""
	if !actor.IsZero() {
		user = actor.String()
	}
	object := ""
	if !resource.IsZero() {
		object = resource.String()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []string
	for _, fact := range p.order {
		if user != "" && fact.user != user {
			continue
		}
		if object != "" && fact.object != object {
			continue
		}
		if relation != "" && fact.relation != relation {
			continue
		}
		switch {
		case user == "":
			out = append(out, idPart(fact.user))
		case object == "":
			out = append(out, idPart(fact.object))
		case relation == "":
			out = append(out, fact.relation)
		}
	}
	return out, nil
}

// idPart strips the leading "type:" from a tuple field.
func idPart(s string) string {
	if i := strings.Index(s, ":"); i >= 0 {
		return s[i+1:]
	}
	return s
}
