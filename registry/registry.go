//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package registry keeps the named agent networks a server hosts. A Store
// maps logical names to immutable networks and is swapped atomically when
// the manifest changes; Providers hand out a stable indirection so that
// in-flight turns finish on the network they started with. The manifest
// loader and the periodic watcher live here too.
package registry

import (
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-agentnet-go/network"
)

// Store holds the agent networks currently being served, keyed by logical
// name. All methods are safe for concurrent use; mutation is expected to
// come from a single writer, normally the manifest watcher.
type Store struct {
	mu       sync.RWMutex
	networks map[string]*network.Network
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{networks: make(map[string]*network.Network)}
}

// Get returns the network registered under name.
func (s *Store) Get(name string) (*network.Network, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.networks[name]
	return n, ok
}

// List returns the registered network names, sorted.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.networks))
	for name := range s.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Install registers or replaces a single network.
func (s *Store) Install(name string, n *network.Network) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networks[name] = n
}

// ReplaceAll swaps the full set of networks in one step. Names absent
// from the new map are dropped; readers never observe a partially
// updated store.
func (s *Store) ReplaceAll(networks map[string]*network.Network) {
	next := make(map[string]*network.Network, len(networks))
	for name, n := range networks {
		next[name] = n
	}
	s.mu.Lock()
	s.networks = next
	s.mu.Unlock()
}

// Provider returns a stable handle for name. The handle survives
// ReplaceAll; Resolve always yields whatever network is currently
// installed under the name.
func (s *Store) Provider(name string) *Provider {
	return &Provider{store: s, name: name}
}

// Provider is a stable indirection to one named network. Call sites hold
// a Provider across manifest reloads and resolve it at the moment of use.
type Provider struct {
	store *Store
	name  string
}

// Name returns the logical network name this provider resolves.
func (p *Provider) Name() string { return p.name }

// Resolve returns the network currently installed under the provider's
// name, or false when the name has been dropped from the store.
func (p *Provider) Resolve() (*network.Network, bool) {
	return p.store.Get(p.name)
}
