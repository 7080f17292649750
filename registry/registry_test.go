//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agentnet-go/network"
)

func testNetwork(t *testing.T, name string) *network.Network {
	t.Helper()
	n, err := network.New(name, map[string]any{
		"tools": []any{
			map[string]any{
				"name":         "frontman",
				"instructions": "You coordinate.",
				"tools":        []any{"helper"},
			},
			map[string]any{
				"name":         "helper",
				"instructions": "You help.",
			},
		},
	})
	require.NoError(t, err)
	return n
}

func TestStoreInstallGetList(t *testing.T) {
	store := NewStore()
	assert.Empty(t, store.List())

	beta := testNetwork(t, "beta")
	alpha := testNetwork(t, "alpha")
	store.Install("beta", beta)
	store.Install("alpha", alpha)

	got, ok := store.Get("alpha")
	require.True(t, ok)
	assert.Same(t, alpha, got)

	_, ok = store.Get("gamma")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha", "beta"}, store.List())
}

func TestStoreReplaceAllDropsAbsent(t *testing.T) {
	store := NewStore()
	store.Install("old", testNetwork(t, "old"))

	fresh := testNetwork(t, "fresh")
	store.ReplaceAll(map[string]*network.Network{"fresh": fresh})

	_, ok := store.Get("old")
	assert.False(t, ok)
	got, ok := store.Get("fresh")
	require.True(t, ok)
	assert.Same(t, fresh, got)
	assert.Equal(t, []string{"fresh"}, store.List())
}

func TestProviderTracksReloads(t *testing.T) {
	store := NewStore()
	provider := store.Provider("alpha")
	assert.Equal(t, "alpha", provider.Name())

	_, ok := provider.Resolve()
	assert.False(t, ok)

	first := testNetwork(t, "alpha")
	store.Install("alpha", first)
	got, ok := provider.Resolve()
	require.True(t, ok)
	assert.Same(t, first, got)

	second := testNetwork(t, "alpha")
	store.ReplaceAll(map[string]*network.Network{"alpha": second})
	got, ok = provider.Resolve()
	require.True(t, ok)
	assert.Same(t, second, got)

	store.ReplaceAll(nil)
	_, ok = provider.Resolve()
	assert.False(t, ok)
}
