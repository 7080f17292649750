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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
)

// accountant keeps a running cost across calls, preferring the explicit
// argument over the out-of-band value.
type accountant struct{}

func (a *accountant) Invoke(_ context.Context, args map[string]any, slyData map[string]any) (any, error) {
	cost, fromArgs := confmap.GetFloat(args, "running_cost", 0)
	if !fromArgs {
		cost, _ = confmap.GetFloat(slyData, "running_cost", 0)
	}
	updated := cost + 3.0
	if !fromArgs {
		slyData["running_cost"] = updated
	}
	return map[string]any{"running_cost": updated}, nil
}

type syncEcho struct{}

func (s *syncEcho) InvokeSync(args map[string]any, _ map[string]any) (any, error) {
	return args["text"], nil
}

type branchProbe struct {
	bound Binding
}

func (b *branchProbe) Invoke(_ context.Context, _ map[string]any, _ map[string]any) (any, error) {
	return b.bound.Arguments, nil
}

func (b *branchProbe) Bind(binding Binding) {
	b.bound = binding
}

func TestAccountantRunningCost(t *testing.T) {
	registry := NewRegistry()
	registry.Register("tools.accounting.Accountant", func() any { return &accountant{} })

	instance, err := registry.Instantiate("tools.accounting.Accountant", "expenses")
	require.NoError(t, err)
	tool, ok := instance.(CodedTool)
	require.True(t, ok)

	slyData := map[string]any{}
	result, err := tool.Invoke(context.Background(), map[string]any{"running_cost": 0.0}, slyData)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"running_cost": 3.0}, result)
	assert.Empty(t, slyData)

	result, err = tool.Invoke(context.Background(), map[string]any{"running_cost": 3.0}, slyData)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"running_cost": 6.0}, result)
}

func TestAccountantSlyDataSource(t *testing.T) {
	registry := NewRegistry()
	registry.Register("tools.accounting.Accountant", func() any { return &accountant{} })

	instance, err := registry.Instantiate("tools.accounting.Accountant", "expenses")
	require.NoError(t, err)
	tool := instance.(CodedTool)

	slyData := map[string]any{"running_cost": 0.0}
	result, err := tool.Invoke(context.Background(), map[string]any{}, slyData)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"running_cost": 3.0}, result)
	assert.Equal(t, 3.0, slyData["running_cost"])
}

func TestResolutionCandidates(t *testing.T) {
	got := resolutionCandidates("acme.Searcher", "intranet/hr")
	assert.Equal(t, []string{
		"intranet.hr.acme.Searcher",
		"intranet.acme.Searcher",
		"acme.Searcher",
	}, got)
}

func TestResolvePrefersNetworkSpecific(t *testing.T) {
	registry := NewRegistry()
	generic := func() any { return &syncEcho{} }
	specific := func() any { return &accountant{} }
	registry.Register("acme.Searcher", generic)
	registry.Register("intranet.hr.acme.Searcher", specific)

	ctor, err := registry.Resolve("acme.Searcher", "intranet/hr")
	require.NoError(t, err)
	_, isAccountant := ctor().(*accountant)
	assert.True(t, isAccountant)

	ctor, err = registry.Resolve("acme.Searcher", "other")
	require.NoError(t, err)
	_, isEcho := ctor().(*syncEcho)
	assert.True(t, isEcho)
}

func TestResolveUnknownClass(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Resolve("missing.Tool", "net")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
	assert.Contains(t, err.Error(), "net.missing.Tool")
}

func TestInstantiateRejectsNonTool(t *testing.T) {
	registry := NewRegistry()
	registry.Register("plain.Struct", func() any { return struct{}{} })
	_, err := registry.Instantiate("plain.Struct", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not implement")
}

func TestInstantiateSyncTool(t *testing.T) {
	registry := NewRegistry()
	registry.Register("tools.Echo", func() any { return &syncEcho{} })

	instance, err := registry.Instantiate("tools.Echo", "")
	require.NoError(t, err)
	tool, ok := instance.(SyncTool)
	require.True(t, ok)

	got, err := tool.InvokeSync(map[string]any{"text": "hello"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestBranchToolBinding(t *testing.T) {
	registry := NewRegistry()
	registry.Register("tools.Probe", func() any { return &branchProbe{} })

	instance, err := registry.Instantiate("tools.Probe", "")
	require.NoError(t, err)
	branch, ok := instance.(BranchTool)
	require.True(t, ok)

	args := map[string]any{"topic": "weather"}
	branch.Bind(Binding{Arguments: args})

	got, err := instance.(CodedTool).Invoke(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, args, got)
}

func TestClassesSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register("b.Tool", func() any { return &syncEcho{} })
	registry.Register("a.Tool", func() any { return &syncEcho{} })
	assert.Equal(t, []string{"a.Tool", "b.Tool"}, registry.Classes())
}
