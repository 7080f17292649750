//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginString(t *testing.T) {
	tests := []struct {
		name   string
		origin Origin
		want   string
	}{
		{
			name:   "empty",
			origin: nil,
			want:   "",
		},
		{
			name:   "single",
			origin: Origin{{Tool: "front_man"}},
			want:   "front_man",
		},
		{
			name: "nested without reinstantiation",
			origin: Origin{
				{Tool: "front_man"},
				{Tool: "searcher"},
			},
			want: "front_man.searcher",
		},
		{
			name: "index suffix only when positive",
			origin: Origin{
				{Tool: "front_man"},
				{Tool: "searcher", InstantiationIndex: 1},
				{Tool: "fetcher"},
			},
			want: "front_man.searcher-1.fetcher",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.origin.String())
		})
	}
}

func TestOriginEqual(t *testing.T) {
	a := Origin{{Tool: "x"}, {Tool: "y"}}
	b := Origin{{Tool: "x"}, {Tool: "y", InstantiationIndex: 0}}
	c := Origin{{Tool: "x"}, {Tool: "y", InstantiationIndex: 2}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.True(t, Origin(nil).Equal(Origin{}))
}

func TestOriginAppendCopies(t *testing.T) {
	base := Origin{{Tool: "root"}}
	child := base.Append("leaf", 1)

	require.Len(t, child, 2)
	assert.Equal(t, "root.leaf-1", child.String())
	// The parent must not observe the child's growth.
	assert.Equal(t, "root", base.String())

	sibling := base.Append("other", 0)
	assert.Equal(t, "root.other", sibling.String())
	assert.Equal(t, "root.leaf-1", child.String())
}

func TestOriginJSON(t *testing.T) {
	origin := Origin{
		{Tool: "front_man"},
		{Tool: "searcher", InstantiationIndex: 1},
	}
	data, err := json.Marshal(origin)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"tool":"front_man","instantiation_index":0},`+
			`{"tool":"searcher","instantiation_index":1}]`,
		string(data))

	var back Origin
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, origin.Equal(back))
}

func TestOriginHeadLeaf(t *testing.T) {
	var empty Origin
	assert.Equal(t, "", empty.Head())
	assert.Equal(t, "", empty.Leaf())

	origin := Origin{{Tool: "a"}, {Tool: "b"}, {Tool: "c"}}
	assert.Equal(t, "a", origin.Head())
	assert.Equal(t, "c", origin.Leaf())
}
