//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringParams(names ...string) map[string]any {
	properties := map[string]any{}
	for _, n := range names {
		properties[n] = map[string]any{"type": "string"}
	}
	return map[string]any{"type": "object", "properties": properties}
}

func TestAssignArguments(t *testing.T) {
	tests := []struct {
		name       string
		parameters map[string]any
		args       map[string]any
		want       []string
	}{
		{
			name:       "string value single quoted",
			parameters: stringParams("name"),
			args:       map[string]any{"name": "John Doe"},
			want:       []string{"The name is 'John Doe'."},
		},
		{
			name: "number value unquoted",
			parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"age": map[string]any{"type": "integer"}},
			},
			args: map[string]any{"age": 25},
			want: []string{"The age is 25."},
		},
		{
			name: "array joins elements",
			parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"scores": map[string]any{"type": "array"}},
			},
			args: map[string]any{"scores": []any{85, 92, 78}},
			want: []string{"The scores are 85, 92, 78."},
		},
		{
			name: "nested arrays flatten",
			parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"items": map[string]any{"type": "array"}},
			},
			args: map[string]any{"items": []any{[]any{"nested", "array"}, "simple"}},
			want: []string{"The items are nested, array, simple."},
		},
		{
			name: "object strips outer braces and sorts keys",
			parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"metadata": map[string]any{"type": "object"}},
			},
			args: map[string]any{"metadata": map[string]any{"key2": "value2", "key1": "value1"}},
			want: []string{`The metadata is "key1": "value1", "key2": "value2".`},
		},
		{
			name: "bool renders bare",
			parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"active": map[string]any{"type": "boolean"}},
			},
			args: map[string]any{"active": true},
			want: []string{"The active is true."},
		},
		{
			name:       "nil values omitted",
			parameters: stringParams("name", "title"),
			args:       map[string]any{"name": "Ada", "title": nil},
			want:       []string{"The name is 'Ada'."},
		},
		{
			name:       "undeclared arguments omitted",
			parameters: stringParams("name"),
			args:       map[string]any{"name": "Ada", "shadow": "dropped"},
			want:       []string{"The name is 'Ada'."},
		},
		{
			name:       "no schema keeps everything unquoted",
			parameters: nil,
			args:       map[string]any{"threshold": 42.5},
			want:       []string{"The threshold is 42.5."},
		},
		{
			name:       "braces escaped inside quoted strings",
			parameters: stringParams("template"),
			args:       map[string]any{"template": "a{b}"},
			want:       []string{"The template is 'a{{b}}'."},
		},
		{
			name:       "multiple arguments sorted by key",
			parameters: stringParams("alpha", "beta"),
			args:       map[string]any{"beta": "two", "alpha": "one"},
			want: []string{
				"The alpha is 'one'.",
				"The beta is 'two'.",
			},
		},
		{
			name:       "no arguments",
			parameters: stringParams("name"),
			args:       nil,
			want:       nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignArguments(tt.parameters, tt.args)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAssignArgumentsAllNilYieldsNothing(t *testing.T) {
	got := AssignArguments(stringParams("a", "b"), map[string]any{"a": nil, "b": nil})
	assert.Nil(t, got)
}
