//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package toolbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
)

var searchSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"query": map[string]any{"type": "string"},
		"depth": map[string]any{"type": "integer"},
	},
	"required": []any{"query"},
}

func TestValidateArgsAccepts(t *testing.T) {
	err := ValidateArgs(searchSchema, map[string]any{"query": "weather", "depth": 2})
	assert.NoError(t, err)
}

func TestValidateArgsMissingRequired(t *testing.T) {
	err := ValidateArgs(searchSchema, map[string]any{"depth": 2})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))
}

func TestValidateArgsWrongType(t *testing.T) {
	err := ValidateArgs(searchSchema, map[string]any{"query": 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameter schema")
}

func TestValidateArgsEmptySchema(t *testing.T) {
	assert.NoError(t, ValidateArgs(nil, map[string]any{"anything": true}))
	assert.NoError(t, ValidateArgs(map[string]any{}, nil))
}

func TestValidateArgsNonJSONNumber(t *testing.T) {
	// Integer-valued floats from YAML decoding still validate as integers.
	err := ValidateArgs(searchSchema, map[string]any{"query": "x", "depth": float64(3)})
	assert.NoError(t, err)
}
