//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	got, err := Decode(".json", []byte(`{"name": "hello", "count": 2}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", got["name"])
	assert.Equal(t, float64(2), got["count"])
}

func TestDecodeYAML(t *testing.T) {
	got, err := Decode(".yaml", []byte("tools:\n  - name: searcher\n    args:\n      depth: 3\n"))
	require.NoError(t, err)

	tools, ok := got["tools"].([]any)
	require.True(t, ok)
	first, ok := tools[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "searcher", first["name"])
	args, ok := first["args"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, args["depth"])
}

func TestDecodeUnknownExtension(t *testing.T) {
	_, err := Decode(".toml", []byte("a = 1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no decoder registered")
}

func TestRegisterCustomDecoder(t *testing.T) {
	Register(".kv", func(data []byte) (map[string]any, error) {
		return map[string]any{"raw": string(data)}, nil
	})
	require.True(t, Supported(".kv"))

	got, err := Decode(".kv", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "payload", got["raw"])
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "network.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"llm_config": {"model_name": "gpt-4o"}}`), 0o600))

	got, err := DecodeFile(path)
	require.NoError(t, err)
	llm, ok := got["llm_config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", llm["model_name"])
}

func TestDecodeFileMissing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestExtensionsSorted(t *testing.T) {
	exts := Extensions()
	assert.Contains(t, exts, ".json")
	assert.Contains(t, exts, ".yaml")
	assert.Contains(t, exts, ".yml")
}
