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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/network/validate"
)

const simpleNetwork = `{
  "tools": [
    {"name": "frontman", "instructions": "You coordinate.", "tools": ["helper"]},
    {"name": "helper", "instructions": "You help."}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderRestore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello_world.json", simpleNetwork)
	writeFile(t, dir, "disabled.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{
	  "hello_world.json": true,
	  "disabled.json": false
	}`)

	networks, err := NewLoader(manifest, validate.Options{}).Restore()
	require.NoError(t, err)
	require.Len(t, networks, 1)

	net, ok := networks["hello_world"]
	require.True(t, ok)
	assert.Equal(t, "hello_world", net.Name())
	front, err := net.FrontMan()
	require.NoError(t, err)
	assert.Equal(t, "frontman", front)
}

func TestLoaderNamedEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nets/support_net.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{"support": "nets/support_net.json"}`)

	networks, err := NewLoader(manifest, validate.Options{}).Restore()
	require.NoError(t, err)
	require.Len(t, networks, 1)
	_, ok := networks["support"]
	assert.True(t, ok)
}

func TestLoaderStripsQuotedKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quoted.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{"\"quoted.json\"": true}`)

	networks, err := NewLoader(manifest, validate.Options{}).Restore()
	require.NoError(t, err)
	_, ok := networks["quoted"]
	assert.True(t, ok)
}

func TestLoaderOmitsBadEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{
	  "good.json": true,
	  "missing.json": true
	}`)

	networks, err := NewLoader(manifest, validate.Options{}).Restore()
	require.NoError(t, err)
	assert.Len(t, networks, 1)
	_, ok := networks["good"]
	assert.True(t, ok)
}

func TestLoaderMissingManifestFailsFast(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "nope.json"), validate.Options{})
	_, err := loader.Restore()
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfig))
	assert.Contains(t, err.Error(), "could not find manifest file")
	assert.Contains(t, err.Error(), ManifestEnv)
}

func TestLoaderEnvFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "net.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{"net.json": true}`)
	t.Setenv(ManifestEnv, manifest)

	loader := NewLoader("", validate.Options{})
	assert.Equal(t, manifest, loader.Path())

	networks, err := loader.Restore()
	require.NoError(t, err)
	assert.Len(t, networks, 1)
}

func TestLoaderAllowsSiblingReferences(t *testing.T) {
	dir := t.TempDir()
	// caller references its manifest sibling as an external "/callee"
	// tool, which must validate without explicit allow-lists.
	writeFile(t, dir, "caller.json", `{
	  "tools": [
	    {"name": "frontman", "instructions": "You coordinate.", "tools": ["/callee"]}
	  ]
	}`)
	writeFile(t, dir, "callee.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{
	  "caller.json": true,
	  "callee.json": true
	}`)

	networks, err := NewLoader(manifest, validate.Options{}).Restore()
	require.NoError(t, err)
	assert.Len(t, networks, 2)
}

func TestLoaderRejectsUnknownExternalReference(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "caller.json", `{
	  "tools": [
	    {"name": "frontman", "instructions": "You coordinate.", "tools": ["/ghost"]}
	  ]
	}`)
	manifest := writeFile(t, dir, "manifest.json", `{"caller.json": true}`)

	networks, err := NewLoader(manifest, validate.Options{}).Restore()
	require.NoError(t, err)
	assert.Empty(t, networks)
}

func TestLoaderIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.json", simpleNetwork)
	writeFile(t, dir, "two.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{
	  "one.json": true,
	  "two.json": true
	}`)

	loader := NewLoader(manifest, validate.Options{})
	first, err := loader.Restore()
	require.NoError(t, err)
	second, err := loader.Restore()
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for name, net := range first {
		again, ok := second[name]
		require.True(t, ok)
		assert.Equal(t, net.Config(), again.Config())
	}
}

func TestRestoreNetworkValidationError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.json", `{
	  "tools": [
	    {"name": "frontman", "instructions": "", "tools": ["helper"]},
	    {"name": "helper", "instructions": "You help."}
	  ]
	}`)

	_, err := RestoreNetwork("", path, validate.Options{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.Contains(t, err.Error(), "frontman 'instructions' cannot be empty.")
}

func TestLoadNetworkFileSkipsValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken_net.json", `{
	  "tools": [
	    {"name": "frontman", "instructions": "", "tools": ["helper"]},
	    {"name": "helper", "instructions": "You help."}
	  ]
	}`)

	net, err := LoadNetworkFile(path)
	require.NoError(t, err)
	assert.Equal(t, "broken_net", net.Name())
	assert.Equal(t, []string{"frontman", "helper"}, net.AgentNames())
}
