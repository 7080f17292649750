//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validNetwork = `{
  "tools": [
    {"name": "announcer", "instructions": "You announce.", "tools": ["synonymizer"]},
    {"name": "synonymizer", "instructions": "You find synonyms."}
  ]
}`

const cyclicNetwork = `{
  "tools": [
    {"name": "A", "instructions": "You route.", "tools": ["B"]},
    {"name": "B", "instructions": "You loop.", "tools": ["C"]},
    {"name": "C", "instructions": "You loop back.", "tools": ["B"]}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runValidate(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newValidateCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return exitValid
	}
	var exit exitError
	require.ErrorAs(t, err, &exit)
	return exit.code
}

func TestValidatePasses(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello_world.json", validNetwork)

	stdout, stderr, err := runValidate(t, path)
	assert.Equal(t, exitValid, exitCodeOf(t, err))
	assert.Contains(t, stdout, "Validation passed: No errors found.")
	assert.Empty(t, stderr)
}

func TestValidateVerboseSummary(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello_world.json", validNetwork)

	stdout, _, err := runValidate(t, path, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stdout, "--- Agent Network Summary ---")
	assert.Contains(t, stdout, "Total agents/tools defined: 2")
	assert.Contains(t, stdout, "  - announcer (LLM Agent)")
	assert.Contains(t, stdout, "      Sub-tools: synonymizer")
}

func TestValidateReportsViolations(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cyclic.json", cyclicNetwork)

	stdout, _, err := runValidate(t, path)
	assert.Equal(t, exitViolations, exitCodeOf(t, err))
	assert.Contains(t, stdout, "Validation failed with 1 error(s):")
	assert.Contains(t, stdout, "1. Cyclical dependencies found in agents: ['B', 'C']")
}

func TestValidateIncludeCyclesPermitsCycles(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cyclic.json", cyclicNetwork)

	stdout, _, err := runValidate(t, path, "--include-cycles")
	assert.Equal(t, exitValid, exitCodeOf(t, err))
	assert.Contains(t, stdout, "Validation passed: No errors found.")
}

func TestValidateExternalAgentsFlag(t *testing.T) {
	path := writeFile(t, t.TempDir(), "caller.json", `{
	  "tools": [
	    {"name": "frontman", "instructions": "You relay.", "tools": ["/offline"]}
	  ]
	}`)

	_, _, err := runValidate(t, path)
	assert.Equal(t, exitViolations, exitCodeOf(t, err))

	_, _, err = runValidate(t, path, "--external-agents", "/offline,/other")
	assert.Equal(t, exitValid, exitCodeOf(t, err))
}

func TestValidateUnreadableFile(t *testing.T) {
	_, stderr, err := runValidate(t, filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, exitUnreadable, exitCodeOf(t, err))
	assert.Contains(t, stderr, "Error:")
}

func TestValidateGarbledFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "garbled.json", `{"tools": [`)

	_, stderr, err := runValidate(t, path)
	assert.Equal(t, exitUnreadable, exitCodeOf(t, err))
	assert.Contains(t, stderr, "Error:")
}

func TestValidateRequiresInput(t *testing.T) {
	_, stderr, err := runValidate(t)
	assert.Equal(t, exitUnreadable, exitCodeOf(t, err))
	assert.Contains(t, stderr, "a network file or --registry-dir is required")
}

func TestValidateJSONOutput(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cyclic.json", cyclicNetwork)

	stdout, _, err := runValidate(t, path, "--json-output")
	assert.Equal(t, exitViolations, exitCodeOf(t, err))

	var report struct {
		File   string   `json:"file"`
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, path, report.File)
	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Cyclical dependencies")
}

func TestValidateRegistryDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", validNetwork)
	writeFile(t, dir, "nested/also_good.yaml", "tools:\n"+
		"  - name: solo_front\n"+
		"    instructions: You answer.\n"+
		"    tools: [helper]\n"+
		"  - name: helper\n"+
		"    instructions: You help.\n")
	writeFile(t, dir, "manifest.json", `{"good.json": true}`)
	writeFile(t, dir, "notes.txt", "not a network")

	stdout, _, err := runValidate(t, "--registry-dir", dir)
	assert.Equal(t, exitValid, exitCodeOf(t, err))
	assert.Contains(t, stdout, "Validated 2 file(s): 2 passed, 0 failed, 0 unreadable.")
	assert.NotContains(t, stdout, "manifest.json")
}

func TestValidateRegistryDirAggregatesWorstCode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", validNetwork)
	writeFile(t, dir, "bad.json", cyclicNetwork)

	stdout, _, err := runValidate(t, "--registry-dir", dir)
	assert.Equal(t, exitViolations, exitCodeOf(t, err))
	assert.Contains(t, stdout, "1 passed, 1 failed, 0 unreadable")
}

func TestScanRegistryDirSkipsManifests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", validNetwork)
	writeFile(t, dir, "sub/b.yml", "tools: []\n")
	writeFile(t, dir, "manifest.yaml", `{"a.json": true}`)

	files, err := scanRegistryDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "sub/b.yml"),
	}, files)
}

func TestScanRegistryDirMissing(t *testing.T) {
	_, err := scanRegistryDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"/a", "/b"}, splitCSV("/a, /b"))
	assert.Equal(t, []string{"/solo"}, splitCSV("/solo,"))
}
