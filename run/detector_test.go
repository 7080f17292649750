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
)

func TestErrorDetectorPassesCleanOutput(t *testing.T) {
	d := NewErrorDetector("researcher", "", nil)
	assert.Equal(t, "all good", d.HandleError("all good"))
}

func TestErrorDetectorMatchesSystemFragment(t *testing.T) {
	d := NewErrorDetector("researcher", "", nil)
	out := d.HandleError("Agent stopped due to iteration limit or time limit.")
	assert.Equal(t, "Agent stopped due to iteration limit or time limit.", out)
}

func TestErrorDetectorMatchesAgentFragment(t *testing.T) {
	d := NewErrorDetector("researcher", "json", []string{"I cannot help with"})
	out := d.HandleError("I cannot help with that request.")
	assert.JSONEq(t, `{"error": "I cannot help with that request."}`, out)
}

func TestErrorDetectorJSONFormatter(t *testing.T) {
	d := NewErrorDetector("researcher", "JSON", nil)
	out := d.HandleError("Agent stopped due to exception boom")
	assert.JSONEq(t, `{"error": "Agent stopped due to exception boom"}`, out)
}

func TestErrorDetectorUnknownFormatterFallsBackToString(t *testing.T) {
	d := NewErrorDetector("researcher", "xml", nil)
	out := d.HandleError("Agent stopped due to exception boom")
	assert.Equal(t, "Agent stopped due to exception boom", out)
}

func TestErrorDetectorIgnoresEmptyFragments(t *testing.T) {
	d := NewErrorDetector("researcher", "", []string{""})
	assert.Equal(t, "fine", d.HandleError("fine"))
}
