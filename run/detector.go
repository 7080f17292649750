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
	"encoding/json"
	"strings"

	"trpc.group/trpc-go/trpc-agentnet-go/log"
)

// ErrorFormatter shapes a detected error before it reaches the caller.
type ErrorFormatter interface {
	Format(agentName, text string) string
}

// stringFormatter passes the error text through unchanged; the server
// log carries the detail.
type stringFormatter struct{}

func (stringFormatter) Format(_, text string) string { return text }

// jsonFormatter wraps the error text as a JSON object so structured
// callers can tell errors from answers.
type jsonFormatter struct{}

func (jsonFormatter) Format(_, text string) string {
	out, err := json.Marshal(map[string]string{"error": text})
	if err != nil {
		return text
	}
	return string(out)
}

// formatterFor resolves an error_formatter name from an agent spec.
// Unknown names fall back to the string formatter.
func formatterFor(name string) ErrorFormatter {
	if strings.EqualFold(name, "json") {
		return jsonFormatter{}
	}
	return stringFormatter{}
}

// systemErrorFragments mark output produced by the runtime itself when
// a chain gave up.
var systemErrorFragments = []string{"Agent stopped"}

// ErrorDetector spots error-shaped output from one agent. It matches
// the runtime's own stop messages plus the agent-specific fragments
// declared in the spec (known refusal prefixes and the like), logs the
// detail server-side and hands the caller a formatted message. Stack
// traces never leave the server.
type ErrorDetector struct {
	agentName       string
	formatter       ErrorFormatter
	systemFragments []string
	agentFragments  []string
}

// NewErrorDetector builds the detector for one agent.
func NewErrorDetector(agentName, formatterName string, agentFragments []string) *ErrorDetector {
	return &ErrorDetector{
		agentName:       agentName,
		formatter:       formatterFor(formatterName),
		systemFragments: systemErrorFragments,
		agentFragments:  agentFragments,
	}
}

// HandleError inspects output and reformats it when any fragment
// matches. Clean output passes through untouched.
func (d *ErrorDetector) HandleError(output string) string {
	if !d.detect(output) {
		return output
	}
	log.Errorf("agent %s returned an error response: %s", d.agentName, output)
	return d.formatter.Format(d.agentName, output)
}

func (d *ErrorDetector) detect(output string) bool {
	for _, fragment := range d.systemFragments {
		if fragment != "" && strings.Contains(output, fragment) {
			return true
		}
	}
	for _, fragment := range d.agentFragments {
		if fragment != "" && strings.Contains(output, fragment) {
			return true
		}
	}
	return false
}
