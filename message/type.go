//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package message defines the chat message model shared by the runtime and
// the wire protocol: typed messages, origin paths, chat context resumption
// tokens and the streaming request/response envelopes.
package message

import (
	"encoding/json"
	"fmt"
)

// Type tags a chat message with its role in the conversation.
type Type int

const (
	// TypeUnknown is the zero value; it never appears on the wire.
	TypeUnknown Type = iota
	// TypeHuman is end-user input.
	TypeHuman
	// TypeSystem is a system prompt or system-level notice.
	TypeSystem
	// TypeAI is raw language-model output inside an agent's chat history.
	TypeAI
	// TypeAgent is a framework-produced trace message from one agent,
	// optionally carrying a parsed structure.
	TypeAgent
	// TypeAgentToolResult is a tool's answer routed back to its caller,
	// tagged with the origin that produced it.
	TypeAgentToolResult
	// TypeAgentFramework is the terminal message of a turn: compiled text,
	// optional structure, redacted sly data and the next chat context.
	TypeAgentFramework
)

var typeNames = map[Type]string{
	TypeHuman:           "HUMAN",
	TypeSystem:          "SYSTEM",
	TypeAI:              "AI",
	TypeAgent:           "AGENT",
	TypeAgentToolResult: "AGENT_TOOL_RESULT",
	TypeAgentFramework:  "AGENT_FRAMEWORK",
}

var typeValues = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, n := range typeNames {
		m[n] = t
	}
	return m
}()

// String returns the wire name of the type.
func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// ParseType resolves a wire name to a Type.
func ParseType(name string) (Type, error) {
	if t, ok := typeValues[name]; ok {
		return t, nil
	}
	return TypeUnknown, fmt.Errorf("unknown message type %q", name)
}

// MarshalJSON encodes the type as its wire name.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a wire name.
func (t *Type) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("message type must be a string: %w", err)
	}
	parsed, err := ParseType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
