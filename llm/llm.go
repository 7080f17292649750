//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package llm defines the provider-neutral chat model surface and the
// registry that maps llm config class names to provider adapters. Each
// adapter package constructs Resources: the chat model paired with a
// lifecycle policy for the network client behind it.
package llm

import (
	"context"
	"encoding/json"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem is the instructions message.
	RoleSystem Role = "system"
	// RoleUser carries user (or upstream agent) input.
	RoleUser Role = "user"
	// RoleAssistant is model output, possibly with tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool carries a tool result back to the model.
	RoleTool Role = "tool"
)

// Message is one provider-neutral chat turn.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// ToolCall is a model-requested tool invocation. Arguments stay raw JSON
// so malformed provider output surfaces at the call site.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolDef declares a callable tool to the model.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is one model invocation.
type Request struct {
	Messages []Message
	Tools    []ToolDef
}

// Usage reports token consumption of one invocation.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the model's reply. Content and ToolCalls may both be set.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	Usage        Usage
	FinishReason string
	Model        string
}

// Info describes a constructed model.
type Info struct {
	Class string
	Name  string
}

// Model is a chat model ready to be invoked.
type Model interface {
	Info() Info
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a plain assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolResultMessage builds a tool result message answering a tool call.
func ToolResultMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, ToolName: name}
}
