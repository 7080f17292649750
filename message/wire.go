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
	"fmt"
)

// ChatFilterType controls how much of the journal traffic a streaming-chat
// client receives.
type ChatFilterType int

const (
	// FilterMinimal emits only the terminal AGENT_FRAMEWORK message.
	FilterMinimal ChatFilterType = iota
	// FilterMaximal emits every journaled message in order.
	FilterMaximal
)

var filterNames = map[ChatFilterType]string{
	FilterMinimal: "MINIMAL",
	FilterMaximal: "MAXIMAL",
}

// String returns the wire name of the filter type.
func (f ChatFilterType) String() string {
	if n, ok := filterNames[f]; ok {
		return n
	}
	return "MINIMAL"
}

// MarshalJSON encodes the filter type as its wire name.
func (f ChatFilterType) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON decodes a wire name; unknown names fall back to MINIMAL.
func (f *ChatFilterType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("chat_filter_type must be a string: %w", err)
	}
	if name == "MAXIMAL" {
		*f = FilterMaximal
	} else {
		*f = FilterMinimal
	}
	return nil
}

// ChatFilter is the optional filter block of a streaming-chat request.
type ChatFilter struct {
	ChatFilterType ChatFilterType `json:"chat_filter_type"`
}

// ChatRequest is one streaming-chat turn.
type ChatRequest struct {
	UserMessage *Message       `json:"user_message"`
	ChatContext *ChatContext   `json:"chat_context,omitempty"`
	SlyData     map[string]any `json:"sly_data,omitempty"`
	ChatFilter  *ChatFilter    `json:"chat_filter,omitempty"`
}

// FilterType returns the requested filter, defaulting to MINIMAL.
func (r *ChatRequest) FilterType() ChatFilterType {
	if r == nil || r.ChatFilter == nil {
		return FilterMinimal
	}
	return r.ChatFilter.ChatFilterType
}

// Text returns the user message text, or "" when absent (an empty follow-up
// against a chat context is legal).
func (r *ChatRequest) Text() string {
	if r == nil || r.UserMessage == nil {
		return ""
	}
	return r.UserMessage.Text
}

// ChatResponse is one newline-delimited line of the response stream.
type ChatResponse struct {
	Response *Message `json:"response"`
}
