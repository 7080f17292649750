//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package message

// Message is one chat message. Which fields are populated depends on Type:
// every message carries Text and Origin; AGENT messages may add Structure;
// AGENT_TOOL_RESULT messages add ToolResultOrigin; the terminal
// AGENT_FRAMEWORK message may add Structure, SlyData and ChatContext.
// Kwargs is opaque passthrough for fields the runtime does not interpret.
type Message struct {
	Type             Type           `json:"type"`
	Text             string         `json:"text"`
	Structure        map[string]any `json:"structure,omitempty"`
	SlyData          map[string]any `json:"sly_data,omitempty"`
	ChatContext      *ChatContext   `json:"chat_context,omitempty"`
	Origin           Origin         `json:"origin,omitempty"`
	ToolResultOrigin Origin         `json:"tool_result_origin,omitempty"`
	Kwargs           map[string]any `json:"additional_kwargs,omitempty"`
}

// NewHuman builds a HUMAN message.
func NewHuman(text string) *Message {
	return &Message{Type: TypeHuman, Text: text}
}

// NewSystem builds a SYSTEM message.
func NewSystem(text string) *Message {
	return &Message{Type: TypeSystem, Text: text}
}

// NewAI builds an AI message.
func NewAI(text string) *Message {
	return &Message{Type: TypeAI, Text: text}
}

// NewAgent builds an AGENT trace message with an optional structure.
func NewAgent(text string, structure map[string]any) *Message {
	return &Message{Type: TypeAgent, Text: text, Structure: structure}
}

// NewToolResult builds an AGENT_TOOL_RESULT message carrying the origin of
// the tool that produced the content.
func NewToolResult(text string, toolResultOrigin Origin) *Message {
	return &Message{Type: TypeAgentToolResult, Text: text, ToolResultOrigin: toolResultOrigin}
}

// NewFramework builds the terminal AGENT_FRAMEWORK message of a turn.
func NewFramework(text string, structure map[string]any, slyData map[string]any, cc *ChatContext) *Message {
	return &Message{
		Type:        TypeAgentFramework,
		Text:        text,
		Structure:   structure,
		SlyData:     slyData,
		ChatContext: cc,
	}
}

// WithOrigin returns a shallow copy of the message stamped with the origin.
// The original is left untouched so journals can stamp per-destination.
func (m *Message) WithOrigin(origin Origin) *Message {
	out := *m
	out.Origin = origin
	return &out
}

// Clone returns a deep-enough copy for history rehydration: scalar fields
// are copied, maps are shallow-copied, origins are re-sliced.
func (m *Message) Clone() *Message {
	out := *m
	out.Origin = append(Origin(nil), m.Origin...)
	out.ToolResultOrigin = append(Origin(nil), m.ToolResultOrigin...)
	if m.Structure != nil {
		out.Structure = copyMap(m.Structure)
	}
	if m.SlyData != nil {
		out.SlyData = copyMap(m.SlyData)
	}
	if m.Kwargs != nil {
		out.Kwargs = copyMap(m.Kwargs)
	}
	return &out
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
