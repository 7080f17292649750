//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package network

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Kind discriminates what an agent spec resolves to at activation time.
type Kind int

const (
	// KindLlmAgent is a reasoning node driven by a chat model.
	KindLlmAgent Kind = iota
	// KindCodedTool is a registered in-process tool class.
	KindCodedTool
	// KindToolbox is a shared tool resolved through the toolbox registry.
	KindToolbox
)

// AgentSpec is one entry of a network's tools list. Raw preserves the
// untyped map the spec was decoded from so policy lookups can distinguish
// absent keys from zero values.
type AgentSpec struct {
	Name                string         `mapstructure:"name"`
	Function            map[string]any `mapstructure:"function"`
	Instructions        string         `mapstructure:"instructions"`
	Command             string         `mapstructure:"command"`
	Class               string         `mapstructure:"class"`
	Toolbox             string         `mapstructure:"toolbox"`
	Tools               []string       `mapstructure:"tools"`
	LlmConfig           map[string]any `mapstructure:"llm_config"`
	Allow               map[string]any `mapstructure:"allow"`
	Args                map[string]any `mapstructure:"args"`
	ErrorFragments      []string       `mapstructure:"error_fragments"`
	ErrorFormatter      string         `mapstructure:"error_formatter"`
	MaxExecutionSeconds float64        `mapstructure:"max_execution_seconds"`
	MaxIterations       int            `mapstructure:"max_iterations"`

	Raw map[string]any `mapstructure:"-"`
}

// DecodeAgentSpec decodes one tools-list entry. Numeric fields accept
// whatever width the file format produced.
func DecodeAgentSpec(raw map[string]any) (*AgentSpec, error) {
	spec := &AgentSpec{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           spec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	spec.Raw = raw
	return spec, nil
}

// Kind classifies the spec. A class reference wins over a toolbox
// reference; everything else is an LLM agent.
func (s *AgentSpec) Kind() Kind {
	switch {
	case s.Class != "":
		return KindCodedTool
	case s.Toolbox != "":
		return KindToolbox
	default:
		return KindLlmAgent
	}
}

// DisplayAs returns the connectivity-report label for the spec.
func (s *AgentSpec) DisplayAs() string {
	switch s.Kind() {
	case KindCodedTool:
		return "coded_tool"
	case KindToolbox:
		return "langchain_tool"
	default:
		return "llm_agent"
	}
}

// Verbose reports whether the agent asked for verbose journaling. The
// key accepts booleans and the string forms "true", "extra" and
// "logging".
func (s *AgentSpec) Verbose() bool {
	switch v := s.Raw["verbose"].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(v) {
		case "true", "extra", "logging":
			return true
		}
	}
	return false
}

// HasEmptyInstructions reports whether the instructions key is present
// but blank. Specs without the key at all are tools, not misconfigured
// agents.
func (s *AgentSpec) HasEmptyInstructions() bool {
	v, ok := s.Raw["instructions"]
	if !ok {
		return false
	}
	str, ok := v.(string)
	return ok && str == ""
}

// FunctionDescription returns the function block's description, or "".
func (s *AgentSpec) FunctionDescription() string {
	d, _ := s.Function["description"].(string)
	return d
}

// FunctionParameters returns the declared parameter schema, or nil when
// the agent takes no arguments.
func (s *AgentSpec) FunctionParameters() map[string]any {
	p, _ := s.Function["parameters"].(map[string]any)
	return p
}

// IsExternalRef reports whether a tool reference points outside the
// network: an absolute /agent path on the hosting server, an http(s)
// streaming endpoint, or an a2a:// peer.
func IsExternalRef(ref string) bool {
	return strings.HasPrefix(ref, "/") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "a2a://")
}
