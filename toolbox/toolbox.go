//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package toolbox resolves shared tool names to invokable tools. A
// toolbox entry pairs a name with either a registered tool class, a
// coded tool class, or an MCP server; networks reference entries by
// name without re-declaring the tool's schema or wiring.
package toolbox

import (
	"context"

	"github.com/mitchellh/mapstructure"
)

// Capability tags stamped on resolved entries. Activations use them to
// pick the invocation path.
const (
	TagLangchainTool = "langchain_tool"
	TagCodedTool     = "coded_tool"
)

// Tool is one invokable toolbox tool.
type Tool interface {
	// Name is the tool's call name, unique within its toolbox entry.
	Name() string
	// Description tells the calling agent what the tool does.
	Description() string
	// Parameters is the JSON-schema block describing Invoke's args.
	Parameters() map[string]any
	// Invoke runs the tool and returns its textual result.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Toolkit expands into several tools sharing one backing resource.
type Toolkit interface {
	Tools() []Tool
}

// Kit is a fixed list of tools acting as a toolkit.
type Kit []Tool

// Tools implements Toolkit.
func (k Kit) Tools() []Tool { return k }

// InvokeFunc is the body of a function-backed tool.
type InvokeFunc func(ctx context.Context, args map[string]any) (string, error)

// NewTool wraps a function as a toolbox tool.
func NewTool(name, description string, parameters map[string]any, fn InvokeFunc) Tool {
	return &funcTool{name: name, description: description, parameters: parameters, fn: fn}
}

type funcTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          InvokeFunc
}

func (t *funcTool) Name() string { return t.name }

func (t *funcTool) Description() string { return t.description }

func (t *funcTool) Parameters() map[string]any { return t.parameters }

func (t *funcTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return t.fn(ctx, args)
}

// Factory builds a tool or toolkit from merged arguments. ArgNames
// enumerates the accepted argument keys; a nil slice accepts anything.
// New returns a Tool or a Toolkit.
type Factory struct {
	ArgNames []string
	New      func(args map[string]any) (any, error)
}

// Info is one toolbox entry. Class references either a registered tool
// factory or a coded tool; URL or Command mark the entry as MCP-backed.
// Description and Parameters carry the call schema for coded entries,
// which have no instance to ask.
type Info struct {
	Class       string            `mapstructure:"class"`
	Args        map[string]any    `mapstructure:"args"`
	Description string            `mapstructure:"description"`
	Parameters  map[string]any    `mapstructure:"parameters"`
	URL         string            `mapstructure:"url"`
	Command     string            `mapstructure:"command"`
	CommandArgs []string          `mapstructure:"command_args"`
	Headers     map[string]string `mapstructure:"headers"`

	Raw map[string]any `mapstructure:"-"`
}

// IsMCP reports whether the entry resolves against an MCP server.
func (i *Info) IsMCP() bool {
	return i.URL != "" || i.Command != ""
}

// DecodeInfo decodes one toolbox entry from its file representation.
func DecodeInfo(raw map[string]any) (*Info, error) {
	info := &Info{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           info,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	info.Raw = raw
	return info, nil
}
