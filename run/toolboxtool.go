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
	"context"
	"fmt"
	"time"

	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
	"trpc.group/trpc-go/trpc-agentnet-go/telemetry"
	"trpc.group/trpc-go/trpc-agentnet-go/toolbox"
)

// ToolboxActivation runs one shared tool resolved through the toolbox
// registry. Construction args come from the toolbox entry overlaid with
// the agent spec's args; call args come from the model and are schema
// validated before the tool runs.
type ToolboxActivation struct {
	factory *Factory
	spec    *network.AgentSpec
	rc      *RunContext
	args    map[string]any
}

func newToolboxActivation(f *Factory, parent message.Origin, spec *network.AgentSpec,
	args map[string]any, sly map[string]any, ownsSly bool) *ToolboxActivation {

	return &ToolboxActivation{
		factory: f,
		spec:    spec,
		rc:      newRunContext(f.inv, f.net, spec, parent, spec.Name, sly, ownsSly, f.cc),
		args:    args,
	}
}

// Name implements Activation.
func (a *ToolboxActivation) Name() string { return a.spec.Name }

// Origin implements Activation.
func (a *ToolboxActivation) Origin() message.Origin { return a.rc.Origin() }

// Build resolves the toolbox entry and invokes the produced tool.
func (a *ToolboxActivation) Build(ctx context.Context) (*BuildResult, error) {
	ctx, span := telemetry.StartActivationSpan(ctx, a.spec.Name, a.rc.Origin().String(), false)
	defer span.End()
	started := time.Now()
	defer func() {
		telemetry.RecordOperationDuration(ctx, telemetry.OperationExecuteTool, time.Since(started).Seconds())
	}()

	output := a.invoke(ctx)
	if err := a.rc.Write(ctx, message.NewAI(output)); err != nil {
		return nil, err
	}
	a.rc.setState(StateFinal)

	result := &BuildResult{Output: output}
	if a.rc.OwnsSlyData() {
		result.SlyData = upstreamSly(a.spec, a.rc.SlyData())
	}
	return result, nil
}

// DeleteResources implements Activation. Shared clients behind toolbox
// tools belong to the registry, not the activation.
func (a *ToolboxActivation) DeleteResources(ctx context.Context) error {
	return a.rc.DeleteResources(ctx)
}

func (a *ToolboxActivation) invoke(ctx context.Context) string {
	a.rc.setState(StateInvoking)
	registry := a.factory.inv.toolbox
	if registry == nil {
		return fmt.Sprintf("Error: no toolbox registry configured for tool %s", a.spec.Toolbox)
	}
	tools, err := registry.Create(ctx, a.spec.Toolbox, a.spec.Args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	tool := pickTool(tools, a.spec.Toolbox)
	if tool == nil {
		return fmt.Sprintf("Error: toolbox entry %s produced no tools", a.spec.Toolbox)
	}
	if err := toolbox.ValidateArgs(tool.Parameters(), a.args); err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	out, err := tool.Invoke(ctx, a.args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}

// pickTool selects the produced tool matching the entry name, falling
// back to the first. Toolkits expand to several tools; single-tool
// entries produce exactly one.
func pickTool(tools []toolbox.Tool, name string) toolbox.Tool {
	if len(tools) == 0 {
		return nil
	}
	for _, t := range tools {
		if t.Name() == name {
			return t
		}
	}
	return tools[0]
}
