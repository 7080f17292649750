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
	"encoding/json"
	"fmt"
	"time"

	"trpc.group/trpc-go/trpc-agentnet-go/codetool"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
	"trpc.group/trpc-go/trpc-agentnet-go/telemetry"
)

// ClassToolActivation runs one coded tool referenced by class symbol.
// Tool failures become "Error: ..." output so the calling chain can
// reason about them instead of dying.
type ClassToolActivation struct {
	factory *Factory
	spec    *network.AgentSpec
	rc      *RunContext
	args    map[string]any
}

func newClassToolActivation(f *Factory, parent message.Origin, spec *network.AgentSpec,
	args map[string]any, sly map[string]any, ownsSly bool) *ClassToolActivation {

	return &ClassToolActivation{
		factory: f,
		spec:    spec,
		rc:      newRunContext(f.inv, f.net, spec, parent, spec.Name, sly, ownsSly, f.cc),
		args:    args,
	}
}

// Name implements Activation.
func (a *ClassToolActivation) Name() string { return a.spec.Name }

// Origin implements Activation.
func (a *ClassToolActivation) Origin() message.Origin { return a.rc.Origin() }

// Build resolves, instantiates and invokes the tool.
func (a *ClassToolActivation) Build(ctx context.Context) (*BuildResult, error) {
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

// DeleteResources implements Activation. Coded tools hold no clients.
func (a *ClassToolActivation) DeleteResources(ctx context.Context) error {
	return a.rc.DeleteResources(ctx)
}

func (a *ClassToolActivation) invoke(ctx context.Context) string {
	a.rc.setState(StateInvoking)
	instance, err := a.factory.inv.coded.Instantiate(a.spec.Class, a.factory.net.Name())
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	args := a.callArgs()
	sly := a.rc.SlyData()
	if branch, ok := instance.(codetool.BranchTool); ok {
		branch.Bind(codetool.Binding{
			RunContext: a.rc,
			Factory:    a.factory,
			Arguments:  args,
			ToolSpec:   a.spec.Raw,
			SlyData:    sly,
		})
	}

	var out any
	switch tool := instance.(type) {
	case codetool.CodedTool:
		out, err = tool.Invoke(ctx, args, sly)
	case codetool.SyncTool:
		out, err = a.factory.inv.RunSync(ctx, func() (any, error) {
			return tool.InvokeSync(args, sly)
		})
	default:
		return fmt.Sprintf("Error: coded tool %s does not implement Invoke or InvokeSync", a.spec.Class)
	}
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return renderToolOutput(out)
}

// callArgs merges the spec's declared args under the call arguments and
// adds the origin keys tools use to tell their instantiations apart.
// User-visible keys never get clobbered.
func (a *ClassToolActivation) callArgs() map[string]any {
	merged := make(map[string]any, len(a.spec.Args)+len(a.args)+2)
	for k, v := range a.spec.Args {
		merged[k] = v
	}
	for k, v := range a.args {
		merged[k] = v
	}
	if _, ok := merged["origin"]; !ok {
		merged["origin"] = a.rc.Origin()
	}
	if _, ok := merged["origin_str"]; !ok {
		merged["origin_str"] = a.rc.Origin().String()
	}
	return merged
}

// renderToolOutput flattens a tool's return value to the string the
// calling chain consumes.
func renderToolOutput(out any) string {
	switch v := out.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
