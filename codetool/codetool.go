//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package codetool resolves and instantiates code-backed tools referenced
// from agent networks by symbolic class path. There is no dynamic loading:
// tool constructors register at init time under dotted paths such as
// "tools.accounting.Accountant", and network specs refer to them by the
// same symbol.
package codetool

import (
	"context"
)

// CodedTool is the contract for code-backed tools. Args carries the
// arguments the calling agent decided on; slyData is the out-of-band
// channel shared down the call chain and may be mutated in place. The
// returned value is either a string or a JSON-encodable structure.
type CodedTool interface {
	Invoke(ctx context.Context, args map[string]any, slyData map[string]any) (any, error)
}

// SyncTool is the plain synchronous form. Activations dispatch these
// through the executor pool so a slow tool cannot stall its caller's
// event loop. A tool implementing both forms is invoked as a CodedTool.
type SyncTool interface {
	InvokeSync(args map[string]any, slyData map[string]any) (any, error)
}

// Binding carries the per-activation wiring handed to branch tools just
// before Invoke. RunContext and Factory are kept untyped here so tool
// packages do not depend on the runtime package; branch tools assert the
// concrete types they were built against.
type Binding struct {
	RunContext any
	Factory    any
	Arguments  map[string]any
	ToolSpec   map[string]any
	SlyData    map[string]any
}

// BranchTool is implemented by coded tools that spawn child activations
// of their own. Bind is called once per activation, before Invoke.
type BranchTool interface {
	Bind(binding Binding)
}

// Constructor builds a fresh tool instance. Constructors take no
// arguments; per-call state arrives through Invoke or Bind.
type Constructor func() any
