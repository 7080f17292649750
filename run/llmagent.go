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
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/llm"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
	"trpc.group/trpc-go/trpc-agentnet-go/telemetry"
)

const (
	// defaultMaxExecutionSeconds bounds one agent's whole turn,
	// including its subtree.
	defaultMaxExecutionSeconds = 120.0
	// defaultMaxIterations is the tool-calling round budget; the loop
	// limit derives from it as 2n+1 steps.
	defaultMaxIterations = 20
	// defaultGenerateAttempts is the retry budget per model call.
	defaultGenerateAttempts = 3
)

// stoppedMessage is the answer reported when an agent runs out of loop
// steps or execution time. Error detection keys off its prefix.
const stoppedMessage = "Agent stopped due to iteration limit or time limit."

// parseFailureMarker is the known failure shape some chains wrap a
// perfectly good answer in. The text after the marker is recovered as
// the answer instead of burning a retry.
const parseFailureMarker = "Could not parse LLM output: `"

// LlmAgentActivation runs one reasoning agent: it composes the prompt
// from instructions and assigned arguments, drives the tool-calling
// loop against the model and compiles the final answer.
type LlmAgentActivation struct {
	factory  *Factory
	spec     *network.AgentSpec
	rc       *RunContext
	args     map[string]any
	input    string
	front    bool
	attempts int
	detector *ErrorDetector
	children []Activation
}

func newLlmAgentActivation(f *Factory, parent message.Origin, spec *network.AgentSpec,
	args map[string]any, input string, sly map[string]any, ownsSly bool) *LlmAgentActivation {

	return &LlmAgentActivation{
		factory:  f,
		spec:     spec,
		rc:       newRunContext(f.inv, f.net, spec, parent, spec.Name, sly, ownsSly, f.cc),
		args:     args,
		input:    input,
		front:    parent == nil,
		attempts: defaultGenerateAttempts,
		detector: NewErrorDetector(spec.Name, spec.ErrorFormatter, spec.ErrorFragments),
	}
}

// Name implements Activation.
func (a *LlmAgentActivation) Name() string { return a.spec.Name }

// Origin implements Activation.
func (a *LlmAgentActivation) Origin() message.Origin { return a.rc.Origin() }

// Build runs the agent to completion. Credential failures and parent
// cancellation come back as errors; everything else folds into the
// returned chat list so the calling chain can keep going.
func (a *LlmAgentActivation) Build(ctx context.Context) (*BuildResult, error) {
	ctx, span := telemetry.StartActivationSpan(ctx, a.spec.Name, a.rc.Origin().String(), true)
	defer span.End()
	started := time.Now()
	defer func() {
		telemetry.RecordOperationDuration(ctx, telemetry.OperationInvokeAgent, time.Since(started).Seconds())
	}()

	answer, err := a.converse(ctx)
	if err != nil {
		return nil, err
	}

	output := a.detector.HandleError(answer)
	if a.spec.Verbose() {
		log.Infof("agent %s answered: %s", a.rc.Origin().String(), output)
	}
	if err := a.rc.Write(ctx, message.NewAI(output)); err != nil {
		return nil, err
	}
	a.rc.journalTokenAccounting(ctx)
	a.rc.setState(StateFinal)

	result := &BuildResult{Output: chatListOutput(output)}
	if a.rc.OwnsSlyData() {
		result.SlyData = upstreamSly(a.spec, a.rc.SlyData())
	}
	return result, nil
}

// DeleteResources releases the model resources and every child built
// under this activation.
func (a *LlmAgentActivation) DeleteResources(ctx context.Context) error {
	errList := []error{a.rc.DeleteResources(ctx)}
	for _, child := range a.children {
		errList = append(errList, child.DeleteResources(ctx))
	}
	return errors.Join(errList...)
}

// converse drives the model loop under the agent's execution budget:
// prompt, tool rounds, final answer.
func (a *LlmAgentActivation) converse(parent context.Context) (string, error) {
	seconds := a.spec.MaxExecutionSeconds
	if seconds <= 0 {
		seconds = defaultMaxExecutionSeconds
	}
	ctx, cancel := context.WithTimeout(parent, time.Duration(seconds*float64(time.Second)))
	defer cancel()

	cfg := llm.FullConfig(a.factory.net.DefaultLlmConfig(), a.spec.LlmConfig)
	if n, ok := cfg.MaxRetries(); ok && n > 0 {
		a.attempts = n
	}
	if err := a.rc.CreateResources(ctx, cfg); err != nil {
		a.rc.setState(StateFailed)
		return "", err
	}

	entries, err := a.factory.toolEntries(ctx, a.rc)
	if err != nil {
		a.rc.setState(StateFailed)
		return "", err
	}
	defs := make([]llm.ToolDef, 0, len(entries))
	for _, entry := range entries {
		defs = append(defs, entry.def)
	}

	a.compose(ctx)

	iterations := a.spec.MaxIterations
	if iterations <= 0 {
		iterations = defaultMaxIterations
	}
	limit := 2*iterations + 1

	for step := 0; ; {
		if step >= limit {
			return stoppedMessage, nil
		}
		a.rc.setState(StateInvoking)
		resp, err := a.generate(ctx, defs)
		step++
		if err != nil {
			return a.converseError(parent, ctx, err)
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}
		a.rc.setState(StateToolCallsPending)
		if resp.Content != "" {
			_ = a.rc.Write(ctx, message.NewAgent(resp.Content, nil))
		}
		a.rc.SubmitMessage(llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		if step >= limit {
			return stoppedMessage, nil
		}
		a.rc.setState(StateToolRunning)
		if err := a.runTools(ctx, entries, resp.ToolCalls); err != nil {
			return a.converseError(parent, ctx, err)
		}
		step++
	}
}

// converseError classifies a loop failure. Credential problems keep the
// actionable message flowing up as an error, parent cancellation stays
// an error, and everything else becomes the turn's answer.
func (a *LlmAgentActivation) converseError(parent, ctx context.Context, err error) (string, error) {
	if errs.Is(err, errs.KindAuth) {
		a.rc.setState(StateFailed)
		return "", err
	}
	if parent.Err() != nil {
		a.rc.setState(StateCancelled)
		return "", parent.Err()
	}
	if ctx.Err() != nil {
		return stoppedMessage, nil
	}
	return fmt.Sprintf("Agent stopped due to exception %v", err), nil
}

// compose seeds the provider conversation: instructions plus argument
// assignment clauses, the rehydrated history and the user input. A
// child agent runs its spec's command; its call arguments arrive as
// assignment clauses. Without a command the clauses themselves become
// the user input.
func (a *LlmAgentActivation) compose(ctx context.Context) {
	system := a.spec.Instructions
	user := a.input
	if !a.front {
		clauses := AssignArguments(a.spec.FunctionParameters(), a.args)
		user = a.spec.Command
		switch {
		case user != "" && len(clauses) > 0:
			system = system + "\n" + strings.Join(clauses, "\n")
		case user == "" && len(clauses) > 0:
			user = strings.Join(clauses, "\n")
		case user == "" && len(a.args) > 0:
			if encoded, err := json.Marshal(a.args); err == nil {
				user = string(encoded)
			}
		}
	}

	a.rc.SubmitMessage(llm.SystemMessage(system))
	for _, m := range conversationFromHistory(a.rc.Journal().History()) {
		a.rc.SubmitMessage(m)
	}
	if user == "" {
		a.rc.setState(StatePromptReady)
		return
	}
	_ = a.rc.Write(ctx, message.NewHuman(user))
	a.rc.SubmitMessage(llm.UserMessage(user))
}

// generate invokes the model, walking the fallback chain on failure and
// retrying the whole chain up to the attempt budget. The first error is
// kept for reporting.
func (a *LlmAgentActivation) generate(ctx context.Context, defs []llm.ToolDef) (*llm.Response, error) {
	req := &llm.Request{Messages: a.rc.Conversation(), Tools: defs}
	var firstErr error
	for attempt := 0; attempt < a.attempts; attempt++ {
		for _, res := range a.rc.candidates() {
			info := res.Model.Info()
			genCtx, span := telemetry.StartChatSpan(ctx, info.Class, info.Name, a.rc.RunID())
			resp, err := res.Model.Generate(genCtx, req)
			if err == nil {
				telemetry.TraceChat(span, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil)
				span.End()
				telemetry.RecordTokenUsage(ctx, info.Class, info.Name,
					resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
				a.rc.recordUsage(info, resp.Usage)
				return resp, nil
			}
			telemetry.TraceChat(span, 0, 0, err)
			span.End()
			if answer, ok := recoverParseFailure(err); ok {
				return &llm.Response{Content: answer}, nil
			}
			if msg := llm.CheckAPIKeyError(err); msg != "" {
				return nil, errs.Auth("%s", msg)
			}
			if firstErr == nil {
				firstErr = err
			}
			if ctx.Err() != nil {
				return nil, firstErr
			}
			log.Warnf("agent %s model call failed (attempt %d, model %s): %v",
				a.spec.Name, attempt+1, info.Name, err)
		}
	}
	return nil, firstErr
}

// runTools executes one batch of tool calls. Activations are created in
// call order so instantiation indices stay deterministic, then built
// concurrently; results are submitted back in call order regardless of
// completion order.
func (a *LlmAgentActivation) runTools(ctx context.Context, entries []toolEntry, calls []llm.ToolCall) error {
	byName := make(map[string]toolEntry, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		byName[entry.def.Name] = entry
		names = append(names, entry.def.Name)
	}

	type slot struct {
		act    Activation
		result *BuildResult
		static string
	}
	slots := make([]slot, len(calls))
	for i, call := range calls {
		if a.spec.Verbose() {
			log.Infof("agent %s calling tool %s with %s",
				a.rc.Origin().String(), call.Name, string(call.Arguments))
		}
		entry, ok := byName[call.Name]
		if !ok {
			slots[i].static = fmt.Sprintf("%s is not a valid tool, try one of [%s].",
				call.Name, strings.Join(names, ", "))
			continue
		}
		args := map[string]any{}
		if len(call.Arguments) > 0 {
			if err := json.Unmarshal(call.Arguments, &args); err != nil {
				slots[i].static = fmt.Sprintf("Error: could not decode arguments for tool %s: %v",
					call.Name, err)
				continue
			}
		}
		act, err := entry.create(ctx, args)
		if err != nil {
			return err
		}
		a.children = append(a.children, act)
		slots[i].act = act
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range slots {
		if slots[i].act == nil {
			continue
		}
		i := i
		g.Go(func() error {
			res, err := slots[i].act.Build(gctx)
			if err != nil {
				return err
			}
			slots[i].result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, call := range calls {
		content := slots[i].static
		var childOrigin message.Origin
		if slots[i].result != nil {
			content = slots[i].result.Output
			childOrigin = slots[i].act.Origin()
		}
		_ = a.rc.Write(ctx, message.NewToolResult(toolAnswer(content), childOrigin))
		a.rc.SubmitMessage(llm.ToolResultMessage(call.ID, call.Name, content))
	}
	for i := range slots {
		if slots[i].result != nil && slots[i].result.SlyData != nil {
			a.rc.MergeSlyData(slots[i].result.SlyData)
		}
	}
	return nil
}

// recoverParseFailure pulls the usable answer out of the known parse
// failure shape.
func recoverParseFailure(err error) (string, bool) {
	text := err.Error()
	idx := strings.Index(text, parseFailureMarker)
	if idx < 0 {
		return "", false
	}
	answer := strings.TrimSpace(text[idx+len(parseFailureMarker):])
	return strings.TrimSuffix(answer, "`"), true
}

// conversationFromHistory converts rehydrated journal history into
// provider turns. Structure-only trace messages carry no text and are
// skipped.
func conversationFromHistory(history []*message.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m == nil || m.Text == "" {
			continue
		}
		switch m.Type {
		case message.TypeHuman:
			out = append(out, llm.UserMessage(m.Text))
		case message.TypeAI, message.TypeAgent, message.TypeAgentToolResult:
			out = append(out, llm.AssistantMessage(m.Text))
		}
	}
	return out
}
