//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry provides tracing and metrics for the agent runtime.
// It integrates with OpenTelemetry: spans cover model invocations and
// activations, histograms track token usage, and per-request metadata
// plus selected environment variables become span attributes.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Service identity reported on every exported resource.
const (
	ServiceName      = "agentnet"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-go-agentnet"
	InstrumentName   = "trpc.agentnet.go"
)

// Operation names following gen_ai semantic conventions.
const (
	OperationChat        = "chat"
	OperationExecuteTool = "execute_tool"
	OperationInvokeAgent = "invoke_agent"
)

// Span and metric attribute keys.
const (
	KeyGenAIOperationName     = "gen_ai.operation.name"
	KeyGenAISystem            = "gen_ai.system"
	KeyGenAIRequestModel      = "gen_ai.request.model"
	KeyGenAIAgentName         = "gen_ai.agent.name"
	KeyGenAIConversationID    = "gen_ai.conversation.id"
	KeyGenAIUsageInputTokens  = "gen_ai.usage.input_tokens"  // #nosec G101 - metric key name, not a credential.
	KeyGenAIUsageOutputTokens = "gen_ai.usage.output_tokens" // #nosec G101 - metric key name, not a credential.
	KeyGenAITokenType         = "gen_ai.token.type"          // #nosec G101 - metric key name, not a credential.
	KeyErrorType              = "error.type"
	KeyErrorMessage           = "error.message"
	KeyRequestID              = "request_id"
	KeyUserID                 = "user_id"
)

// Metric names.
const (
	MetricGenAIClientTokenUsage        = "gen_ai.client.token.usage" // #nosec G101 - metric key name, not a credential.
	MetricGenAIClientOperationDuration = "gen_ai.client.operation.duration"
	MetricClientRequestCnt             = "agentnet.client.request_cnt"
)

// Token type attribute values for the token usage histogram.
const (
	TokenTypeInput  = "input"
	TokenTypeOutput = "output"
)

// EnvTracingMetadataVars names the environment variables copied onto
// spans when set, space-separated.
const EnvTracingMetadataVars = "AGENT_TRACING_METADATA_ENV_VARS"

const defaultTracingMetadataVars = "POD_NAME POD_NAMESPACE POD_IP NODE_NAME"

// Tracer is the tracer all runtime spans start from. The otel global
// delegates to whatever provider Start installs.
var Tracer = otel.Tracer(InstrumentName)

var (
	requestCnt metric.Int64Counter
	tokenUsage metric.Int64Histogram
	opDuration metric.Float64Histogram
)

// The global meter delegates to whatever provider Start installs later,
// and instrument creation on it does not fail; call sites still
// nil-check so a broken provider swap degrades to no-ops.
func init() {
	meter := otel.Meter(InstrumentName)
	requestCnt, _ = meter.Int64Counter(
		MetricClientRequestCnt,
		metric.WithDescription("Total number of model client requests"),
		metric.WithUnit("1"),
	)
	tokenUsage, _ = meter.Int64Histogram(
		MetricGenAIClientTokenUsage,
		metric.WithDescription("Token usage for client"),
		metric.WithUnit("{token}"),
	)
	opDuration, _ = meter.Float64Histogram(
		MetricGenAIClientOperationDuration,
		metric.WithDescription("Duration of client operation"),
		metric.WithUnit("s"),
	)
}

// NewChatSpanName names the span for one model invocation, e.g.
// "chat gpt-4o".
func NewChatSpanName(requestModel string) string {
	if requestModel == "" {
		return OperationChat
	}
	return fmt.Sprintf("%s %s", OperationChat, requestModel)
}

// NewExecuteToolSpanName names the span for one tool activation, e.g.
// "execute_tool front_man.searcher".
func NewExecuteToolSpanName(origin string) string {
	return fmt.Sprintf("%s %s", OperationExecuteTool, origin)
}

// NewInvokeAgentSpanName names the span for one agent activation.
func NewInvokeAgentSpanName(origin string) string {
	return fmt.Sprintf("%s %s", OperationInvokeAgent, origin)
}

// StartChatSpan starts the span covering one model invocation. The run
// id correlates every invocation made under one activation context.
func StartChatSpan(ctx context.Context, class, model, runID string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, NewChatSpanName(model), trace.WithAttributes(
		attribute.String(KeyGenAIOperationName, OperationChat),
		attribute.String(KeyGenAISystem, class),
		attribute.String(KeyGenAIRequestModel, model),
		attribute.String(KeyGenAIConversationID, runID),
	))
}

// StartActivationSpan starts the span covering one activation build.
func StartActivationSpan(ctx context.Context, name, origin string, agent bool) (context.Context, trace.Span) {
	spanName := NewExecuteToolSpanName(origin)
	operation := OperationExecuteTool
	if agent {
		spanName = NewInvokeAgentSpanName(origin)
		operation = OperationInvokeAgent
	}
	return Tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String(KeyGenAIOperationName, operation),
		attribute.String(KeyGenAIAgentName, name),
	))
}

// TraceChat records the outcome of a model invocation on its span.
func TraceChat(span trace.Span, promptTokens, completionTokens int, err error) {
	span.SetAttributes(
		attribute.Int(KeyGenAIUsageInputTokens, promptTokens),
		attribute.Int(KeyGenAIUsageOutputTokens, completionTokens),
	)
	if err != nil {
		span.SetAttributes(
			attribute.String(KeyErrorType, "_OTHER"),
			attribute.String(KeyErrorMessage, err.Error()),
		)
		span.SetStatus(codes.Error, err.Error())
	}
}

// RecordTokenUsage feeds the token usage histograms and bumps the
// request counter for one model invocation.
func RecordTokenUsage(ctx context.Context, class, model string, promptTokens, completionTokens int) {
	base := []attribute.KeyValue{
		attribute.String(KeyGenAISystem, class),
		attribute.String(KeyGenAIRequestModel, model),
	}
	if requestCnt != nil {
		requestCnt.Add(ctx, 1, metric.WithAttributes(base...))
	}
	if tokenUsage == nil {
		return
	}
	tokenUsage.Record(ctx, int64(promptTokens), metric.WithAttributes(
		append([]attribute.KeyValue{attribute.String(KeyGenAITokenType, TokenTypeInput)}, base...)...))
	tokenUsage.Record(ctx, int64(completionTokens), metric.WithAttributes(
		append([]attribute.KeyValue{attribute.String(KeyGenAITokenType, TokenTypeOutput)}, base...)...))
}

// RecordOperationDuration feeds the operation duration histogram.
func RecordOperationDuration(ctx context.Context, operation string, seconds float64) {
	if opDuration == nil {
		return
	}
	opDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String(KeyGenAIOperationName, operation)))
}

// TracingAttributes renders per-request metadata and deployment
// environment variables as span attributes. The variables named by
// AGENT_TRACING_METADATA_ENV_VARS (default "POD_NAME POD_NAMESPACE
// POD_IP NODE_NAME") are included when set; request_id and user_id are
// lifted from the metadata when present.
func TracingAttributes(metadata map[string]any) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	vars := os.Getenv(EnvTracingMetadataVars)
	if vars == "" {
		vars = defaultTracingMetadataVars
	}
	for _, name := range strings.Fields(vars) {
		if value := os.Getenv(name); value != "" {
			attrs = append(attrs, attribute.String(name, value))
		}
	}
	for _, key := range []string{KeyRequestID, KeyUserID} {
		if s, ok := metadata[key].(string); ok && s != "" {
			attrs = append(attrs, attribute.String(key, s))
		}
	}
	return attrs
}
