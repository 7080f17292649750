//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package gemini provides Gemini-compatible model implementations.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"trpc.group/trpc-go/trpc-agentnet-go/llm"
)

const className = "gemini"

// Model implements the llm.Model interface for the Gemini API.
type Model struct {
	client      Generator
	name        string
	temperature *float64
	maxTokens   int
	httpClient  *http.Client
}

// New creates a new Gemini model. Client construction reaches out to
// credential resolution, so it takes a context and can fail.
func New(ctx context.Context, name string, opts ...Option) (*Model, error) {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}

	config := o.clientConfig
	if config == nil {
		config = &genai.ClientConfig{
			APIKey:  o.apiKey,
			Backend: genai.BackendGeminiAPI,
		}
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	if config.HTTPClient == nil {
		config.HTTPClient = o.httpClient
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Model{
		client:      &modelsWrapper{models: client.Models},
		name:        name,
		temperature: o.temperature,
		maxTokens:   o.maxTokens,
		httpClient:  o.httpClient,
	}, nil
}

// Info implements the llm.Model interface.
func (m *Model) Info() llm.Info {
	return llm.Info{
		Class: className,
		Name:  m.name,
	}
}

// Generate implements the llm.Model interface.
func (m *Model) Generate(ctx context.Context, request *llm.Request) (*llm.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}

	contents, systemInstruction := convertMessages(request.Messages)
	config := m.buildChatConfig(request, systemInstruction)

	completion, err := m.client.GenerateContent(ctx, m.name, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation: %w", err)
	}
	return parseResponse(completion)
}

// CloseIdleConnections sheds pooled connections held by the model's
// HTTP client. Used as the model's release policy.
func (m *Model) CloseIdleConnections() {
	if m.httpClient != nil {
		m.httpClient.CloseIdleConnections()
	}
}

func (m *Model) buildChatConfig(request *llm.Request, systemInstruction *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
	}
	if len(request.Tools) > 0 {
		config.Tools = convertTools(request.Tools)
		// AUTO mode lets the model decide between tool calls and text.
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}
	if m.temperature != nil {
		config.Temperature = genai.Ptr(float32(*m.temperature))
	}
	if m.maxTokens > 0 {
		config.MaxOutputTokens = int32(m.maxTokens)
	}
	return config
}

// convertMessages maps our message roles onto Gemini contents. System
// messages collapse into a single system instruction.
func convertMessages(messages []llm.Message) ([]*genai.Content, *genai.Content) {
	contents := make([]*genai.Content, 0, len(messages))
	var systemTexts []string

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			if msg.Content != "" {
				systemTexts = append(systemTexts, msg.Content)
			}
		case llm.RoleAssistant:
			parts := make([]*genai.Part, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, toolCall := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   toolCall.ID,
						Name: toolCall.Name,
						Args: decodeToolArguments(toolCall.Arguments),
					},
				})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
		case llm.RoleTool:
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       msg.ToolCallID,
						Name:     msg.ToolName,
						Response: map[string]any{"result": msg.Content},
					},
				}},
			})
		default:
			if msg.Content == "" {
				continue
			}
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	var systemInstruction *genai.Content
	if len(systemTexts) > 0 {
		systemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(systemTexts, "\n\n")}},
		}
	}
	return contents, systemInstruction
}

func decodeToolArguments(args []byte) map[string]any {
	if len(args) == 0 {
		return map[string]any{}
	}
	var decoded map[string]any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return map[string]any{}
	}
	return decoded
}

func convertTools(tools []llm.ToolDef) []*genai.Tool {
	result := make([]*genai.Tool, 0, len(tools))
	for _, tool := range tools {
		result = append(result, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:                 tool.Name,
				Description:          tool.Description,
				ParametersJsonSchema: tool.Parameters,
			}},
		})
	}
	return result
}

func parseResponse(completion *genai.GenerateContentResponse) (*llm.Response, error) {
	if completion == nil || len(completion.Candidates) == 0 {
		return nil, errors.New("gemini generation returned no candidates")
	}

	candidate := completion.Candidates[0]
	response := &llm.Response{
		Model:        completion.ModelVersion,
		FinishReason: string(candidate.FinishReason),
	}
	if usage := completion.UsageMetadata; usage != nil {
		response.Usage = llm.Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}

	if candidate.Content == nil {
		return response, nil
	}
	var textBuilder strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			textBuilder.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args, _ := json.Marshal(part.FunctionCall.Args)
			response.ToolCalls = append(response.ToolCalls, llm.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	response.Content = textBuilder.String()
	return response, nil
}
