//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package openai provides OpenAI-compatible model implementations.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trpc-agentnet-go/llm"
)

const (
	//nolint:gosec
	openaiAPIKeyName string = "OPENAI_API_KEY"

	defaultOllamaBaseURL string = "http://localhost:11434/v1"

	//nolint:gosec
	nvidiaAPIKeyName     string = "NVIDIA_API_KEY"
	defaultNvidiaBaseURL string = "https://integrate.api.nvidia.com/v1"
)

// Variant represents different model variants with specific behaviors.
type Variant string

const (
	// VariantOpenAI is the default OpenAI variant.
	VariantOpenAI Variant = "openai"
	// VariantOllama targets a local Ollama server through its
	// OpenAI-compatible endpoint. No API key is required.
	VariantOllama Variant = "ollama"
	// VariantNvidia targets NVIDIA NIM endpoints, which speak the
	// OpenAI wire format.
	VariantNvidia Variant = "nvidia"
	// VariantAzure targets Azure OpenAI deployments. Use NewAzure.
	VariantAzure Variant = "azure-openai"
)

// variantConfig holds configuration for different variants.
type variantConfig struct {
	// Default API key name for this variant.
	apiKeyName string
	// Default base URL for this variant.
	defaultBaseURL string
}

// variantConfigs maps variant names to their configurations.
var variantConfigs = map[Variant]variantConfig{
	VariantOpenAI: {
		apiKeyName: openaiAPIKeyName,
	},
	VariantOllama: {
		defaultBaseURL: defaultOllamaBaseURL,
	},
	VariantNvidia: {
		apiKeyName:     nvidiaAPIKeyName,
		defaultBaseURL: defaultNvidiaBaseURL,
	},
}

// Model implements the llm.Model interface for OpenAI-compatible APIs.
type Model struct {
	client      openai.Client
	name        string
	baseURL     string
	variant     Variant
	temperature *float64
	maxTokens   *int
	httpClient  *http.Client
}

// New creates a new OpenAI-like model. The name is sent as the model
// field of each request; for Azure it is the deployment name.
func New(name string, opts ...Option) *Model {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}

	// Set default API key and base URL if not specified.
	if cfg, ok := variantConfigs[o.Variant]; ok {
		if val, ok := os.LookupEnv(cfg.apiKeyName); ok && o.APIKey == "" {
			o.APIKey = val
		}
		if cfg.defaultBaseURL != "" && o.BaseURL == "" {
			o.BaseURL = cfg.defaultBaseURL
		}
	}

	var clientOpts []openaiopt.RequestOption

	if o.AzureEndpoint != "" {
		o.Variant = VariantAzure
		clientOpts = append(clientOpts, azure.WithEndpoint(o.AzureEndpoint, o.AzureAPIVersion))
		if o.APIKey != "" {
			clientOpts = append(clientOpts, azure.WithAPIKey(o.APIKey))
		}
	} else if o.APIKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.APIKey))
	}
	if o.BaseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.BaseURL))
	}
	if o.Organization != "" {
		clientOpts = append(clientOpts, openaiopt.WithOrganization(o.Organization))
	}
	if o.Timeout > 0 {
		clientOpts = append(clientOpts, openaiopt.WithRequestTimeout(o.Timeout))
	}
	if o.MaxRetries != nil {
		clientOpts = append(clientOpts, openaiopt.WithMaxRetries(*o.MaxRetries))
	}

	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	clientOpts = append(clientOpts, openaiopt.WithHTTPClient(o.HTTPClient))
	clientOpts = append(clientOpts, o.OpenAIOptions...)

	client := openai.NewClient(clientOpts...)

	return &Model{
		client:      client,
		name:        name,
		baseURL:     o.BaseURL,
		variant:     o.Variant,
		temperature: o.Temperature,
		maxTokens:   o.MaxTokens,
		httpClient:  o.HTTPClient,
	}
}

// NewAzure creates a model backed by an Azure OpenAI deployment. The
// name is the deployment name; endpoint and apiVersion come from
// WithAzureEndpoint.
func NewAzure(name string, opts ...Option) *Model {
	opts = append([]Option{WithVariant(VariantAzure)}, opts...)
	return New(name, opts...)
}

// Info implements the llm.Model interface.
func (m *Model) Info() llm.Info {
	return llm.Info{
		Class: string(m.variant),
		Name:  m.name,
	}
}

// Generate implements the llm.Model interface.
func (m *Model) Generate(ctx context.Context, request *llm.Request) (*llm.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}

	chatRequest := openai.ChatCompletionNewParams{
		Messages: m.convertMessages(request.Messages),
		Model:    shared.ChatModel(m.name),
	}
	if len(request.Tools) > 0 {
		chatRequest.Tools = convertTools(request.Tools)
	}
	if m.temperature != nil {
		chatRequest.Temperature = openai.Float(*m.temperature)
	}
	if m.maxTokens != nil {
		chatRequest.MaxCompletionTokens = openai.Int(int64(*m.maxTokens))
	}

	completion, err := m.client.Chat.Completions.New(ctx, chatRequest)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	choice := completion.Choices[0]
	response := &llm.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        completion.Model,
		Usage: llm.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}
	for _, toolCall := range choice.Message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, llm.ToolCall{
			ID:        toolCall.ID,
			Name:      toolCall.Function.Name,
			Arguments: json.RawMessage(toolCall.Function.Arguments),
		})
	}
	return response, nil
}

// CloseIdleConnections sheds pooled connections held by the model's
// HTTP client. Used as the model's release policy.
func (m *Model) CloseIdleConnections() {
	if m.httpClient != nil {
		m.httpClient.CloseIdleConnections()
	}
}

func (m *Model) convertMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, len(messages))

	for i, msg := range messages {
		toUserMessage := func() openai.ChatCompletionMessageParamUnion {
			return openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			}
		}
		switch msg.Role {
		case llm.RoleSystem:
			result[i] = openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			}
		case llm.RoleAssistant:
			assistantMsg := &openai.ChatCompletionAssistantMessageParam{
				ToolCalls: convertToolCalls(msg.ToolCalls),
			}
			if msg.Content != "" {
				assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			result[i] = openai.ChatCompletionMessageParamUnion{
				OfAssistant: assistantMsg,
			}
		case llm.RoleTool:
			result[i] = openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
					ToolCallID: msg.ToolCallID,
				},
			}
		case llm.RoleUser:
			result[i] = toUserMessage()
		default: // Default to user message if role is unknown.
			result[i] = toUserMessage()
		}
	}

	return result
}

func convertToolCalls(toolCalls []llm.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	var result []openai.ChatCompletionMessageToolCallParam
	for _, toolCall := range toolCalls {
		result = append(result, openai.ChatCompletionMessageToolCallParam{
			ID: toolCall.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      toolCall.Name,
				Arguments: string(toolCall.Arguments),
			},
		})
	}
	return result
}

func convertTools(tools []llm.ToolDef) []openai.ChatCompletionToolParam {
	var result []openai.ChatCompletionToolParam
	for _, tool := range tools {
		result = append(result, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  shared.FunctionParameters(tool.Parameters),
			},
		})
	}
	return result
}
