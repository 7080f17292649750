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
	"net/http"

	"google.golang.org/genai"
)

// options contains configuration options for creating a Model.
type options struct {
	// apiKey for the Gemini API. Empty falls back to the SDK's
	// GOOGLE_API_KEY / GEMINI_API_KEY environment handling.
	apiKey string
	// temperature sent with each request. Nil omits the field.
	temperature *float64
	// maxTokens caps the output tokens. Zero omits the field.
	maxTokens int
	// httpClient used by the GenAI client.
	httpClient *http.Client
	// clientConfig overrides the derived genai.ClientConfig entirely.
	clientConfig *genai.ClientConfig
}

var defaultOptions = options{}

// Option is a function that configures the model.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithTemperature sets the sampling temperature sent with each request.
func WithTemperature(temperature float64) Option {
	return func(o *options) {
		o.temperature = &temperature
	}
}

// WithMaxTokens caps the output tokens requested from the model.
func WithMaxTokens(maxTokens int) Option {
	return func(o *options) {
		o.maxTokens = maxTokens
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithClientConfig replaces the whole GenAI client configuration, for
// Vertex AI backends or custom credentials.
func WithClientConfig(config *genai.ClientConfig) Option {
	return func(o *options) {
		o.clientConfig = config
	}
}
