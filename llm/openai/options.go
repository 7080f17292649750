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
	"net/http"
	"time"

	openaiopt "github.com/openai/openai-go/option"
)

// options contains configuration options for creating a Model.
type options struct {
	// API key for the OpenAI client.
	APIKey string
	// Base URL for the OpenAI client. It is optional for OpenAI-compatible APIs.
	BaseURL string
	// Organization header value, if the account belongs to multiple orgs.
	Organization string
	// Request timeout for the underlying HTTP calls.
	Timeout time.Duration
	// Max retries for the OpenAI client. Nil keeps the SDK default.
	MaxRetries *int
	// Sampling temperature. Nil omits the field from requests.
	Temperature *float64
	// Completion token cap. Nil omits the field from requests.
	MaxTokens *int
	// HTTP client used for requests. Defaults to a dedicated client so
	// connections can be shed when the model is released.
	HTTPClient *http.Client
	// Azure endpoint, e.g. https://example-resource.azure.openai.com/.
	AzureEndpoint string
	// Azure API version, e.g. 2024-06-01.
	AzureAPIVersion string
	// Options for the OpenAI client, applied last.
	OpenAIOptions []openaiopt.RequestOption
	// Variant for model-specific behavior.
	Variant Variant
}

var defaultOptions = options{
	Variant: VariantOpenAI,
}

// Option is a function that configures the model.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.APIKey = key
	}
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.BaseURL = url
	}
}

// WithOrganization sets the OpenAI organization header.
func WithOrganization(org string) Option {
	return func(o *options) {
		o.Organization = org
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.Timeout = timeout
	}
}

// WithMaxRetries sets the client retry count.
func WithMaxRetries(retries int) Option {
	return func(o *options) {
		o.MaxRetries = &retries
	}
}

// WithTemperature sets the sampling temperature sent with each request.
func WithTemperature(temperature float64) Option {
	return func(o *options) {
		o.Temperature = &temperature
	}
}

// WithMaxTokens caps the completion tokens requested from the model.
func WithMaxTokens(maxTokens int) Option {
	return func(o *options) {
		o.MaxTokens = &maxTokens
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.HTTPClient = client
	}
}

// WithAzureEndpoint sets the Azure OpenAI endpoint and API version.
// Supplying it switches the client to the Azure request shape.
func WithAzureEndpoint(endpoint, apiVersion string) Option {
	return func(o *options) {
		o.AzureEndpoint = endpoint
		o.AzureAPIVersion = apiVersion
	}
}

// WithOpenAIOptions appends raw OpenAI client options. They are applied
// after the options derived from this package's configuration.
func WithOpenAIOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) {
		o.OpenAIOptions = append(o.OpenAIOptions, opts...)
	}
}

// WithVariant sets the model variant.
func WithVariant(variant Variant) Option {
	return func(o *options) {
		o.Variant = variant
	}
}
