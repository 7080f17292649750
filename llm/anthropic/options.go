//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package anthropic provides Anthropic-compatible model implementations.
package anthropic

import (
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultMaxTokens is sent when no cap is configured. The Anthropic API
// requires max_tokens on every request.
const defaultMaxTokens = 4096

// options contains configuration options for creating a Model.
type options struct {
	apiKey           string
	baseURL          string
	timeout          time.Duration
	maxRetries       *int
	temperature      *float64
	maxTokens        int
	httpClient       *http.Client
	anthropicOptions []option.RequestOption
}

var defaultOptions = options{
	maxTokens: defaultMaxTokens,
}

// Option is a function that configures the model.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithMaxRetries sets the client retry count.
func WithMaxRetries(retries int) Option {
	return func(o *options) {
		o.maxRetries = &retries
	}
}

// WithTemperature sets the sampling temperature sent with each request.
func WithTemperature(temperature float64) Option {
	return func(o *options) {
		o.temperature = &temperature
	}
}

// WithMaxTokens sets the max_tokens sent with each request.
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

// WithAnthropicOptions appends raw Anthropic client options. They are
// applied after the options derived from this package's configuration.
func WithAnthropicOptions(opts ...option.RequestOption) Option {
	return func(o *options) {
		o.anthropicOptions = append(o.anthropicOptions, opts...)
	}
}
