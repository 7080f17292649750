//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package bedrock provides a model implementation backed by the AWS
// Bedrock Converse API.
package bedrock

import "net/http"

// options contains configuration options for creating a Model.
type options struct {
	// runtime overrides the constructed Bedrock runtime client.
	// Tests and callers with their own AWS wiring inject one here.
	runtime RuntimeClient
	// region for the Bedrock runtime, e.g. us-east-1.
	region string
	// Static credentials. Empty falls back to the environment.
	accessKeyID     string
	secretAccessKey string
	sessionToken    string
	// temperature sent with each request. Nil omits the field.
	temperature *float64
	// maxTokens caps the output tokens. Zero omits the field.
	maxTokens int
	// httpClient used by the runtime client.
	httpClient *http.Client
}

var defaultOptions = options{}

// Option is a function that configures the model.
type Option func(*options)

// WithRuntimeClient injects a Bedrock runtime client. Region and
// credential options are ignored when one is provided.
func WithRuntimeClient(runtime RuntimeClient) Option {
	return func(o *options) {
		o.runtime = runtime
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithCredentials sets static AWS credentials. The session token may be
// empty for long-lived keys.
func WithCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(o *options) {
		o.accessKeyID = accessKeyID
		o.secretAccessKey = secretAccessKey
		o.sessionToken = sessionToken
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
