//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package providers registers the built-in model classes with the llm
// registry. Import it for side effects:
//
//	import _ "trpc.group/trpc-go/trpc-agentnet-go/llm/providers"
package providers

import (
	"context"
	"net/http"
	"net/url"
	"os"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/llm"
	"trpc.group/trpc-go/trpc-agentnet-go/llm/anthropic"
	"trpc.group/trpc-go/trpc-agentnet-go/llm/bedrock"
	"trpc.group/trpc-go/trpc-agentnet-go/llm/gemini"
	llmopenai "trpc.group/trpc-go/trpc-agentnet-go/llm/openai"
)

func init() {
	llm.Register("openai", openaiProvider)
	llm.Register("azure-openai", azureOpenaiProvider)
	llm.Register("ollama", ollamaProvider)
	llm.Register("nvidia", nvidiaProvider)
	llm.Register("anthropic", anthropicProvider)
	llm.Register("gemini", geminiProvider)
	llm.Register("bedrock", bedrockProvider)
}

// resources wraps a model with the release policy for its HTTP client.
func resources(model llm.Model, client *http.Client) *llm.Resources {
	return &llm.Resources{
		Model: model,
		Policy: llm.ClientPolicyFunc(func(context.Context) error {
			client.CloseIdleConnections()
			return nil
		}),
	}
}

// proxyHTTPClient builds the model's dedicated HTTP client, honoring
// the optional proxy configuration.
func proxyHTTPClient(cfg llm.Config, proxyKey, proxyEnv string) (*http.Client, error) {
	proxy := cfg.ValueOrEnv(proxyKey, proxyEnv)
	if proxy == "" {
		return &http.Client{}, nil
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, errs.Config("invalid proxy URL %q: %v", proxy, err)
	}
	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}, nil
}

func openaiProvider(cfg llm.Config) (*llm.Resources, error) {
	client, err := proxyHTTPClient(cfg, "openai_proxy", "OPENAI_PROXY")
	if err != nil {
		return nil, err
	}
	opts := []llmopenai.Option{
		llmopenai.WithHTTPClient(client),
	}
	if key := cfg.ValueOrEnv("openai_api_key", "OPENAI_API_KEY"); key != "" {
		opts = append(opts, llmopenai.WithAPIKey(key))
	}
	if base := cfg.ValueOrEnv("openai_api_base", "OPENAI_API_BASE"); base != "" {
		opts = append(opts, llmopenai.WithBaseURL(base))
	}
	if org := cfg.ValueOrEnv("openai_organization", "OPENAI_ORG_ID"); org != "" {
		opts = append(opts, llmopenai.WithOrganization(org))
	}
	opts = append(opts, openaiSamplingOptions(cfg)...)
	return resources(llmopenai.New(cfg.ModelName(), opts...), client), nil
}

func azureOpenaiProvider(cfg llm.Config) (*llm.Resources, error) {
	// The Azure key setting shadows the plain OpenAI one so a single
	// environment can hold both.
	key := cfg.ValueOrEnv("openai_api_key", "AZURE_OPENAI_API_KEY")
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	endpoint := cfg.ValueOrEnv("azure_endpoint", "AZURE_OPENAI_ENDPOINT")
	apiVersion := cfg.ValueOrEnv("openai_api_version", "OPENAI_API_VERSION")
	deployment := cfg.ValueOrEnv("deployment_name", "AZURE_OPENAI_DEPLOYMENT_NAME")
	if deployment == "" {
		deployment = cfg.ModelName()
	}

	client := &http.Client{}
	opts := []llmopenai.Option{
		llmopenai.WithHTTPClient(client),
		llmopenai.WithAzureEndpoint(endpoint, apiVersion),
	}
	if key != "" {
		opts = append(opts, llmopenai.WithAPIKey(key))
	}
	opts = append(opts, openaiSamplingOptions(cfg)...)
	return resources(llmopenai.NewAzure(deployment, opts...), client), nil
}

func ollamaProvider(cfg llm.Config) (*llm.Resources, error) {
	client := &http.Client{}
	opts := []llmopenai.Option{
		llmopenai.WithHTTPClient(client),
		llmopenai.WithVariant(llmopenai.VariantOllama),
	}
	if base := cfg.GetString("base_url"); base != "" {
		opts = append(opts, llmopenai.WithBaseURL(base))
	}
	opts = append(opts, openaiSamplingOptions(cfg)...)
	return resources(llmopenai.New(cfg.ModelName(), opts...), client), nil
}

func nvidiaProvider(cfg llm.Config) (*llm.Resources, error) {
	client := &http.Client{}
	opts := []llmopenai.Option{
		llmopenai.WithHTTPClient(client),
		llmopenai.WithVariant(llmopenai.VariantNvidia),
	}
	if key := cfg.ValueOrEnv("nvidia_api_key", "NVIDIA_API_KEY"); key != "" {
		opts = append(opts, llmopenai.WithAPIKey(key))
	}
	if base := cfg.GetString("base_url"); base != "" {
		opts = append(opts, llmopenai.WithBaseURL(base))
	}
	opts = append(opts, openaiSamplingOptions(cfg)...)
	return resources(llmopenai.New(cfg.ModelName(), opts...), client), nil
}

func openaiSamplingOptions(cfg llm.Config) []llmopenai.Option {
	var opts []llmopenai.Option
	if temperature, ok := cfg.Temperature(); ok {
		opts = append(opts, llmopenai.WithTemperature(temperature))
	}
	if maxTokens, ok := cfg.MaxTokens(); ok {
		opts = append(opts, llmopenai.WithMaxTokens(maxTokens))
	}
	if timeout, ok := cfg.RequestTimeout(); ok {
		opts = append(opts, llmopenai.WithTimeout(timeout))
	}
	if retries, ok := cfg.MaxRetries(); ok {
		opts = append(opts, llmopenai.WithMaxRetries(retries))
	}
	return opts
}

func anthropicProvider(cfg llm.Config) (*llm.Resources, error) {
	client := &http.Client{}
	opts := []anthropic.Option{
		anthropic.WithHTTPClient(client),
	}
	if key := cfg.ValueOrEnv("anthropic_api_key", "ANTHROPIC_API_KEY"); key != "" {
		opts = append(opts, anthropic.WithAPIKey(key))
	}
	if base := cfg.ValueOrEnv("anthropic_api_url", "ANTHROPIC_API_URL"); base != "" {
		opts = append(opts, anthropic.WithBaseURL(base))
	}
	if temperature, ok := cfg.Temperature(); ok {
		opts = append(opts, anthropic.WithTemperature(temperature))
	}
	if maxTokens, ok := cfg.MaxTokens(); ok {
		opts = append(opts, anthropic.WithMaxTokens(maxTokens))
	}
	if timeout, ok := cfg.RequestTimeout(); ok {
		opts = append(opts, anthropic.WithTimeout(timeout))
	}
	if retries, ok := cfg.MaxRetries(); ok {
		opts = append(opts, anthropic.WithMaxRetries(retries))
	}
	return resources(anthropic.New(cfg.ModelName(), opts...), client), nil
}

func geminiProvider(cfg llm.Config) (*llm.Resources, error) {
	client := &http.Client{}
	opts := []gemini.Option{
		gemini.WithHTTPClient(client),
	}
	if key := cfg.ValueOrEnv("google_api_key", "GOOGLE_API_KEY"); key != "" {
		opts = append(opts, gemini.WithAPIKey(key))
	}
	if temperature, ok := cfg.Temperature(); ok {
		opts = append(opts, gemini.WithTemperature(temperature))
	}
	if maxTokens, ok := cfg.MaxTokens(); ok {
		opts = append(opts, gemini.WithMaxTokens(maxTokens))
	}
	model, err := gemini.New(context.Background(), cfg.ModelName(), opts...)
	if err != nil {
		return nil, err
	}
	return resources(model, client), nil
}

func bedrockProvider(cfg llm.Config) (*llm.Resources, error) {
	client := &http.Client{}
	opts := []bedrock.Option{
		bedrock.WithHTTPClient(client),
	}
	if region := cfg.GetString("region_name"); region != "" {
		opts = append(opts, bedrock.WithRegion(region))
	}
	if accessKeyID := cfg.GetString("aws_access_key_id"); accessKeyID != "" {
		opts = append(opts, bedrock.WithCredentials(
			accessKeyID,
			cfg.GetString("aws_secret_access_key"),
			cfg.GetString("aws_session_token"),
		))
	}
	if temperature, ok := cfg.Temperature(); ok {
		opts = append(opts, bedrock.WithTemperature(temperature))
	}
	if maxTokens, ok := cfg.MaxTokens(); ok {
		opts = append(opts, bedrock.WithMaxTokens(maxTokens))
	}
	model, err := bedrock.New(cfg.ModelName(), opts...)
	if err != nil {
		return nil, err
	}
	return resources(model, client), nil
}
