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

	"google.golang.org/genai"
)

// Generator is the slice of the GenAI client this package uses. Tests
// substitute a fake to exercise request and response conversion.
type Generator interface {
	// GenerateContent generates content based on the provided model,
	// contents, and configuration.
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// modelsWrapper adapts *genai.Models to Generator.
type modelsWrapper struct {
	models *genai.Models
}

// GenerateContent implements Generator.
func (m *modelsWrapper) GenerateContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.models.GenerateContent(ctx, model, contents, config)
}
