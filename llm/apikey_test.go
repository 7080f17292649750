//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAPIKeyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKeys string
	}{
		{
			name:     "openai incorrect key",
			err:      errors.New("Incorrect API key provided: sk-xxx"),
			wantKeys: "OPENAI_API_KEY",
		},
		{
			name:     "anthropic header",
			err:      errors.New("401 invalid x-api-key"),
			wantKeys: "ANTHROPIC_API_KEY",
		},
		{
			name:     "anthropic credit",
			err:      errors.New("Your credit balance is too low to access the Anthropic API"),
			wantKeys: "ANTHROPIC_API_KEY",
		},
		{
			name:     "gemini key",
			err:      errors.New("Gemini: 400 API key not valid. Please pass a valid API key."),
			wantKeys: "GOOGLE_API_KEY",
		},
		{
			name:     "google adc",
			err:      errors.New("could not find Application Default Credentials"),
			wantKeys: "GOOGLE_API_KEY",
		},
		{
			name:     "azure multiple settings",
			err:      errors.New("Error code: 404 Resource not found"),
			wantKeys: "OPENAI_API_VERSION, deployment_name",
		},
		{
			name:     "azure connection",
			err:      errors.New("Connection error"),
			wantKeys: "AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT",
		},
		{
			name: "unrelated",
			err:  errors.New("context deadline exceeded"),
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := CheckAPIKeyError(tt.err)
			if tt.wantKeys == "" {
				assert.Empty(t, msg)
				return
			}
			assert.Contains(t, msg, tt.wantKeys)
			assert.Contains(t, msg, "environment")
		})
	}
}
