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
	"os"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
)

// Config is one llm config block: the network default overlaid by the
// agent's own block, on top of the built-in defaults.
type Config map[string]any

// DefaultConfig returns the built-in base every llm config is overlaid
// onto.
func DefaultConfig() Config {
	return Config{
		"model_name":  "gpt-3.5-turbo",
		"temperature": 0.7,
	}
}

// Overlaid returns c deep-merged under over, neither input mutated.
func (c Config) Overlaid(over Config) Config {
	return Config(confmap.Overlay(map[string]any(c), map[string]any(over)))
}

// FullConfig assembles the effective config for one agent: built-in
// defaults, then the network default block, then the agent's own block.
func FullConfig(networkDefault, agentConfig map[string]any) Config {
	full := DefaultConfig().Overlaid(Config(networkDefault))
	return full.Overlaid(Config(agentConfig))
}

// Class returns the lowercased provider class name, or "".
func (c Config) Class() string {
	return strings.ToLower(confmap.GetString(c, "class", ""))
}

// ModelName returns the model under whichever key the config used.
func (c Config) ModelName() string {
	for _, key := range []string{"model_name", "model", "model_id"} {
		if name := confmap.GetString(c, key, ""); name != "" {
			return name
		}
	}
	return ""
}

// EffectiveClass returns the declared class, falling back to the class
// implied by the model name's family.
func (c Config) EffectiveClass() string {
	if class := c.Class(); class != "" {
		return class
	}
	return DefaultClassForModel(c.ModelName())
}

// Temperature returns the sampling temperature when configured.
func (c Config) Temperature() (float64, bool) {
	return confmap.GetFloat(c, "temperature", 0)
}

// MaxTokens returns the completion token limit when configured.
func (c Config) MaxTokens() (int, bool) {
	return confmap.GetInt(c, "max_tokens", 0)
}

// MaxRetries returns the provider-client retry count when configured.
func (c Config) MaxRetries() (int, bool) {
	return confmap.GetInt(c, "max_retries", 0)
}

// RequestTimeout returns the per-request timeout in seconds when
// configured.
func (c Config) RequestTimeout() (time.Duration, bool) {
	secs, ok := confmap.GetFloat(c, "request_timeout", 0)
	if !ok || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// GetString returns the string value under key, or "".
func (c Config) GetString(key string) string {
	return confmap.GetString(c, key, "")
}

// Fallbacks returns the fallback config list. When the key is present it
// replaces the whole candidate list, primary included; otherwise the
// config itself is the single candidate.
func (c Config) Fallbacks() []Config {
	raw := confmap.GetSlice(c, "fallbacks")
	if raw == nil {
		return []Config{c}
	}
	out := make([]Config, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]any); ok {
			out = append(out, Config(m))
		}
	}
	if len(out) == 0 {
		return []Config{c}
	}
	return out
}

// ValueOrEnv returns config[key] when it is a non-empty string, else the
// environment variable, else "".
func ValueOrEnv(cfg map[string]any, key, envVar string) string {
	if s, ok := cfg[key].(string); ok && s != "" {
		return s
	}
	return os.Getenv(envVar)
}

// ValueOrEnv is the method form over the config itself.
func (c Config) ValueOrEnv(key, envVar string) string {
	return ValueOrEnv(c, key, envVar)
}

// classByPrefix maps model-name families to provider classes the way the
// stock model catalog does, so a bare model_name still resolves. Bedrock
// vendor-dotted ids come first since they share vendor name prefixes.
var classByPrefix = []struct {
	prefix string
	class  string
}{
	{"amazon.", "bedrock"},
	{"anthropic.", "bedrock"},
	{"meta.", "bedrock"},
	{"cohere.", "bedrock"},
	{"ai21.", "bedrock"},
	{"mistral.", "bedrock"},
	{"gpt-", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"o4", "openai"},
	{"claude-", "anthropic"},
	{"gemini-", "gemini"},
	{"llama", "ollama"},
	{"mistral", "ollama"},
	{"qwen", "ollama"},
	{"deepseek", "ollama"},
	{"phi", "ollama"},
}

// DefaultClassForModel infers the provider class from the model name, or
// returns "" when the family is unknown.
func DefaultClassForModel(modelName string) string {
	for _, entry := range classByPrefix {
		if strings.HasPrefix(modelName, entry.prefix) {
			return entry.class
		}
	}
	return ""
}
