//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package llm

import "strings"

// apiKeyChecks maps provider credential settings to the error substrings
// their SDKs produce when the setting is missing or wrong. Order matters:
// matched settings are reported in table order.
var apiKeyChecks = []struct {
	setting    string
	substrings []string
}{
	{"OPENAI_API_KEY", []string{
		"OPENAI_API_KEY", "Incorrect API key provided"}},
	{"ANTHROPIC_API_KEY", []string{
		"ANTHROPIC_API_KEY", "anthropic_api_key", "invalid x-api-key", "credit balance"}},
	{"GOOGLE_API_KEY", []string{
		"Application Default Credentials", "default credentials", "Gemini: 400 API key not valid"}},
	// Azure OpenAI needs several settings; all can come from environment
	// variables except deployment_name, which must be configured.
	{"AZURE_OPENAI_API_KEY", []string{
		"Error code: 401", "invalid subscription key", "wrong API endpoint", "Connection error"}},
	{"AZURE_OPENAI_ENDPOINT", []string{
		"validation error", "base_url", "azure_endpoint", "AZURE_OPENAI_ENDPOINT", "Connection error"}},
	{"OPENAI_API_VERSION", []string{
		"validation error", "api_version", "OPENAI_API_VERSION", "Error code: 404", "Resource not found"}},
	{"deployment_name", []string{
		"Error code: 404", "Resource not found", "API deployment for this resource does not exist"}},
}

// CheckAPIKeyError inspects a provider error for credential problems and
// returns a user-actionable message naming the settings to fix, or ""
// when the error does not look credential-related. Errors with a message
// here are not worth retrying.
func CheckAPIKeyError(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	var matched []string
	for _, check := range apiKeyChecks {
		for _, find := range check.substrings {
			if strings.Contains(text, find) {
				matched = append(matched, check.setting)
				break
			}
		}
	}
	if len(matched) == 0 {
		return ""
	}
	keys := strings.Join(matched, ", ")
	return `
A value for the ` + keys + ` environment variable must be correctly set in the agent
server or run-time environment in order to use this agent network.

Some things to try:
1) Double check that your value for ` + keys + ` is set correctly
2) If you do not have a value for ` + keys + `, visit the LLM provider's website to get one.
3) It's possible that your credit balance on your account with the LLM provider is too low
   to make the request.  Check that.
4) Sometimes these errors happen because of firewall blockages to the site that hosts the LLM.
   Try checking that you can reach the regular UI for the LLM from a web browser
   on the same machine making this request.
`
}
