//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package toolbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
)

// requestsToolkit exposes plain HTTP verbs as tools so agents can talk
// to arbitrary endpoints without a purpose-built integration.
type requestsToolkit struct {
	client  *http.Client
	headers map[string]string
}

func newRequestsToolkit(args map[string]any) (any, error) {
	timeout := 30 * time.Second
	if seconds, ok := confmap.GetFloat(args, "timeout_seconds", 0); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}
	headers := map[string]string{}
	for k, v := range confmap.GetMap(args, "headers") {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}
	return &requestsToolkit{
		client:  &http.Client{Timeout: timeout},
		headers: headers,
	}, nil
}

func (k *requestsToolkit) Tools() []Tool {
	readParams := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to send the request to.",
			},
			"params": map[string]any{
				"type":        "object",
				"description": "Optional query parameters appended to the URL.",
			},
		},
		"required": []any{"url"},
	}
	writeParams := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to send the request to.",
			},
			"data": map[string]any{
				"type":        "string",
				"description": "Request body sent as-is.",
			},
		},
		"required": []any{"url"},
	}

	return []Tool{
		NewTool("requests_get", "Send an HTTP GET request and return the response body.",
			readParams, k.invoker(http.MethodGet)),
		NewTool("requests_post", "Send an HTTP POST request and return the response body.",
			writeParams, k.invoker(http.MethodPost)),
		NewTool("requests_patch", "Send an HTTP PATCH request and return the response body.",
			writeParams, k.invoker(http.MethodPatch)),
		NewTool("requests_put", "Send an HTTP PUT request and return the response body.",
			writeParams, k.invoker(http.MethodPut)),
		NewTool("requests_delete", "Send an HTTP DELETE request and return the response body.",
			readParams, k.invoker(http.MethodDelete)),
	}
}

func (k *requestsToolkit) invoker(method string) InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		return k.do(ctx, method, args)
	}
}

func (k *requestsToolkit) do(ctx context.Context, method string, args map[string]any) (string, error) {
	target := confmap.GetString(args, "url", "")
	if target == "" {
		return "", errs.Validation("requests tool needs a url argument")
	}
	if params := confmap.GetMap(args, "params"); len(params) > 0 {
		parsed, err := url.Parse(target)
		if err != nil {
			return "", errs.Wrap(errs.KindValidation, err, "parse url %q", target)
		}
		query := parsed.Query()
		for key, value := range params {
			query.Set(key, fmt.Sprint(value))
		}
		parsed.RawQuery = query.Encode()
		target = parsed.String()
	}

	var body io.Reader
	if data := confmap.GetString(args, "data", ""); data != "" {
		body = strings.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return "", errs.Wrap(errs.KindTool, err, "build %s request", method)
	}
	for key, value := range k.headers {
		req.Header.Set(key, value)
	}

	resp, err := k.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindTool, err, "%s %s", method, target)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.KindTool, err, "read response from %s", target)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errs.Tool("%s %s returned status %d: %s",
			method, target, resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return string(text), nil
}
