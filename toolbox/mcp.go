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
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
)

// mcpArgNames are the argument keys MCP-backed entries accept.
var mcpArgNames = []string{"headers", "timeout_seconds"}

var mcpClientInfo = mcp.Implementation{
	Name:    "trpc-agentnet-go",
	Version: "1.0.0",
}

// createMCPTools connects to the entry's MCP server and wraps each
// server-side tool as a toolbox tool.
func (r *Registry) createMCPTools(ctx context.Context, name string, info *Info, merged map[string]any) ([]Tool, error) {
	session := r.session(name, info, merged)
	mcpTools, err := session.listTools(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.KindTool, err, "list tools for toolbox entry %q", name)
	}
	tools := make([]Tool, 0, len(mcpTools))
	for _, mt := range mcpTools {
		tools = append(tools, &mcpTool{
			session:     session,
			name:        mt.Name,
			description: mt.Description,
			parameters:  schemaToMap(mt.InputSchema),
		})
	}
	return tools, nil
}

// session returns the shared session for an entry, creating it on first
// use. Connection settings come from the entry and the first caller's
// merged args.
func (r *Registry) session(name string, info *Info, merged map[string]any) *mcpSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[name]; ok {
		return session
	}
	session := newMCPSession(info, merged)
	r.sessions[name] = session
	return session
}

// mcpSession owns one client connection to an MCP server, shared by
// every expansion of the entry that declared it.
type mcpSession struct {
	info    *Info
	headers map[string]string
	timeout time.Duration

	mu          sync.Mutex
	client      mcp.Connector
	initialized bool
}

func newMCPSession(info *Info, merged map[string]any) *mcpSession {
	headers := make(map[string]string, len(info.Headers))
	for k, v := range info.Headers {
		headers[k] = v
	}
	if extra := confmap.GetMap(merged, "headers"); extra != nil {
		for k, v := range extra {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}
	timeout := 30 * time.Second
	if seconds, ok := confmap.GetFloat(merged, "timeout_seconds", 0); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}
	return &mcpSession{info: info, headers: headers, timeout: timeout}
}

// connect creates the transport-appropriate client and runs the MCP
// initialize handshake. Callers hold s.mu.
func (s *mcpSession) connect(ctx context.Context) error {
	if s.initialized {
		return nil
	}

	client, err := s.newClient()
	if err != nil {
		return err
	}

	initCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	initResp, err := client.Initialize(initCtx, &mcp.InitializeRequest{})
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Warnf("toolbox: close mcp client after failed handshake: %v", closeErr)
		}
		return err
	}
	log.Infof("toolbox: connected to mcp server %s %s (protocol %s)",
		initResp.ServerInfo.Name, initResp.ServerInfo.Version, initResp.ProtocolVersion)

	s.client = client
	s.initialized = true
	return nil
}

func (s *mcpSession) newClient() (mcp.Connector, error) {
	if s.info.URL != "" {
		options := []mcp.ClientOption{}
		if len(s.headers) > 0 {
			headers := http.Header{}
			for k, v := range s.headers {
				headers.Set(k, v)
			}
			options = append(options, mcp.WithHTTPHeaders(headers))
		}
		return mcp.NewClient(s.info.URL, mcpClientInfo, options...)
	}
	config := mcp.StdioTransportConfig{
		ServerParams: mcp.StdioServerParameters{
			Command: s.info.Command,
			Args:    s.info.CommandArgs,
		},
		Timeout: s.timeout,
	}
	return mcp.NewStdioClient(config, mcpClientInfo)
}

func (s *mcpSession) listTools(ctx context.Context) ([]mcp.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	resp, err := s.client.ListTools(ctx, &mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

func (s *mcpSession) callTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connect(ctx); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	req := &mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	resp, err := s.client.CallTool(callCtx, req)
	if err != nil {
		return "", err
	}
	text := flattenContent(resp.Content)
	if resp.IsError {
		return "", errs.Tool("mcp tool %q returned error: %s", name, text)
	}
	return text, nil
}

func (s *mcpSession) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	s.initialized = false
	return err
}

// mcpTool proxies one server-side tool through the shared session.
type mcpTool struct {
	session     *mcpSession
	name        string
	description string
	parameters  map[string]any
}

func (t *mcpTool) Name() string { return t.name }

func (t *mcpTool) Description() string { return t.description }

func (t *mcpTool) Parameters() map[string]any { return t.parameters }

func (t *mcpTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return t.session.callTool(ctx, t.name, args)
}

// flattenContent renders MCP content blocks as text. Text blocks join
// with newlines; anything else falls back to its JSON form.
func flattenContent(content []mcp.Content) string {
	parts := make([]string, 0, len(content))
	for _, block := range content {
		if text, ok := block.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
			continue
		}
		data, err := json.Marshal(block)
		if err != nil {
			continue
		}
		parts = append(parts, string(data))
	}
	return strings.Join(parts, "\n")
}

// schemaToMap converts a server-declared input schema to a plain map
// through its JSON form, absorbing whatever concrete type the client
// library uses.
func schemaToMap(schema any) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}
