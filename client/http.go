//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
)

// maxStreamLine caps one newline-delimited response line. Terminal
// framework messages carry the whole chat context, so the default
// bufio.Scanner limit is far too small.
const maxStreamLine = 16 * 1024 * 1024

// HTTPSession talks to a remote network over its native streaming-chat
// service. The reference names the agent in its last path segment:
// "http://host:8080/intranet" calls the "intranet" network of the
// service at host:8080, via /api/v1/intranet/... endpoints.
type HTTPSession struct {
	base    string
	agent   string
	headers map[string]string
	hc      *http.Client
}

// NewHTTPSession parses an http(s) agent reference. String-valued
// request metadata rides along as headers on every call.
func NewHTTPSession(ref string, metadata map[string]any, hc *http.Client) (*HTTPSession, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, errs.Config("invalid agent reference %q: %v", ref, err)
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return nil, errs.Config("agent reference %q names no agent", ref)
	}
	agent := path
	prefix := ""
	if i := strings.LastIndex(path, "/"); i >= 0 {
		prefix = "/" + path[:i]
		agent = path[i+1:]
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &HTTPSession{
		base:    u.Scheme + "://" + u.Host + prefix,
		agent:   agent,
		headers: metadataHeaders(metadata),
		hc:      hc,
	}, nil
}

// endpoint builds one API URL for this session's agent.
func (s *HTTPSession) endpoint(method string) string {
	return fmt.Sprintf("%s/api/v1/%s/%s", s.base, s.agent, method)
}

func (s *HTTPSession) newRequest(ctx context.Context, verb, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, verb, endpoint, body)
	if err != nil {
		return nil, errs.Wrap(errs.KindTool, err, "agent %s", s.agent)
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

// remoteError folds a non-2xx response into a kinded error, honoring
// the service's {"error": ...} body when it has one.
func (s *HTTPSession) remoteError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(body))
	var wire struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Error != "" {
		detail = wire.Error
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return errs.Timeout("agent %s: %s", s.agent, detail)
	}
	return errs.Tool("agent %s: status %d: %s", s.agent, resp.StatusCode, detail)
}

func (s *HTTPSession) getJSON(ctx context.Context, method string, out any) error {
	req, err := s.newRequest(ctx, http.MethodGet, s.endpoint(method), nil)
	if err != nil {
		return err
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindTool, err, "agent %s", s.agent)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return s.remoteError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.KindTool, err, "agent %s: decoding %s response", s.agent, method)
	}
	return nil
}

// Function implements chat.AgentSession.
func (s *HTTPSession) Function(ctx context.Context) (map[string]any, error) {
	var wire struct {
		Function map[string]any `json:"function"`
	}
	if err := s.getJSON(ctx, "function", &wire); err != nil {
		return nil, err
	}
	return wire.Function, nil
}

// Connectivity implements chat.AgentSession.
func (s *HTTPSession) Connectivity(ctx context.Context) ([]network.ConnectivityEntry, error) {
	var wire struct {
		ConnectivityInfo []network.ConnectivityEntry `json:"connectivity_info"`
	}
	if err := s.getJSON(ctx, "connectivity", &wire); err != nil {
		return nil, err
	}
	return wire.ConnectivityInfo, nil
}

// StreamingChat implements chat.AgentSession. The request goes out as
// one POST; each newline-delimited line of the response body becomes
// one ChatResponse on the returned channel.
func (s *HTTPSession) StreamingChat(ctx context.Context, req *message.ChatRequest) (<-chan *message.ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindTool, err, "agent %s: encoding request", s.agent)
	}
	httpReq, err := s.newRequest(ctx, http.MethodPost, s.endpoint("streaming_chat"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := s.hc.Do(httpReq)
	if err != nil {
		return nil, errs.Wrap(errs.KindTool, err, "agent %s", s.agent)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, s.remoteError(resp)
	}

	out := make(chan *message.ChatResponse)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), maxStreamLine)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var cr message.ChatResponse
			if err := json.Unmarshal(line, &cr); err != nil || cr.Response == nil {
				continue
			}
			select {
			case out <- &cr:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close implements chat.AgentSession. The HTTP client is shared with
// the factory, so there is nothing per-session to release.
func (s *HTTPSession) Close() error { return nil }
