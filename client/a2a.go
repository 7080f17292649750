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
	"context"
	"strings"
	"sync"

	"trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	a2asrv "trpc.group/trpc-go/trpc-a2a-go/server"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
)

const (
	// userIDHeader carries the caller identity to the remote A2A peer.
	userIDHeader = "X-User-ID"

	// slyDataPartType tags the DataPart that carries private key-value
	// state alongside the visible text parts.
	slyDataPartType = "sly_data"

	// dataPartTypeKey is the metadata key a DataPart's type lives under.
	dataPartTypeKey = "type"
)

// A2ASession talks to a peer speaking the A2A protocol. The reference
// "a2a://host:port/path" dials "http://host:port/path"; the peer's
// agent card decides between streaming and unary message exchange.
// The session keeps the peer's context id between turns, so follow-up
// messages land in the same remote conversation.
type A2ASession struct {
	url    string
	userID string

	mu        sync.Mutex
	cli       *client.A2AClient
	card      *a2asrv.AgentCard
	contextID *string
}

// NewA2ASession builds a session for an a2a:// reference. The card is
// fetched lazily on first use so that session creation never blocks on
// the network.
func NewA2ASession(ref string, metadata map[string]any) (*A2ASession, error) {
	url := "http://" + strings.TrimPrefix(ref, "a2a://")
	cli, err := client.NewA2AClient(url)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, err, "a2a client for %s", ref)
	}
	userID, _ := metadata["user_id"].(string)
	return &A2ASession{url: url, userID: userID, cli: cli}, nil
}

// resolveCard fetches and caches the peer's agent card.
func (s *A2ASession) resolveCard(ctx context.Context) (*a2asrv.AgentCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.card != nil {
		return s.card, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	card, err := s.cli.GetAgentCard(ctx, "")
	if err != nil {
		return nil, errs.Wrap(errs.KindTool, err, "fetching agent card from %s", s.url)
	}
	s.card = card
	return card, nil
}

// Function implements chat.AgentSession. A2A cards carry a description
// but no parameter schema; callers fall back to a plain inquiry.
func (s *A2ASession) Function(ctx context.Context) (map[string]any, error) {
	card, err := s.resolveCard(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"description": card.Description}, nil
}

// Connectivity implements chat.AgentSession. The peer's internals are
// opaque; the card's skills stand in for the tool list.
func (s *A2ASession) Connectivity(ctx context.Context) ([]network.ConnectivityEntry, error) {
	card, err := s.resolveCard(ctx)
	if err != nil {
		return nil, err
	}
	tools := make([]string, 0, len(card.Skills))
	for _, skill := range card.Skills {
		tools = append(tools, skill.Name)
	}
	return []network.ConnectivityEntry{{
		Origin:    card.Name,
		Tools:     tools,
		DisplayAs: "external_agent",
	}}, nil
}

// StreamingChat implements chat.AgentSession. One request message goes
// out carrying the text and any sly data; the peer's replies come back
// as AGENT messages followed by one terminal AGENT_FRAMEWORK message
// with the aggregated answer.
func (s *A2ASession) StreamingChat(ctx context.Context, req *message.ChatRequest) (<-chan *message.ChatResponse, error) {
	card, err := s.resolveCard(ctx)
	if err != nil {
		return nil, err
	}

	msg := s.buildMessage(req)
	opts := s.requestOptions()

	out := make(chan *message.ChatResponse)
	if card.Capabilities.Streaming != nil && *card.Capabilities.Streaming {
		stream, err := s.cli.StreamMessage(ctx, protocol.SendMessageParams{Message: msg}, opts...)
		if err != nil {
			return nil, errs.Wrap(errs.KindTool, err, "a2a stream to %s", s.url)
		}
		go s.foldStream(ctx, stream, out)
		return out, nil
	}

	result, err := s.cli.SendMessage(ctx, protocol.SendMessageParams{Message: msg}, opts...)
	if err != nil {
		return nil, errs.Wrap(errs.KindTool, err, "a2a send to %s", s.url)
	}
	go s.foldResult(ctx, result, out)
	return out, nil
}

// Close implements chat.AgentSession. The context id is dropped so a
// reused struct would start a fresh remote conversation.
func (s *A2ASession) Close() error {
	s.mu.Lock()
	s.contextID = nil
	s.mu.Unlock()
	return nil
}

// buildMessage renders one chat request as an A2A user message.
func (s *A2ASession) buildMessage(req *message.ChatRequest) protocol.Message {
	parts := []protocol.Part{protocol.NewTextPart(req.Text())}
	if len(req.SlyData) > 0 {
		dp := protocol.NewDataPart(req.SlyData)
		dp.Metadata = map[string]any{dataPartTypeKey: slyDataPartType}
		parts = append(parts, dp)
	}
	msg := protocol.NewMessage(protocol.MessageRoleUser, parts)
	s.mu.Lock()
	msg.ContextID = s.contextID
	s.mu.Unlock()
	return msg
}

func (s *A2ASession) requestOptions() []client.RequestOption {
	var opts []client.RequestOption
	if s.userID != "" {
		opts = append(opts, client.WithRequestHeader(userIDHeader, s.userID))
	}
	return opts
}

// foldStream consumes streaming events, emits intermediate AGENT
// messages and finishes with the terminal framework message.
func (s *A2ASession) foldStream(ctx context.Context, stream <-chan protocol.StreamingMessageEvent, out chan<- *message.ChatResponse) {
	defer close(out)
	var answer strings.Builder
	sly := map[string]any{}
	for event := range stream {
		msg := resultMessage(event.Result)
		if msg == nil {
			continue
		}
		s.noteContext(msg.ContextID)
		text, data := splitParts(msg.Parts)
		mergeInto(sly, data)
		if text != "" {
			answer.WriteString(text)
			if !emit(ctx, out, message.NewAgent(text, nil)) {
				return
			}
		}
	}
	emit(ctx, out, s.terminal(answer.String(), sly))
}

// foldResult converts one unary result into the same shape a streaming
// exchange produces.
func (s *A2ASession) foldResult(ctx context.Context, result *protocol.MessageResult, out chan<- *message.ChatResponse) {
	defer close(out)
	var answer strings.Builder
	sly := map[string]any{}
	if result != nil {
		for _, msg := range resultMessages(result.Result) {
			s.noteContext(msg.ContextID)
			text, data := splitParts(msg.Parts)
			mergeInto(sly, data)
			if text != "" {
				answer.WriteString(text)
				if !emit(ctx, out, message.NewAgent(text, nil)) {
					return
				}
			}
		}
	}
	emit(ctx, out, s.terminal(answer.String(), sly))
}

func (s *A2ASession) terminal(text string, sly map[string]any) *message.Message {
	if len(sly) == 0 {
		sly = nil
	}
	return message.NewFramework(text, nil, sly, nil)
}

// noteContext remembers the peer's conversation id for the next turn.
func (s *A2ASession) noteContext(contextID *string) {
	if contextID == nil || *contextID == "" {
		return
	}
	s.mu.Lock()
	s.contextID = contextID
	s.mu.Unlock()
}

func emit(ctx context.Context, out chan<- *message.ChatResponse, m *message.Message) bool {
	select {
	case out <- &message.ChatResponse{Response: m}:
		return true
	case <-ctx.Done():
		return false
	}
}

// resultMessage flattens one streaming event payload into a message.
func resultMessage(result protocol.StreamingMessageResult) *protocol.Message {
	switch v := result.(type) {
	case *protocol.Message:
		return v
	case *protocol.Task:
		return taskMessage(v)
	case *protocol.TaskStatusUpdateEvent:
		return statusMessage(v)
	case *protocol.TaskArtifactUpdateEvent:
		return artifactMessage(v)
	default:
		return nil
	}
}

// resultMessages expands a unary result. Tasks carry history and
// artifacts; both contribute, artifacts last so the final answer wins.
func resultMessages(result protocol.UnaryMessageResult) []*protocol.Message {
	switch v := result.(type) {
	case *protocol.Message:
		return []*protocol.Message{v}
	case *protocol.Task:
		msgs := make([]*protocol.Message, 0, len(v.History)+len(v.Artifacts))
		for i := range v.History {
			if v.History[i].Role == protocol.MessageRoleAgent {
				msgs = append(msgs, &v.History[i])
			}
		}
		for i := range v.Artifacts {
			msgs = append(msgs, &protocol.Message{
				Role:      protocol.MessageRoleAgent,
				MessageID: v.Artifacts[i].ArtifactID,
				Parts:     v.Artifacts[i].Parts,
				ContextID: &v.ContextID,
			})
		}
		return msgs
	default:
		return nil
	}
}

func taskMessage(task *protocol.Task) *protocol.Message {
	var parts []protocol.Part
	messageID := ""
	for _, artifact := range task.Artifacts {
		parts = append(parts, artifact.Parts...)
		messageID = artifact.ArtifactID
	}
	return &protocol.Message{
		Role:      protocol.MessageRoleAgent,
		Kind:      protocol.KindMessage,
		MessageID: messageID,
		Parts:     parts,
		TaskID:    &task.ID,
		ContextID: &task.ContextID,
	}
}

func statusMessage(event *protocol.TaskStatusUpdateEvent) *protocol.Message {
	msg := &protocol.Message{
		Role:      protocol.MessageRoleAgent,
		Kind:      protocol.KindMessage,
		TaskID:    &event.TaskID,
		ContextID: &event.ContextID,
	}
	if event.Status.Message != nil {
		msg.Parts = event.Status.Message.Parts
		msg.MessageID = event.Status.Message.MessageID
	}
	return msg
}

func artifactMessage(event *protocol.TaskArtifactUpdateEvent) *protocol.Message {
	return &protocol.Message{
		Role:      protocol.MessageRoleAgent,
		Kind:      protocol.KindMessage,
		MessageID: event.Artifact.ArtifactID,
		Parts:     event.Artifact.Parts,
		TaskID:    &event.TaskID,
		ContextID: &event.ContextID,
	}
}

// splitParts separates a message's parts into visible text and sly
// data. Data parts either declare the sly_data type in their metadata
// or carry a bare map; both merge into the returned map.
func splitParts(parts []protocol.Part) (string, map[string]any) {
	var text strings.Builder
	var data map[string]any
	for _, part := range parts {
		switch part.GetKind() {
		case protocol.KindText:
			text.WriteString(partText(part))
		case protocol.KindData:
			m := partData(part)
			if m == nil {
				continue
			}
			if data == nil {
				data = map[string]any{}
			}
			mergeInto(data, m)
		}
	}
	return text.String(), data
}

func partText(part protocol.Part) string {
	switch p := part.(type) {
	case *protocol.TextPart:
		return p.Text
	case protocol.TextPart:
		return p.Text
	}
	return ""
}

func partData(part protocol.Part) map[string]any {
	var dp *protocol.DataPart
	switch p := part.(type) {
	case *protocol.DataPart:
		dp = p
	case protocol.DataPart:
		dp = &p
	default:
		return nil
	}
	if t, ok := dp.Metadata[dataPartTypeKey].(string); ok && t != slyDataPartType {
		return nil
	}
	m, _ := dp.Data.(map[string]any)
	return m
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}
