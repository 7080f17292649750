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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/llm"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
	"trpc.group/trpc-go/trpc-agentnet-go/registry"
	"trpc.group/trpc-go/trpc-agentnet-go/run"
)

// staticModel answers every request with the same text.
type staticModel struct {
	text string
}

func (m *staticModel) Info() llm.Info { return llm.Info{Class: "test", Name: "static"} }

func (m *staticModel) Generate(context.Context, *llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: m.text}, nil
}

func staticFactory(text string) run.LlmFactory {
	return func(llm.Config) (*llm.Resources, error) {
		return &llm.Resources{Model: &staticModel{text: text}}, nil
	}
}

// guideConfig declares a guide front man calling one atlas agent.
func guideConfig() map[string]any {
	return map[string]any{
		"llm_config": map[string]any{"model_name": "guide-model"},
		"tools": []any{
			map[string]any{
				"name":         "guide",
				"instructions": "You answer travel questions.",
				"tools":        []any{"atlas"},
				"function":     map[string]any{"description": "Answers travel questions."},
			},
			map[string]any{
				"name":         "atlas",
				"instructions": "You know geography.",
				"command":      "Answer the question.",
				"function": map[string]any{
					"description": "Looks up geography facts.",
					"parameters": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"place": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	}
}

func guideStore(t *testing.T) *registry.Store {
	t.Helper()
	net, err := network.New("guide", guideConfig())
	require.NoError(t, err)
	store := registry.NewStore()
	store.Install("guide", net)
	return store
}

func drainStream(t *testing.T, ch <-chan *message.ChatResponse) []*message.Message {
	t.Helper()
	var out []*message.Message
	deadline := time.After(10 * time.Second)
	for {
		select {
		case resp, ok := <-ch:
			if !ok {
				return out
			}
			if resp != nil && resp.Response != nil {
				out = append(out, resp.Response)
			}
		case <-deadline:
			t.Fatal("response stream did not close")
		}
	}
}

func terminalMsg(t *testing.T, msgs []*message.Message) *message.Message {
	t.Helper()
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	require.Equal(t, message.TypeAgentFramework, last.Type)
	return last
}

func TestCreateSessionDispatch(t *testing.T) {
	f := NewFactory(WithStore(guideStore(t)))

	tests := []struct {
		name string
		ref  string
		want any
	}{
		{name: "local store reference", ref: "/guide", want: &DirectSession{}},
		{name: "http reference", ref: "http://example.com:8080/guide", want: &HTTPSession{}},
		{name: "https reference", ref: "https://example.com/guide", want: &HTTPSession{}},
		{name: "a2a reference", ref: "a2a://example.com:9000/guide", want: &A2ASession{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := f.CreateSession(tt.ref, nil)
			require.NoError(t, err)
			assert.IsType(t, tt.want, session)
			assert.NoError(t, session.Close())
		})
	}
}

func TestCreateSessionUnsupportedReference(t *testing.T) {
	f := NewFactory()
	_, err := f.CreateSession("ftp://example.com/guide", nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindConfig, errs.KindOf(err))
}

func TestCreateSessionLocalWithoutStore(t *testing.T) {
	f := NewFactory()
	_, err := f.CreateSession("/guide", nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindConfig, errs.KindOf(err))
}

func TestFactoryRoutesThroughStore(t *testing.T) {
	f := NewFactory(
		WithStore(guideStore(t)),
		WithRunOptions(run.WithLlmFactory(staticFactory("Paris, every time."))),
	)
	session, err := f.CreateSession("/guide", map[string]any{"user_id": "traveler"})
	require.NoError(t, err)
	defer session.Close()

	stream, err := session.StreamingChat(context.Background(), &message.ChatRequest{
		UserMessage: message.NewHuman("Where should I go?"),
	})
	require.NoError(t, err)

	final := terminalMsg(t, drainStream(t, stream))
	assert.Equal(t, "Paris, every time.", final.Text)
}

func TestMetadataHeadersKeepsStrings(t *testing.T) {
	headers := metadataHeaders(map[string]any{
		"user_id":    "traveler",
		"request_id": "req-1",
		"attempt":    3,
		"empty":      "",
	})
	assert.Equal(t, map[string]string{
		"user_id":    "traveler",
		"request_id": "req-1",
	}, headers)
}
