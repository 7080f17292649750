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
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agentnet-go/codetool"
	"trpc.group/trpc-go/trpc-agentnet-go/errs"
)

func TestBuiltinEntries(t *testing.T) {
	registry := NewRegistry()
	names := registry.Names()
	assert.Contains(t, names, "requests")
	assert.Contains(t, names, "website_fetch")

	kind, err := registry.Kind("requests")
	require.NoError(t, err)
	assert.Equal(t, TagLangchainTool, kind)
}

func TestCreateSingleTool(t *testing.T) {
	registry := NewRegistry()
	tools, err := registry.Create(context.Background(), "website_fetch", nil)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "website_fetch", tools[0].Name())
	assert.NotEmpty(t, tools[0].Description())
	assert.Equal(t, "object", tools[0].Parameters()["type"])
}

func TestCreateToolkitExpands(t *testing.T) {
	registry := NewRegistry()
	tools, err := registry.Create(context.Background(), "requests", nil)
	require.NoError(t, err)

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name()
	}
	assert.Equal(t, []string{
		"requests_get", "requests_post", "requests_patch", "requests_put", "requests_delete",
	}, names)
}

func TestUserArgsMergeOverDeclared(t *testing.T) {
	registry := NewRegistry()
	var captured map[string]any
	registry.RegisterClass("test.Capture", Factory{
		ArgNames: []string{"a", "b", "c"},
		New: func(args map[string]any) (any, error) {
			captured = args
			return NewTool("capture", "", nil, nil), nil
		},
	})
	registry.SetInfo("capture", &Info{
		Class: "test.Capture",
		Args:  map[string]any{"a": 1, "b": 2},
	})

	_, err := registry.Create(context.Background(), "capture", map[string]any{"b": 9, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": 9, "c": 3}, captured)

	// The declared args stay untouched for the next caller.
	info, _ := registry.Info("capture")
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, info.Args)
}

func TestUnknownArgFailsFast(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Create(context.Background(), "requests", map[string]any{"verify_ssl": false})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.Contains(t, err.Error(), "verify_ssl")
	assert.Contains(t, err.Error(), "does not accept")
}

func TestCreateUnknownEntry(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Create(context.Background(), "no_such_tool", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not defined")
}

func TestCreateUnknownClass(t *testing.T) {
	registry := NewRegistry()
	registry.SetInfo("dangling", &Info{Class: "missing.Class"})
	_, err := registry.Create(context.Background(), "dangling", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown class")
}

func TestKindCodedTool(t *testing.T) {
	coded := codetool.NewRegistry()
	coded.Register("tools.accounting.Accountant", func() any { return &fakeCoded{} })

	registry := NewRegistry(WithCodedRegistry(coded))
	registry.SetInfo("accountant", &Info{
		Class:       "tools.accounting.Accountant",
		Description: "Tracks a running cost.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"running_cost": map[string]any{"type": "number"},
			},
		},
	})

	kind, err := registry.Kind("accountant")
	require.NoError(t, err)
	assert.Equal(t, TagCodedTool, kind)
}

type fakeCoded struct{}

func (f *fakeCoded) Invoke(_ context.Context, args map[string]any, _ map[string]any) (any, error) {
	return args, nil
}

func TestRequestsGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "3", r.URL.Query().Get("depth"))
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	registry := NewRegistry()
	tools, err := registry.Create(context.Background(), "requests", nil)
	require.NoError(t, err)

	got, err := tools[0].Invoke(context.Background(), map[string]any{
		"url":    server.URL,
		"params": map[string]any{"depth": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "payload", got)
}

func TestRequestsPostSendsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"k":"v"}`, string(body))
		w.Write([]byte("created"))
	}))
	defer server.Close()

	registry := NewRegistry()
	tools, err := registry.Create(context.Background(), "requests", nil)
	require.NoError(t, err)

	got, err := tools[1].Invoke(context.Background(), map[string]any{
		"url":  server.URL,
		"data": `{"k":"v"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "created", got)
}

func TestRequestsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	registry := NewRegistry()
	tools, err := registry.Create(context.Background(), "requests", nil)
	require.NoError(t, err)

	_, err = tools[0].Invoke(context.Background(), map[string]any{"url": server.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestWebsiteFetchConvertsHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><h1>Title</h1><p>Hello world.</p></body></html>"))
	}))
	defer server.Close()

	registry := NewRegistry()
	tools, err := registry.Create(context.Background(), "website_fetch", nil)
	require.NoError(t, err)

	got, err := tools[0].Invoke(context.Background(), map[string]any{"url": server.URL})
	require.NoError(t, err)
	assert.Contains(t, got, "Title")
	assert.Contains(t, got, "Hello world.")
	assert.NotContains(t, got, "<h1>")
}

func TestWebsiteFetchTruncates(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write(long)
	}))
	defer server.Close()

	registry := NewRegistry()
	tools, err := registry.Create(context.Background(), "website_fetch",
		map[string]any{"max_content_chars": 10})
	require.NoError(t, err)

	got, err := tools[0].Invoke(context.Background(), map[string]any{"url": server.URL})
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestExtendFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolbox_info.json")
	content := `{
		"intranet_api": {
			"class": "toolbox.http.RequestsToolkit",
			"args": {"timeout_seconds": 5, "headers": {"X-Team": "hr"}}
		},
		"website_fetch": {
			"class": "toolbox.web.WebsiteFetch",
			"args": {"max_content_chars": 500}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	registry := NewRegistry()
	require.NoError(t, registry.ExtendFromFile(path))

	info, ok := registry.Info("intranet_api")
	require.True(t, ok)
	assert.Equal(t, "toolbox.http.RequestsToolkit", info.Class)

	// Same-name entries replace built-ins.
	info, ok = registry.Info("website_fetch")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"max_content_chars": float64(500)}, info.Args)
}

func TestNewRegistryFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"extra": {"class": "toolbox.web.WebsiteFetch"}}`), 0o600))
	t.Setenv(InfoFileEnv, path)

	registry, err := NewRegistryFromEnv()
	require.NoError(t, err)
	_, ok := registry.Info("extra")
	assert.True(t, ok)
}

func TestNewRegistryFromEnvMissingFile(t *testing.T) {
	t.Setenv(InfoFileEnv, filepath.Join(t.TempDir(), "absent.json"))
	_, err := NewRegistryFromEnv()
	require.Error(t, err)
}

func TestDecodeInfoMCP(t *testing.T) {
	info, err := DecodeInfo(map[string]any{
		"url":     "http://localhost:8000/mcp",
		"headers": map[string]any{"Authorization": "Bearer token"},
	})
	require.NoError(t, err)
	assert.True(t, info.IsMCP())
	assert.Equal(t, "Bearer token", info.Headers["Authorization"])

	kindRegistry := NewRegistry()
	kindRegistry.SetInfo("remote", info)
	kind, err := kindRegistry.Kind("remote")
	require.NoError(t, err)
	assert.Equal(t, TagLangchainTool, kind)
}
