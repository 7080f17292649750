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
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
)

const defaultFetchLimit = 20000

// websiteFetch retrieves a page and hands the agent readable text, with
// HTML converted to markdown so markup noise does not eat the context
// window.
type websiteFetch struct {
	client    *http.Client
	userAgent string
	maxChars  int
}

func newWebsiteFetch(args map[string]any) (any, error) {
	timeout := 30 * time.Second
	if seconds, ok := confmap.GetFloat(args, "timeout_seconds", 0); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}
	maxChars := defaultFetchLimit
	if limit, ok := confmap.GetInt(args, "max_content_chars", 0); ok && limit > 0 {
		maxChars = limit
	}
	return &websiteFetch{
		client:    &http.Client{Timeout: timeout},
		userAgent: confmap.GetString(args, "user_agent", "trpc-agentnet-go/website-fetch"),
		maxChars:  maxChars,
	}, nil
}

func (w *websiteFetch) Name() string { return "website_fetch" }

func (w *websiteFetch) Description() string {
	return "Fetch a web page and return its content as markdown text."
}

func (w *websiteFetch) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL of the page to fetch.",
			},
		},
		"required": []any{"url"},
	}
}

func (w *websiteFetch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	target := confmap.GetString(args, "url", "")
	if target == "" {
		return "", errs.Validation("website_fetch needs a url argument")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", errs.Wrap(errs.KindTool, err, "build request for %s", target)
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindTool, err, "fetch %s", target)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errs.Tool("fetch %s returned status %d", target, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.KindTool, err, "read %s", target)
	}

	content := string(raw)
	mediaType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if mediaType == "text/html" {
		converted, err := htmlToMarkdown(content)
		if err != nil {
			return "", errs.Wrap(errs.KindTool, err, "convert %s", target)
		}
		content = converted
	}
	return truncateRunes(content, w.maxChars), nil
}

func htmlToMarkdown(html string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	return conv.ConvertString(html)
}

// truncateRunes cuts a string to at most n bytes on a rune boundary.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	total := 0
	for _, r := range s {
		size := len(string(r))
		if total+size > n {
			break
		}
		b.WriteRune(r)
		total += size
	}
	return b.String()
}
