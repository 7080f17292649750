//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package toolbox

// registerBuiltins loads the in-tree toolbox table: the entries every
// server ships before AGENT_TOOLBOX_INFO_FILE adds its own.
func registerBuiltins(r *Registry) {
	r.RegisterClass("toolbox.http.RequestsToolkit", Factory{
		ArgNames: []string{"headers", "timeout_seconds"},
		New:      newRequestsToolkit,
	})
	r.RegisterClass("toolbox.web.WebsiteFetch", Factory{
		ArgNames: []string{"timeout_seconds", "max_content_chars", "user_agent"},
		New:      newWebsiteFetch,
	})

	r.SetInfo("requests", &Info{
		Class: "toolbox.http.RequestsToolkit",
		Args:  map[string]any{"timeout_seconds": 30},
	})
	r.SetInfo("website_fetch", &Info{
		Class: "toolbox.web.WebsiteFetch",
		Args:  map[string]any{"timeout_seconds": 30},
	})
}
