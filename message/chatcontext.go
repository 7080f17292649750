//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package message

// ChatHistory is the recorded conversation of one origin.
type ChatHistory struct {
	Origin   Origin     `json:"origin,omitempty"`
	Messages []*Message `json:"messages,omitempty"`
}

// ChatContext is the opaque resumption token handed back with the terminal
// message of every turn. Clients return it verbatim on the next turn;
// servers use it to rehydrate per-origin chat histories, possibly on a
// different instance than the one that produced it.
type ChatContext struct {
	ChatHistories []*ChatHistory `json:"chat_histories,omitempty"`
}

// Empty reports whether the context carries no history at all.
func (c *ChatContext) Empty() bool {
	if c == nil {
		return true
	}
	for _, h := range c.ChatHistories {
		if h != nil && len(h.Messages) > 0 {
			return false
		}
	}
	return true
}

// HistoryFor returns the history whose origin matches (by origin-string
// equality), or nil.
func (c *ChatContext) HistoryFor(origin Origin) *ChatHistory {
	if c == nil {
		return nil
	}
	want := origin.String()
	for _, h := range c.ChatHistories {
		if h != nil && h.Origin.String() == want {
			return h
		}
	}
	return nil
}

// Upsert replaces the history with the same origin or appends a new one.
// Messages are cloned so the context never shares owned history.
func (c *ChatContext) Upsert(origin Origin, messages []*Message) {
	cloned := make([]*Message, 0, len(messages))
	for _, m := range messages {
		cloned = append(cloned, m.Clone())
	}
	entry := &ChatHistory{
		Origin:   append(Origin(nil), origin...),
		Messages: cloned,
	}
	want := origin.String()
	for i, h := range c.ChatHistories {
		if h != nil && h.Origin.String() == want {
			c.ChatHistories[i] = entry
			return
		}
	}
	c.ChatHistories = append(c.ChatHistories, entry)
}
