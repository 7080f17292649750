//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package message

import (
	"strconv"
	"strings"
)

// OriginEntry is one hop on the path from the front-man to the activation
// that produced a message. InstantiationIndex disambiguates the k-th
// concurrent instance of the same tool under the same parent, counting
// from zero.
type OriginEntry struct {
	Tool               string `json:"tool"`
	InstantiationIndex int    `json:"instantiation_index"`
}

// Origin is the full path from the front-man to the executing activation.
// Origins are value types: extend with Append, never mutate in place.
type Origin []OriginEntry

// Append returns a new Origin with one more hop. The receiver is copied so
// sibling activations never share backing arrays.
func (o Origin) Append(tool string, instantiationIndex int) Origin {
	out := make(Origin, len(o), len(o)+1)
	copy(out, o)
	return append(out, OriginEntry{Tool: tool, InstantiationIndex: instantiationIndex})
}

// String serializes the origin as a dotted path. Instances past the first
// carry a "-<index>" disambiguator, e.g. "front_man.searcher-1.fetcher".
func (o Origin) String() string {
	if len(o) == 0 {
		return ""
	}
	var b strings.Builder
	for i, e := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(e.Tool)
		if e.InstantiationIndex > 0 {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(e.InstantiationIndex))
		}
	}
	return b.String()
}

// Equal reports whether two origins serialize identically. This is the one
// and only origin equality used by journals and chat-context matching.
func (o Origin) Equal(other Origin) bool {
	return o.String() == other.String()
}

// Head returns the first tool on the path, or "" for an empty origin.
func (o Origin) Head() string {
	if len(o) == 0 {
		return ""
	}
	return o[0].Tool
}

// Leaf returns the last tool on the path, or "" for an empty origin.
func (o Origin) Leaf() string {
	if len(o) == 0 {
		return ""
	}
	return o[len(o)-1].Tool
}
