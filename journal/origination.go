//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package journal

import (
	"sync"

	"trpc.group/trpc-go/trpc-agentnet-go/message"
)

// Origination hands out instantiation indices for one request. The k-th
// child with the same name under the same parent origin gets index k,
// counting from zero, so concurrent instances of a tool stay apart in
// every origin path.
type Origination struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewOrigination returns an empty counter table.
func NewOrigination() *Origination {
	return &Origination{counters: make(map[string]int)}
}

// NextOrigin extends the parent origin with the child's next instance.
func (o *Origination) NextOrigin(parent message.Origin, childName string) message.Origin {
	key := parent.String() + "\x00" + childName
	o.mu.Lock()
	index := o.counters[key]
	o.counters[key] = index + 1
	o.mu.Unlock()
	return parent.Append(childName, index)
}

// Reset clears all counters. A fresh request starts every child at zero.
func (o *Origination) Reset() {
	o.mu.Lock()
	o.counters = make(map[string]int)
	o.mu.Unlock()
}
