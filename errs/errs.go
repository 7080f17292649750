//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package errs defines the error kinds surfaced by the orchestration runtime
// and helpers to classify wrapped errors at the service boundary.
package errs

import (
	"errors"
	"fmt"
)

// Kind partitions runtime failures by how the boundary should react.
type Kind int

const (
	// KindUnknown is any error that carries no Kind.
	KindUnknown Kind = iota
	// KindConfig marks an invalid or unparseable network or manifest.
	// Fatal for that network at load time; never kills the server.
	KindConfig
	// KindValidation marks one or more aggregated rule violations.
	KindValidation
	// KindAuth marks an authorizer denial.
	KindAuth
	// KindProvider marks an LLM provider API failure.
	KindProvider
	// KindTool marks a coded-tool or external-agent call failure. Captured
	// as a string result; never aborts the parent chain.
	KindTool
	// KindTimeout marks an umbrella, chain or tool timeout.
	KindTimeout
	// KindCancelled marks client disconnect or server shutdown.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindProvider:
		return "provider"
	case KindTool:
		return "tool"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a kinded error with an optional wrapped cause.
type Error struct {
	kind Kind
	msg  string
	err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's kind.
func (e *Error) Kind() Kind { return e.kind }

// New builds a kinded error from a format string.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates a cause with a kind and message. Returns nil when err is nil.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// Config builds a KindConfig error.
func Config(format string, args ...any) *Error { return New(KindConfig, format, args...) }

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error { return New(KindValidation, format, args...) }

// Auth builds a KindAuth error.
func Auth(format string, args ...any) *Error { return New(KindAuth, format, args...) }

// Provider builds a KindProvider error.
func Provider(format string, args ...any) *Error { return New(KindProvider, format, args...) }

// Tool builds a KindTool error.
func Tool(format string, args ...any) *Error { return New(KindTool, format, args...) }

// Timeout builds a KindTimeout error.
func Timeout(format string, args ...any) *Error { return New(KindTimeout, format, args...) }

// Cancelled builds a KindCancelled error.
func Cancelled(format string, args ...any) *Error { return New(KindCancelled, format, args...) }

// KindOf walks the error chain and returns the first Kind found, or
// KindUnknown when no kinded error is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Is reports whether the error chain contains the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
