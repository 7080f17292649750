//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"trpc.group/trpc-go/trpc-agentnet-go/chat"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
)

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warnf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": text})
}

// session authorizes the request and opens a session for the named
// agent. A nil session means the response has already been written.
func (s *Server) session(w http.ResponseWriter, r *http.Request, metadata map[string]any) chat.AgentSession {
	agent := mux.Vars(r)["agent"]
	if _, ok := s.store.Get(agent); !ok {
		log.Infof("invalid request path %s", r.URL.Path)
		writeError(w, http.StatusNotFound, fmt.Sprintf("Invalid request path %s", r.URL.Path))
		return nil
	}
	allowed, err := s.gate.AllowAgent(agent, metadata)
	if err != nil {
		log.Errorf("authorizing %s: %v", agent, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "Request not authorized")
		return nil
	}
	session, err := s.sessions.CreateSession("/"+agent, metadata)
	if err != nil {
		log.Errorf("opening session for %s: %v", agent, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil
	}
	return session
}

func (s *Server) handleFunction(w http.ResponseWriter, r *http.Request) {
	metadata := s.metadata(r)
	session := s.session(w, r, metadata)
	if session == nil {
		return
	}
	defer session.Close()

	fn, err := session.Function(r.Context())
	if err != nil {
		log.Errorf("function for %s: %v", mux.Vars(r)["agent"], err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, map[string]any{"function": fn})
}

func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	metadata := s.metadata(r)
	session := s.session(w, r, metadata)
	if session == nil {
		return
	}
	defer session.Close()

	entries, err := session.Connectivity(r.Context())
	if err != nil {
		log.Errorf("connectivity for %s: %v", mux.Vars(r)["agent"], err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, map[string]any{"connectivity_info": entries})
}

// handleList is the concierge endpoint: every registered network the
// authorizer lets this caller see.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	metadata := s.metadata(r)
	names, err := s.gate.AllowedAgents(s.store.List(), metadata)
	if err != nil {
		log.Errorf("listing agents: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	agents := make([]map[string]any, 0, len(names))
	for _, name := range names {
		agents = append(agents, map[string]any{"agent_name": name})
	}
	writeJSON(w, map[string]any{"agents": agents})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleStreamingChat runs one chat turn and relays the journal stream
// as newline-delimited JSON. Responses flush per line; the umbrella
// timeout, when configured, turns an overrunning turn into a final
// "Request timeout" error object.
func (s *Server) handleStreamingChat(w http.ResponseWriter, r *http.Request) {
	metadata := s.metadata(r)
	session := s.session(w, r, metadata)
	if session == nil {
		return
	}
	defer session.Close()

	var req message.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	stream, err := session.StreamingChat(ctx, &req)
	if err != nil {
		log.Errorf("chat for %s: %v", mux.Vars(r)["agent"], err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", streamContentType)

	wrote := false
	for resp := range stream {
		if resp == nil || resp.Response == nil {
			continue
		}
		line, err := json.Marshal(resp)
		if err != nil {
			log.Warnf("encoding response line: %v", err)
			continue
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			// Client hung up; drain the stream so the turn tears down.
			log.Infof("client closed the stream for %s", mux.Vars(r)["agent"])
			for range stream {
			}
			return
		}
		flusher.Flush()
		wrote = true
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if !wrote {
			writeError(w, http.StatusServiceUnavailable, "Request timeout")
			return
		}
		// Headers are long gone once lines went out; the error object
		// travels as the last line of the stream instead.
		_, _ = w.Write([]byte(`{"error": "Request timeout"}` + "\n"))
		flusher.Flush()
	}
}
