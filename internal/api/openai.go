// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/pebblecode/agbridge/internal/constant"
	"github.com/pebblecode/agbridge/internal/tokenpool"
	"github.com/pebblecode/agbridge/internal/translator/antigravity/openai/chatcompletions"
	sdktranslator "github.com/pebblecode/agbridge/sdk/translator"
)

var (
	openaiFormat     = sdktranslator.Format(constant.OpenAI)
	openaiRespFormat = sdktranslator.Format(constant.OpenAIResponse)
)

// handleChatCompletions implements POST /v1/chat/completions.
func (s *Server) handleChatCompletions(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeBadRequest(c, "failed to read request body")
		return
	}
	s.dispatchChatCompletions(c, raw)
}

// handleLegacyCompletions implements POST /v1/completions: the pre-chat
// {"prompt": "..."} shape, normalized into a single user turn and then
// dispatched exactly like a chat completions request, response included.
func (s *Server) handleLegacyCompletions(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeBadRequest(c, "failed to read request body")
		return
	}

	var req map[string]any
	if err := json.Unmarshal(raw, &req); err != nil {
		writeBadRequest(c, "invalid JSON body")
		return
	}
	prompt, _ := req["prompt"].(string)
	delete(req, "prompt")
	req["messages"] = []any{map[string]any{"role": "user", "content": prompt}}

	normalized, err := json.Marshal(req)
	if err != nil {
		writeBadRequest(c, "failed to normalize legacy completion request")
		return
	}
	s.dispatchChatCompletions(c, normalized)
}

func (s *Server) dispatchChatCompletions(c *gin.Context, raw []byte) {
	model := gjson.GetBytes(raw, "model").String()
	stream := gjson.GetBytes(raw, "stream").Bool()
	hasWebSearch := hasWebSearchFunction(raw)

	cfg := s.router.ResolveOpenAI(model, hasWebSearch)
	sessionID := chatcompletions.SessionID(raw)

	build := func(cred tokenpool.Credential, recovery bool) (map[string]any, string, error) {
		inner, err := chatcompletions.BuildInnerRequest(raw, chatcompletions.NewBuildOptions(cfg.FinalModel, cfg.InjectGoogleSearch, ""))
		if err != nil {
			return nil, "", err
		}
		return inner, cfg.FinalModel, nil
	}

	spec := dispatchSpec{
		fromFormat:  openaiFormat,
		reqType:     cfg.RequestType,
		sessionID:   sessionID,
		originalRaw: raw,
		build:       build,
	}

	if stream {
		s.streamGemini(c, spec)
		return
	}
	s.nonStreamGemini(c, spec)
}

// handleResponses implements POST /v1/responses: the OpenAI Responses
// (Codex) API, normalized by the responses package onto the same Gemini
// request builder the chat completions path uses.
func (s *Server) handleResponses(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeBadRequest(c, "failed to read request body")
		return
	}

	model := gjson.GetBytes(raw, "model").String()
	stream := gjson.GetBytes(raw, "stream").Bool()
	cfg := s.router.ResolveOpenAI(model, false)

	build := func(cred tokenpool.Credential, recovery bool) (map[string]any, string, error) {
		translated := sdktranslator.TranslateRequest(openaiRespFormat, antigravityFormat, cfg.FinalModel, raw, stream)
		var inner map[string]any
		if err := json.Unmarshal(translated, &inner); err != nil {
			return nil, "", err
		}
		return inner, cfg.FinalModel, nil
	}

	spec := dispatchSpec{
		fromFormat:  openaiRespFormat,
		reqType:     cfg.RequestType,
		sessionID:   "",
		originalRaw: raw,
		build:       build,
	}

	if stream {
		s.streamGemini(c, spec)
		return
	}
	s.nonStreamGemini(c, spec)
}

// hasWebSearchFunction reports whether the request's tools list carries a
// function named "web_search" or "google_search", the OpenAI-side signal
// the model router uses to pick a search-enabled target.
func hasWebSearchFunction(raw []byte) bool {
	for _, t := range gjson.GetBytes(raw, "tools").Array() {
		name := t.Get("function.name").String()
		if name == "web_search" || name == "google_search" {
			return true
		}
	}
	return false
}
