// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/pebblecode/agbridge/internal/background"
	"github.com/pebblecode/agbridge/internal/constant"
	"github.com/pebblecode/agbridge/internal/tokenpool"
	"github.com/pebblecode/agbridge/internal/translator/antigravity/claude"
	sdktranslator "github.com/pebblecode/agbridge/sdk/translator"
)

var claudeFormat = sdktranslator.Format(constant.Claude)

// handleClaudeMessages implements POST /v1/messages: the Anthropic Messages
// API, dispatched to the Gemini v1internal backend.
func (s *Server) handleClaudeMessages(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeBadRequest(c, "failed to read request body")
		return
	}

	model := gjson.GetBytes(raw, "model").String()
	stream := gjson.GetBytes(raw, "stream").Bool()
	hasWebSearch := claude.HasWebSearchTool(raw)

	cfg := s.router.ResolveClaude(model, hasWebSearch)
	isBackground := false
	if det := background.Detect(lastMeaningfulClaudeMessage(raw)); det.IsBackground {
		cfg.FinalModel = det.ForcedModel
		cfg.InjectGoogleSearch = false
		cfg.ImageConfig = nil
		// Background tasks drop historical thinking blocks here, and are
		// built below with the tool-less, thinking-less options.
		if stripped, err := claude.StripThinkingFromRequest(raw); err == nil {
			raw = stripped
		}
		isBackground = true
	}

	sessionID := claude.SessionID(raw)

	build := func(cred tokenpool.Credential, recovery bool) (map[string]any, string, error) {
		activeCfg := cfg
		body := raw
		if recovery {
			activeCfg = s.router.ResolveClaude(claude.RecoveryModel(model), hasWebSearch)
			stripped, err := claude.StripThinkingFromRequest(raw)
			if err != nil {
				return nil, "", err
			}
			body = stripped
		}
		inner, err := claude.BuildInnerRequest(body, claude.NewBuildOptions(activeCfg.FinalModel, activeCfg.InjectGoogleSearch, activeCfg.ImageConfig, recovery || isBackground))
		if err != nil {
			return nil, "", err
		}
		return inner, activeCfg.FinalModel, nil
	}

	spec := dispatchSpec{
		fromFormat:  claudeFormat,
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

// handleClaudeCountTokens implements POST /v1/messages/count_tokens: a
// local estimate (no upstream round trip).
func (s *Server) handleClaudeCountTokens(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeBadRequest(c, "failed to read request body")
		return
	}
	count, err := claude.EstimateTokenCount(raw)
	if err != nil {
		writeBadRequest(c, "failed to parse request for token counting")
		return
	}
	rendered := sdktranslator.TranslateTokenCount(c.Request.Context(), claudeFormat, antigravityFormat, count, raw)
	c.Data(http.StatusOK, "application/json", []byte(rendered))
}

// lastMeaningfulClaudeMessage walks the request's messages array backwards
// looking for the last user turn whose flattened text passes
// background.IsMeaningful, for the background-task detector to classify.
func lastMeaningfulClaudeMessage(raw []byte) string {
	messages := gjson.GetBytes(raw, "messages").Array()
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Get("role").String() != "user" {
			continue
		}
		text := flattenClaudeContent(msg.Get("content"))
		if background.IsMeaningful(text) {
			return text
		}
	}
	return ""
}

func flattenClaudeContent(content gjson.Result) string {
	if content.Type == gjson.String {
		return content.String()
	}
	var sb []byte
	for _, block := range content.Array() {
		if block.Get("type").String() == "text" {
			sb = append(sb, block.Get("text").String()...)
			sb = append(sb, '\n')
		}
	}
	return string(sb)
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{"type": "invalid_request_error", "message": message},
	})
}
