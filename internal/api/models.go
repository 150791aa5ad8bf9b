// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pebblecode/agbridge/internal/buildinfo"
)

// anthropicModelCreatedAt is a fixed stand-in for the per-model release
// timestamp Anthropic's own /v1/models endpoint returns; the router doesn't
// track real release dates for mapped model names.
const anthropicModelCreatedAt = "2024-01-01T00:00:00Z"

// handleHealthz is a liveness probe: it reports ok as long as the process is
// serving, plus how many pooled accounts are available so a caller can tell
// "up but no credentials loaded" from "fully ready" at a glance.
func (s *Server) handleHealthz(c *gin.Context) {
	idx, err := s.accounts.ListAccounts()
	accountCount := 0
	if err == nil {
		accountCount = len(idx.Accounts)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  buildinfo.Version,
		"commit":   buildinfo.Commit,
		"accounts": accountCount,
	})
}

// handleListModels implements GET /v1/models in the OpenAI list shape, since
// that's the format every client family (including Anthropic and Gemini
// SDKs configured against a custom base URL) tends to probe with. The set
// surfaced is the union of the router's live Anthropic/OpenAI mapping keys,
// the models those map onto, plus the image-generation and search variants.
func (s *Server) handleListModels(c *gin.Context) {
	names := s.router.KnownModels()

	data := make([]gin.H, 0, len(names))
	for _, name := range names {
		data = append(data, gin.H{
			"id":       name,
			"object":   "model",
			"owned_by": "antigravity",
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
	})
}

// handleListClaudeModels implements GET /v1/models/claude: the Anthropic
// model-list shape, restricted to the claude-family names the router knows
// about (mapping keys and the models they map onto).
func (s *Server) handleListClaudeModels(c *gin.Context) {
	names := s.router.KnownModels()

	data := make([]gin.H, 0, len(names))
	for _, name := range names {
		if !strings.HasPrefix(name, "claude") {
			continue
		}
		data = append(data, gin.H{
			"type":         "model",
			"id":           name,
			"display_name": name,
			"created_at":   anthropicModelCreatedAt,
		})
	}

	resp := gin.H{
		"data":     data,
		"has_more": false,
	}
	if len(data) > 0 {
		resp["first_id"] = data[0]["id"]
		resp["last_id"] = data[len(data)-1]["id"]
	}
	c.JSON(http.StatusOK, resp)
}
