// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pebblecode/agbridge/internal/constant"
	"github.com/pebblecode/agbridge/internal/tokenpool"
	"github.com/pebblecode/agbridge/internal/translator/antigravity/gemini"
	sdktranslator "github.com/pebblecode/agbridge/sdk/translator"
)

var geminiFormat = sdktranslator.Format(constant.Gemini)

// handleGeminiGenerate implements POST /v1beta/models/:model, where gin's
// :model param actually captures "<model>:<action>" — the colon-suffixed
// action carries no slash, so gin's path matcher swallows it into the same
// segment. generateContent/streamGenerateContent dispatch upstream;
// countTokens is answered locally, like the Claude count_tokens route.
func (s *Server) handleGeminiGenerate(c *gin.Context) {
	model, action := splitModelAction(c.Param("model"))

	raw, err := c.GetRawData()
	if err != nil {
		writeBadRequest(c, "failed to read request body")
		return
	}

	if action == "countTokens" {
		count, err := gemini.EstimateTokenCount(raw)
		if err != nil {
			writeBadRequest(c, "failed to parse request for token counting")
			return
		}
		rendered := sdktranslator.TranslateTokenCount(c.Request.Context(), geminiFormat, antigravityFormat, count, raw)
		c.Data(http.StatusOK, "application/json", []byte(rendered))
		return
	}

	cfg := s.router.ResolveGemini(model)

	build := func(cred tokenpool.Credential, recovery bool) (map[string]any, string, error) {
		inner, err := gemini.BuildInnerRequest(raw)
		if err != nil {
			return nil, "", err
		}
		return inner, cfg.FinalModel, nil
	}

	spec := dispatchSpec{
		fromFormat:  geminiFormat,
		reqType:     cfg.RequestType,
		originalRaw: raw,
		build:       build,
	}

	if action == "streamGenerateContent" {
		s.streamGemini(c, spec)
		return
	}
	s.nonStreamGemini(c, spec)
}

// handleListGeminiModels implements GET /v1beta/models: the native Gemini
// model-list shape, restricted to the gemini-family names the router knows
// about.
func (s *Server) handleListGeminiModels(c *gin.Context) {
	names := s.router.KnownModels()

	models := make([]gin.H, 0, len(names))
	for _, name := range names {
		if !strings.HasPrefix(name, "gemini") {
			continue
		}
		models = append(models, geminiModelInfo(name))
	}

	c.JSON(http.StatusOK, gin.H{"models": models})
}

// handleGetGeminiModel implements GET /v1beta/models/:model: get-model info
// for a single model, independent of the POST action-suffix route that
// dispatches generateContent/streamGenerateContent/countTokens.
func (s *Server) handleGetGeminiModel(c *gin.Context) {
	model, _ := splitModelAction(c.Param("model"))
	c.JSON(http.StatusOK, geminiModelInfo(model))
}

func geminiModelInfo(model string) gin.H {
	return gin.H{
		"name":                       "models/" + model,
		"displayName":                model,
		"version":                    "001",
		"supportedGenerationMethods": []string{"generateContent", "streamGenerateContent"},
	}
}

func splitModelAction(param string) (model, action string) {
	param = strings.TrimPrefix(param, "/")
	if idx := strings.LastIndex(param, ":"); idx >= 0 {
		return param[:idx], param[idx+1:]
	}
	return param, "generateContent"
}
