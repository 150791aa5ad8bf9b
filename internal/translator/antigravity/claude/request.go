// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package claude translates between the Anthropic Messages API and the
// Gemini request/response shapes the Antigravity v1internal endpoint
// accepts.
package claude

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pebblecode/agbridge/internal/translator/antigravity/shared"
	"github.com/pebblecode/agbridge/internal/util"
)

const identityPreamble = "[IDENTITY_PATCH]\nYou are a coding assistant running inside Antigravity.\n[SYSTEM_PROMPT_BEGIN]\n"
const identityPreambleEnd = "\n[SYSTEM_PROMPT_END]"

const (
	defaultMaxOutputTokens  = 64000
	flashThinkingBudgetCap  = 24576
)

var fixedStopSequences = []string{"<|user|>", "<|endoftext|>", "<|end_of_turn|>", "[DONE]", "\n\nHuman:"}

var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
	"HARM_CATEGORY_CIVIC_INTEGRITY",
}

// toolIDNames resolves a tool_use id to the tool's name for the duration of
// one request, so a later tool_result block (which only carries the id) can
// be translated into a Gemini functionResponse carrying the name.
type toolIDNames map[string]string

// buildOptions threads the pieces the request builder needs beyond the raw
// client body: the resolved final model and the flags the router already
// computed from it.
type buildOptions struct {
	finalModel         string
	injectGoogleSearch bool
	imageConfig        map[string]any
	// recovery builds the request with thinking off (no thinkingConfig) and
	// without tools; historical thinking blocks are removed beforehand by
	// StripThinkingFromRequest. The HTTP handler sets it for the
	// thinking-signature-400 one-shot retry and for background tasks.
	recovery bool
}

// NewBuildOptions constructs a BuildInnerRequest options value for callers
// outside this package — the HTTP handler, threading the router's resolved
// RequestConfig (grounding injection, image-generation config) and the
// thinking-signature recovery flag through without exposing the struct's
// fields directly.
func NewBuildOptions(finalModel string, injectGoogleSearch bool, imageConfig map[string]any, recovery bool) buildOptions {
	return buildOptions{
		finalModel:         finalModel,
		injectGoogleSearch: injectGoogleSearch,
		imageConfig:        imageConfig,
		recovery:           recovery,
	}
}

// ConvertClaudeRequestToAntigravity builds the Gemini inner request
// (systemInstruction, contents, tools, generationConfig, safetySettings,
// toolConfig) from a raw Anthropic Messages API body. Envelope wrapping
// happens one layer up, in the HTTP handler, once the token pool has
// resolved a project id.
func ConvertClaudeRequestToAntigravity(model string, raw []byte, stream bool) []byte {
	out, err := BuildInnerRequest(raw, buildOptions{finalModel: model})
	if err != nil {
		return raw
	}
	data, _ := json.Marshal(out)
	return data
}

// BuildInnerRequest is the testable core of the mapper; exported so the
// HTTP handler can call it directly with the router's full RequestConfig
// (grounding injection, image-generation config) and so the thinking-
// signature recovery path can call it a second time with recovery=true.
func BuildInnerRequest(raw []byte, opts buildOptions) (map[string]any, error) {
	var req map[string]any
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("claude: decode request: %w", err)
	}

	messages, _ := req["messages"].([]any)
	thinkingEnabled := thinkingIsEnabled(req) && !opts.recovery

	ids := toolIDNames{}
	collectToolIDs(messages, ids)

	contents := buildContents(messages, ids, thinkingEnabled, opts.finalModel)

	inner := map[string]any{
		"contents": contents,
	}

	if sys := buildSystemInstruction(req); sys != nil && opts.imageConfig == nil {
		inner["systemInstruction"] = sys
	}

	hasWebSearch, tools := buildTools(req, opts.recovery)
	if opts.injectGoogleSearch && !hasWebSearch {
		tools = append(tools, map[string]any{"googleSearch": map[string]any{}})
	}
	if opts.imageConfig == nil && len(tools) > 0 {
		inner["tools"] = tools
		inner["toolConfig"] = map[string]any{
			"functionCallingConfig": map[string]any{"mode": "VALIDATED"},
		}
	}

	genConfig := buildGenerationConfig(req, opts.finalModel, thinkingEnabled)
	if opts.imageConfig != nil {
		delete(genConfig, "thinkingConfig")
		delete(genConfig, "responseMimeType")
		delete(genConfig, "responseModalities")
		inner["imageConfig"] = opts.imageConfig
		delete(inner, "tools")
		delete(inner, "toolConfig")
		delete(inner, "systemInstruction")
	}
	inner["generationConfig"] = genConfig

	inner["safetySettings"] = buildSafetySettings()

	return inner, nil
}

// thinkingIsEnabled honors the structured "thinking" request field, and
// also treats a model alias naming a Claude thinking variant (e.g. a client
// requesting "claude-3-7-sonnet-thinking" without setting the field) as an
// implicit opt-in.
func thinkingIsEnabled(req map[string]any) bool {
	if thinking, ok := req["thinking"].(map[string]any); ok {
		if t, _ := thinking["type"].(string); t == "enabled" {
			return true
		}
	}
	if model, ok := req["model"].(string); ok && util.IsClaudeThinkingModel(model) {
		return true
	}
	return false
}

func buildSystemInstruction(req map[string]any) map[string]any {
	var callerText string
	switch sys := req["system"].(type) {
	case string:
		callerText = sys
	case []any:
		var parts []string
		for _, block := range sys {
			if m, ok := block.(map[string]any); ok {
				if text, ok := m["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		callerText = strings.Join(parts, "\n")
	}

	full := identityPreamble + callerText + identityPreambleEnd
	return map[string]any{
		"role":  "user",
		"parts": []any{map[string]any{"text": full}},
	}
}

// collectToolIDs pre-scans assistant tool_use blocks to build the id->name
// map tool_result blocks need (they only carry the id).
func collectToolIDs(messages []any, ids toolIDNames) {
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		blocks := contentBlocks(msg["content"])
		for _, b := range blocks {
			block, ok := b.(map[string]any)
			if !ok {
				continue
			}
			if block["type"] == "tool_use" {
				id, _ := block["id"].(string)
				name, _ := block["name"].(string)
				if id != "" {
					ids[id] = name
				}
			}
		}
	}
}

// contentBlocks normalizes a message's "content" field (string or block
// array) to a block-array shape.
func contentBlocks(content any) []any {
	switch c := content.(type) {
	case string:
		if c == "" {
			return nil
		}
		return []any{map[string]any{"type": "text", "text": c}}
	case []any:
		return c
	default:
		return nil
	}
}

func buildContents(messages []any, ids toolIDNames, thinkingEnabled bool, finalModel string) []any {
	var contents []any
	lastModelIdx := -1
	for i, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		role, _ := msg["role"].(string)
		geminiRole := role
		if role == "assistant" {
			geminiRole = "model"
		}
		parts := buildParts(contentBlocks(msg["content"]), ids)
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, map[string]any{"role": geminiRole, "parts": parts})
		if geminiRole == "model" {
			lastModelIdx = len(contents) - 1
		}
		_ = i
	}

	if thinkingEnabled && strings.HasPrefix(finalModel, "gemini-") && lastModelIdx == len(contents)-1 && lastModelIdx >= 0 {
		last := contents[lastModelIdx].(map[string]any)
		parts, _ := last["parts"].([]any)
		if !anyPartIsThought(parts) {
			last["parts"] = append([]any{map[string]any{"text": "Thinking...", "thought": true}}, parts...)
		}
	}

	return contents
}

func anyPartIsThought(parts []any) bool {
	for _, p := range parts {
		if part, ok := p.(map[string]any); ok {
			if thought, _ := part["thought"].(bool); thought {
				return true
			}
		}
	}
	return false
}

func buildParts(blocks []any, ids toolIDNames) []any {
	var parts []any
	for _, b := range blocks {
		block, ok := b.(map[string]any)
		if !ok {
			continue
		}
		switch block["type"] {
		case "text":
			text, _ := block["text"].(string)
			if text == "(no content)" {
				continue
			}
			parts = append(parts, map[string]any{"text": text})

		case "thinking":
			text, _ := block["text"].(string)
			part := map[string]any{"text": text, "thought": true}
			if sig, ok := block["signature"].(string); ok && sig != "" {
				part["thoughtSignature"] = sig
			}
			parts = append(parts, part)

		case "image":
			if src, ok := block["source"].(map[string]any); ok {
				mime, _ := src["media_type"].(string)
				data, _ := src["data"].(string)
				parts = append(parts, map[string]any{
					"inlineData": map[string]any{"mimeType": mime, "data": data},
				})
			}

		case "tool_use":
			name, _ := block["name"].(string)
			id, _ := block["id"].(string)
			fc := map[string]any{"functionCall": map[string]any{
				"name": name,
				"args": block["input"],
				"id":   id,
			}}
			if sig, ok := block["signature"].(string); ok && sig != "" {
				fc["thoughtSignature"] = sig
			}
			parts = append(parts, fc)

		case "tool_result":
			toolUseID, _ := block["tool_use_id"].(string)
			name := ids[toolUseID]
			result := toolResultText(block)
			parts = append(parts, map[string]any{
				"functionResponse": map[string]any{
					"name":     name,
					"id":       toolUseID,
					"response": map[string]any{"result": result},
				},
			})
		}
	}
	return parts
}

func toolResultText(block map[string]any) string {
	isError, _ := block["is_error"].(bool)
	text := extractToolResultContent(block["content"])
	if text == "" {
		if isError {
			return "Tool execution failed with no output."
		}
		return "Command executed successfully."
	}
	return text
}

func extractToolResultContent(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var parts []string
		for _, b := range c {
			if block, ok := b.(map[string]any); ok {
				if text, ok := block["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

// buildTools returns whether a web_search tool was present (in which case
// every tool is replaced by a single Gemini googleSearch tool) and the
// resulting Gemini tools array.
func buildTools(req map[string]any, recovery bool) (hasWebSearch bool, tools []any) {
	rawTools, _ := req["tools"].([]any)
	if recovery || len(rawTools) == 0 {
		return false, nil
	}

	if len(rawTools) == 1 {
		if t, ok := rawTools[0].(map[string]any); ok {
			if name, _ := t["name"].(string); name == "web_search" {
				return true, []any{map[string]any{"googleSearch": map[string]any{}}}
			}
		}
	}

	var decls []any
	for _, t := range rawTools {
		tool, ok := t.(map[string]any)
		if !ok {
			continue
		}
		name, _ := tool["name"].(string)
		description, _ := tool["description"].(string)
		params, _ := tool["input_schema"].(map[string]any)
		decls = append(decls, map[string]any{
			"name":        name,
			"description": description,
			"parameters":  shared.CleanToolSchema(params),
		})
	}
	if len(decls) == 0 {
		return false, nil
	}
	return false, []any{map[string]any{"functionDeclarations": decls}}
}

func buildGenerationConfig(req map[string]any, finalModel string, thinkingEnabled bool) map[string]any {
	cfg := map[string]any{
		"maxOutputTokens": defaultMaxOutputTokens,
		"stopSequences":   append([]string{}, fixedStopSequences...),
	}
	for _, key := range []string{"temperature", "topP", "topK"} {
		claudeKey := key
		if key == "topP" {
			claudeKey = "top_p"
		} else if key == "topK" {
			claudeKey = "top_k"
		}
		if v, ok := req[claudeKey]; ok {
			cfg[key] = v
		}
	}

	if thinkingEnabled {
		thinkConfig := map[string]any{"includeThoughts": true}
		if thinking, ok := req["thinking"].(map[string]any); ok {
			if budget, ok := numberOf(thinking["budget_tokens"]); ok {
				if strings.Contains(finalModel, "gemini-2.5-flash") && budget > flashThinkingBudgetCap {
					budget = flashThinkingBudgetCap
				}
				thinkConfig["thinkingBudget"] = budget
			}
		}
		cfg["thinkingConfig"] = thinkConfig
	}

	return cfg
}

func numberOf(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func buildSafetySettings() []any {
	out := make([]any, 0, len(harmCategories))
	for _, cat := range harmCategories {
		out = append(out, map[string]any{"category": cat, "threshold": "OFF"})
	}
	return out
}

// SessionID extracts metadata.user_id from a raw Claude request body, for
// the handler to attach as the envelope's request.sessionId.
func SessionID(raw []byte) string {
	var req struct {
		Metadata struct {
			UserID string `json:"user_id"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return ""
	}
	return req.Metadata.UserID
}

// HasWebSearchTool reports whether the raw request's tool list is exactly
// the single "web_search" tool, the condition the model router needs to
// force the Gemini search-enabled target.
func HasWebSearchTool(raw []byte) bool {
	var req struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return false
	}
	return len(req.Tools) == 1 && req.Tools[0].Name == "web_search"
}
