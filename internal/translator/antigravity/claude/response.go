// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package claude

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/pebblecode/agbridge/internal/translator/antigravity/shared"
)

// ConvertAntigravityResponseToClaudeNonStream renders one complete,
// buffered Gemini generateContent response as an Anthropic Messages API
// response body.
func ConvertAntigravityResponseToClaudeNonStream(ctx context.Context, model string, originalRequestRawJSON, requestRawJSON, rawJSON []byte, param *any) string {
	result := gjson.ParseBytes(rawJSON)
	if wrapped := result.Get("response"); wrapped.Exists() {
		result = wrapped
	}

	var content []any
	usedTool := false
	for _, part := range result.Get("candidates.0.content.parts").Array() {
		switch {
		case part.Get("functionCall").Exists():
			usedTool = true
			name := part.Get("functionCall.name").String()
			id := part.Get("functionCall.id").String()
			if id == "" {
				id = fmt.Sprintf("%s-%s", name, shared.RandomSuffix())
			}
			var input any
			_ = json.Unmarshal([]byte(part.Get("functionCall.args").Raw), &input)
			content = append(content, map[string]any{
				"type": "tool_use", "id": id, "name": name, "input": input,
			})
		case part.Get("inlineData").Exists():
			content = append(content, map[string]any{
				"type": "text",
				"text": markdownImage(part.Get("inlineData")),
			})
		case part.Get("thought").Bool():
			block := map[string]any{"type": "thinking", "thinking": part.Get("text").String()}
			if sig := part.Get("thoughtSignature").String(); sig != "" {
				block["signature"] = sig
			}
			content = append(content, block)
		default:
			content = append(content, map[string]any{"type": "text", "text": part.Get("text").String()})
		}
	}

	finishReason := result.Get("candidates.0.finishReason").String()
	stopReason := "end_turn"
	switch {
	case usedTool:
		stopReason = "tool_use"
	case finishReason == "MAX_TOKENS":
		stopReason = "max_tokens"
	}

	out := map[string]any{
		"id":            result.Get("responseId").String(),
		"type":          "message",
		"role":          "assistant",
		"model":         result.Get("modelVersion").String(),
		"content":       content,
		"stop_reason":   stopReason,
		"stop_sequence": nil,
		"usage": map[string]any{
			"input_tokens":  result.Get("usageMetadata.promptTokenCount").Int(),
			"output_tokens": result.Get("usageMetadata.candidatesTokenCount").Int(),
		},
	}
	data, _ := json.Marshal(out)
	return string(data)
}
