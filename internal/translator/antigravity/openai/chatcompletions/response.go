// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package chatcompletions

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/pebblecode/agbridge/internal/translator/antigravity/shared"
)

// ConvertAntigravityResponseToChatCompletionNonStream renders one complete,
// buffered Gemini generateContent response as an OpenAI chat.completion
// response body.
func ConvertAntigravityResponseToChatCompletionNonStream(ctx context.Context, model string, originalRequestRawJSON, requestRawJSON, rawJSON []byte, param *any) string {
	result := gjson.ParseBytes(rawJSON)
	if wrapped := result.Get("response"); wrapped.Exists() {
		result = wrapped
	}

	var text string
	var toolCalls []any
	for _, part := range result.Get("candidates.0.content.parts").Array() {
		switch {
		case part.Get("functionCall").Exists():
			name := part.Get("functionCall.name").String()
			id := part.Get("functionCall.id").String()
			if id == "" {
				id = fmt.Sprintf("call_%s", shared.RandomSuffix())
			}
			args := part.Get("functionCall.args").Raw
			if args == "" {
				args = "{}"
			}
			toolCalls = append(toolCalls, map[string]any{
				"id":   id,
				"type": "function",
				"function": map[string]any{
					"name":      name,
					"arguments": args,
				},
			})
		case part.Get("thought").Bool():
			// reasoning text has no chat-completions home; dropped.
		default:
			text += part.Get("text").String()
		}
	}

	finishReason := result.Get("candidates.0.finishReason").String()
	openAIFinish := "stop"
	switch {
	case len(toolCalls) > 0:
		openAIFinish = "tool_calls"
	case finishReason == "MAX_TOKENS":
		openAIFinish = "length"
	}

	message := map[string]any{"role": "assistant"}
	if text != "" {
		message["content"] = text
	} else {
		message["content"] = nil
	}
	if len(toolCalls) > 0 {
		message["tool_calls"] = toolCalls
	}

	out := map[string]any{
		"id":      "chatcmpl-" + result.Get("responseId").String(),
		"object":  "chat.completion",
		"created": result.Get("createTime").Int(),
		"model":   model,
		"choices": []any{map[string]any{
			"index":         0,
			"message":       message,
			"finish_reason": openAIFinish,
		}},
		"usage": map[string]any{
			"prompt_tokens":     result.Get("usageMetadata.promptTokenCount").Int(),
			"completion_tokens": result.Get("usageMetadata.candidatesTokenCount").Int(),
			"total_tokens":      result.Get("usageMetadata.totalTokenCount").Int(),
		},
	}
	data, _ := json.Marshal(out)
	return string(data)
}
