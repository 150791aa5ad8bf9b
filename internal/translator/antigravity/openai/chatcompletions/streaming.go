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

// State is the streaming state machine's mutable state, kept as explicit
// fields so tests can drive it with synthetic chunk sequences.
type State struct {
	ChunkID       string
	Created       int64
	ModelVersion  string
	RoleSent      bool
	NextToolIndex int
	UsedTool      bool
}

func sseFrame(v any) string {
	data, _ := json.Marshal(v)
	return "data: " + string(data) + "\n\n"
}

func (s *State) chunk(delta map[string]any, finishReason any) string {
	return sseFrame(map[string]any{
		"id":      "chatcmpl-" + s.ChunkID,
		"object":  "chat.completion.chunk",
		"created": s.Created,
		"model":   s.ModelVersion,
		"choices": []any{map[string]any{
			"index":         0,
			"delta":         delta,
			"finish_reason": finishReason,
		}},
	})
}

// Step advances the state machine by one upstream Gemini chunk (already
// unwrapped of any {"response": ...} envelope) and returns the OpenAI SSE
// frames it produces.
func Step(s *State, chunk []byte) []string {
	var out []string

	result := gjson.ParseBytes(chunk)

	if !s.RoleSent {
		s.ChunkID = result.Get("responseId").String()
		s.ModelVersion = result.Get("modelVersion").String()
		s.Created = result.Get("createTime").Int()
		out = append(out, s.chunk(map[string]any{"role": "assistant", "content": ""}, nil))
		s.RoleSent = true
	}

	candidate := result.Get("candidates.0")
	for _, part := range candidate.Get("content.parts").Array() {
		switch {
		case part.Get("functionCall").Exists():
			s.UsedTool = true
			name := part.Get("functionCall.name").String()
			id := part.Get("functionCall.id").String()
			if id == "" {
				id = fmt.Sprintf("call_%s", shared.RandomSuffix())
			}
			args := part.Get("functionCall.args").Raw
			if args == "" {
				args = "{}"
			}
			index := s.NextToolIndex
			s.NextToolIndex++
			out = append(out, s.chunk(map[string]any{
				"tool_calls": []any{map[string]any{
					"index": index,
					"id":    id,
					"type":  "function",
					"function": map[string]any{
						"name":      name,
						"arguments": args,
					},
				}},
			}, nil))

		case part.Get("thought").Bool():
			// reasoning text has no chat-completions home; dropped.

		default:
			if text := part.Get("text").String(); text != "" {
				out = append(out, s.chunk(map[string]any{"content": text}, nil))
			}
		}
	}

	if finishReason := candidate.Get("finishReason").String(); finishReason != "" {
		openAIFinish := "stop"
		switch {
		case s.UsedTool:
			openAIFinish = "tool_calls"
		case finishReason == "MAX_TOKENS":
			openAIFinish = "length"
		}
		out = append(out, s.chunk(map[string]any{}, openAIFinish))
		out = append(out, "data: [DONE]\n\n")
	}

	return out
}

// ConvertAntigravityResponseToChatCompletion is the sdk/translator registry
// entry point: it decodes param as *State (allocating one on first call),
// unwraps the {"response": ...} envelope if present, and returns the OpenAI
// SSE frames for one upstream chunk.
func ConvertAntigravityResponseToChatCompletion(ctx context.Context, model string, originalRequestRawJSON, requestRawJSON, rawJSON []byte, param *any) []string {
	state, _ := (*param).(*State)
	if state == nil {
		state = &State{}
		*param = state
	}

	if string(rawJSON) == "[DONE]" {
		return nil
	}

	unwrapped := gjson.ParseBytes(rawJSON)
	if wrapped := unwrapped.Get("response"); wrapped.Exists() {
		return Step(state, []byte(wrapped.Raw))
	}
	return Step(state, rawJSON)
}
