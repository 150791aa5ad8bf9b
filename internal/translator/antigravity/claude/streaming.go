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

// blockType names the kind of Anthropic content block currently open, if
// any.
type blockType string

const (
	blockNone     blockType = ""
	blockText     blockType = "text"
	blockThinking blockType = "thinking"
	blockFunction blockType = "function"
)

// State is the streaming state machine's mutable state, kept as explicit
// fields (not closures) so tests can drive it with synthetic event
// sequences.
type State struct {
	BlockType        blockType
	BlockIndex       int
	MessageStartSent bool
	MessageStopSent  bool
	UsedTool         bool
	PendingSignature string
	TrailingSignature string
	MessageID        string
	ModelVersion     string
	InputTokens      int64
	OutputTokens     int64
}

// StepResult is the output of one Step call: zero or more fully-formatted
// Anthropic SSE frames ("event: ...\ndata: ...\n\n").
type StepResult []string

func sseFrame(event string, payload map[string]any) string {
	data, _ := json.Marshal(payload)
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
}

// Step advances the state machine by one upstream Gemini chunk (already
// unwrapped of any {"response": ...} envelope) and returns the Anthropic SSE
// frames it produces.
func Step(s *State, chunk []byte) StepResult {
	var out StepResult

	result := gjson.ParseBytes(chunk)

	if !s.MessageStartSent {
		s.MessageID = result.Get("responseId").String()
		s.ModelVersion = result.Get("modelVersion").String()
		out = append(out, messageStart(s))
		s.MessageStartSent = true
	}

	if usage := result.Get("usageMetadata"); usage.Exists() {
		s.InputTokens = usage.Get("promptTokenCount").Int()
		s.OutputTokens = usage.Get("candidatesTokenCount").Int()
	}

	candidate := result.Get("candidates.0")
	parts := candidate.Get("content.parts").Array()
	for _, part := range parts {
		out = append(out, stepPart(s, part)...)
	}

	finishReason := candidate.Get("finishReason").String()
	if finishReason != "" {
		out = append(out, finish(s, finishReason)...)
	}

	return out
}

// Finalize closes any open block and emits message_delta/message_stop for a
// stream that ends via [DONE] without ever setting finishReason (e.g. the
// upstream socket simply closes after the last chunk).
func Finalize(s *State) StepResult {
	if s.MessageStopSent {
		return nil
	}
	return finish(s, "")
}

func messageStart(s *State) string {
	return sseFrame("message_start", map[string]any{
		"type": "message_start",
		"message": map[string]any{
			"id":            s.MessageID,
			"type":          "message",
			"role":          "assistant",
			"model":         s.ModelVersion,
			"content":       []any{},
			"stop_reason":   nil,
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 0, "output_tokens": 0},
		},
	})
}

func stepPart(s *State, part gjson.Result) StepResult {
	var out StepResult

	if part.Get("functionCall").Exists() {
		return functionCallPart(s, part)
	}
	if part.Get("inlineData").Exists() {
		return textPart(s, markdownImage(part.Get("inlineData")), "")
	}

	thought := part.Get("thought").Bool()
	text := part.Get("text").String()
	sig := part.Get("thoughtSignature").String()

	if thought {
		if s.TrailingSignature != "" {
			out = append(out, flushTrailingSignature(s)...)
		}
		out = append(out, thinkingPart(s, text, sig)...)
		return out
	}

	if text == "" && sig != "" {
		s.TrailingSignature = sig
		return out
	}

	if s.TrailingSignature != "" {
		out = append(out, flushTrailingSignature(s)...)
	}

	out = append(out, textPart(s, text, sig)...)
	return out
}

func thinkingPart(s *State, text, sig string) StepResult {
	var out StepResult
	if s.BlockType != blockThinking {
		out = append(out, closeBlock(s)...)
		out = append(out, openBlock(s, blockThinking, nil)...)
	}
	out = append(out, deltaFrame(s, "thinking_delta", map[string]any{"thinking": text}))
	if sig != "" {
		s.PendingSignature = sig
	}
	return out
}

func textPart(s *State, text, sig string) StepResult {
	var out StepResult
	if s.BlockType != blockText {
		out = append(out, closeBlock(s)...)
		out = append(out, openBlock(s, blockText, nil)...)
	}
	if text != "" {
		out = append(out, deltaFrame(s, "text_delta", map[string]any{"text": text}))
	}
	if sig != "" {
		out = append(out, closeBlock(s)...)
		out = append(out, openBlock(s, blockThinking, nil)...)
		out = append(out, deltaFrame(s, "thinking_delta", map[string]any{"thinking": ""}))
		s.PendingSignature = sig
		out = append(out, closeBlock(s)...)
	}
	return out
}

func flushTrailingSignature(s *State) StepResult {
	var out StepResult
	out = append(out, closeBlock(s)...)
	out = append(out, openBlock(s, blockThinking, nil)...)
	out = append(out, deltaFrame(s, "thinking_delta", map[string]any{"thinking": ""}))
	s.PendingSignature = s.TrailingSignature
	s.TrailingSignature = ""
	out = append(out, closeBlock(s)...)
	return out
}

func functionCallPart(s *State, part gjson.Result) StepResult {
	var out StepResult
	s.UsedTool = true
	if s.TrailingSignature != "" {
		out = append(out, flushTrailingSignature(s)...)
	}
	out = append(out, closeBlock(s)...)

	name := part.Get("functionCall.name").String()
	id := part.Get("functionCall.id").String()
	if id == "" {
		id = fmt.Sprintf("%s-%s", name, shared.RandomSuffix())
	}

	out = append(out, openBlock(s, blockFunction, map[string]any{"id": id, "name": name, "input": map[string]any{}}))

	args := part.Get("functionCall.args")
	argsJSON := args.Raw
	if argsJSON == "" {
		argsJSON = "{}"
	}
	out = append(out, deltaFrame(s, "input_json_delta", map[string]any{"partial_json": argsJSON}))

	out = append(out, closeBlock(s)...)
	return out
}

func markdownImage(inlineData gjson.Result) string {
	mime := inlineData.Get("mimeType").String()
	data := inlineData.Get("data").String()
	return fmt.Sprintf("![image](data:%s;base64,%s)", mime, data)
}

func openBlock(s *State, bt blockType, extra map[string]any) string {
	s.BlockType = bt
	block := map[string]any{}
	switch bt {
	case blockText:
		block = map[string]any{"type": "text", "text": ""}
	case blockThinking:
		block = map[string]any{"type": "thinking", "thinking": ""}
	case blockFunction:
		block = map[string]any{
			"type":  "tool_use",
			"id":    extra["id"],
			"name":  extra["name"],
			"input": extra["input"],
		}
	}
	return sseFrame("content_block_start", map[string]any{
		"type":          "content_block_start",
		"index":         s.BlockIndex,
		"content_block": block,
	})
}

func deltaFrame(s *State, deltaType string, fields map[string]any) string {
	delta := map[string]any{"type": deltaType}
	for k, v := range fields {
		delta[k] = v
	}
	return sseFrame("content_block_delta", map[string]any{
		"type":  "content_block_delta",
		"index": s.BlockIndex,
		"delta": delta,
	})
}

func closeBlock(s *State) StepResult {
	if s.BlockType == blockNone {
		return nil
	}
	var out StepResult
	if s.PendingSignature != "" {
		out = append(out, sseFrame("content_block_delta", map[string]any{
			"type":  "content_block_delta",
			"index": s.BlockIndex,
			"delta": map[string]any{"type": "signature_delta", "signature": s.PendingSignature},
		}))
		s.PendingSignature = ""
	}
	out = append(out, sseFrame("content_block_stop", map[string]any{
		"type":  "content_block_stop",
		"index": s.BlockIndex,
	}))
	s.BlockType = blockNone
	s.BlockIndex++
	return out
}

func finish(s *State, finishReason string) StepResult {
	if s.MessageStopSent {
		return nil
	}
	var out StepResult
	if s.TrailingSignature != "" {
		out = append(out, flushTrailingSignature(s)...)
	}
	out = append(out, closeBlock(s)...)

	stopReason := "end_turn"
	switch {
	case s.UsedTool:
		stopReason = "tool_use"
	case finishReason == "MAX_TOKENS":
		stopReason = "max_tokens"
	}

	out = append(out, sseFrame("message_delta", map[string]any{
		"type":  "message_delta",
		"delta": map[string]any{"stop_reason": stopReason, "stop_sequence": nil},
		"usage": map[string]any{"output_tokens": s.OutputTokens},
	}))
	out = append(out, sseFrame("message_stop", map[string]any{"type": "message_stop"}))
	s.MessageStopSent = true
	return out
}

// ConvertAntigravityResponseToClaude is the sdk/translator registry entry
// point: it decodes param as *State (allocating one on first call),
// unwraps the {"response": ...} envelope if present, and returns the
// Anthropic SSE frames for one upstream chunk.
func ConvertAntigravityResponseToClaude(ctx context.Context, model string, originalRequestRawJSON, requestRawJSON, rawJSON []byte, param *any) []string {
	state, _ := (*param).(*State)
	if state == nil {
		state = &State{}
		*param = state
	}

	if string(rawJSON) == "[DONE]" {
		return Finalize(state)
	}

	unwrapped := gjson.ParseBytes(rawJSON)
	if wrapped := unwrapped.Get("response"); wrapped.Exists() {
		return Step(state, []byte(wrapped.Raw))
	}
	return Step(state, rawJSON)
}
