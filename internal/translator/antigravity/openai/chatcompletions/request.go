// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package chatcompletions translates between the OpenAI Chat Completions
// API and the Gemini request/response shapes the Antigravity v1internal
// endpoint accepts.
package chatcompletions

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/pebblecode/agbridge/internal/translator/antigravity/shared"
)

const systemPreamble = "You are a coding agent. Use the shell tool to inspect and modify the workspace rather than guessing at file contents.\n\n"

// toolCallNames resolves a tool_call_id to the function name it invoked,
// built from a pre-scan over every assistant message's tool_calls, so a
// later role:"tool" message (which only carries the id) can be translated
// into a named Gemini functionResponse.
type toolCallNames map[string]string

// buildOptions threads the pieces the request builder needs beyond the raw
// client body: the resolved final model and the flags the router already
// computed from it.
type buildOptions struct {
	finalModel         string
	injectGoogleSearch bool
	// priorSignature is the thoughtSignature saved from the previous turn's
	// first tool call, reattached to this turn's first tool call so Gemini
	// can keep a continuous thinking chain across a round trip.
	priorSignature string
}

// NewBuildOptions constructs a BuildInnerRequest options value for callers
// outside this package — the HTTP handler, threading the router's resolved
// final model, grounding-injection flag, and the prior turn's saved
// thoughtSignature through without exposing the struct's fields directly.
func NewBuildOptions(finalModel string, injectGoogleSearch bool, priorSignature string) buildOptions {
	return buildOptions{
		finalModel:         finalModel,
		injectGoogleSearch: injectGoogleSearch,
		priorSignature:     priorSignature,
	}
}

// ConvertOpenAIChatRequestToAntigravity builds the Gemini inner request for
// a chat completions call. Envelope wrapping happens one layer up, in the
// HTTP handler, once the token pool has resolved a project id.
func ConvertOpenAIChatRequestToAntigravity(model string, raw []byte, stream bool) []byte {
	out, err := BuildInnerRequest(raw, buildOptions{finalModel: model})
	if err != nil {
		return raw
	}
	data, _ := json.Marshal(out)
	return data
}

// BuildInnerRequest is the testable core of the mapper; exported so the
// HTTP handler can call it directly with the router's full RequestConfig.
func BuildInnerRequest(raw []byte, opts buildOptions) (map[string]any, error) {
	var req map[string]any
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}

	messages, _ := req["messages"].([]any)

	names := toolCallNames{}
	collectToolCallNames(messages, names)

	contents, sysParts := buildContents(messages, names, opts)

	inner := map[string]any{"contents": contents}

	if len(sysParts) > 0 {
		inner["systemInstruction"] = map[string]any{
			"role":  "user",
			"parts": []any{map[string]any{"text": systemPreamble + strings.Join(sysParts, "\n")}},
		}
	}

	if tools := buildTools(req); len(tools) > 0 || opts.injectGoogleSearch {
		if opts.injectGoogleSearch {
			tools = append(tools, map[string]any{"googleSearch": map[string]any{}})
		}
		inner["tools"] = tools
		inner["toolConfig"] = map[string]any{
			"functionCallingConfig": map[string]any{"mode": "VALIDATED"},
		}
	}

	inner["generationConfig"] = buildGenerationConfig(req)

	return inner, nil
}

func collectToolCallNames(messages []any, names toolCallNames) {
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		calls, ok := msg["tool_calls"].([]any)
		if !ok {
			continue
		}
		for _, c := range calls {
			call, ok := c.(map[string]any)
			if !ok {
				continue
			}
			id, _ := call["id"].(string)
			fn, _ := call["function"].(map[string]any)
			name, _ := fn["name"].(string)
			if name == "local_shell_call" {
				name = "shell"
			}
			if id != "" {
				names[id] = name
			}
		}
	}
}

func buildContents(messages []any, names toolCallNames, opts buildOptions) ([]any, []string) {
	var contents []any
	var sysParts []string
	attachedSignature := false

	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		role, _ := msg["role"].(string)

		switch role {
		case "system":
			if text := flattenMessageText(msg["content"]); text != "" {
				sysParts = append(sysParts, text)
			}
			continue

		case "tool", "function":
			id, _ := msg["tool_call_id"].(string)
			name := names[id]
			if name == "" {
				name, _ = msg["name"].(string)
			}
			contents = append(contents, map[string]any{
				"role": "user",
				"parts": []any{map[string]any{
					"functionResponse": map[string]any{
						"name":     name,
						"id":       id,
						"response": map[string]any{"result": flattenMessageText(msg["content"])},
					},
				}},
			})
			continue

		case "assistant":
			parts := buildUserParts(msg["content"])
			firstToolCall := true
			if calls, ok := msg["tool_calls"].([]any); ok {
				for _, c := range calls {
					call, ok := c.(map[string]any)
					if !ok {
						continue
					}
					id, _ := call["id"].(string)
					fn, _ := call["function"].(map[string]any)
					name, _ := fn["name"].(string)
					if name == "local_shell_call" {
						name = "shell"
					}
					var args any
					if rawArgs, ok := fn["arguments"].(string); ok {
						_ = json.Unmarshal([]byte(rawArgs), &args)
					}
					fc := map[string]any{"functionCall": map[string]any{
						"name": name,
						"args": args,
						"id":   id,
					}}
					if firstToolCall && !attachedSignature && opts.priorSignature != "" {
						fc["thoughtSignature"] = opts.priorSignature
						attachedSignature = true
					}
					firstToolCall = false
					parts = append(parts, fc)
				}
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, map[string]any{"role": "model", "parts": parts})

		default: // "user"
			parts := buildUserParts(msg["content"])
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, map[string]any{"role": "user", "parts": parts})
		}
	}

	return contents, sysParts
}

func flattenMessageText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var sb strings.Builder
		for _, b := range c {
			if block, ok := b.(map[string]any); ok {
				if text, ok := block["text"].(string); ok {
					sb.WriteString(text)
					sb.WriteByte('\n')
				}
			}
		}
		return strings.TrimRight(sb.String(), "\n")
	default:
		return ""
	}
}

func buildUserParts(content any) []any {
	switch c := content.(type) {
	case string:
		if c == "" {
			return nil
		}
		return []any{map[string]any{"text": c}}
	case []any:
		var parts []any
		for _, b := range c {
			block, ok := b.(map[string]any)
			if !ok {
				continue
			}
			switch block["type"] {
			case "text":
				text, _ := block["text"].(string)
				parts = append(parts, map[string]any{"text": text})
			case "image_url":
				if img, ok := block["image_url"].(map[string]any); ok {
					url, _ := img["url"].(string)
					parts = append(parts, imagePart(url))
				}
			}
		}
		return parts
	default:
		return nil
	}
}

func imagePart(url string) map[string]any {
	if mime, data, ok := shared.ParseDataURL(url); ok {
		return map[string]any{"inlineData": map[string]any{"mimeType": mime, "data": data}}
	}
	return map[string]any{"fileData": map[string]any{"fileUri": url}}
}

func buildTools(req map[string]any) []any {
	rawTools, _ := req["tools"].([]any)
	if len(rawTools) == 0 {
		return nil
	}
	var decls []any
	for _, t := range rawTools {
		tool, ok := t.(map[string]any)
		if !ok {
			continue
		}
		fn, ok := tool["function"].(map[string]any)
		if !ok {
			continue
		}
		name, _ := fn["name"].(string)
		description, _ := fn["description"].(string)
		params, _ := fn["parameters"].(map[string]any)
		cleaned := shared.CleanToolSchema(params)
		decls = append(decls, map[string]any{
			"name":        name,
			"description": description,
			"parameters":  reduceSchemaForOpenAI(cleaned),
		})
	}
	if len(decls) == 0 {
		return nil
	}
	return []any{map[string]any{"functionDeclarations": decls}}
}

// allowedSchemaKeys is the OpenAI-specific reducer applied after the
// universal schema cleaner: only these fields survive.
var allowedSchemaKeys = map[string]bool{
	"type": true, "description": true, "properties": true, "required": true,
	"items": true, "enum": true, "format": true, "nullable": true,
}

// reduceSchemaForOpenAI strips every field the universal cleaner left that
// Gemini's function-declaration schema does not accept from an
// OpenAI-originated tool definition, and uppercases the "type" value.
func reduceSchemaForOpenAI(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := map[string]any{}
	for k, v := range schema {
		if !allowedSchemaKeys[k] {
			continue
		}
		switch k {
		case "type":
			if s, ok := v.(string); ok {
				out[k] = strings.ToUpper(s)
				continue
			}
			out[k] = v
		case "properties":
			props, ok := v.(map[string]any)
			if !ok {
				out[k] = v
				continue
			}
			reduced := map[string]any{}
			for pk, pv := range props {
				if pm, ok := pv.(map[string]any); ok {
					reduced[pk] = reduceSchemaForOpenAI(pm)
				} else {
					reduced[pk] = pv
				}
			}
			out[k] = reduced
		case "items":
			if im, ok := v.(map[string]any); ok {
				out[k] = reduceSchemaForOpenAI(im)
			} else {
				out[k] = v
			}
		default:
			out[k] = v
		}
	}
	return out
}

func buildGenerationConfig(req map[string]any) map[string]any {
	cfg := map[string]any{}
	for _, key := range []string{"temperature", "topP", "topK", "maxOutputTokens"} {
		srcKey := key
		switch key {
		case "topP":
			srcKey = "top_p"
		case "topK":
			srcKey = "top_k"
		case "maxOutputTokens":
			srcKey = "max_tokens"
		}
		if v, ok := req[srcKey]; ok {
			cfg[key] = v
		}
	}

	if rf, ok := req["response_format"].(map[string]any); ok {
		if t, _ := rf["type"].(string); t == "json_object" {
			cfg["responseMimeType"] = "application/json"
		}
	}

	if stop := buildStopSequences(req["stop"]); len(stop) > 0 {
		cfg["stopSequences"] = stop
	}

	return cfg
}

func buildStopSequences(v any) []string {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		var out []string
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// SessionID extracts the OpenAI "user" field from a raw chat completions
// request body, for the handler to attach as the envelope's
// request.sessionId.
func SessionID(raw []byte) string {
	var req struct {
		User string `json:"user"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return ""
	}
	return req.User
}
