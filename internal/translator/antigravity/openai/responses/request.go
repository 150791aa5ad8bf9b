// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package responses

import (
	"github.com/goccy/go-json"

	"github.com/pebblecode/agbridge/internal/translator/antigravity/openai/chatcompletions"
)

// ConvertResponsesRequestToAntigravity handles both the legacy Completions
// shape and the Codex Responses shape by normalizing either one onto the
// chat-style message list the chatcompletions package already builds a
// Gemini request from, reusing that builder rather than duplicating it.
func ConvertResponsesRequestToAntigravity(model string, raw []byte, stream bool) []byte {
	var req map[string]any
	if err := json.Unmarshal(raw, &req); err != nil {
		return raw
	}

	messages := normalizeToMessages(req)

	chatBody := map[string]any{"messages": messages}
	for _, key := range []string{"temperature", "top_p", "top_k", "max_tokens", "stop", "response_format", "tools", "user"} {
		if v, ok := req[key]; ok {
			chatBody[key] = v
		}
	}
	if maxOut, ok := req["max_output_tokens"]; ok {
		chatBody["max_tokens"] = maxOut
	}

	data, err := json.Marshal(chatBody)
	if err != nil {
		return raw
	}
	return chatcompletions.ConvertOpenAIChatRequestToAntigravity(model, data, stream)
}

// normalizeToMessages dispatches between the pure-legacy {"prompt": "..."}
// shape and the Codex-style {"input": ..., "instructions": "..."} shape.
func normalizeToMessages(req map[string]any) []any {
	if _, hasInput := req["input"]; hasInput {
		return normalizeCodex(req)
	}
	return normalizeLegacy(req)
}

// normalizeLegacy wraps a plain /v1/completions prompt string as a single
// user turn.
func normalizeLegacy(req map[string]any) []any {
	prompt, _ := req["prompt"].(string)
	if prompt == "" {
		return nil
	}
	return []any{map[string]any{"role": "user", "content": prompt}}
}

// prescanCallNames builds a call_id -> function name map by scanning every
// function_call/local_shell_call/web_search_call item once before the main
// translation pass, so a later function_call_output item (which only
// carries the call_id) can recover the name it belongs to.
func prescanCallNames(items []any) map[string]string {
	names := map[string]string{}
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name, callID := callNameAndID(item)
		if callID != "" {
			names[callID] = name
		}
	}
	return names
}

// callNameAndID extracts the normalized function name and call id from a
// function_call/local_shell_call/web_search_call Codex input item.
func callNameAndID(item map[string]any) (string, string) {
	callID, _ := item["call_id"].(string)
	if callID == "" {
		callID, _ = item["id"].(string)
	}
	switch item["type"] {
	case "local_shell_call":
		return "shell", callID
	case "web_search_call":
		return "google_search", callID
	case "function_call":
		name, _ := item["name"].(string)
		return name, callID
	default:
		return "", ""
	}
}

// normalizeCodex implements the Codex-style body normalization: an
// "instructions" system message followed by one message per input item.
func normalizeCodex(req map[string]any) []any {
	var messages []any

	if instructions, _ := req["instructions"].(string); instructions != "" {
		messages = append(messages, map[string]any{"role": "system", "content": instructions})
	}

	items := inputItems(req["input"])
	names := prescanCallNames(items)

	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}

		switch item["type"] {
		case "message", "":
			role, _ := item["role"].(string)
			if role == "" {
				role = "user"
			}
			messages = append(messages, map[string]any{
				"role":    role,
				"content": itemText(item["content"]),
			})

		case "function_call":
			name, callID := callNameAndID(item)
			args, _ := item["arguments"].(string)
			messages = append(messages, assistantToolCallMessage(callID, name, args))

		case "local_shell_call":
			name, callID := callNameAndID(item)
			args := localShellArguments(item)
			messages = append(messages, assistantToolCallMessage(callID, name, args))

		case "web_search_call":
			name, callID := callNameAndID(item)
			messages = append(messages, assistantToolCallMessage(callID, name, "{}"))

		case "function_call_output", "custom_tool_call_output":
			callID, _ := item["call_id"].(string)
			messages = append(messages, map[string]any{
				"role":         "tool",
				"tool_call_id": callID,
				"name":         names[callID],
				"content":      itemText(item["output"]),
			})
		}
	}

	return messages
}

func inputItems(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []any{map[string]any{"type": "message", "role": "user", "content": v}}
	default:
		return nil
	}
}

// itemText flattens a Codex content value, which may be a plain string or a
// list of {type, text} content blocks, into a single string.
func itemText(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []any:
		var out string
		for _, b := range v {
			block, ok := b.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := block["text"].(string); ok {
				out += text
			}
		}
		return out
	default:
		return ""
	}
}

// localShellArguments serializes a local_shell_call's exec block into the
// JSON arguments string a Gemini function call part carries, preserving
// exec.command as a string array under "command" and exec.workdir when
// present.
func localShellArguments(item map[string]any) string {
	exec, _ := item["action"].(map[string]any)
	if exec == nil {
		exec, _ = item["exec"].(map[string]any)
	}
	args := map[string]any{}
	if exec != nil {
		if cmd, ok := exec["command"]; ok {
			args["command"] = cmd
		}
		if workdir, ok := exec["workdir"]; ok {
			args["workdir"] = workdir
		}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func assistantToolCallMessage(callID, name, argumentsJSON string) map[string]any {
	if argumentsJSON == "" {
		argumentsJSON = "{}"
	}
	return map[string]any{
		"role":    "assistant",
		"content": nil,
		"tool_calls": []any{map[string]any{
			"id":   callID,
			"type": "function",
			"function": map[string]any{
				"name":      name,
				"arguments": argumentsJSON,
			},
		}},
	}
}
