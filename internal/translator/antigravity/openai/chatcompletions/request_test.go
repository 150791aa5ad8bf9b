// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package chatcompletions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInnerRequestConcatenatesSystemMessages(t *testing.T) {
	raw := []byte(`{"messages":[
		{"role":"system","content":"be terse"},
		{"role":"system","content":"use markdown"},
		{"role":"user","content":"hi"}
	]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)

	sys := inner["systemInstruction"].(map[string]any)
	parts := sys["parts"].([]any)
	text := parts[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "coding agent")
	assert.Contains(t, text, "be terse")
	assert.Contains(t, text, "use markdown")
}

func TestBuildInnerRequestToolCallsBecomeFunctionCallParts(t *testing.T) {
	raw := []byte(`{"messages":[
		{"role":"user","content":"list files"},
		{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"shell","arguments":"{\"cmd\":\"ls\"}"}}]},
		{"role":"tool","tool_call_id":"call_1","content":"a.go\nb.go"}
	]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)

	contents := inner["contents"].([]any)
	require.Len(t, contents, 3)

	assistantMsg := contents[1].(map[string]any)
	assert.Equal(t, "model", assistantMsg["role"])
	parts := assistantMsg["parts"].([]any)
	fc := parts[0].(map[string]any)["functionCall"].(map[string]any)
	assert.Equal(t, "shell", fc["name"])

	toolMsg := contents[2].(map[string]any)
	assert.Equal(t, "user", toolMsg["role"])
	toolParts := toolMsg["parts"].([]any)
	fr := toolParts[0].(map[string]any)["functionResponse"].(map[string]any)
	assert.Equal(t, "shell", fr["name"])
}

func TestBuildInnerRequestLocalShellCallRenamedToShell(t *testing.T) {
	raw := []byte(`{"messages":[
		{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"local_shell_call","arguments":"{}"}}]},
		{"role":"tool","tool_call_id":"call_1","content":"ok"}
	]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)

	contents := inner["contents"].([]any)
	assistantParts := contents[0].(map[string]any)["parts"].([]any)
	fc := assistantParts[0].(map[string]any)["functionCall"].(map[string]any)
	assert.Equal(t, "shell", fc["name"])
}

func TestBuildInnerRequestFirstToolCallGetsPriorSignature(t *testing.T) {
	raw := []byte(`{"messages":[
		{"role":"assistant","content":null,"tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"a","arguments":"{}"}},
			{"id":"call_2","type":"function","function":{"name":"b","arguments":"{}"}}
		]}
	]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro", priorSignature: "sig-1"})
	require.NoError(t, err)

	contents := inner["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	first := parts[0].(map[string]any)
	second := parts[1].(map[string]any)
	assert.Equal(t, "sig-1", first["thoughtSignature"])
	_, hasSig := second["thoughtSignature"]
	assert.False(t, hasSig)
}

func TestBuildInnerRequestResponseFormatJSONObject(t *testing.T) {
	raw := []byte(`{"messages":[{"role":"user","content":"hi"}],"response_format":{"type":"json_object"}}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)

	cfg := inner["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", cfg["responseMimeType"])
}

func TestBuildInnerRequestStopStringAndArray(t *testing.T) {
	raw := []byte(`{"messages":[{"role":"user","content":"hi"}],"stop":"END"}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)
	cfg := inner["generationConfig"].(map[string]any)
	assert.Equal(t, []string{"END"}, cfg["stopSequences"])

	raw = []byte(`{"messages":[{"role":"user","content":"hi"}],"stop":["A","B"]}`)
	inner, err = BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)
	cfg = inner["generationConfig"].(map[string]any)
	assert.Equal(t, []string{"A", "B"}, cfg["stopSequences"])
}

func TestBuildInnerRequestImageURLDataVsHTTP(t *testing.T) {
	raw := []byte(`{"messages":[{"role":"user","content":[
		{"type":"text","text":"describe"},
		{"type":"image_url","image_url":{"url":"data:image/png;base64,AAAA"}},
		{"type":"image_url","image_url":{"url":"https://example.com/a.png"}}
	]}]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)

	contents := inner["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 3)
	inlinePart := parts[1].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "image/png", inlinePart["mimeType"])
	filePart := parts[2].(map[string]any)["fileData"].(map[string]any)
	assert.Equal(t, "https://example.com/a.png", filePart["fileUri"])
}

func TestBuildInnerRequestToolSchemaReducedAndUppercased(t *testing.T) {
	raw := []byte(`{"messages":[{"role":"user","content":"hi"}],"tools":[{"type":"function","function":{
		"name":"run",
		"description":"runs a command",
		"parameters":{"type":"object","additionalProperties":false,"properties":{"cmd":{"type":"string","minLength":1}},"required":["cmd"]}
	}}]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)

	tools := inner["tools"].([]any)
	decls := tools[0].(map[string]any)["functionDeclarations"].([]any)
	decl := decls[0].(map[string]any)
	params := decl["parameters"].(map[string]any)
	assert.Equal(t, "OBJECT", params["type"])
	_, hasAdditional := params["additionalProperties"]
	assert.False(t, hasAdditional)
	props := params["properties"].(map[string]any)
	cmd := props["cmd"].(map[string]any)
	assert.Equal(t, "STRING", cmd["type"])
}

func TestSessionIDExtractsUserField(t *testing.T) {
	raw := []byte(`{"user":"abc123"}`)
	assert.Equal(t, "abc123", SessionID(raw))
	assert.Equal(t, "", SessionID([]byte(`{}`)))
}
