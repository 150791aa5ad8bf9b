// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package claude

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInnerRequestBasicText(t *testing.T) {
	raw := []byte(`{"model":"claude-sonnet-4-5","messages":[{"role":"user","content":"hi"}]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)

	contents := inner["contents"].([]any)
	require.Len(t, contents, 1)
	msg := contents[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])

	genConfig := inner["generationConfig"].(map[string]any)
	assert.Equal(t, defaultMaxOutputTokens, genConfig["maxOutputTokens"])
}

func TestBuildInnerRequestDummyThoughtOnlyForGeminiModelsAndLastModelMessage(t *testing.T) {
	raw := []byte(`{"thinking":{"type":"enabled","budget_tokens":2048},"messages":[
		{"role":"user","content":"hi"},
		{"role":"assistant","content":"hello"}
	]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)

	contents := inner["contents"].([]any)
	last := contents[len(contents)-1].(map[string]any)
	parts := last["parts"].([]any)
	first := parts[0].(map[string]any)
	assert.Equal(t, "Thinking...", first["text"])
	assert.Equal(t, true, first["thought"])
}

func TestBuildInnerRequestNoDummyThoughtForNonGeminiModel(t *testing.T) {
	raw := []byte(`{"thinking":{"type":"enabled"},"messages":[{"role":"assistant","content":"hello"}]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "claude-sonnet-4-5"})
	require.NoError(t, err)

	contents := inner["contents"].([]any)
	last := contents[len(contents)-1].(map[string]any)
	parts := last["parts"].([]any)
	first := parts[0].(map[string]any)
	assert.Nil(t, first["thought"])
}

func TestBuildInnerRequestWebSearchToolBecomesGoogleSearch(t *testing.T) {
	raw := []byte(`{"messages":[{"role":"user","content":"hi"}],"tools":[{"name":"web_search"}]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-flash"})
	require.NoError(t, err)

	tools := inner["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	_, hasSearch := tool["googleSearch"]
	assert.True(t, hasSearch)
}

func TestBuildInnerRequestEmptyToolResultBecomesFixedText(t *testing.T) {
	raw := []byte(`{"messages":[
		{"role":"assistant","content":[{"type":"tool_use","id":"t1","name":"run","input":{}}]},
		{"role":"user","content":[{"type":"tool_result","tool_use_id":"t1","content":""}]}
	]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{finalModel: "gemini-2.5-pro"})
	require.NoError(t, err)

	contents := inner["contents"].([]any)
	toolResultMsg := contents[len(contents)-1].(map[string]any)
	parts := toolResultMsg["parts"].([]any)
	part := parts[0].(map[string]any)
	fr := part["functionResponse"].(map[string]any)
	assert.Equal(t, "run", fr["name"])
	resp := fr["response"].(map[string]any)
	assert.Equal(t, "Command executed successfully.", resp["result"])
}

func TestBuildInnerRequestImageConfigStripsToolsAndSystem(t *testing.T) {
	raw := []byte(`{"system":"be nice","messages":[{"role":"user","content":"draw a cat"}],"tools":[{"name":"x","input_schema":{"type":"object"}}]}`)
	inner, err := BuildInnerRequest(raw, buildOptions{
		finalModel:  "gemini-2.5-flash-image",
		imageConfig: map[string]any{"aspectRatio": "1:1"},
	})
	require.NoError(t, err)

	_, hasTools := inner["tools"]
	_, hasSystem := inner["systemInstruction"]
	assert.False(t, hasTools)
	assert.False(t, hasSystem)
	assert.Equal(t, map[string]any{"aspectRatio": "1:1"}, inner["imageConfig"])
}

func TestSessionIDExtractsMetadataUserID(t *testing.T) {
	raw := []byte(`{"metadata":{"user_id":"abc123"}}`)
	assert.Equal(t, "abc123", SessionID(raw))
	assert.Equal(t, "", SessionID([]byte(`{}`)))
}

func TestRecoveryModelRewrite(t *testing.T) {
	assert.Equal(t, "claude-sonnet-4-5", RecoveryModel("claude-sonnet-4-5-thinking"))
	assert.Equal(t, "claude-sonnet-4-5", RecoveryModel("claude-sonnet-4-5-20250901"))
	assert.Equal(t, "claude-3-5-haiku", RecoveryModel("claude-3-5-haiku"))
}

func TestStripThinkingFromRequestRemovesHistoricalBlocks(t *testing.T) {
	raw := []byte(`{"thinking":{"type":"enabled"},"messages":[
		{"role":"assistant","content":[{"type":"thinking","text":"reasoning","signature":"sig"},{"type":"text","text":"answer"}]}
	]}`)
	stripped, err := StripThinkingFromRequest(raw)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stripped, &decoded))
	_, hasThinking := decoded["thinking"]
	assert.False(t, hasThinking)

	messages := decoded["messages"].([]any)
	msg := messages[0].(map[string]any)
	content := msg["content"].([]any)
	require.Len(t, content, 1)
	block := content[0].(map[string]any)
	assert.Equal(t, "text", block["type"])
}
