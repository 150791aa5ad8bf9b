// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package chatcompletions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepEmitsRoleThenContentDeltas(t *testing.T) {
	s := &State{}
	out := Step(s, []byte(`{"responseId":"r1","modelVersion":"gemini-2.5-pro","candidates":[{"content":{"parts":[{"text":"hi"}]}}]}`))
	require.Len(t, out, 2)
	assert.Contains(t, out[0], `"role":"assistant"`)
	assert.Contains(t, out[1], `"content":"hi"`)
}

func TestStepFunctionCallEmitsToolCallDelta(t *testing.T) {
	s := &State{RoleSent: true}
	out := Step(s, []byte(`{"candidates":[{"content":{"parts":[{"functionCall":{"name":"run","id":"c1","args":{"x":1}}}]}}]}`))
	require.Len(t, out, 1)
	assert.Contains(t, out[0], `"tool_calls"`)
	assert.Contains(t, out[0], `"name":"run"`)
	assert.True(t, s.UsedTool)
}

func TestStepFinishReasonToolCallsWhenToolUsed(t *testing.T) {
	s := &State{RoleSent: true, UsedTool: true}
	out := Step(s, []byte(`{"candidates":[{"finishReason":"STOP"}]}`))
	require.Len(t, out, 2)
	assert.Contains(t, out[0], `"finish_reason":"tool_calls"`)
	assert.Equal(t, "data: [DONE]\n\n", out[1])
}

func TestStepFinishReasonMaxTokens(t *testing.T) {
	s := &State{RoleSent: true}
	out := Step(s, []byte(`{"candidates":[{"finishReason":"MAX_TOKENS"}]}`))
	require.Len(t, out, 2)
	assert.Contains(t, out[0], `"finish_reason":"length"`)
}

func TestConvertAntigravityResponseToChatCompletionUnwrapsEnvelope(t *testing.T) {
	var param any
	out := ConvertAntigravityResponseToChatCompletion(nil, "gemini-2.5-pro", nil, nil,
		[]byte(`{"response":{"responseId":"r1","modelVersion":"gemini-2.5-pro","candidates":[{"content":{"parts":[{"text":"hi"}]}}]}}`), &param)
	require.Len(t, out, 2)
	joined := strings.Join(out, "")
	assert.Contains(t, joined, `"content":"hi"`)
}

func TestConvertAntigravityResponseToChatCompletionHandlesDone(t *testing.T) {
	var param any
	out := ConvertAntigravityResponseToChatCompletion(nil, "gemini-2.5-pro", nil, nil, []byte("[DONE]"), &param)
	assert.Nil(t, out)
}
