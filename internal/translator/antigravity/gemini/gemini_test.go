// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInnerRequestPassesContentsThrough(t *testing.T) {
	raw := []byte(`{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`)
	inner, err := BuildInnerRequest(raw)
	require.NoError(t, err)
	assert.NotNil(t, inner["contents"])
}

func TestBuildInnerRequestCleansToolSchema(t *testing.T) {
	raw := []byte(`{"contents":[],"tools":[{"functionDeclarations":[{"name":"f","parameters":{"type":"object","additionalProperties":false,"properties":{"x":{"type":["string","null"]}}}}]}]}`)
	inner, err := BuildInnerRequest(raw)
	require.NoError(t, err)

	tools := inner["tools"].([]any)
	tool := tools[0].(map[string]any)
	decls := tool["functionDeclarations"].([]any)
	decl := decls[0].(map[string]any)
	params := decl["parameters"].(map[string]any)
	_, hasAdditional := params["additionalProperties"]
	assert.False(t, hasAdditional)
	props := params["properties"].(map[string]any)
	x := props["x"].(map[string]any)
	assert.Equal(t, "string", x["type"])
}

func TestUnwrapResponseEnvelope(t *testing.T) {
	wrapped := []byte(`{"response":{"candidates":[]}}`)
	assert.Equal(t, `{"candidates":[]}`, string(unwrap(wrapped)))
}
