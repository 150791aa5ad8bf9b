// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package gemini passes native generateContent/streamGenerateContent
// requests through to the v1internal endpoint: besides model resolution and
// envelope wrapping, only function-declaration parameter schemas are
// changed (run through the tool-schema cleaner).
package gemini

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/pebblecode/agbridge/internal/translator/antigravity/shared"
)

// ConvertGeminiRequestToAntigravity decodes the caller's generateContent
// body and re-encodes it as the Gemini inner request via BuildInnerRequest,
// which changes only function-declaration parameter schemas. Model resolution/grounding
// injection/image config are applied by the HTTP handler the same way as
// the other protocols, via BuildInnerRequest.
func ConvertGeminiRequestToAntigravity(model string, raw []byte, stream bool) []byte {
	inner, err := BuildInnerRequest(raw)
	if err != nil {
		return raw
	}
	data, _ := json.Marshal(inner)
	return data
}

// BuildInnerRequest normalizes a native Gemini request body into the exact
// shape the v1internal envelope's "request" field expects: Gemini's public
// generateContent request and the internal one share the same JSON shape,
// so this only strips fields the caller might add that the internal
// dialect rejects (handled by the tool-schema cleaner when present).
func BuildInnerRequest(raw []byte) (map[string]any, error) {
	var req map[string]any
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}

	if tools, ok := req["tools"].([]any); ok {
		for _, t := range tools {
			tool, ok := t.(map[string]any)
			if !ok {
				continue
			}
			decls, ok := tool["functionDeclarations"].([]any)
			if !ok {
				continue
			}
			for _, d := range decls {
				decl, ok := d.(map[string]any)
				if !ok {
					continue
				}
				if params, ok := decl["parameters"].(map[string]any); ok {
					decl["parameters"] = shared.CleanToolSchema(params)
				}
			}
		}
	}

	return req, nil
}

// ConvertAntigravityResponseToGeminiNonStream passes a complete upstream
// response straight through to the native Gemini caller, unwrapping the
// {"response": ...} envelope if present.
func ConvertAntigravityResponseToGeminiNonStream(ctx context.Context, model string, originalRequestRawJSON, requestRawJSON, rawJSON []byte, param *any) string {
	return string(unwrap(rawJSON))
}

// ConvertAntigravityResponseToGemini passes each upstream SSE chunk straight
// through as a single Gemini-shaped "data: ..." frame.
func ConvertAntigravityResponseToGemini(ctx context.Context, model string, originalRequestRawJSON, requestRawJSON, rawJSON []byte, param *any) []string {
	if string(rawJSON) == "[DONE]" {
		return nil
	}
	return []string{"data: " + string(unwrap(rawJSON)) + "\n\n"}
}

func unwrap(raw []byte) []byte {
	var wrapper struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Response) > 0 {
		return wrapper.Response
	}
	return raw
}
