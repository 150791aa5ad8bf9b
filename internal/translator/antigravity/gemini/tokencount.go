// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tiktoken-go/tokenizer"
)

// GeminiTokenCount renders a token count into the native
// :countTokens response shape.
func GeminiTokenCount(ctx context.Context, count int64) string {
	data, _ := json.Marshal(map[string]any{"totalTokens": count})
	return string(data)
}

// EstimateTokenCount approximates a countTokens call locally rather than
// round-tripping to the upstream.
func EstimateTokenCount(raw []byte) (int64, error) {
	var req struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return 0, fmt.Errorf("gemini: decode countTokens request: %w", err)
	}
	var sb strings.Builder
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			sb.WriteString(p.Text)
			sb.WriteByte('\n')
		}
	}
	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return 0, fmt.Errorf("gemini: load tokenizer: %w", err)
	}
	ids, _, err := enc.Encode(sb.String())
	if err != nil {
		return 0, fmt.Errorf("gemini: encode for count: %w", err)
	}
	return int64(len(ids)), nil
}
