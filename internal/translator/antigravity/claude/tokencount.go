// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tiktoken-go/tokenizer"
)

// ClaudeTokenCount renders a token count into the Anthropic
// /v1/messages/count_tokens response shape.
func ClaudeTokenCount(ctx context.Context, count int64) string {
	data, _ := json.Marshal(map[string]any{"input_tokens": count})
	return string(data)
}

// EstimateTokenCount is the count_tokens handler's estimator: it never
// calls upstream, instead approximating with a cl100k_base BPE count over
// the flattened message text, the same tokenizer family the other mappers
// in this repo use for their own estimates.
func EstimateTokenCount(raw []byte) (int64, error) {
	var req struct {
		System any `json:"system"`
		Messages []struct {
			Content any `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return 0, fmt.Errorf("claude: decode count_tokens request: %w", err)
	}

	var sb strings.Builder
	flattenText(req.System, &sb)
	for _, m := range req.Messages {
		flattenText(m.Content, &sb)
	}

	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return 0, fmt.Errorf("claude: load tokenizer: %w", err)
	}
	ids, _, err := enc.Encode(sb.String())
	if err != nil {
		return 0, fmt.Errorf("claude: encode for count: %w", err)
	}
	return int64(len(ids)), nil
}

func flattenText(v any, sb *strings.Builder) {
	switch t := v.(type) {
	case string:
		sb.WriteString(t)
		sb.WriteByte('\n')
	case []any:
		for _, item := range t {
			if block, ok := item.(map[string]any); ok {
				if text, ok := block["text"].(string); ok {
					sb.WriteString(text)
					sb.WriteByte('\n')
				}
			}
		}
	}
}
