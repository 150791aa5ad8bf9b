// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package claude

import (
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

var datedSonnet45 = regexp.MustCompile(`^claude-sonnet-4-5(-\d{8})?`)

// RecoveryModel rewrites a model name to a non-thinking variant for the
// single in-place retry after a thinking-signature 400: strip a
// "-thinking" suffix, or collapse a dated claude-sonnet-4-5-* name
// to the bare family name.
func RecoveryModel(model string) string {
	if stripped := strings.TrimSuffix(model, "-thinking"); stripped != model {
		return stripped
	}
	if datedSonnet45.MatchString(model) {
		return "claude-sonnet-4-5"
	}
	return model
}

// StripThinkingFromRequest removes "thinking" from the request body and
// every historical "thinking" content block, for the recovery retry. It
// operates on the original client-format (Anthropic) request bytes so the
// mapper can be re-run from scratch with opts.recovery=true.
func StripThinkingFromRequest(raw []byte) ([]byte, error) {
	var req map[string]any
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	delete(req, "thinking")

	if messages, ok := req["messages"].([]any); ok {
		for _, m := range messages {
			msg, ok := m.(map[string]any)
			if !ok {
				continue
			}
			blocks, ok := msg["content"].([]any)
			if !ok {
				continue
			}
			filtered := blocks[:0]
			for _, b := range blocks {
				if block, ok := b.(map[string]any); ok && block["type"] == "thinking" {
					continue
				}
				filtered = append(filtered, b)
			}
			msg["content"] = filtered
		}
	}

	return json.Marshal(req)
}
