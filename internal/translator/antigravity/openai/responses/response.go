// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package responses

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// ConvertAntigravityResponseToResponsesNonStream renders one complete,
// buffered Gemini generateContent response as a Codex Responses API
// response object.
func ConvertAntigravityResponseToResponsesNonStream(_ context.Context, model string, originalRequestRawJSON, requestRawJSON, rawJSON []byte, _ *any) string {
	root := gjson.ParseBytes(rawJSON)
	if wrapped := root.Get("response"); wrapped.Exists() {
		root = wrapped
	}

	resp := ResponseInfo{Object: "response", Status: "completed", Background: false}

	id := root.Get("responseId").String()
	if id == "" {
		id = fmt.Sprintf("resp_%x_%d", time.Now().UnixNano(), atomic.AddUint64(&responseIDCounter, 1))
	}
	if !strings.HasPrefix(id, "resp_") {
		id = "resp_" + id
	}
	resp.ID = id

	createdAt := time.Now().Unix()
	if v := root.Get("createTime"); v.Exists() {
		if t, err := time.Parse(time.RFC3339Nano, v.String()); err == nil {
			createdAt = t.Unix()
		}
	}
	resp.CreatedAt = createdAt
	resp.Model = model
	if resp.Model == "" {
		resp.Model = root.Get("modelVersion").String()
	}

	if len(requestRawJSON) > 0 {
		req := gjson.ParseBytes(requestRawJSON)
		if v := req.Get("instructions"); v.Exists() {
			resp.Instructions = v.String()
		}
		if v := req.Get("max_output_tokens"); v.Exists() {
			resp.MaxOutputTokens = v.Int()
		}
		if v := req.Get("tool_choice"); v.Exists() {
			resp.ToolChoice = v.Value()
		}
		if v := req.Get("tools"); v.Exists() {
			resp.Tools = v.Value()
		}
		if v := req.Get("temperature"); v.Exists() {
			val := v.Float()
			resp.Temperature = &val
		}
		if v := req.Get("top_p"); v.Exists() {
			val := v.Float()
			resp.TopP = &val
		}
		if v := req.Get("previous_response_id"); v.Exists() {
			resp.PreviousResponseID = v.String()
		}
		if v := req.Get("metadata"); v.Exists() {
			resp.Metadata = v.Value()
		}
		if v := req.Get("user"); v.Exists() {
			resp.User = v.Value()
		}
	}

	var reasoningText strings.Builder
	var reasoningSignature string
	var messageText strings.Builder
	var haveMessage bool
	var outputs []any

	for _, p := range root.Get("candidates.0.content.parts").Array() {
		switch {
		case p.Get("thought").Bool():
			if t := p.Get("text"); t.Exists() {
				reasoningText.WriteString(t.String())
			}
			if sig := p.Get("thoughtSignature"); sig.Exists() && sig.String() != "" {
				reasoningSignature = sig.String()
			}
		case p.Get("functionCall").Exists():
			name := p.Get("functionCall.name").String()
			args := p.Get("functionCall.args")
			callID := fmt.Sprintf("call_%x_%d", time.Now().UnixNano(), atomic.AddUint64(&funcCallIDCounter, 1))
			item := OutputItem{ID: "fc_" + callID, Type: "function_call", Status: "completed", CallID: callID, Name: name}
			if args.Exists() {
				item.Arguments = args.Raw
			}
			outputs = append(outputs, item)
		default:
			if t := p.Get("text"); t.Exists() && t.String() != "" {
				messageText.WriteString(t.String())
				haveMessage = true
			}
		}
	}

	if reasoningText.Len() > 0 || reasoningSignature != "" {
		rid := strings.TrimPrefix(id, "resp_")
		item := OutputItem{ID: "rs_" + rid, Type: "reasoning", EncryptedContent: reasoningSignature}
		if reasoningText.Len() > 0 {
			item.Summary = []SummaryPart{{Type: "summary_text", Text: reasoningText.String()}}
		}
		outputs = append(outputs, item)
	}

	if haveMessage {
		outputs = append(outputs, OutputItem{
			ID: fmt.Sprintf("msg_%s_0", strings.TrimPrefix(id, "resp_")), Type: "message",
			Status: "completed", Role: "assistant",
			Content: []ContentPart{{Type: "output_text", Annotations: []any{}, Logprobs: []any{}, Text: messageText.String()}},
		})
	}

	if len(outputs) > 0 {
		resp.Output = &outputs
	}

	if um := root.Get("usageMetadata"); um.Exists() {
		input := um.Get("promptTokenCount").Int() + um.Get("thoughtsTokenCount").Int()
		resp.Usage = &ResponseUsage{
			InputTokens:         input,
			OutputTokens:        um.Get("candidatesTokenCount").Int(),
			TotalTokens:         um.Get("totalTokenCount").Int(),
			InputTokensDetails:  &InputTokensDetails{CachedTokens: 0},
			OutputTokensDetails: &OutputTokensDetails{ReasoningTokens: um.Get("thoughtsTokenCount").Int()},
		}
	}

	b, _ := json.Marshal(resp)
	return string(b)
}
