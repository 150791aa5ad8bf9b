// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package responses

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// State accumulates the Codex Responses event stream across repeated Step
// calls, one per upstream Gemini chunk (already unwrapped of any
// {"response": ...} envelope). Kept as explicit fields, not closures, so
// tests can drive it with synthetic chunk sequences.
type State struct {
	Seq        int
	ResponseID string
	CreatedAt  int64
	Started    bool

	MsgOpened    bool
	MsgIndex     int
	CurrentMsgID string
	TextBuf      strings.Builder

	ReasoningOpened bool
	ReasoningIndex  int
	ReasoningItemID string
	ReasoningBuf    strings.Builder
	ReasoningClosed bool

	NextIndex   int
	FuncArgsBuf []*strings.Builder
	FuncNames   []string
	FuncCallIDs []string

	eventBuf *bytes.Buffer
	eventEnc *json.Encoder
}

var responseIDCounter uint64
var funcCallIDCounter uint64

func (s *State) emit(event string, v any) string {
	if s.eventBuf == nil {
		s.eventBuf = new(bytes.Buffer)
		s.eventEnc = json.NewEncoder(s.eventBuf)
	}
	s.eventBuf.Reset()
	s.eventBuf.WriteString("event: ")
	s.eventBuf.WriteString(event)
	s.eventBuf.WriteString("\ndata: ")
	_ = s.eventEnc.Encode(v)
	if l := s.eventBuf.Len(); l > 0 && s.eventBuf.Bytes()[l-1] == '\n' {
		s.eventBuf.Truncate(l - 1)
	}
	return s.eventBuf.String()
}

// Step advances the state machine by one upstream Gemini chunk and returns
// the Codex Responses SSE frames it produces.
func Step(s *State, chunk []byte) []string {
	root := gjson.ParseBytes(chunk)
	if !root.Exists() {
		return nil
	}

	var out []string
	nextSeq := func() int { s.Seq++; return s.Seq }

	finalizeReasoning := func() {
		if !s.ReasoningOpened || s.ReasoningClosed {
			return
		}
		full := s.ReasoningBuf.String()
		out = append(out, s.emit("response.reasoning_summary_text.done", ResponseReasoningSummaryTextDone{
			Type: "response.reasoning_summary_text.done", SequenceNumber: nextSeq(),
			ItemID: s.ReasoningItemID, OutputIndex: s.ReasoningIndex, Text: full,
		}))
		out = append(out, s.emit("response.reasoning_summary_part.done", ResponseReasoningSummaryPartDone{
			Type: "response.reasoning_summary_part.done", SequenceNumber: nextSeq(),
			ItemID: s.ReasoningItemID, OutputIndex: s.ReasoningIndex,
			Part: SummaryPart{Type: "summary_text", Text: full},
		}))
		out = append(out, s.emit("response.output_item.done", ResponseOutputItemDone{
			Type: "response.output_item.done", SequenceNumber: nextSeq(), OutputIndex: s.ReasoningIndex,
			Item: OutputItem{ID: s.ReasoningItemID, Type: "reasoning", Summary: []SummaryPart{{Type: "summary_text", Text: full}}},
		}))
		s.ReasoningClosed = true
	}

	if !s.Started {
		s.ResponseID = root.Get("responseId").String()
		if t, err := time.Parse(time.RFC3339Nano, root.Get("createTime").String()); err == nil {
			s.CreatedAt = t.Unix()
		} else {
			s.CreatedAt = time.Now().Unix()
		}

		out = append(out, s.emit("response.created", ResponseCreated{
			Type: "response.created", SequenceNumber: nextSeq(),
			Response: ResponseInfo{ID: s.ResponseID, Object: "response", CreatedAt: s.CreatedAt, Status: "in_progress", Output: &[]any{}},
		}))
		out = append(out, s.emit("response.in_progress", ResponseInProgress{
			Type: "response.in_progress", SequenceNumber: nextSeq(),
			Response: ResponseInfo{ID: s.ResponseID, Object: "response", CreatedAt: s.CreatedAt, Status: "in_progress"},
		}))
		s.Started = true
	}

	for _, part := range root.Get("candidates.0.content.parts").Array() {
		switch {
		case part.Get("thought").Bool():
			if s.ReasoningClosed {
				continue
			}
			if !s.ReasoningOpened {
				s.ReasoningOpened = true
				s.ReasoningIndex = s.NextIndex
				s.NextIndex++
				s.ReasoningItemID = fmt.Sprintf("rs_%s_%d", s.ResponseID, s.ReasoningIndex)
				out = append(out, s.emit("response.output_item.added", OutputItemAdded{
					Type: "response.output_item.added", SequenceNumber: nextSeq(), OutputIndex: s.ReasoningIndex,
					Item: OutputItem{ID: s.ReasoningItemID, Type: "reasoning", Status: "in_progress", Summary: []SummaryPart{}},
				}))
				out = append(out, s.emit("response.reasoning_summary_part.added", ReasoningSummaryPartAdded{
					Type: "response.reasoning_summary_part.added", SequenceNumber: nextSeq(),
					ItemID: s.ReasoningItemID, OutputIndex: s.ReasoningIndex, Part: SummaryPart{Type: "summary_text"},
				}))
			}
			if text := part.Get("text").String(); text != "" {
				s.ReasoningBuf.WriteString(text)
				out = append(out, s.emit("response.reasoning_summary_text.delta", ReasoningSummaryTextDelta{
					Type: "response.reasoning_summary_text.delta", SequenceNumber: nextSeq(),
					ItemID: s.ReasoningItemID, OutputIndex: s.ReasoningIndex, Delta: text,
				}))
			}

		case part.Get("functionCall").Exists():
			finalizeReasoning()
			idx := s.NextIndex
			s.NextIndex++
			for len(s.FuncArgsBuf) <= idx {
				s.FuncArgsBuf = append(s.FuncArgsBuf, nil)
				s.FuncNames = append(s.FuncNames, "")
				s.FuncCallIDs = append(s.FuncCallIDs, "")
			}
			s.FuncArgsBuf[idx] = &strings.Builder{}
			s.FuncCallIDs[idx] = fmt.Sprintf("call_%d_%d", time.Now().UnixNano(), atomic.AddUint64(&funcCallIDCounter, 1))
			s.FuncNames[idx] = part.Get("functionCall.name").String()

			out = append(out, s.emit("response.output_item.added", OutputItemAdded{
				Type: "response.output_item.added", SequenceNumber: nextSeq(), OutputIndex: idx,
				Item: OutputItem{ID: "fc_" + s.FuncCallIDs[idx], Type: "function_call", Status: "in_progress", CallID: s.FuncCallIDs[idx], Name: s.FuncNames[idx]},
			}))
			if args := part.Get("functionCall.args"); args.Exists() {
				s.FuncArgsBuf[idx].WriteString(args.Raw)
				out = append(out, s.emit("response.function_call_arguments.delta", FunctionCallArgumentsDelta{
					Type: "response.function_call_arguments.delta", SequenceNumber: nextSeq(),
					ItemID: "fc_" + s.FuncCallIDs[idx], OutputIndex: idx, Delta: args.Raw,
				}))
			}

		default:
			text := part.Get("text").String()
			if text == "" {
				continue
			}
			finalizeReasoning()
			if !s.MsgOpened {
				s.MsgOpened = true
				s.MsgIndex = s.NextIndex
				s.NextIndex++
				s.CurrentMsgID = fmt.Sprintf("msg_%s_0", s.ResponseID)
				out = append(out, s.emit("response.output_item.added", OutputItemAdded{
					Type: "response.output_item.added", SequenceNumber: nextSeq(), OutputIndex: s.MsgIndex,
					Item: OutputItem{ID: s.CurrentMsgID, Type: "message", Status: "in_progress", Content: []ContentPart{}, Role: "assistant"},
				}))
				out = append(out, s.emit("response.content_part.added", ContentPartAdded{
					Type: "response.content_part.added", SequenceNumber: nextSeq(),
					ItemID: s.CurrentMsgID, OutputIndex: s.MsgIndex,
					Part: ContentPart{Type: "output_text", Annotations: []any{}, Logprobs: []any{}},
				}))
			}
			s.TextBuf.WriteString(text)
			out = append(out, s.emit("response.output_text.delta", OutputTextDelta{
				Type: "response.output_text.delta", SequenceNumber: nextSeq(),
				ItemID: s.CurrentMsgID, OutputIndex: s.MsgIndex, Delta: text, Logprobs: []any{},
			}))
		}
	}

	if finishReason := root.Get("candidates.0.finishReason").String(); finishReason != "" {
		out = append(out, s.finish(nextSeq, finalizeReasoning, root)...)
	}

	return out
}

func (s *State) finish(nextSeq func() int, finalizeReasoning func(), root gjson.Result) []string {
	var out []string
	finalizeReasoning()

	if s.MsgOpened {
		out = append(out, s.emit("response.output_text.done", ResponseOutputTextDone{
			Type: "response.output_text.done", SequenceNumber: nextSeq(),
			ItemID: s.CurrentMsgID, OutputIndex: s.MsgIndex, Text: s.TextBuf.String(), Logprobs: []any{},
		}))
		out = append(out, s.emit("response.content_part.done", ResponseContentPartDone{
			Type: "response.content_part.done", SequenceNumber: nextSeq(),
			ItemID: s.CurrentMsgID, OutputIndex: s.MsgIndex,
			Part: ContentPart{Type: "output_text", Annotations: []any{}, Logprobs: []any{}, Text: s.TextBuf.String()},
		}))
		out = append(out, s.emit("response.output_item.done", ResponseOutputItemDone{
			Type: "response.output_item.done", SequenceNumber: nextSeq(), OutputIndex: s.MsgIndex,
			Item: OutputItem{ID: s.CurrentMsgID, Type: "message", Status: "completed", Role: "assistant",
				Content: []ContentPart{{Type: "output_text", Text: s.TextBuf.String()}}},
		}))
	}

	for idx, b := range s.FuncArgsBuf {
		if b == nil {
			continue
		}
		args := b.String()
		out = append(out, s.emit("response.function_call_arguments.done", ResponseFunctionCallArgumentsDone{
			Type: "response.function_call_arguments.done", SequenceNumber: nextSeq(),
			ItemID: "fc_" + s.FuncCallIDs[idx], OutputIndex: idx, Arguments: args,
		}))
		out = append(out, s.emit("response.output_item.done", ResponseOutputItemDone{
			Type: "response.output_item.done", SequenceNumber: nextSeq(), OutputIndex: idx,
			Item: OutputItem{ID: "fc_" + s.FuncCallIDs[idx], Type: "function_call", Status: "completed",
				Arguments: args, CallID: s.FuncCallIDs[idx], Name: s.FuncNames[idx]},
		}))
	}

	completed := ResponseCompleted{
		Type: "response.completed", SequenceNumber: nextSeq(),
		Response: ResponseInfo{ID: s.ResponseID, Object: "response", CreatedAt: s.CreatedAt, Status: "completed"},
	}

	outputs := make([]any, 0)
	if s.ReasoningOpened {
		outputs = append(outputs, OutputItem{ID: s.ReasoningItemID, Type: "reasoning", Summary: []SummaryPart{{Type: "summary_text", Text: s.ReasoningBuf.String()}}})
	}
	if s.MsgOpened {
		outputs = append(outputs, OutputItem{ID: s.CurrentMsgID, Type: "message", Status: "completed", Role: "assistant",
			Content: []ContentPart{{Type: "output_text", Annotations: []any{}, Logprobs: []any{}, Text: s.TextBuf.String()}}})
	}
	for idx, b := range s.FuncArgsBuf {
		if b == nil {
			continue
		}
		outputs = append(outputs, OutputItem{ID: "fc_" + s.FuncCallIDs[idx], Type: "function_call", Status: "completed",
			Arguments: b.String(), CallID: s.FuncCallIDs[idx], Name: s.FuncNames[idx]})
	}
	if len(outputs) > 0 {
		completed.Response.Output = &outputs
	}

	if usage := root.Get("usageMetadata"); usage.Exists() {
		input := usage.Get("promptTokenCount").Int() + usage.Get("thoughtsTokenCount").Int()
		completed.Response.Usage = &ResponseUsage{
			InputTokens:         input,
			OutputTokens:        usage.Get("candidatesTokenCount").Int(),
			TotalTokens:         usage.Get("totalTokenCount").Int(),
			InputTokensDetails:  &InputTokensDetails{CachedTokens: 0},
			OutputTokensDetails: &OutputTokensDetails{ReasoningTokens: usage.Get("thoughtsTokenCount").Int()},
		}
	}

	out = append(out, s.emit("response.completed", completed))
	return out
}

// ConvertAntigravityResponseToResponses is the sdk/translator registry
// entry point: it decodes param as *State (allocating one on first call),
// unwraps the {"response": ...} envelope if present, and returns the Codex
// Responses SSE frames for one upstream chunk.
func ConvertAntigravityResponseToResponses(ctx context.Context, model string, originalRequestRawJSON, requestRawJSON, rawJSON []byte, param *any) []string {
	state, _ := (*param).(*State)
	if state == nil {
		state = &State{}
		*param = state
	}

	if string(rawJSON) == "[DONE]" {
		return nil
	}

	unwrapped := gjson.ParseBytes(rawJSON)
	if wrapped := unwrapped.Get("response"); wrapped.Exists() {
		return Step(state, []byte(wrapped.Raw))
	}
	return Step(state, rawJSON)
}
