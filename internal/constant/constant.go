// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package constant defines provider/format identifiers used throughout the
// proxy, ensuring consistent naming across translator registrations and
// route handlers.
package constant

const (
	// Gemini is the native Gemini generateContent wire format.
	Gemini = "gemini"

	// Claude is the Anthropic Messages API wire format.
	Claude = "claude"

	// OpenAI is the OpenAI Chat/Completions wire format.
	OpenAI = "openai"

	// OpenAIResponse is the OpenAI Responses API wire format.
	OpenAIResponse = "openai-response"

	// Antigravity is the upstream v1internal dispatch format — every
	// inbound format is eventually translated into this one.
	Antigravity = "antigravity"

	// MaxStreamingScannerBuffer bounds a single SSE line while scanning the
	// upstream stream (1MB is generous for any single generateContent
	// chunk; a larger line indicates a malformed upstream response).
	MaxStreamingScannerBuffer = 1 * 1024 * 1024
)
