// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package background detects synthetic, non-interactive Claude requests
// (title generation, context compression, IDE probes) so the proxy can
// downgrade them to a cheap model and strip tool/thinking config rather than
// billing them against the user's premium model choice.
package background

import "strings"

// Category names the kind of synthetic task detected.
type Category string

const (
	TitleGeneration    Category = "TitleGeneration"
	SimpleSummary      Category = "SimpleSummary"
	ContextCompression Category = "ContextCompression"
	PromptSuggestion   Category = "PromptSuggestion"
	SystemMessage      Category = "SystemMessage"
	EnvironmentProbe   Category = "EnvironmentProbe"
)

// downgradeModel is the cheap Gemini target used in place of whatever model
// the request would otherwise have resolved to.
const downgradeModel = "gemini-2.0-flash-exp"

var keywordCategories = map[Category][]string{
	TitleGeneration: {
		"write a 5-10 word title", "generate a title", "concise title for",
		"title for the conversation", "title for this conversation",
	},
	SimpleSummary: {
		"summarize this conversation", "summarize the conversation", "brief summary",
	},
	ContextCompression: {
		"compress the conversation", "context compression", "summarize the context",
	},
	PromptSuggestion: {
		"suggest a prompt", "suggested follow-up", "follow-up question",
	},
	SystemMessage: {
		"isnewtopic", "caveat: the messages below were generated",
	},
	EnvironmentProbe: {
		"<env>", "working directory", "is directory a git repo",
	},
}

const maxMessageLength = 800
const prefixScanLength = 500

// Detection is the result of classifying an incoming Claude request.
type Detection struct {
	IsBackground bool
	Category     Category
	ForcedModel  string
}

// Detect inspects the last meaningful user message text (already extracted
// by the caller, skipping messages IsMeaningful rejects) and
// classifies it as a background task when a keyword from a fixed category
// set appears within the first 500 characters and the whole message is at
// most 800 characters.
func Detect(lastUserMessage string) Detection {
	if len(lastUserMessage) > maxMessageLength {
		return Detection{}
	}

	prefix := lastUserMessage
	if len(prefix) > prefixScanLength {
		prefix = prefix[:prefixScanLength]
	}
	lowerPrefix := strings.ToLower(prefix)

	for _, category := range []Category{
		TitleGeneration, SimpleSummary, ContextCompression,
		PromptSuggestion, SystemMessage, EnvironmentProbe,
	} {
		for _, kw := range keywordCategories[category] {
			if strings.Contains(lowerPrefix, kw) {
				return Detection{IsBackground: true, Category: category, ForcedModel: downgradeModel}
			}
		}
	}
	return Detection{}
}

// IsMeaningful reports whether a candidate user message should be considered
// when looking for the "last meaningful user message" — it excludes empty
// text, warmup pings, and any text containing a <system-reminder> tag.
func IsMeaningful(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "Warmup") {
		return false
	}
	if strings.Contains(trimmed, "<system-reminder>") {
		return false
	}
	return true
}
