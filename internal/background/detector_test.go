// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package background

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDetectTitleGeneration covers the title-generation background-task
// downgrade path.
func TestDetectTitleGeneration(t *testing.T) {
	d := Detect("Please write a 5-10 word title for the conversation.")
	assert.True(t, d.IsBackground)
	assert.Equal(t, TitleGeneration, d.Category)
	assert.Equal(t, "gemini-2.0-flash-exp", d.ForcedModel)
}

func TestDetectCategories(t *testing.T) {
	cases := map[Category]string{
		TitleGeneration:    "Generate a title for this chat.",
		SimpleSummary:      "Please summarize this conversation in one line.",
		ContextCompression: "Time to compress the conversation so far.",
		PromptSuggestion:   "Can you suggest a prompt the user might send next?",
		SystemMessage:      "isNewTopic: true",
		EnvironmentProbe:   "<env>\nWorking directory: /home/user\n</env>",
	}
	for category, msg := range cases {
		d := Detect(msg)
		assert.True(t, d.IsBackground, "category %s", category)
		assert.Equal(t, category, d.Category)
	}
}

func TestDetectOrdinaryMessageIsNotBackground(t *testing.T) {
	d := Detect("Can you help me refactor this Go function to use a context deadline?")
	assert.False(t, d.IsBackground)
	assert.Empty(t, d.ForcedModel)
}

func TestDetectRejectsOverlongMessage(t *testing.T) {
	long := "generate a title for this: " + strings.Repeat("x", maxMessageLength)
	d := Detect(long)
	assert.False(t, d.IsBackground)
}

func TestDetectOnlyScansPrefix(t *testing.T) {
	padding := strings.Repeat("a", prefixScanLength)
	msg := padding + "generate a title"
	assert.LessOrEqual(t, len(msg), maxMessageLength)
	d := Detect(msg)
	assert.False(t, d.IsBackground, "keyword past the 500-char scan window must not match")
}

func TestIsMeaningful(t *testing.T) {
	assert.False(t, IsMeaningful(""))
	assert.False(t, IsMeaningful("   "))
	assert.False(t, IsMeaningful("Warmup ping"))
	assert.False(t, IsMeaningful("<system-reminder>stay focused</system-reminder>"))
	assert.True(t, IsMeaningful("What's the weather in SF?"))
}
