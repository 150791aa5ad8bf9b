// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package gemini

import (
	"github.com/pebblecode/agbridge/internal/constant"
	sdktranslator "github.com/pebblecode/agbridge/sdk/translator"
)

func init() {
	sdktranslator.Register(
		sdktranslator.Format(constant.Gemini),
		sdktranslator.Format(constant.Antigravity),
		ConvertGeminiRequestToAntigravity,
		sdktranslator.ResponseTransform{
			Stream:     ConvertAntigravityResponseToGemini,
			NonStream:  ConvertAntigravityResponseToGeminiNonStream,
			TokenCount: GeminiTokenCount,
		},
	)
}
