// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package claude

import (
	"github.com/pebblecode/agbridge/internal/constant"
	sdktranslator "github.com/pebblecode/agbridge/sdk/translator"
)

func init() {
	sdktranslator.Register(
		sdktranslator.Format(constant.Claude),
		sdktranslator.Format(constant.Antigravity),
		ConvertClaudeRequestToAntigravity,
		sdktranslator.ResponseTransform{
			Stream:     ConvertAntigravityResponseToClaude,
			NonStream:  ConvertAntigravityResponseToClaudeNonStream,
			TokenCount: ClaudeTokenCount,
		},
	)
}
