// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package responses

import (
	"github.com/pebblecode/agbridge/internal/constant"
	sdktranslator "github.com/pebblecode/agbridge/sdk/translator"
)

func init() {
	sdktranslator.Register(
		sdktranslator.Format(constant.OpenAIResponse),
		sdktranslator.Format(constant.Antigravity),
		ConvertResponsesRequestToAntigravity,
		sdktranslator.ResponseTransform{
			Stream:    ConvertAntigravityResponseToResponses,
			NonStream: ConvertAntigravityResponseToResponsesNonStream,
		},
	)
}
