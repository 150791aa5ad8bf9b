// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package translator imports every concrete translator package so their
// init() functions register with the sdk/translator default registry. It
// has no exported API of its own; importing it for side effects is the
// intended usage (see cmd/server/main.go).
package translator

import (
	_ "github.com/pebblecode/agbridge/internal/translator/antigravity/claude"
	_ "github.com/pebblecode/agbridge/internal/translator/antigravity/gemini"
	_ "github.com/pebblecode/agbridge/internal/translator/antigravity/openai/chatcompletions"
	_ "github.com/pebblecode/agbridge/internal/translator/antigravity/openai/responses"
)
