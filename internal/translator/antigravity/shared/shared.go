// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package shared holds the request/response plumbing common to every
// client-format-to-Gemini mapper: data-URL parsing, tool-schema cleaning,
// and short random suffixes for synthesized tool-call ids.
package shared

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/pebblecode/agbridge/internal/schema"
)

// CleanToolSchema runs the universal JSON-schema cleaner over a copy of
// params, leaving the caller's original map untouched.
func CleanToolSchema(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	cloned := deepCloneMap(params)
	schema.Clean(cloned)
	return cloned
}

func deepCloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCloneValue(v)
	}
	return out
}

func deepCloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCloneValue(item)
		}
		return out
	default:
		return v
	}
}

// ParseDataURL splits a "data:<mime>;base64,<data>" string into its mime
// type and base64 payload. ok is false for anything else (e.g. an http(s)
// URL, which callers map to Gemini fileData instead of inlineData).
func ParseDataURL(s string) (mime, data string, ok bool) {
	const prefix = "data:"
	if !strings.HasPrefix(s, prefix) {
		return "", "", false
	}
	rest := s[len(prefix):]
	semi := strings.Index(rest, ";")
	comma := strings.Index(rest, ",")
	if semi < 0 || comma < 0 || comma < semi {
		return "", "", false
	}
	mime = rest[:semi]
	encoding := rest[semi+1 : comma]
	if encoding != "base64" {
		return "", "", false
	}
	return mime, rest[comma+1:], true
}

// RandomSuffix returns a short lowercase alphanumeric suffix used to
// synthesize a tool_use id of the form "<name>-<short-random>" when the
// upstream didn't provide one.
func RandomSuffix() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	out := make([]byte, 8)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}

// Base64Encode is a small indirection over encoding/base64's standard
// encoding; no package in this module calls it.
func Base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
