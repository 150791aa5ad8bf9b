// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package upstream

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Envelope is the wrapper every v1internal generateContent/streamGenerateContent
// call requires.
type Envelope struct {
	Project     string         `json:"project"`
	RequestID   string         `json:"requestId"`
	Model       string         `json:"model"`
	UserAgent   string         `json:"userAgent"`
	RequestType string         `json:"requestType"`
	Request     map[string]any `json:"request"`
}

// BuildEnvelope wraps innerRequest for dispatch against the given project
// and final model. If sessionID is non-empty (from the caller's
// metadata.user_id), it is attached to the inner request as "sessionId".
func BuildEnvelope(project, model, requestType string, innerRequest map[string]any, sessionID string) []byte {
	if sessionID != "" {
		innerRequest["sessionId"] = sessionID
	}
	env := Envelope{
		Project:     project,
		RequestID:   "agent-" + uuid.NewString(),
		Model:       model,
		UserAgent:   "antigravity",
		RequestType: requestType,
		Request:     innerRequest,
	}
	data, _ := json.Marshal(env)
	return data
}

// LoadCodeAssistBody is the fixed request body for the project-resolution
// RPC.
func LoadCodeAssistBody() []byte {
	return []byte(`{"metadata":{"ideType":"ANTIGRAVITY"}}`)
}
