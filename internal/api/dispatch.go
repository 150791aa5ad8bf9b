// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/pebblecode/agbridge/internal/constant"
	"github.com/pebblecode/agbridge/internal/router"
	"github.com/pebblecode/agbridge/internal/tokenpool"
	"github.com/pebblecode/agbridge/internal/upstream"
	sdktranslator "github.com/pebblecode/agbridge/sdk/translator"
)

// innerBuilder produces the inner Gemini-shaped request for one dispatch
// attempt, given the credential Dispatch selected for it — so the
// envelope's project id tracks whichever account the attempt actually
// lands on, and the returned model tracks a recovery-path rewrite (the
// Claude thinking-signature retry downgrades to a non-thinking model).
type innerBuilder func(cred tokenpool.Credential, recovery bool) (inner map[string]any, model string, err error)

// dispatchSpec is everything a streamGemini/nonStreamGemini call needs
// beyond the credential-dependent request body.
type dispatchSpec struct {
	fromFormat  sdktranslator.Format
	reqType     router.RequestType
	sessionID   string
	originalRaw []byte
	build       innerBuilder
}

var dataPrefix = []byte("data: ")

const antigravityFormat = sdktranslator.Format(constant.Antigravity)

// streamGemini dispatches a streaming call with the retry policy in
// internal/upstream, then scans the upstream SSE body line by line,
// translating each chunk into the target format's SSE frames as they
// arrive.
func (s *Server) streamGemini(c *gin.Context, spec dispatchSpec) {
	var attemptModel string

	bodyBuilder := func(cred tokenpool.Credential, recovery bool) ([]byte, error) {
		inner, model, err := spec.build(cred, recovery)
		if err != nil {
			return nil, err
		}
		attemptModel = model
		return upstream.BuildEnvelope(cred.ProjectID, model, string(spec.reqType), inner, spec.sessionID), nil
	}

	result, err := s.upstream.Dispatch(c.Request.Context(), s.pool, string(spec.reqType), "streamGenerateContent", "alt=sse", bodyBuilder)
	if err != nil {
		writeDispatchError(c, result, err)
		return
	}
	if result.Response == nil {
		writeUpstreamStatus(c, result)
		return
	}
	defer result.Response.Body.Close()

	c.Set("nocompress", true)
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	reqID := c.GetString("request_id")
	var param any
	scanner := bufio.NewScanner(result.Response.Body)
	scanner.Buffer(nil, constant.MaxStreamingScannerBuffer)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := bytes.TrimSpace(line[len(dataPrefix):])
		if len(payload) == 0 || string(payload) == "[DONE]" {
			continue
		}
		writeSegments(c, sdktranslator.TranslateStream(
			c.Request.Context(), spec.fromFormat, antigravityFormat, attemptModel,
			spec.originalRaw, spec.originalRaw, bytes.Clone(payload), &param,
		))
	}
	if scanErr := scanner.Err(); scanErr != nil {
		log.WithField("request_id", reqID).Warnf("upstream stream read error: %v", scanErr)
	}
	writeSegments(c, sdktranslator.TranslateStream(
		c.Request.Context(), spec.fromFormat, antigravityFormat, attemptModel,
		spec.originalRaw, spec.originalRaw, []byte("[DONE]"), &param,
	))
}

func writeSegments(c *gin.Context, segments []string) {
	for _, seg := range segments {
		_, _ = c.Writer.WriteString(seg)
	}
	if len(segments) > 0 {
		c.Writer.Flush()
	}
}

// nonStreamGemini dispatches a buffered call and renders the full response
// body in the target format.
func (s *Server) nonStreamGemini(c *gin.Context, spec dispatchSpec) {
	var attemptModel string

	bodyBuilder := func(cred tokenpool.Credential, recovery bool) ([]byte, error) {
		inner, model, err := spec.build(cred, recovery)
		if err != nil {
			return nil, err
		}
		attemptModel = model
		return upstream.BuildEnvelope(cred.ProjectID, model, string(spec.reqType), inner, spec.sessionID), nil
	}

	result, err := s.upstream.Dispatch(c.Request.Context(), s.pool, string(spec.reqType), "generateContent", "", bodyBuilder)
	if err != nil {
		writeDispatchError(c, result, err)
		return
	}
	if result.Response == nil {
		writeUpstreamStatus(c, result)
		return
	}
	defer result.Response.Body.Close()

	body, err := io.ReadAll(result.Response.Body)
	if err != nil {
		writeInternalError(c, err)
		return
	}

	rendered := sdktranslator.TranslateNonStream(
		c.Request.Context(), spec.fromFormat, antigravityFormat, attemptModel,
		spec.originalRaw, spec.originalRaw, body, nil,
	)
	c.Data(http.StatusOK, "application/json", []byte(rendered))
}

// writeUpstreamStatus surfaces a non-2xx upstream response verbatim — the
// client gets Google's own JSON error body and status code.
func writeUpstreamStatus(c *gin.Context, result *upstream.AttemptResult) {
	status := result.Status
	if status == 0 {
		status = http.StatusBadGateway
	}
	c.Data(status, "application/json", result.Body)
}

// writeDispatchError handles Dispatch returning a non-nil error: when every
// attempt failed, the client gets a 429 carrying the last upstream error
// body; a harder failure (pool exhausted, context canceled) with no
// response at all is reported through writeInternalError.
func writeDispatchError(c *gin.Context, result *upstream.AttemptResult, err error) {
	if errors.Is(err, upstream.ErrAllAttemptsFailed) {
		body := []byte(`{"error":{"type":"rate_limit_error","message":"all upstream attempts failed"}}`)
		if result != nil && len(result.Body) > 0 {
			body = result.Body
		}
		c.Data(http.StatusTooManyRequests, "application/json", body)
		return
	}
	writeInternalError(c, err)
}

func writeInternalError(c *gin.Context, err error) {
	log.WithField("request_id", c.GetString("request_id")).Errorf("dispatch failed: %v", err)
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": gin.H{"type": "internal_error", "message": err.Error()},
	})
}
