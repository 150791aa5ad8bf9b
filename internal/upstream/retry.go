// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pebblecode/agbridge/internal/tokenpool"
)

// MaxRetryAttempts bounds the attempt loop regardless of pool size.
const MaxRetryAttempts = 3

const maxRetryDelay = 10 * time.Second

// Outcome classifies a single upstream attempt's HTTP status/body so the
// retry loop can decide whether to retry on the same account, rotate, or
// surface the error verbatim.
type Outcome int

const (
	// OutcomeSuccess is any 2xx response.
	OutcomeSuccess Outcome = iota
	// OutcomeRetryDelay is a 429 carrying a parseable Google RetryInfo delay.
	OutcomeRetryDelay
	// OutcomeQuotaExhausted is a 429 whose body names QUOTA_EXHAUSTED.
	OutcomeQuotaExhausted
	// OutcomeAuthOrRegion is a 401/403, or a 429 with neither a retry delay
	// nor QUOTA_EXHAUSTED — rotate and retry.
	OutcomeAuthOrRegion
	// OutcomeThinkingSignature is a 400 matching the signature-mismatch
	// pattern a Claude thinking-enabled request can trigger.
	OutcomeThinkingSignature
	// OutcomeOther is any other non-2xx status — surfaced immediately.
	OutcomeOther
)

// Classify inspects a response status and body to determine the retry
// policy's next move.
func Classify(status int, body []byte) (Outcome, time.Duration) {
	if status >= 200 && status < 300 {
		return OutcomeSuccess, 0
	}
	if status == http.StatusTooManyRequests {
		if strings.Contains(string(body), "QUOTA_EXHAUSTED") {
			return OutcomeQuotaExhausted, 0
		}
		if delay, ok := parseRetryDelay(body); ok {
			return OutcomeRetryDelay, delay
		}
		return OutcomeAuthOrRegion, 0
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return OutcomeAuthOrRegion, 0
	}
	if status == http.StatusBadRequest && isThinkingSignatureError(body) {
		return OutcomeThinkingSignature, 0
	}
	return OutcomeOther, 0
}

// parseRetryDelay extracts the RetryInfo.retryDelay field Google's error
// details carry on a 429, e.g. "12.5s".
func parseRetryDelay(body []byte) (time.Duration, bool) {
	var found string
	result := gjson.ParseBytes(body)
	result.Get("error.details").ForEach(func(_, detail gjson.Result) bool {
		if !strings.Contains(detail.Get("@type").String(), "RetryInfo") {
			return true
		}
		found = detail.Get("retryDelay").String()
		return false
	})
	if found == "" {
		return 0, false
	}
	trimmed := strings.TrimSuffix(found, "s")
	seconds, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// isThinkingSignatureError matches the 400 bodies the Claude streaming
// recovery path knows how to repair in one retry.
func isThinkingSignatureError(body []byte) bool {
	s := string(body)
	return strings.Contains(s, "Invalid `signature`") ||
		strings.Contains(s, "thinking.signature") ||
		strings.Contains(s, "thinking.thinking")
}

// ErrAllAttemptsFailed is returned when the retry loop exhausts every
// attempt without a 2xx response.
var ErrAllAttemptsFailed = errors.New("upstream: all retry attempts failed")

// AttemptResult carries the outcome of a single call, streamed responses
// included — the caller is responsible for closing Response.Body when
// Response is non-nil.
type AttemptResult struct {
	Response   *http.Response
	Status     int
	Body       []byte // drained only for non-2xx / non-streaming callers
	LastError  error
	Recovered  bool // true if thinking-signature recovery fired this call
}

// BodyBuilder produces the request body for one attempt, given the
// credential Dispatch selected for that attempt (so the envelope's project
// field tracks whichever account the call actually rotates to). recovery is
// true only on the single retry following a thinking-signature 400.
type BodyBuilder func(cred tokenpool.Credential, recovery bool) ([]byte, error)

// Dispatch runs the bounded retry loop: up to
// min(MaxRetryAttempts, pool size) attempts, classifying each failure and
// either retrying on the same account (retry-delay, thinking-signature),
// rotating to a new one (401/403/other-429), or surfacing immediately
// (quota-exhausted, any other non-2xx). method/query select
// generateContent vs streamGenerateContent[?alt=sse]; streaming callers must
// close the returned response body themselves.
func (c *Client) Dispatch(ctx context.Context, pool *tokenpool.Pool, requestType, method, query string, build BodyBuilder) (*AttemptResult, error) {
	maxAttempts := MaxRetryAttempts
	if size := pool.Size(); size > 0 && size < maxAttempts {
		maxAttempts = size
	}
	forceRotate := false
	usedRecovery := false
	var lastErr error
	var lastStatus int
	var lastBody []byte

	var pinned *tokenpool.Credential

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var cred tokenpool.Credential
		if pinned != nil {
			cred = *pinned
		} else {
			var err error
			cred, err = pool.GetToken(ctx, requestType, forceRotate)
			if err != nil {
				return nil, fmt.Errorf("upstream: %w", err)
			}
			forceRotate = false
		}
		pinned = nil

		body, err := build(cred, false)
		if err != nil {
			return nil, fmt.Errorf("upstream: build request body: %w", err)
		}

		resp, err := c.CallV1Internal(ctx, method, cred.AccessToken, body, query)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return &AttemptResult{Response: resp, Status: resp.StatusCode}, nil
		}

		data, _ := readBody(resp)
		lastStatus = resp.StatusCode
		lastBody = data

		outcome, delay := Classify(resp.StatusCode, data)
		switch outcome {
		case OutcomeQuotaExhausted:
			return &AttemptResult{Status: resp.StatusCode, Body: data}, nil
		case OutcomeRetryDelay:
			wait := delay + 200*time.Millisecond
			if wait > maxRetryDelay {
				wait = maxRetryDelay
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			pinned = &cred
		case OutcomeThinkingSignature:
			if usedRecovery {
				return &AttemptResult{Status: resp.StatusCode, Body: data}, nil
			}
			usedRecovery = true
			recoveredBody, err := build(cred, true)
			if err != nil {
				return nil, fmt.Errorf("upstream: build recovery request body: %w", err)
			}
			recResp, err := c.CallV1Internal(ctx, method, cred.AccessToken, recoveredBody, query)
			if err != nil {
				lastErr = err
				continue
			}
			if recResp.StatusCode >= 200 && recResp.StatusCode < 300 {
				return &AttemptResult{Response: recResp, Status: recResp.StatusCode, Recovered: true}, nil
			}
			recData, _ := readBody(recResp)
			return &AttemptResult{Status: recResp.StatusCode, Body: recData, Recovered: true}, nil
		case OutcomeAuthOrRegion:
			forceRotate = true
		case OutcomeOther:
			return &AttemptResult{Status: resp.StatusCode, Body: data}, nil
		}
	}

	return &AttemptResult{Status: lastStatus, Body: lastBody, LastError: lastErr}, ErrAllAttemptsFailed
}

// UnwrapResponse strips a top-level {"response": ...} envelope some
// v1internal SSE lines and non-streaming bodies carry, returning the inner
// Gemini-shaped JSON unchanged if no such envelope is present.
func UnwrapResponse(raw []byte) []byte {
	if wrapped := gjson.GetBytes(raw, "response"); wrapped.Exists() && wrapped.IsObject() {
		return []byte(wrapped.Raw)
	}
	return raw
}
