// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package upstream

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pebblecode/agbridge/internal/store"
	"github.com/pebblecode/agbridge/internal/tokenpool"
	"github.com/pebblecode/agbridge/internal/util"
)

// roundTripFunc adapts a plain function to http.RoundTripper so Dispatch's
// calls can be answered in-process without a real listener.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestPoolN(t *testing.T, numAccounts int) *tokenpool.Pool {
	t.Helper()
	t.Setenv("AGBRIDGE_STATE_DIR", t.TempDir())
	t.Setenv("AGBRIDGE_READONLY", "0")
	sb, err := util.NewStateBox()
	require.NoError(t, err)
	st := store.New(sb)

	farFuture := time.Now().Add(24 * time.Hour).Unix()
	for i := 0; i < numAccounts; i++ {
		id := string(rune('a' + i))
		require.NoError(t, st.UpsertAccount(&store.Account{
			ID:    "acct-" + id,
			Email: id + "@example.com",
			Token: store.Token{
				AccessToken:     "tok-" + id,
				RefreshToken:    "refresh-" + id,
				ExpiryTimestamp: farFuture,
				ProjectID:       "proj-" + id,
			},
		}))
	}

	p := tokenpool.New(st, nil)
	require.NoError(t, p.Reload())
	return p
}

func newDispatchClient(handler func(attempt int, req *http.Request) (*http.Response, error)) *Client {
	attempt := 0
	return &Client{http: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempt++
		return handler(attempt, req)
	})}}
}

func jsonResp(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestClassifyRetryDelay(t *testing.T) {
	body := []byte(`{"error":{"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"2.5s"}]}}`)
	outcome, delay := Classify(http.StatusTooManyRequests, body)
	assert.Equal(t, OutcomeRetryDelay, outcome)
	assert.Equal(t, 2500*time.Millisecond, delay)
}

func TestClassifyQuotaExhaustedShortCircuits(t *testing.T) {
	body := []byte(`{"error":{"status":"RESOURCE_EXHAUSTED","message":"QUOTA_EXHAUSTED for model"}}`)
	outcome, _ := Classify(http.StatusTooManyRequests, body)
	assert.Equal(t, OutcomeQuotaExhausted, outcome)
}

func TestClassifyAuthOrRegionRotates(t *testing.T) {
	outcome, _ := Classify(http.StatusUnauthorized, nil)
	assert.Equal(t, OutcomeAuthOrRegion, outcome)
	outcome, _ = Classify(http.StatusForbidden, nil)
	assert.Equal(t, OutcomeAuthOrRegion, outcome)
}

func TestClassifyThinkingSignature(t *testing.T) {
	body := []byte("Invalid `signature` for content at index 3")
	outcome, _ := Classify(http.StatusBadRequest, body)
	assert.Equal(t, OutcomeThinkingSignature, outcome)
}

func TestClassifySuccess(t *testing.T) {
	outcome, _ := Classify(200, nil)
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestUnwrapResponseEnvelope(t *testing.T) {
	wrapped := []byte(`{"response":{"candidates":[{"content":{"parts":[{"text":"hi"}]}}]}}`)
	unwrapped := UnwrapResponse(wrapped)
	assert.JSONEq(t, `{"candidates":[{"content":{"parts":[{"text":"hi"}]}}]}`, string(unwrapped))
}

func TestUnwrapResponsePassesThroughWhenNotWrapped(t *testing.T) {
	raw := []byte(`{"candidates":[]}`)
	assert.Equal(t, raw, UnwrapResponse(raw))
}

// TestDispatchRotatesOnAuthFailureThenSucceeds exercises S3-style rotation:
// a 401 on the first account forces a new credential, and the second
// account's call succeeds.
func TestDispatchRotatesOnAuthFailureThenSucceeds(t *testing.T) {
	pool := newTestPoolN(t, 2)
	client := newDispatchClient(func(attempt int, _ *http.Request) (*http.Response, error) {
		if attempt == 1 {
			return jsonResp(http.StatusUnauthorized, `{"error":"unauthorized"}`), nil
		}
		return jsonResp(http.StatusOK, `{"ok":true}`), nil
	})

	build := func(cred tokenpool.Credential, recovery bool) ([]byte, error) {
		return []byte(`{}`), nil
	}

	result, err := client.Dispatch(context.Background(), pool, "", "generateContent", "", build)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.Status)
}

// TestDispatchBoundsAttemptsByPoolSize confirms the attempt ceiling tracks
// min(MaxRetryAttempts, pool size): a single-account pool that always
// returns 401 should only be called once, not MaxRetryAttempts times.
func TestDispatchBoundsAttemptsByPoolSize(t *testing.T) {
	pool := newTestPoolN(t, 1)
	calls := 0
	client := newDispatchClient(func(attempt int, _ *http.Request) (*http.Response, error) {
		calls++
		return jsonResp(http.StatusUnauthorized, `{"error":"unauthorized"}`), nil
	})

	build := func(cred tokenpool.Credential, recovery bool) ([]byte, error) {
		return []byte(`{}`), nil
	}

	result, err := client.Dispatch(context.Background(), pool, "", "generateContent", "", build)
	assert.ErrorIs(t, err, ErrAllAttemptsFailed)
	assert.Equal(t, http.StatusUnauthorized, result.Status)
	assert.Equal(t, 1, calls)
}

// TestDispatchThinkingSignatureRecoversOnce drives the S5-style recovery
// path: a 400 carrying a signature mismatch triggers exactly one rebuilt
// retry on the same account before surfacing the result.
func TestDispatchThinkingSignatureRecoversOnce(t *testing.T) {
	pool := newTestPoolN(t, 2)
	client := newDispatchClient(func(attempt int, _ *http.Request) (*http.Response, error) {
		if attempt == 1 {
			return jsonResp(http.StatusBadRequest, "Invalid `signature` for content at index 0"), nil
		}
		return jsonResp(http.StatusOK, `{"ok":true}`), nil
	})

	var recoveryFlags []bool
	build := func(cred tokenpool.Credential, recovery bool) ([]byte, error) {
		recoveryFlags = append(recoveryFlags, recovery)
		return []byte(`{}`), nil
	}

	result, err := client.Dispatch(context.Background(), pool, "", "generateContent", "", build)
	require.NoError(t, err)
	assert.True(t, result.Recovered)
	assert.Equal(t, http.StatusOK, result.Status)
	require.Len(t, recoveryFlags, 2)
	assert.False(t, recoveryFlags[0])
	assert.True(t, recoveryFlags[1])
}
