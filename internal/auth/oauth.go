// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package auth refreshes Antigravity (Google Cloud Code Assist) OAuth
// tokens and resolves the Google Cloud project each account dispatches
// against. Authorization-code initiation (the browser consent flow) is out
// of scope here — accounts arrive pre-provisioned with a refresh token.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/pebblecode/agbridge/internal/secret"
)

// userAgent matches the upstream client's expected identity string; the
// Cloud Code Assist backend is known to gate on it.
const userAgent = "antigravity/1.11.9 windows/amd64"

// ErrInvalidGrant is returned when the refresh token itself has been
// revoked or expired — the caller must permanently disable the account.
var ErrInvalidGrant = errors.New("auth: refresh token invalid or revoked")

// RefreshResult is the subset of a Google token-endpoint response this
// proxy cares about.
type RefreshResult struct {
	AccessToken string
	ExpiresIn   int64
}

func endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	}
}

// RefreshAccessToken exchanges a refresh token for a fresh access token
// using the standard OAuth2 refresh grant.
func RefreshAccessToken(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	cfg := &oauth2.Config{
		ClientID:     secret.AntigravityClientID(),
		ClientSecret: secret.AntigravityClientSecret(),
		Endpoint:     endpoint(),
	}

	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.ErrorCode == "invalid_grant" {
			return nil, ErrInvalidGrant
		}
		return nil, fmt.Errorf("auth: refresh token request failed: %w", err)
	}

	expiresIn := int64(time.Until(tok.Expiry).Seconds())
	if tok.Expiry.IsZero() {
		expiresIn = 3600
	}
	return &RefreshResult{AccessToken: tok.AccessToken, ExpiresIn: expiresIn}, nil
}

// loadCodeAssistResponse mirrors the subset of the Cloud Code Assist
// "loadCodeAssist" v1internal response this proxy needs: the GCP project
// the authenticated account is entitled to use.
type loadCodeAssistResponse struct {
	CloudaicompanionProject string `json:"cloudaicompanionProject"`
}

// ResolveProjectID asks the Cloud Code Assist backend which GCP project the
// given access token is entitled to dispatch against. Results are cached by
// the caller (the account store persists the resolved ID back to disk) —
// this call only happens once per account, lazily, on first successful use.
func ResolveProjectID(ctx context.Context, client *http.Client, accessToken string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	body := bytes.NewReader([]byte(`{"metadata":{"ideType":"ANTIGRAVITY"}}`))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://cloudcode-pa.googleapis.com/v1internal:loadCodeAssist", body)
	if err != nil {
		return "", fmt.Errorf("auth: build project resolution request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth: project resolution request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth: project resolution returned status %d", resp.StatusCode)
	}

	var out loadCodeAssistResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("auth: decode project resolution response: %w", err)
	}
	if out.CloudaicompanionProject == "" {
		return "", errors.New("auth: upstream returned no project id")
	}

	log.WithField("project_id", out.CloudaicompanionProject).Debug("auth: resolved project id")
	return out.CloudaicompanionProject, nil
}
