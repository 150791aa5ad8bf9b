// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package upstream speaks the Google Cloud Code Assist v1internal protocol:
// building the envelope, dispatching generateContent/streamGenerateContent
// calls, and classifying failures for the retry policy in retry.go.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

const (
	baseURL   = "https://cloudcode-pa.googleapis.com/v1internal"
	userAgent = "antigravity/1.11.9 windows/amd64"
)

// Client is a single long-lived HTTP client for the v1internal endpoint. An
// optional upstream proxy (http/https/socks5) can be applied at construction
// and hot-reapplied on config updates.
type Client struct {
	http *http.Client
}

// New builds a Client with a 600s timeout. proxyURL may be empty.
func New(proxyURL string) (*Client, error) {
	c := &Client{http: &http.Client{Timeout: 600 * time.Second}}
	if proxyURL != "" {
		if err := c.SetProxy(proxyURL); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetProxy hot-reapplies (or clears, if proxyURL is empty) the upstream
// proxy used for every subsequent call.
func (c *Client) SetProxy(proxyURL string) error {
	if proxyURL == "" {
		c.http.Transport = nil
		return nil
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("upstream: invalid proxy url: %w", err)
	}

	switch parsed.Scheme {
	case "http", "https":
		c.http.Transport = &http.Transport{Proxy: http.ProxyURL(parsed)}
	case "socks5":
		dialer, err := proxy.FromURL(parsed, proxy.Direct)
		if err != nil {
			return fmt.Errorf("upstream: socks5 proxy: %w", err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return fmt.Errorf("upstream: socks5 dialer does not support context")
		}
		c.http.Transport = &http.Transport{DialContext: contextDialer.DialContext}
	default:
		return fmt.Errorf("upstream: unsupported proxy scheme %q", parsed.Scheme)
	}
	return nil
}

// buildURL produces the "<base>:<method>[?<query>]" shape Google's
// v1internal RPC endpoints expect — note the colon, not a slash, joining
// the base and the RPC method name.
func buildURL(method, query string) string {
	if query == "" {
		return fmt.Sprintf("%s:%s", baseURL, method)
	}
	return fmt.Sprintf("%s:%s?%s", baseURL, method, query)
}

// CallV1Internal issues a single POST against the v1internal endpoint.
// Streaming callers pass method="streamGenerateContent" and query="alt=sse".
func (c *Client) CallV1Internal(ctx context.Context, method, accessToken string, body []byte, query string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, buildURL(method, query), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: request failed: %w", err)
	}
	return resp, nil
}

// readBody fully drains and closes a response body, returning its bytes.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
