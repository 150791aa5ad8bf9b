// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package translator

import (
	"context"
	"sync"
)

// RequestTransform rewrites a raw request body from one format into another.
// It receives the resolved model name, the original body, and whether the
// caller asked for a streamed response.
type RequestTransform func(model string, raw []byte, stream bool) []byte

// ResponseStreamTransform renders a single upstream SSE chunk into zero or
// more outbound SSE frames in the target format. param threads per-stream
// state (e.g. a streaming state machine) across repeated calls.
type ResponseStreamTransform func(ctx context.Context, model string, originalRequestRawJSON, requestRawJSON, rawJSON []byte, param *any) []string

// ResponseNonStreamTransform renders a complete, buffered upstream response
// into the target format's non-streaming body.
type ResponseNonStreamTransform func(ctx context.Context, model string, originalRequestRawJSON, requestRawJSON, rawJSON []byte, param *any) string

// TokenCountTransform renders a raw upstream token count into the target
// format's count_tokens response body.
type TokenCountTransform func(ctx context.Context, count int64) string

// ResponseTransform bundles the three response-rendering shapes a provider
// pair may register.
type ResponseTransform struct {
	Stream     ResponseStreamTransform
	NonStream  ResponseNonStreamTransform
	TokenCount TokenCountTransform
}

type pairKey struct {
	from Format
	to   Format
}

type entry struct {
	request  RequestTransform
	response ResponseTransform
}

// Registry maps a (from, to) format pair to its request/response
// transformers. The zero value is not usable; construct with NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	entries map[pairKey]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[pairKey]entry)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry populated by every translator
// package's init().
func Default() *Registry {
	return defaultRegistry
}

// Register installs the transformers for a (from, to) format pair on the
// receiver.
func (r *Registry) Register(from, to Format, req RequestTransform, resp ResponseTransform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[pairKey{from, to}] = entry{request: req, response: resp}
}

// Register installs the transformers on the default registry.
func Register(from, to Format, req RequestTransform, resp ResponseTransform) {
	defaultRegistry.Register(from, to, req, resp)
}

// TranslateRequest applies the registered request transform, or returns raw
// unchanged if no transform is registered for the pair.
func (r *Registry) TranslateRequest(from, to Format, model string, raw []byte, stream bool) []byte {
	r.mu.RLock()
	e, ok := r.entries[pairKey{from, to}]
	r.mu.RUnlock()
	if !ok || e.request == nil {
		return raw
	}
	return e.request(model, raw, stream)
}

// TranslateRequest applies the default registry's request transform.
func TranslateRequest(from, to Format, model string, raw []byte, stream bool) []byte {
	return defaultRegistry.TranslateRequest(from, to, model, raw, stream)
}

// HasResponseTransformer reports whether a response transform is registered
// for the pair.
func (r *Registry) HasResponseTransformer(from, to Format) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[pairKey{from, to}]
	return ok && (e.response.Stream != nil || e.response.NonStream != nil || e.response.TokenCount != nil)
}

// HasResponseTransformer checks the default registry.
func HasResponseTransformer(from, to Format) bool {
	return defaultRegistry.HasResponseTransformer(from, to)
}

// TranslateStream applies the registered streaming response transform.
func (r *Registry) TranslateStream(ctx context.Context, from, to Format, model string, originalReq, req, raw []byte, param *any) []string {
	r.mu.RLock()
	e, ok := r.entries[pairKey{from, to}]
	r.mu.RUnlock()
	if !ok || e.response.Stream == nil {
		return nil
	}
	return e.response.Stream(ctx, model, originalReq, req, raw, param)
}

// TranslateNonStream applies the registered non-streaming response
// transform.
func (r *Registry) TranslateNonStream(ctx context.Context, from, to Format, model string, originalReq, req, raw []byte, param *any) string {
	r.mu.RLock()
	e, ok := r.entries[pairKey{from, to}]
	r.mu.RUnlock()
	if !ok || e.response.NonStream == nil {
		return string(raw)
	}
	return e.response.NonStream(ctx, model, originalReq, req, raw, param)
}

// TranslateNonStream applies the default registry's non-streaming response
// transform.
func TranslateNonStream(ctx context.Context, from, to Format, model string, originalReq, req, raw []byte, param *any) string {
	return defaultRegistry.TranslateNonStream(ctx, from, to, model, originalReq, req, raw, param)
}

// TranslateTokenCount applies the registered token-count transform.
func (r *Registry) TranslateTokenCount(ctx context.Context, from, to Format, count int64, raw []byte) string {
	r.mu.RLock()
	e, ok := r.entries[pairKey{from, to}]
	r.mu.RUnlock()
	if !ok || e.response.TokenCount == nil {
		return string(raw)
	}
	return e.response.TokenCount(ctx, count)
}

// TranslateTokenCount applies the default registry's token-count transform.
func TranslateTokenCount(ctx context.Context, from, to Format, count int64, raw []byte) string {
	return defaultRegistry.TranslateTokenCount(ctx, from, to, count, raw)
}
