// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package translator

import "context"

// RequestEnvelope carries a request body alongside its declared format
// through a request middleware chain.
type RequestEnvelope struct {
	Format Format
	Model  string
	Stream bool
	Body   []byte
}

// ResponseEnvelope carries a response body alongside its declared format
// through a response middleware chain.
type ResponseEnvelope struct {
	Format Format
	Body   []byte
}

// RequestHandler is the terminal or continuation function in a request
// middleware chain.
type RequestHandler func(ctx context.Context, req RequestEnvelope) (RequestEnvelope, error)

// ResponseHandler is the terminal or continuation function in a response
// middleware chain.
type ResponseHandler func(ctx context.Context, resp ResponseEnvelope) (ResponseEnvelope, error)

// RequestMiddleware wraps a RequestHandler, optionally mutating the
// envelope before calling next.
type RequestMiddleware func(ctx context.Context, req RequestEnvelope, next RequestHandler) (RequestEnvelope, error)

// ResponseMiddleware wraps a ResponseHandler, optionally mutating the
// envelope before calling next.
type ResponseMiddleware func(ctx context.Context, resp ResponseEnvelope, next ResponseHandler) (ResponseEnvelope, error)

// Pipeline runs a chain of request/response middleware around a Registry's
// format translators.
type Pipeline struct {
	registry    *Registry
	requestMWs  []RequestMiddleware
	responseMWs []ResponseMiddleware
}

// NewPipeline returns a pipeline backed by reg with no middleware installed.
func NewPipeline(reg *Registry) *Pipeline {
	return &Pipeline{registry: reg}
}

// UseRequest appends a request middleware to the chain, applied in
// registration order (last appended runs closest to the final transform).
func (p *Pipeline) UseRequest(mw RequestMiddleware) {
	p.requestMWs = append(p.requestMWs, mw)
}

// UseResponse appends a response middleware to the chain.
func (p *Pipeline) UseResponse(mw ResponseMiddleware) {
	p.responseMWs = append(p.responseMWs, mw)
}

// TranslateRequest runs req through every registered request middleware and
// then the registry's request transform for the (from, to) pair.
func (p *Pipeline) TranslateRequest(ctx context.Context, from, to Format, req RequestEnvelope) (RequestEnvelope, error) {
	terminal := func(ctx context.Context, req RequestEnvelope) (RequestEnvelope, error) {
		req.Body = p.registry.TranslateRequest(from, to, req.Model, req.Body, req.Stream)
		return req, nil
	}
	chain := terminal
	for i := len(p.requestMWs) - 1; i >= 0; i-- {
		mw := p.requestMWs[i]
		next := chain
		chain = func(ctx context.Context, req RequestEnvelope) (RequestEnvelope, error) {
			return mw(ctx, req, next)
		}
	}
	return chain(ctx, req)
}

// TranslateResponse runs resp through every registered response middleware
// and then the registry's non-stream response transform for the (from, to)
// pair.
func (p *Pipeline) TranslateResponse(ctx context.Context, from, to Format, resp ResponseEnvelope, model string, originalReq, req []byte) (ResponseEnvelope, error) {
	terminal := func(ctx context.Context, resp ResponseEnvelope) (ResponseEnvelope, error) {
		out := p.registry.TranslateNonStream(ctx, from, to, model, originalReq, req, resp.Body, nil)
		resp.Body = []byte(out)
		return resp, nil
	}
	chain := terminal
	for i := len(p.responseMWs) - 1; i >= 0; i-- {
		mw := p.responseMWs[i]
		next := chain
		chain = func(ctx context.Context, resp ResponseEnvelope) (ResponseEnvelope, error) {
			return mw(ctx, resp, next)
		}
	}
	return chain(ctx, resp)
}
