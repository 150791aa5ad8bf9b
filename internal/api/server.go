// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api wires the gin HTTP front end the proxy exposes on loopback:
// the Claude, OpenAI, and native Gemini routes, the middleware chain, and
// the glue between the model router, token pool, and upstream dispatcher.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pebblecode/agbridge/internal/config"
	"github.com/pebblecode/agbridge/internal/router"
	"github.com/pebblecode/agbridge/internal/store"
	"github.com/pebblecode/agbridge/internal/tokenpool"
	"github.com/pebblecode/agbridge/internal/upstream"
)

// Server assembles the gin engine and every dependency a route handler
// needs: the hot-reloaded proxy config, the model router, the token pool,
// the upstream dispatcher, and the account store.
type Server struct {
	engine   *gin.Engine
	cfg      *config.Store
	router   *router.Router
	pool     *tokenpool.Pool
	upstream *upstream.Client
	accounts *store.Store

	httpServer *http.Server
}

// New builds a Server with every route and middleware registered.
func New(cfg *config.Store, rt *router.Router, pool *tokenpool.Pool, up *upstream.Client, accounts *store.Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{engine: engine, cfg: cfg, router: rt, pool: pool, upstream: up, accounts: accounts}

	engine.Use(recoveryMiddleware(), requestIDMiddleware(), accessLogMiddleware(), s.apiKeyMiddleware(), compressionMiddleware())
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine, mainly so tests can drive
// requests through httptest without starting a real listener.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/v1/models", s.handleListModels)
	s.engine.GET("/v1/models/claude", s.handleListClaudeModels)

	s.engine.POST("/v1/messages", s.handleClaudeMessages)
	s.engine.POST("/v1/messages/count_tokens", s.handleClaudeCountTokens)

	s.engine.POST("/v1/chat/completions", s.handleChatCompletions)
	s.engine.POST("/v1/completions", s.handleLegacyCompletions)
	s.engine.POST("/v1/responses", s.handleResponses)

	s.engine.GET("/v1beta/models", s.handleListGeminiModels)
	s.engine.GET("/v1beta/models/:model", s.handleGetGeminiModel)
	s.engine.POST("/v1beta/models/:model", s.handleGeminiGenerate)
}

// Run starts the HTTP server on addr and blocks until ctx is canceled, then
// shuts the listener down gracefully. Run binds whatever addr it is given;
// cmd/server passes a loopback address unless LAN access is enabled.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
