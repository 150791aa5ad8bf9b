// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"

	"github.com/pebblecode/agbridge/internal/util"
)

// recoveryMiddleware turns a panic anywhere downstream into a 500 instead
// of tearing down the process.
func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("request_id", c.GetString("request_id")).Errorf("panic recovered: %v", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{"type": "internal_error", "message": "internal server error"},
				})
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware assigns (or propagates) a request id used by both the
// access log and the error responses.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

// accessLogMiddleware emits one structured log line per request through
// the process-wide logrus logger (internal/logging).
func accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithField("request_id", c.GetString("request_id")).Infof(
			"%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start),
		)
	}
}

// apiKeyMiddleware is advisory for direct loopback callers: it only logs a
// warning when a configured key is set and doesn't match, never rejecting
// the request. Once LAN access is enabled, the bind address is reachable
// off-box, so a caller that isn't a direct local connection must present a
// valid key; loopback trust doesn't extend across the network.
func (s *Server) apiKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := s.cfg.Snapshot()
		if cfg.MatchesAPIKey(extractAPIKey(c)) {
			c.Next()
			return
		}

		if !cfg.AllowLANAccess || util.IsLocalhostDirect(c) {
			log.WithField("request_id", c.GetString("request_id")).Warnf(
				"api key missing or invalid for %s %s", c.Request.Method, c.Request.URL.Path,
			)
			c.Next()
			return
		}

		log.WithField("request_id", c.GetString("request_id")).Warnf(
			"rejecting %s %s: LAN access enabled and no valid api key from a non-local caller",
			c.Request.Method, c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"type": "authentication_error", "message": "invalid x-api-key"},
		})
	}
}

func extractAPIKey(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if key := c.GetHeader("x-api-key"); key != "" {
		return key
	}
	return c.Query("key")
}

// compressionMiddleware negotiates gzip/brotli per Accept-Encoding. The
// compressor is created lazily on the handler's first write so a streaming
// (SSE) handler can opt out by setting "nocompress" before writing anything
// — compressing a long-lived event stream defeats its own flush semantics.
func compressionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ae := c.GetHeader("Accept-Encoding")
		var encoding string
		switch {
		case strings.Contains(ae, "br"):
			encoding = "br"
		case strings.Contains(ae, "gzip"):
			encoding = "gzip"
		default:
			c.Next()
			return
		}

		lw := &lazyCompressWriter{ResponseWriter: c.Writer, c: c, encoding: encoding}
		c.Writer = lw
		c.Next()
		lw.Close()
	}
}

// lazyCompressWriter defers the compress-or-passthrough decision until the
// handler's first Write call, by which point it has already decided (via
// the "nocompress" context flag) whether this response is a streaming one.
type lazyCompressWriter struct {
	gin.ResponseWriter
	c        *gin.Context
	encoding string
	inner    io.WriteCloser
	decided  bool
}

func (w *lazyCompressWriter) ensure() {
	if w.decided {
		return
	}
	w.decided = true
	if w.c.GetBool("nocompress") {
		return
	}
	switch w.encoding {
	case "br":
		w.inner = brotli.NewWriterLevel(w.ResponseWriter, brotli.DefaultCompression)
		w.Header().Set("Content-Encoding", "br")
	case "gzip":
		gw, err := gzip.NewWriterLevel(w.ResponseWriter, gzip.DefaultCompression)
		if err == nil {
			w.inner = gw
			w.Header().Set("Content-Encoding", "gzip")
		}
	}
	w.Header().Add("Vary", "Accept-Encoding")
}

func (w *lazyCompressWriter) Write(b []byte) (int, error) {
	w.ensure()
	if w.inner != nil {
		return w.inner.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *lazyCompressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *lazyCompressWriter) Close() error {
	if w.inner != nil {
		return w.inner.Close()
	}
	return nil
}
