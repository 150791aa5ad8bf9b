// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIsLocalhostDirect(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(remoteAddr string, headers map[string]string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		c.Request = req
		return c
	}

	if !IsLocalhostDirect(newCtx("127.0.0.1:54321", nil)) {
		t.Error("expected direct IPv4 loopback to be treated as local")
	}
	if !IsLocalhostDirect(newCtx("[::1]:54321", nil)) {
		t.Error("expected direct IPv6 loopback to be treated as local")
	}
	if IsLocalhostDirect(newCtx("203.0.113.5:54321", nil)) {
		t.Error("expected a non-loopback remote address to be rejected")
	}
	if IsLocalhostDirect(newCtx("127.0.0.1:54321", map[string]string{"X-Forwarded-For": "203.0.113.5"})) {
		t.Error("expected a forwarded-for header on loopback to be rejected")
	}
	if IsLocalhostDirect(newCtx("not-a-valid-addr", nil)) {
		t.Error("expected an unparseable RemoteAddr to be rejected")
	}
}
