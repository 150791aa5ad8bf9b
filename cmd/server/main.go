// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the proxy server: a local
// reverse proxy exposing Anthropic Messages, OpenAI Chat/Completions/
// Responses, and native Gemini generateContent, all dispatched against
// Google's Cloud Code Assist backend through a pool of Antigravity accounts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/pebblecode/agbridge/internal/api"
	"github.com/pebblecode/agbridge/internal/buildinfo"
	"github.com/pebblecode/agbridge/internal/config"
	"github.com/pebblecode/agbridge/internal/logging"
	"github.com/pebblecode/agbridge/internal/router"
	"github.com/pebblecode/agbridge/internal/store"
	"github.com/pebblecode/agbridge/internal/tokenpool"
	"github.com/pebblecode/agbridge/internal/upstream"
	"github.com/pebblecode/agbridge/internal/util"
	_ "github.com/pebblecode/agbridge/sdk/translator/builtin"
)

// Version, Commit, and BuildDate are overridden via ldflags during release
// builds; buildinfo carries the same values to the rest of the process
// (e.g. the /healthz response).
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	var debug bool
	var port int
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.IntVar(&port, "port", 0, "override the configured listen port")
	flag.Parse()

	logging.Setup(debug)
	log.Infof("agbridge %s (%s, built %s)", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	if wd, err := os.Getwd(); err == nil {
		if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil && !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if err := run(debug, port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func run(debug bool, portOverride int) error {
	sb, err := util.NewStateBox()
	if err != nil {
		return fmt.Errorf("state directory: %w", err)
	}
	if err := util.HardenPermissions(sb); err != nil {
		log.WithError(err).Warn("failed to harden state directory permissions")
	}

	cfgStore, err := config.NewStore(sb)
	if err != nil {
		return fmt.Errorf("config store: %w", err)
	}
	cfg := cfgStore.Snapshot()

	accounts := store.New(sb)

	httpClient := &http.Client{}
	pool := tokenpool.New(accounts, httpClient)
	if err := pool.Reload(); err != nil {
		log.WithError(err).Warn("failed to load pooled accounts; starting with an empty pool")
	}

	rt := router.New()
	rt.SetMappings(cfg.CustomMapping, cfg.OpenAIMapping, cfg.AnthropicMapping)

	upstreamProxyURL := ""
	if cfg.UpstreamProxy.Enabled {
		upstreamProxyURL = cfg.UpstreamProxy.URL
	}
	upstreamClient, err := upstream.New(upstreamProxyURL)
	if err != nil {
		return fmt.Errorf("upstream client: %w", err)
	}

	server := api.New(cfgStore, rt, pool, upstreamClient, accounts)

	stop, err := cfgStore.Watch(func(updated config.ProxyConfig) {
		rt.SetMappings(updated.CustomMapping, updated.OpenAIMapping, updated.AnthropicMapping)
		proxyURL := ""
		if updated.UpstreamProxy.Enabled {
			proxyURL = updated.UpstreamProxy.URL
		}
		if err := upstreamClient.SetProxy(proxyURL); err != nil {
			log.WithError(err).Warn("failed to apply hot-reloaded upstream proxy setting")
		}
	})
	if err != nil {
		log.WithError(err).Warn("config hot-reload disabled")
	} else {
		defer stop()
	}

	port := cfg.Port
	if portOverride != 0 {
		port = portOverride
	}
	host := "127.0.0.1"
	if cfg.AllowLANAccess {
		host = "0.0.0.0"
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	log.Infof("listening on %s", addr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return server.Run(ctx, addr)
}
