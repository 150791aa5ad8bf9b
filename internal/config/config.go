// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads, persists, and hot-reloads the proxy's single
// runtime knob: ProxyConfig. Everything else the proxy needs (account
// credentials) lives in internal/store.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/pebblecode/agbridge/internal/util"
)

const configFileName = "gui_config.json"

// UpstreamProxy configures an optional forward proxy (http/https/socks5)
// placed in front of every v1internal call.
type UpstreamProxy struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url,omitempty"`
}

// ProxyConfig is the sole runtime knob the proxy core reads.
// On hot reload the mapping tables and UpstreamProxy are re-applied, and the
// API-key middleware reads APIKeyHash and AllowLANAccess from the live config
// on every request; Port and the bind address derived from AllowLANAccess
// are read once at startup.
type ProxyConfig struct {
	Enabled        bool   `json:"enabled"`
	AllowLANAccess bool   `json:"allow_lan_access"`
	Port           int    `json:"port"`
	APIKeyHash     string `json:"api_key_hash,omitempty"`
	AutoStart      bool   `json:"auto_start"`

	AnthropicMapping map[string]string `json:"anthropic_mapping"`
	OpenAIMapping    map[string]string `json:"openai_mapping"`
	CustomMapping    map[string]string `json:"custom_mapping"`

	RequestTimeoutSeconds int           `json:"request_timeout"`
	UpstreamProxy         UpstreamProxy `json:"upstream_proxy"`
}

// Default returns the built-in defaults used when no config file exists yet.
func Default() *ProxyConfig {
	return &ProxyConfig{
		Enabled:               true,
		AllowLANAccess:        false,
		Port:                  8317,
		AutoStart:             false,
		AnthropicMapping:      map[string]string{},
		OpenAIMapping:         map[string]string{},
		CustomMapping:         map[string]string{},
		RequestTimeoutSeconds: 600,
	}
}

// HashAPIKey bcrypt-hashes the advisory local API key for storage; empty in
// means no key is configured (MatchesAPIKey then accepts any key, so the
// middleware lets every request through).
func HashAPIKey(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("config: hash api key: %w", err)
	}
	return string(h), nil
}

// looksLikeBcrypt reports whether s is already a bcrypt hash, so Load never
// double-hashes a value round-tripped from disk.
func looksLikeBcrypt(s string) bool {
	return len(s) == 60 && (s[:4] == "$2a$" || s[:4] == "$2b$" || s[:4] == "$2y$")
}

// MatchesAPIKey reports whether plain hashes to the configured key. An empty
// configured hash always matches (no key configured).
func (c *ProxyConfig) MatchesAPIKey(plain string) bool {
	if c.APIKeyHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(c.APIKeyHash), []byte(plain)) == nil
}

// Store persists ProxyConfig to gui_config.json under the state box and
// notifies a live Router/Client pair whenever the file changes on disk
// (either through Save or an external edit), supporting hot-reload without
// a restart.
type Store struct {
	sb   *util.StateBox
	mu   sync.RWMutex
	live *ProxyConfig
}

// NewStore loads (or initializes) gui_config.json under sb's root.
func NewStore(sb *util.StateBox) (*Store, error) {
	s := &Store{sb: sb}
	cfg, err := s.loadFromDisk()
	if err != nil {
		return nil, err
	}
	s.live = cfg
	return s, nil
}

func (s *Store) path() string {
	return filepath.Join(s.sb.RootPath(), configFileName)
}

func (s *Store) loadFromDisk() (*ProxyConfig, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		cfg := Default()
		if saveErr := s.saveToDisk(cfg); saveErr != nil {
			log.Warnf("config: failed to persist default config: %v", saveErr)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", s.path(), err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", s.path(), err)
	}
	if cfg.APIKeyHash != "" && !looksLikeBcrypt(cfg.APIKeyHash) {
		hashed, err := HashAPIKey(cfg.APIKeyHash)
		if err != nil {
			return nil, err
		}
		cfg.APIKeyHash = hashed
	}
	return cfg, nil
}

func (s *Store) saveToDisk(cfg *ProxyConfig) error {
	if err := s.sb.EnsureDir(s.sb.RootPath()); err != nil {
		return err
	}
	return util.SecureWriteJSON(s.sb, s.path(), cfg, nil)
}

// Snapshot returns a copy of the live config, safe to read without holding
// any lock across the caller's own work.
func (s *Store) Snapshot() ProxyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.live
}

// Save replaces the live config and persists it atomically.
func (s *Store) Save(cfg *ProxyConfig) error {
	s.mu.Lock()
	s.live = cfg
	s.mu.Unlock()
	return s.saveToDisk(cfg)
}

// Reload re-reads gui_config.json from disk, swapping the live snapshot.
// Used by the fsnotify watcher (see watch.go) on external edits.
func (s *Store) Reload() error {
	cfg, err := s.loadFromDisk()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.live = cfg
	s.mu.Unlock()
	return nil
}
