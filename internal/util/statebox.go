// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package util provides utility functions shared across the proxy.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StateBox manages the canonical data directory the proxy persists its
// config and account files under. It centralizes path resolution so every
// package agrees on where mutable state lives.
type StateBox struct {
	rootPath string
	readOnly bool
	mu       sync.RWMutex
}

// NewStateBox creates a StateBox rooted at AGBRIDGE_STATE_DIR, or
// ~/.agbridge if unset. AGBRIDGE_READONLY=1 puts it in read-only mode.
func NewStateBox() (*StateBox, error) {
	stateDir := os.Getenv("AGBRIDGE_STATE_DIR")
	if stateDir == "" {
		stateDir = "~/.agbridge"
	}

	resolvedPath, err := ExpandPath(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state directory: %w", err)
	}

	return &StateBox{
		rootPath: resolvedPath,
		readOnly: os.Getenv("AGBRIDGE_READONLY") == "1",
	}, nil
}

// RootPath returns the resolved state-box root directory.
func (sb *StateBox) RootPath() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.rootPath
}

// IsReadOnly returns whether the state box is in read-only mode.
func (sb *StateBox) IsReadOnly() bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.readOnly
}

// AccountsDir returns the path to the per-account JSON file directory.
func (sb *StateBox) AccountsDir() string {
	return filepath.Join(sb.RootPath(), "accounts")
}

// ResolvePath joins a relative path with the state-box root. An absolute or
// tilde-prefixed path is returned cleaned, unjoined.
func (sb *StateBox) ResolvePath(relativePath string) string {
	if relativePath == "" {
		return sb.RootPath()
	}
	if strings.HasPrefix(relativePath, "~") || filepath.IsAbs(relativePath) {
		cleaned, err := ExpandPath(relativePath)
		if err != nil {
			return filepath.Clean(relativePath)
		}
		return cleaned
	}
	return filepath.Join(sb.RootPath(), relativePath)
}

// EnsureDir creates path (and its parents) with 0700 permissions if it does
// not already exist.
func (sb *StateBox) EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat directory %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
