// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAuditPermissions(t *testing.T) {
	tempDir := t.TempDir()

	t.Setenv("AGBRIDGE_STATE_DIR", tempDir)
	t.Setenv("AGBRIDGE_READONLY", "0")

	sb, err := NewStateBox()
	if err != nil {
		t.Fatalf("Failed to create StateBox: %v", err)
	}

	accountsDir := sb.AccountsDir()
	if err := os.MkdirAll(accountsDir, 0755); err != nil {
		t.Fatalf("Failed to create accounts directory: %v", err)
	}

	registryPath := filepath.Join(accountsDir, "accounts.json")
	if err := os.WriteFile(registryPath, []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to create registry file: %v", err)
	}

	dbPath := filepath.Join(accountsDir, "feedback.db")
	if err := os.WriteFile(dbPath, []byte(""), 0644); err != nil {
		t.Fatalf("Failed to create database file: %v", err)
	}

	results, err := AuditPermissions(sb)
	if err != nil {
		t.Fatalf("AuditPermissions failed: %v", err)
	}

	if len(results) == 0 {
		t.Fatal("Expected audit results, got none")
	}

	foundDir := false
	foundJSON := false
	foundDB := false

	for _, result := range results {
		if result.Error != nil {
			t.Errorf("Unexpected error in audit result for %s: %v", result.Path, result.Error)
		}

		info, err := os.Stat(result.Path)
		if err != nil {
			continue
		}

		if info.IsDir() {
			foundDir = true
			if result.RequiredMode != 0700 {
				t.Errorf("Directory %s should require mode 0700, got %04o", result.Path, result.RequiredMode)
			}
		} else if filepath.Ext(result.Path) == ".json" {
			foundJSON = true
			if result.RequiredMode != 0600 {
				t.Errorf("JSON file %s should require mode 0600, got %04o", result.Path, result.RequiredMode)
			}
		} else if filepath.Ext(result.Path) == ".db" {
			foundDB = true
			if result.RequiredMode != 0600 {
				t.Errorf("DB file %s should require mode 0600, got %04o", result.Path, result.RequiredMode)
			}
		}
	}

	if !foundDir {
		t.Error("Expected to find directory in audit results")
	}
	if !foundJSON {
		t.Error("Expected to find .json file in audit results")
	}
	if !foundDB {
		t.Error("Expected to find .db file in audit results")
	}
}

func TestHardenPermissions_DirectoryCorrection(t *testing.T) {
	tempDir := t.TempDir()

	t.Setenv("AGBRIDGE_STATE_DIR", tempDir)
	t.Setenv("AGBRIDGE_READONLY", "0")

	sb, err := NewStateBox()
	if err != nil {
		t.Fatalf("Failed to create StateBox: %v", err)
	}

	accountsDir := sb.AccountsDir()
	if err := os.MkdirAll(accountsDir, 0755); err != nil {
		t.Fatalf("Failed to create accounts directory: %v", err)
	}

	info, err := os.Stat(accountsDir)
	if err != nil {
		t.Fatalf("Failed to stat directory: %v", err)
	}
	if info.Mode().Perm() == 0700 {
		if err := os.Chmod(accountsDir, 0755); err != nil {
			t.Fatalf("Failed to set incorrect permissions: %v", err)
		}
	}

	if err := HardenPermissions(sb); err != nil {
		t.Fatalf("HardenPermissions failed: %v", err)
	}

	info, err = os.Stat(accountsDir)
	if err != nil {
		t.Fatalf("Failed to stat directory after hardening: %v", err)
	}

	if info.Mode().Perm() != 0700 {
		t.Errorf("Expected directory permissions 0700, got %04o", info.Mode().Perm())
	}
}

func TestHardenPermissions_JSONFileCorrection(t *testing.T) {
	tempDir := t.TempDir()

	t.Setenv("AGBRIDGE_STATE_DIR", tempDir)
	t.Setenv("AGBRIDGE_READONLY", "0")

	sb, err := NewStateBox()
	if err != nil {
		t.Fatalf("Failed to create StateBox: %v", err)
	}

	accountsDir := sb.AccountsDir()
	if err := os.MkdirAll(accountsDir, 0700); err != nil {
		t.Fatalf("Failed to create accounts directory: %v", err)
	}

	registryPath := filepath.Join(accountsDir, "accounts.json")
	if err := os.WriteFile(registryPath, []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to create registry file: %v", err)
	}

	if err := HardenPermissions(sb); err != nil {
		t.Fatalf("HardenPermissions failed: %v", err)
	}

	info, err := os.Stat(registryPath)
	if err != nil {
		t.Fatalf("Failed to stat file after hardening: %v", err)
	}

	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected .json file permissions 0600, got %04o", info.Mode().Perm())
	}
}

func TestHardenPermissions_DBFileCorrection(t *testing.T) {
	tempDir := t.TempDir()

	t.Setenv("AGBRIDGE_STATE_DIR", tempDir)
	t.Setenv("AGBRIDGE_READONLY", "0")

	sb, err := NewStateBox()
	if err != nil {
		t.Fatalf("Failed to create StateBox: %v", err)
	}

	accountsDir := sb.AccountsDir()
	if err := os.MkdirAll(accountsDir, 0700); err != nil {
		t.Fatalf("Failed to create accounts directory: %v", err)
	}

	dbPath := filepath.Join(accountsDir, "feedback.db")
	if err := os.WriteFile(dbPath, []byte(""), 0644); err != nil {
		t.Fatalf("Failed to create database file: %v", err)
	}

	if err := HardenPermissions(sb); err != nil {
		t.Fatalf("HardenPermissions failed: %v", err)
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		t.Fatalf("Failed to stat file after hardening: %v", err)
	}

	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected .db file permissions 0600, got %04o", info.Mode().Perm())
	}
}

func TestHardenPermissions_NonExistentRoot(t *testing.T) {
	tempDir := t.TempDir()
	nonExistentPath := filepath.Join(tempDir, "does-not-exist")

	t.Setenv("AGBRIDGE_STATE_DIR", nonExistentPath)
	t.Setenv("AGBRIDGE_READONLY", "0")

	sb, err := NewStateBox()
	if err != nil {
		t.Fatalf("Failed to create StateBox: %v", err)
	}

	if err := HardenPermissions(sb); err != nil {
		t.Fatalf("HardenPermissions should not error on non-existent root: %v", err)
	}
}

func TestHardenPermissions_NilStateBox(t *testing.T) {
	err := HardenPermissions(nil)
	if err == nil {
		t.Fatal("Expected error when StateBox is nil")
	}
	if err.Error() != "StateBox cannot be nil" {
		t.Errorf("Expected 'StateBox cannot be nil' error, got: %v", err)
	}
}

func TestAuditPermissions_NilStateBox(t *testing.T) {
	_, err := AuditPermissions(nil)
	if err == nil {
		t.Fatal("Expected error when StateBox is nil")
	}
	if err.Error() != "StateBox cannot be nil" {
		t.Errorf("Expected 'StateBox cannot be nil' error, got: %v", err)
	}
}

func TestIsSensitiveFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"registry.json", true},
		{"feedback.db", true},
		{"config.JSON", true}, // Case insensitive
		{"data.DB", true},     // Case insensitive
		{"readme.txt", false},
		{"script.sh", false},
		{"noextension", false},
		{"/path/to/file.json", true},
		{"/path/to/file.db", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := isSensitiveFile(tt.path)
			if result != tt.expected {
				t.Errorf("isSensitiveFile(%q) = %v, expected %v", tt.path, result, tt.expected)
			}
		})
	}
}
