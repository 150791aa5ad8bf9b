// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pebblecode/agbridge/internal/util"
)

func newTestStateBox(t *testing.T) *util.StateBox {
	t.Helper()
	t.Setenv("AGBRIDGE_STATE_DIR", filepath.Join(t.TempDir(), "agbridge"))
	t.Setenv("AGBRIDGE_READONLY", "")
	sb, err := util.NewStateBox()
	require.NoError(t, err)
	return sb
}

func TestNewStoreSeedsDefaults(t *testing.T) {
	sb := newTestStateBox(t)
	store, err := NewStore(sb)
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.True(t, snap.Enabled)
	assert.Equal(t, 8317, snap.Port)
	assert.False(t, snap.AllowLANAccess)
}

func TestSaveThenReloadRoundTrips(t *testing.T) {
	sb := newTestStateBox(t)
	store, err := NewStore(sb)
	require.NoError(t, err)

	cfg := store.Snapshot()
	cfg.Port = 9999
	cfg.AnthropicMapping = map[string]string{"claude-3-5-sonnet": "gemini-2.5-pro"}
	require.NoError(t, store.Save(&cfg))

	reopened, err := NewStore(sb)
	require.NoError(t, err)
	snap := reopened.Snapshot()
	assert.Equal(t, 9999, snap.Port)
	assert.Equal(t, "gemini-2.5-pro", snap.AnthropicMapping["claude-3-5-sonnet"])
}

func TestAPIKeyHashedOnSaveAndMatches(t *testing.T) {
	sb := newTestStateBox(t)
	store, err := NewStore(sb)
	require.NoError(t, err)

	hash, err := HashAPIKey("sk-local-test")
	require.NoError(t, err)
	cfg := store.Snapshot()
	cfg.APIKeyHash = hash
	require.NoError(t, store.Save(&cfg))

	reopened, err := NewStore(sb)
	require.NoError(t, err)
	snap := reopened.Snapshot()
	assert.True(t, snap.MatchesAPIKey("sk-local-test"))
	assert.False(t, snap.MatchesAPIKey("wrong"))
}

func TestMatchesAPIKeyAdvisoryWhenUnset(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.MatchesAPIKey("anything"))
	assert.True(t, cfg.MatchesAPIKey(""))
}
