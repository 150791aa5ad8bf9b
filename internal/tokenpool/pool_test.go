// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tokenpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pebblecode/agbridge/internal/store"
	"github.com/pebblecode/agbridge/internal/util"
)

func newTestPool(t *testing.T, numAccounts int) *Pool {
	t.Helper()
	t.Setenv("AGBRIDGE_STATE_DIR", t.TempDir())
	t.Setenv("AGBRIDGE_READONLY", "0")
	sb, err := util.NewStateBox()
	require.NoError(t, err)
	st := store.New(sb)

	farFuture := time.Now().Add(24 * time.Hour).Unix()
	for i := 0; i < numAccounts; i++ {
		id := string(rune('a' + i))
		require.NoError(t, st.UpsertAccount(&store.Account{
			ID:    "acct-" + id,
			Email: id + "@example.com",
			Token: store.Token{
				AccessToken:     "tok-" + id,
				RefreshToken:    "refresh-" + id,
				ExpiryTimestamp: farFuture,
				ProjectID:       "proj-" + id,
			},
		}))
	}

	p := New(st, nil)
	require.NoError(t, p.Reload())
	return p
}

func TestGetToken_StickyWithinWindow(t *testing.T) {
	p := newTestPool(t, 3)
	ctx := context.Background()

	first, err := p.GetToken(ctx, "claude", false)
	require.NoError(t, err)

	second, err := p.GetToken(ctx, "claude", false)
	require.NoError(t, err)

	assert.Equal(t, first.Email, second.Email, "calls within the 60s window must stick to the same account")
}

func TestGetToken_ForceRotateBypassesStickiness(t *testing.T) {
	p := newTestPool(t, 3)
	ctx := context.Background()

	first, err := p.GetToken(ctx, "claude", false)
	require.NoError(t, err)

	seenDifferent := false
	for i := 0; i < 10; i++ {
		next, err := p.GetToken(ctx, "claude", true)
		require.NoError(t, err)
		if next.Email != first.Email {
			seenDifferent = true
			break
		}
	}
	assert.True(t, seenDifferent, "force_rotate must eventually pick a different account with pool size >= 2")
}

func TestGetToken_ImageGenNotSticky(t *testing.T) {
	p := newTestPool(t, 3)
	ctx := context.Background()

	emails := map[string]struct{}{}
	for i := 0; i < 10; i++ {
		cred, err := p.GetToken(ctx, "image_gen", false)
		require.NoError(t, err)
		emails[cred.Email] = struct{}{}
	}
	assert.Greater(t, len(emails), 1, "image_gen round-robins rather than sticking to one account")
}

func TestGetToken_EmptyPool(t *testing.T) {
	p := newTestPool(t, 0)
	_, err := p.GetToken(context.Background(), "claude", false)
	assert.ErrorIs(t, err, ErrPoolExhausted)
}
