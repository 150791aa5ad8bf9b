// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store persists Antigravity accounts as per-account JSON files plus
// an index, the way the desktop tool this proxy borrows its credential pool
// from does.
package store

// Token is the OAuth material and derived routing state for one account.
type Token struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	ExpiresIn       int64  `json:"expires_in"`
	ExpiryTimestamp int64  `json:"expiry_timestamp"`
	Email           string `json:"email,omitempty"`
	ProjectID       string `json:"project_id,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
}

// Account is the full persisted record for one pooled credential.
type Account struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	DisplayName     string `json:"display_name,omitempty"`
	Token           Token  `json:"token"`
	SubscriptionTier string `json:"subscription_tier,omitempty"`
	CreatedAt       int64  `json:"created_at"`
	LastUsed        int64  `json:"last_used"`
	Disabled        bool   `json:"disabled,omitempty"`
	DisabledAt      int64  `json:"disabled_at,omitempty"`
	DisabledReason  string `json:"disabled_reason,omitempty"`
	Forbidden       bool   `json:"forbidden,omitempty"`
}

// Summary mirrors the fields of Account needed for O(1) listing in the index.
type Summary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	CreatedAt int64  `json:"created_at"`
	LastUsed  int64  `json:"last_used"`
}

// Index is the top-level accounts.json document.
type Index struct {
	Accounts         []Summary `json:"accounts"`
	CurrentAccountID string    `json:"current_account_id,omitempty"`
}
