// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tokenpool hands out access tokens from a rotating, refresh-aware
// pool of Antigravity accounts, keeping multi-turn sessions pinned to the
// same account for a short window.
package tokenpool

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pebblecode/agbridge/internal/auth"
	"github.com/pebblecode/agbridge/internal/store"
)

// ErrPoolExhausted is returned when every candidate account failed in a
// single get_token call.
var ErrPoolExhausted = errors.New("tokenpool: no usable account")

const stickyWindow = 60 * time.Second
const refreshSkew = 300 * time.Second

var tierRank = map[string]int{"ULTRA": 0, "PRO": 1, "FREE": 2}

func rankOf(tier string) int {
	if r, ok := tierRank[tier]; ok {
		return r
	}
	return 3
}

// entry is the pool's in-memory snapshot of one account's credentials.
type entry struct {
	accountID string
	email     string
	tier      string

	mu              sync.Mutex
	accessToken     string
	refreshToken    string
	projectID       string
	expiryTimestamp int64
}

// Pool maintains the live token snapshot and hands out credentials per
// get_token(requestType, forceRotate) call.
type Pool struct {
	store      *store.Store
	httpClient *http.Client

	mu      sync.RWMutex
	entries []*entry

	counter uint64

	stickyMu        sync.Mutex
	stickyAccountID string
	stickyAt        time.Time
}

// New constructs an empty Pool; call Reload to populate it from disk.
func New(st *store.Store, httpClient *http.Client) *Pool {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Pool{store: st, httpClient: httpClient}
}

// Reload clears the pool and the sticky lock, then rebuilds the snapshot
// from every non-disabled account on disk.
func (p *Pool) Reload() error {
	idx, err := p.store.ListAccounts()
	if err != nil {
		return fmt.Errorf("tokenpool: reload: %w", err)
	}

	var fresh []*entry
	for _, summary := range idx.Accounts {
		acct, err := p.store.LoadAccount(summary.ID)
		if err != nil {
			log.Warnf("tokenpool: skipping unreadable account %s: %v", summary.ID, err)
			continue
		}
		if acct.Disabled {
			continue
		}
		fresh = append(fresh, &entry{
			accountID:       acct.ID,
			email:           acct.Email,
			tier:            acct.SubscriptionTier,
			accessToken:     acct.Token.AccessToken,
			refreshToken:    acct.Token.RefreshToken,
			projectID:       acct.Token.ProjectID,
			expiryTimestamp: acct.Token.ExpiryTimestamp,
		})
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return rankOf(fresh[i].tier) < rankOf(fresh[j].tier)
	})

	p.mu.Lock()
	p.entries = fresh
	p.mu.Unlock()

	p.stickyMu.Lock()
	p.stickyAccountID = ""
	p.stickyMu.Unlock()

	return nil
}

// Credential is the tuple handed back to a request's dispatcher.
type Credential struct {
	AccessToken string
	ProjectID   string
	Email       string
	AccountID   string
}

// GetToken selects a candidate account, proactively refreshes its access
// token if near expiry, lazily resolves its project id, and returns the
// tuple the caller dispatches with. requestType "image_gen" and
// forceRotate bypass session stickiness.
func (p *Pool) GetToken(ctx context.Context, requestType string, forceRotate bool) (Credential, error) {
	attempted := map[string]struct{}{}
	var lastErr error

	for {
		snapshot := p.snapshot()
		if len(snapshot) == 0 {
			return Credential{}, ErrPoolExhausted
		}

		e := p.selectCandidate(snapshot, requestType, forceRotate, attempted)
		if e == nil {
			if lastErr != nil {
				return Credential{}, fmt.Errorf("%w: last failure: %v", ErrPoolExhausted, lastErr)
			}
			return Credential{}, ErrPoolExhausted
		}
		attempted[e.accountID] = struct{}{}

		cred, ok, err := p.tryEntry(ctx, e)
		if err != nil {
			log.Warnf("tokenpool: account %s unusable, trying next: %v", e.accountID, err)
			lastErr = err
			continue
		}
		if ok {
			return cred, nil
		}
		// entry failed (disabled or transient); try the next candidate.
	}
}

// Size reports how many accounts are currently live in the pool, for
// callers that need to bound a retry budget by the number of distinct
// accounts actually available to rotate across.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

func (p *Pool) snapshot() []*entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*entry, len(p.entries))
	copy(out, p.entries)
	return out
}

func (p *Pool) selectCandidate(snapshot []*entry, requestType string, forceRotate bool, attempted map[string]struct{}) *entry {
	remaining := func() []*entry {
		var r []*entry
		for _, e := range snapshot {
			if _, done := attempted[e.accountID]; !done {
				r = append(r, e)
			}
		}
		return r
	}()
	if len(remaining) == 0 {
		return nil
	}

	if requestType == "image_gen" || forceRotate {
		idx := atomic.AddUint64(&p.counter, 1) % uint64(len(remaining))
		return remaining[idx]
	}

	p.stickyMu.Lock()
	defer p.stickyMu.Unlock()

	if p.stickyAccountID != "" && time.Since(p.stickyAt) <= stickyWindow {
		if _, done := attempted[p.stickyAccountID]; !done {
			for _, e := range remaining {
				if e.accountID == p.stickyAccountID {
					return e
				}
			}
		}
	}

	idx := atomic.AddUint64(&p.counter, 1) % uint64(len(remaining))
	chosen := remaining[idx]
	p.stickyAccountID = chosen.accountID
	p.stickyAt = time.Now()
	return chosen
}

// tryEntry refreshes/resolves a single candidate. ok=false (nil error) means
// the candidate was disqualified and the caller should pick another one.
func (p *Pool) tryEntry(ctx context.Context, e *entry) (Credential, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if time.Now().Unix() >= e.expiryTimestamp-int64(refreshSkew.Seconds()) {
		result, err := auth.RefreshAccessToken(ctx, e.refreshToken)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidGrant) {
				p.disable(e.accountID, "invalid_grant")
				return Credential{}, false, nil
			}
			return Credential{}, false, fmt.Errorf("tokenpool: refresh %s: %w", e.email, err)
		}
		e.accessToken = result.AccessToken
		e.expiryTimestamp = time.Now().Unix() + result.ExpiresIn
		p.persist(e)
	}

	if e.projectID == "" {
		projectID, err := auth.ResolveProjectID(ctx, p.httpClient, e.accessToken)
		if err != nil {
			log.Warnf("tokenpool: project resolution failed for %s: %v", e.email, err)
			projectID = fallbackProjectID()
		}
		e.projectID = projectID
		p.persist(e)
	}

	return Credential{
		AccessToken: e.accessToken,
		ProjectID:   e.projectID,
		Email:       e.email,
		AccountID:   e.accountID,
	}, true, nil
}

func (p *Pool) persist(e *entry) {
	acct, err := p.store.LoadAccount(e.accountID)
	if err != nil {
		log.Warnf("tokenpool: persist: reload %s: %v", e.accountID, err)
		return
	}
	acct.Token.AccessToken = e.accessToken
	acct.Token.ExpiryTimestamp = e.expiryTimestamp
	acct.Token.ProjectID = e.projectID
	if err := p.store.SaveAccount(acct); err != nil {
		log.Warnf("tokenpool: persist: save %s: %v", e.accountID, err)
	}
}

func (p *Pool) disable(accountID, reason string) {
	if err := p.store.DisableAccount(accountID, reason); err != nil {
		log.Warnf("tokenpool: disable %s: %v", accountID, err)
	}

	p.mu.Lock()
	filtered := p.entries[:0]
	for _, e := range p.entries {
		if e.accountID != accountID {
			filtered = append(filtered, e)
		}
	}
	p.entries = filtered
	p.mu.Unlock()

	p.stickyMu.Lock()
	if p.stickyAccountID == accountID {
		p.stickyAccountID = ""
	}
	p.stickyMu.Unlock()
}

var adjectives = []string{"swift", "quiet", "amber", "solar", "lunar", "cobalt", "violet", "copper"}
var nouns = []string{"otter", "falcon", "cedar", "basalt", "meadow", "harbor", "ember", "willow"}
var base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// fallbackProjectID synthesizes a project identifier when Google's
// loadCodeAssist response omits cloudaicompanionProject.
func fallbackProjectID() string {
	adj := adjectives[randIndex(len(adjectives))]
	noun := nouns[randIndex(len(nouns))]
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = base36[randIndex(len(base36))]
	}
	return fmt.Sprintf("%s-%s-%s", adj, noun, string(suffix))
}

func randIndex(n int) int {
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
