// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pebblecode/agbridge/internal/util"
)

const indexFileName = "accounts.json"

// Store manages the accounts.json index and the per-account JSON files under
// it. A single process-wide lock serializes every index mutation so
// concurrent adds/deletes/current-account updates can't race each other.
type Store struct {
	sb  *util.StateBox
	mu  sync.Mutex
}

// New constructs a Store rooted at sb's accounts directory.
func New(sb *util.StateBox) *Store {
	return &Store{sb: sb}
}

func (s *Store) indexPath() string {
	return filepath.Join(s.sb.RootPath(), indexFileName)
}

func (s *Store) accountPath(id string) string {
	return filepath.Join(s.sb.AccountsDir(), id+".json")
}

// loadIndexLocked reads accounts.json, treating a missing file as an empty index.
func (s *Store) loadIndexLocked() (*Index, error) {
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return &Index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse accounts index: %w", err)
	}
	return &idx, nil
}

func (s *Store) saveIndexLocked(idx *Index) error {
	if err := s.sb.EnsureDir(s.sb.RootPath()); err != nil {
		return err
	}
	return util.SecureWriteJSON(s.sb, s.indexPath(), idx, nil)
}

// LoadAccount reads a single account's full record from disk.
func (s *Store) LoadAccount(id string) (*Account, error) {
	data, err := os.ReadFile(s.accountPath(id))
	if err != nil {
		return nil, fmt.Errorf("read account %s: %w", id, err)
	}
	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("parse account %s: %w", id, err)
	}
	return &acct, nil
}

// SaveAccount writes a single account's full record atomically.
func (s *Store) SaveAccount(acct *Account) error {
	if err := s.sb.EnsureDir(s.sb.AccountsDir()); err != nil {
		return err
	}
	return util.SecureWriteJSON(s.sb, s.accountPath(acct.ID), acct, nil)
}

// ListAccounts returns every account summary in the index, self-healing: any
// summary whose per-account file is missing is pruned, and a pruned
// current-account-id is replaced by the first survivor. The repaired index
// is persisted if it changed.
func (s *Store) ListAccounts() (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndexLocked()
	if err != nil {
		return nil, err
	}

	survivors := idx.Accounts[:0]
	changed := false
	for _, summary := range idx.Accounts {
		if _, err := os.Stat(s.accountPath(summary.ID)); err != nil {
			log.Warnf("account store: pruning index entry %s, file missing", summary.ID)
			changed = true
			continue
		}
		survivors = append(survivors, summary)
	}
	idx.Accounts = survivors

	if idx.CurrentAccountID != "" {
		found := false
		for _, summary := range idx.Accounts {
			if summary.ID == idx.CurrentAccountID {
				found = true
				break
			}
		}
		if !found {
			changed = true
			if len(idx.Accounts) > 0 {
				idx.CurrentAccountID = idx.Accounts[0].ID
			} else {
				idx.CurrentAccountID = ""
			}
		}
	}

	if changed {
		if err := s.saveIndexLocked(idx); err != nil {
			log.Warnf("account store: failed to persist repaired index: %v", err)
		}
	}

	return idx, nil
}

// UpsertAccount adds acct if its email is new, or overwrites the existing
// account with the same email (preserving its original ID). If the index
// references an ID whose file went missing, the file is recreated rather
// than silently orphaned.
func (s *Store) UpsertAccount(acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndexLocked()
	if err != nil {
		return err
	}

	for i, summary := range idx.Accounts {
		if summary.Email != acct.Email {
			continue
		}
		acct.ID = summary.ID
		if acct.CreatedAt == 0 {
			acct.CreatedAt = summary.CreatedAt
		}
		if err := s.SaveAccount(acct); err != nil {
			return err
		}
		idx.Accounts[i] = Summary{
			ID: acct.ID, Email: acct.Email, Name: acct.DisplayName,
			CreatedAt: acct.CreatedAt, LastUsed: acct.LastUsed,
		}
		return s.saveIndexLocked(idx)
	}

	if acct.CreatedAt == 0 {
		acct.CreatedAt = time.Now().Unix()
	}
	if err := s.SaveAccount(acct); err != nil {
		return err
	}
	idx.Accounts = append(idx.Accounts, Summary{
		ID: acct.ID, Email: acct.Email, Name: acct.DisplayName,
		CreatedAt: acct.CreatedAt, LastUsed: acct.LastUsed,
	})
	if idx.CurrentAccountID == "" {
		idx.CurrentAccountID = acct.ID
	}
	return s.saveIndexLocked(idx)
}

// DeleteAccount removes one account's file and its index entry.
func (s *Store) DeleteAccount(id string) error {
	return s.DeleteAccounts([]string{id})
}

// DeleteAccounts removes a batch of accounts' files and index entries in a
// single index rewrite.
func (s *Store) DeleteAccounts(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	toDelete := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		toDelete[id] = struct{}{}
	}

	idx, err := s.loadIndexLocked()
	if err != nil {
		return err
	}

	survivors := idx.Accounts[:0]
	for _, summary := range idx.Accounts {
		if _, deleted := toDelete[summary.ID]; deleted {
			if err := os.Remove(s.accountPath(summary.ID)); err != nil && !os.IsNotExist(err) {
				log.Warnf("account store: failed to remove %s: %v", summary.ID, err)
			}
			continue
		}
		survivors = append(survivors, summary)
	}
	idx.Accounts = survivors

	if _, wasCurrent := toDelete[idx.CurrentAccountID]; wasCurrent {
		if len(idx.Accounts) > 0 {
			idx.CurrentAccountID = idx.Accounts[0].ID
		} else {
			idx.CurrentAccountID = ""
		}
	}

	return s.saveIndexLocked(idx)
}

// DisableAccount marks an account as permanently disabled (on invalid_grant)
// without removing it from disk, per the account lifecycle invariant.
func (s *Store) DisableAccount(id, reason string) error {
	acct, err := s.LoadAccount(id)
	if err != nil {
		return err
	}
	acct.Disabled = true
	acct.DisabledAt = time.Now().Unix()
	acct.DisabledReason = reason
	return s.SaveAccount(acct)
}
