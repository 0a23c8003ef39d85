// Package memory provides an in-process account store for tests, local
// development, and single-instance deployments that can lose state on restart.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/MrEthical07/goAccount/internal/model"
)

// Store is a goAccount.AccountStore backed by a map. It is safe for
// concurrent use and never shares Account pointers with callers.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*model.Account
}

func New() *Store {
	return &Store{accounts: make(map[string]*model.Account)}
}

func (s *Store) FindVerifiedByEmail(_ context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Verified && a.Email == email {
			return a.Clone(), nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) ListUnverifiedByEmail(_ context.Context, email string) ([]*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Account
	for _, a := range s.accounts {
		if !a.Verified && a.Email == email {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CountUnverifiedByEmail(_ context.Context, email string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.accounts {
		if !a.Verified && a.Email == email {
			n++
		}
	}
	return n, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *Store) FindByResetTokenHash(_ context.Context, hash string, now time.Time) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.ResetTokenValid(hash, now) {
			return a.Clone(), nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) Insert(_ context.Context, account *model.Account) error {
	if account == nil || account.ID == "" {
		return errors.New("memory: account id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return errors.New("memory: account id already exists")
	}
	if account.Verified && s.verifiedOtherLocked(account) {
		return model.ErrDuplicate
	}
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *Store) Update(_ context.Context, account *model.Account) error {
	if account == nil {
		return errors.New("memory: nil account")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; !ok {
		return model.ErrNotFound
	}
	if account.Verified && s.verifiedOtherLocked(account) {
		return model.ErrDuplicate
	}
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *Store) DeleteUnverifiedExcept(_ context.Context, email, keepID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, a := range s.accounts {
		if !a.Verified && a.Email == email && id != keepID {
			delete(s.accounts, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored rows, verified or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func (s *Store) verifiedOtherLocked(account *model.Account) bool {
	for id, a := range s.accounts {
		if id != account.ID && a.Verified && a.Email == account.Email {
			return true
		}
	}
	return false
}
