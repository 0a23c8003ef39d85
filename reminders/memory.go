package reminders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrUnknownLoan is returned by MemoryStore for an ID it never stored.
var ErrUnknownLoan = errors.New("reminders: unknown loan")

type memoryLoan struct {
	loan     Loan
	returned bool
	notified bool
}

// MemoryStore is an in-process Store for tests and the memory backend.
type MemoryStore struct {
	mu    sync.Mutex
	loans map[string]*memoryLoan
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{loans: make(map[string]*memoryLoan)}
}

// Add records an open loan.
func (s *MemoryStore) Add(loan Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans[loan.ID] = &memoryLoan{loan: loan}
}

// Return marks a loan as returned so it is never reminded.
func (s *MemoryStore) Return(loanID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[loanID]
	if !ok {
		return ErrUnknownLoan
	}
	l.returned = true
	return nil
}

// Notified reports the notified flag of a loan.
func (s *MemoryStore) Notified(loanID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[loanID]
	return ok && l.notified
}

func (s *MemoryStore) ListOverdue(_ context.Context, cutoff time.Time) ([]Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Loan
	for _, l := range s.loans {
		if !l.returned && !l.notified && l.loan.DueDate.Before(cutoff) {
			out = append(out, l.loan)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) MarkNotified(_ context.Context, loanID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[loanID]
	if !ok {
		return false, ErrUnknownLoan
	}
	if l.notified {
		return false, nil
	}
	l.notified = true
	return true, nil
}

func (s *MemoryStore) ClearNotified(_ context.Context, loanID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[loanID]
	if !ok {
		return ErrUnknownLoan
	}
	l.notified = false
	return nil
}
