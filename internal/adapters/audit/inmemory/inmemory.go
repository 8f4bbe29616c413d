// Package inmemory implements ports.DecisionStore as an append-only,
// in-process slice with most-recent-first reads. It backs tests and
// `saqshy run-local`; a real deployment points the audit trail at a
// persistent store instead.
package inmemory

import (
	"context"
	"sync"

	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/types"
)

// Store holds decisions in arrival order. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	decisions []types.Decision
}

// New builds an empty Store.
func New() *Store {
	return &Store{}
}

// Append adds d. Records are never mutated or removed after this.
func (s *Store) Append(_ context.Context, d types.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, d)
	return nil
}

// ByGroup returns up to limit decisions in a chat, newest first.
// limit <= 0 means no limit.
func (s *Store) ByGroup(_ context.Context, chatID int64, limit int) ([]types.Decision, error) {
	return s.filter(limit, func(d types.Decision) bool {
		return d.ChatID == chatID
	})
}

// ByUser returns up to limit decisions for a user in a chat, newest first.
func (s *Store) ByUser(_ context.Context, chatID, userID int64, limit int) ([]types.Decision, error) {
	return s.filter(limit, func(d types.Decision) bool {
		return d.ChatID == chatID && d.UserID == userID
	})
}

// ByVerdict returns up to limit decisions in a chat matching verdict,
// newest first.
func (s *Store) ByVerdict(_ context.Context, chatID int64, verdict types.Verdict, limit int) ([]types.Decision, error) {
	return s.filter(limit, func(d types.Decision) bool {
		return d.ChatID == chatID && d.Risk.Verdict == verdict
	})
}

// All returns every stored decision in arrival order, for run-local
// inspection and test assertions.
func (s *Store) All() []types.Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Decision, len(s.decisions))
	copy(out, s.decisions)
	return out
}

// Len reports how many decisions have been recorded.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decisions)
}

func (s *Store) filter(limit int, match func(types.Decision) bool) ([]types.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Decision
	for i := len(s.decisions) - 1; i >= 0; i-- {
		if !match(s.decisions[i]) {
			continue
		}
		out = append(out, s.decisions[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

var _ ports.DecisionStore = (*Store)(nil)
