package memory

import (
	"context"
	"fmt"
	"sync"

	"spesebot/internal/core"
)

// Store keeps expenses in process memory. It is meant for local runs and tests.
type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

func New(seed ...core.Expense) *Store {
	return &Store{items: append([]core.Expense(nil), seed...)}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// ReadAll returns a copy of the stored expenses. Nothing is ever rejected,
// since Append validates on the way in.
func (s *Store) ReadAll(_ context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Ledger{Records: append([]core.Expense(nil), s.items...)}, nil
}

// Len returns the number of stored expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
