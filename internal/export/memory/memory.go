package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

// Store is an in-memory ledger mirror for tests and local development.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New() *Store {
	return &Store{}
}

// Append stores the transactions and returns a synthetic range reference.
func (s *Store) Append(_ context.Context, ts []core.Transaction) (string, error) {
	for _, t := range ts {
		if err := t.Validate(); err != nil {
			return "", fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	first := len(s.items) + 1
	s.items = append(s.items, ts...)
	return fmt.Sprintf("mem:%d-%d", first, len(s.items)), nil
}

// Items returns a copy of everything appended so far.
func (s *Store) Items() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}
