// Package memory is an IdentityStore that lives only for the process.
package memory

import (
	"context"
	"sync"

	"github.com/vovakirdan/roomchat/internal/store"
)

// Store keeps the identity in memory.
type Store struct {
	mu sync.Mutex
	id *store.Identity
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

func (s *Store) LoadIdentity(ctx context.Context) (*store.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == nil {
		return nil, store.ErrNotFound
	}
	cp := *s.id
	return &cp, nil
}

func (s *Store) SaveIdentity(ctx context.Context, id *store.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *id
	s.id = &cp
	return nil
}

func (s *Store) Close() error {
	return nil
}
