// Package store persists the local session identity so a restarted client
// keeps the same user id.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no identity has been saved yet.
var ErrNotFound = errors.New("not found")

// Identity is the per-installation session identity.
type Identity struct {
	UserID    string
	CreatedAt time.Time
}

// IdentityStore loads and saves the single local identity.
type IdentityStore interface {
	LoadIdentity(ctx context.Context) (*Identity, error)
	SaveIdentity(ctx context.Context, id *Identity) error
	Close() error
}

// LoadOrCreate returns the stored identity, creating and saving one with
// newID when none exists.
func LoadOrCreate(ctx context.Context, s IdentityStore, newID func() string) (*Identity, bool, error) {
	id, err := s.LoadIdentity(ctx)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	id = &Identity{UserID: newID(), CreatedAt: time.Now().UTC()}
	if err := s.SaveIdentity(ctx, id); err != nil {
		return nil, false, err
	}
	return id, true, nil
}
