// Package storage provides the durable key-value state consumed by the
// attribution coordinator. State must survive process restarts and is scoped
// per app installation.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetData when no value exists for a key.
var ErrNotFound = errors.New("storage: key not found")

// Store is the persistence capability the SDK depends on.
// Implementations serialize their own reads and writes.
type Store interface {
	// GetBool returns the boolean for key, false if unset.
	GetBool(ctx context.Context, key string) (bool, error)
	// SetBool stores a boolean under key.
	SetBool(ctx context.Context, key string, value bool) error
	// GetData returns the raw bytes for key, ErrNotFound if unset.
	GetData(ctx context.Context, key string) ([]byte, error)
	// SetData stores raw bytes under key.
	SetData(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
