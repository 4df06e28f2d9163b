package storage

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound indicates the key has never been written.
	ErrKeyNotFound = errors.New("storage: key not found")
	// ErrNotConfigured indicates the backend was not initialised.
	ErrNotConfigured = errors.New("storage: backend not configured")
)

// Backend is a durable key to string mapping. Values are JSON-encoded record
// sequences written whole on every mutation.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}
