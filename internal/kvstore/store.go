// Package kvstore wraps the durable key-value primitive behind which all
// application state lives. Keys and values are plain strings; values carry
// JSON documents owned by the repo layer.
//
// Two implementations are provided: a SQLite-backed store for real
// deployments and an in-memory store for tests and ephemeral runs.
package kvstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get and Delete when the key has no value.
var ErrKeyNotFound = errors.New("key not found")

// Store is the durable key-value contract used by every repository.
//
// Implementations must be safe for concurrent use and must honor the
// provided context for cancellation.
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key returns ErrKeyNotFound.
	Delete(ctx context.Context, key string) error
}
