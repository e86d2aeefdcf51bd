// Package repo implements the data persistence layer for the chat-companion
// domain on top of the durable key-value store. It owns the JSON encoding of
// each record and the composite-key namespace; no business logic lives here.
//
// Error semantics:
//   - When a user or conversation is missing, functions return ErrNotFound.
//   - ErrDuplicateEmail signals a registration conflict in the directory.
//   - On store errors (I/O, serialization), the wrapped error is propagated.
package repo

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned by Register when the directory already
	// holds an account whose email matches case-insensitively.
	ErrDuplicateEmail = errors.New("email already registered")
)
