// Package services defines the business logic for accounts, sessions, and
// conversations. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; handlers
// translate them into user-facing messages and HTTP status codes.
package services

import "errors"

// Account-related errors.
var (
	// ErrDuplicateEmail indicates a registration attempt with an email that
	// is already taken (compared case-insensitively).
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned when the email/password pair does
	// not match a registered account.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotFound indicates that the requested account does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidUsername is returned when the display name is outside the
	// 2–25 character bounds.
	ErrInvalidUsername = errors.New("username must be 2-25 characters")

	// ErrInvalidEmail is returned when the email address is syntactically
	// invalid.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrWeakPassword is returned when the password is outside the 8–20
	// character bounds.
	ErrWeakPassword = errors.New("password must be 8-20 characters")
)

// Conversation-related errors.
var (
	// ErrConversationNotFound indicates that the requested conversation does
	// not exist or is not owned by the current user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyMessage is returned when a send request contains an empty
	// prompt.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a prompt exceeds the configured
	// rune limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrAssistantUnavailable wraps a failed remote assistant call. The
	// user's prompt is not persisted when the reply never arrived.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)
