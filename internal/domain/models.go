// Package domain defines the persistence records for users, conversations,
// and messages. These types serialize to JSON and are stored as string
// values in the device-style key-value namespace; they form the core data
// layer of the chat-companion application.
package domain

import (
	"fmt"
	"strings"
)

// Role identifies the author of a message within a conversation.
type Role string

const (
	// RoleUser marks a message typed by the account owner.
	RoleUser Role = "user"
	// RoleAssistant marks a reply produced by the remote assistant.
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAssistant }

// Message is a single role-tagged utterance within a conversation.
// Messages are append-only; they are never edited or removed individually.
type Message struct {
	Role    Role   `json:"role"`
	Message string `json:"message"`
}

// Conversation is an ordered, append-only log of messages owned by exactly
// one user. The record is stored under the composite key
// "conversation-{email}-{id}".
//
// Fields:
//   - ID: collision-resistant identifier (UUID string).
//   - Title: optional human-readable name; empty means "untitled" and makes
//     the conversation eligible for auto-titling on the first exchange.
//   - Messages: the full message log, oldest first. The JSON field keeps the
//     historical name "conversation".
type Conversation struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Messages []Message `json:"conversation"`
}

// User is a registered account. The directory record is keyed by the
// lower-cased email, which is the join key between the user, session, and
// conversation namespaces.
//
// PasswordHash holds a bcrypt digest; the plaintext password is never
// persisted.
type User struct {
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	PasswordHash  string   `json:"password_hash"`
	DOB           string   `json:"dob,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	ProfileImage  string   `json:"profile_image,omitempty"`
	Conversations []string `json:"conversations"`
}

// NormalizeEmail lower-cases and trims an email address. Normalization
// happens once, at the registration and lookup boundaries, so stored records
// and composite keys never diverge by case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Key namespace of the durable store.
const (
	// UsersKey holds the user directory: a JSON object mapping the
	// lower-cased email to the User record.
	UsersKey = "users"
	// SessionKey holds the email of the currently signed-in account.
	SessionKey = "currentUser"
)

// ConversationKey returns the composite storage key for one conversation.
func ConversationKey(email, id string) string {
	return fmt.Sprintf("conversation-%s-%s", NormalizeEmail(email), id)
}
