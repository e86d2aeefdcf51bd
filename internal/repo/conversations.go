// Conversation persistence. One record per conversation, stored under the
// composite key "conversation-{email}-{id}" so each user's logs live in
// their own slice of the namespace. Identifiers are UUIDs rather than
// creation timestamps, which removes the collision window two rapid
// "new conversation" taps used to share.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dpoulios/go-chat-companion/internal/domain"
	"github.com/dpoulios/go-chat-companion/internal/kvstore"
)

// ConversationRepo stores per-user conversation records and keeps the
// owner's membership list in the user directory consistent with them.
type ConversationRepo struct {
	store kvstore.Store
	dir   *UserDirectory
}

// NewConversationRepo returns a repo backed by store, using dir for
// membership bookkeeping.
func NewConversationRepo(store kvstore.Store, dir *UserDirectory) *ConversationRepo {
	return &ConversationRepo{store: store, dir: dir}
}

// Create stores an empty conversation for email and registers its id with
// the owner's directory record. It returns the new identifier.
func (r *ConversationRepo) Create(ctx context.Context, email, title string) (*domain.Conversation, error) {
	c := &domain.Conversation{
		ID:       uuid.NewString(),
		Title:    title,
		Messages: []domain.Message{},
	}
	if err := r.put(ctx, email, c); err != nil {
		return nil, err
	}
	if err := r.dir.AddConversationID(ctx, email, c.ID); err != nil {
		return nil, fmt.Errorf("register conversation %s: %w", c.ID, err)
	}
	return c, nil
}

// Get returns the stored conversation, or ErrNotFound if absent.
func (r *ConversationRepo) Get(ctx context.Context, email, id string) (*domain.Conversation, error) {
	raw, err := r.store.Get(ctx, domain.ConversationKey(email, id))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", id, err)
	}
	var c domain.Conversation
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return &c, nil
}

// Append loads the conversation, appends msgs in order, and persists the
// updated record. Deliberately not idempotent: the same pair appended twice
// yields four messages.
func (r *ConversationRepo) Append(ctx context.Context, email, id string, msgs ...domain.Message) (*domain.Conversation, error) {
	c, err := r.Get(ctx, email, id)
	if err != nil {
		return nil, err
	}
	c.Messages = append(c.Messages, msgs...)
	if err := r.put(ctx, email, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename sets the conversation title and persists the record.
func (r *ConversationRepo) Rename(ctx context.Context, email, id, title string) error {
	c, err := r.Get(ctx, email, id)
	if err != nil {
		return err
	}
	c.Title = title
	return r.put(ctx, email, c)
}

// Delete removes the conversation record and withdraws its id from the
// owner's membership list. Deleting an absent conversation returns
// ErrNotFound.
func (r *ConversationRepo) Delete(ctx context.Context, email, id string) error {
	err := r.store.Delete(ctx, domain.ConversationKey(email, id))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	return r.dir.RemoveConversationID(ctx, email, id)
}

// put encodes and writes the conversation under its composite key.
func (r *ConversationRepo) put(ctx context.Context, email string, c *domain.Conversation) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode conversation %s: %w", c.ID, err)
	}
	if err := r.store.Set(ctx, domain.ConversationKey(email, c.ID), string(raw)); err != nil {
		return fmt.Errorf("save conversation %s: %w", c.ID, err)
	}
	return nil
}
