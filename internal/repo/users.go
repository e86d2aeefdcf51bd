// User directory persistence. The whole directory lives under the single
// "users" key as a JSON object mapping the lower-cased email to the User
// record, so lookups and targeted updates are O(1) instead of a scan over a
// flat list. Every mutation is still a read-modify-write of the blob; the
// directory serializes those cycles with a mutex so two in-flight mutations
// cannot drop each other's updates.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dpoulios/go-chat-companion/internal/domain"
	"github.com/dpoulios/go-chat-companion/internal/kvstore"
)

// UserDirectory stores registered accounts in the key-value namespace.
// It is safe for concurrent use.
type UserDirectory struct {
	store kvstore.Store
	mu    sync.Mutex
}

// NewUserDirectory returns a directory backed by store.
func NewUserDirectory(store kvstore.Store) *UserDirectory {
	return &UserDirectory{store: store}
}

// load reads and decodes the directory blob. A missing key yields an empty
// directory, which is the state of a fresh install.
func (d *UserDirectory) load(ctx context.Context) (map[string]domain.User, error) {
	raw, err := d.store.Get(ctx, domain.UsersKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return map[string]domain.User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user directory: %w", err)
	}
	users := map[string]domain.User{}
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("decode user directory: %w", err)
	}
	return users, nil
}

// save encodes and writes the directory blob back in full.
func (d *UserDirectory) save(ctx context.Context, users map[string]domain.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode user directory: %w", err)
	}
	if err := d.store.Set(ctx, domain.UsersKey, string(raw)); err != nil {
		return fmt.Errorf("save user directory: %w", err)
	}
	return nil
}

// Register appends a new account to the directory. The candidate's email is
// normalized to lower case before it becomes the directory key, and the
// conversation list is reset to empty. Returns ErrDuplicateEmail when an
// account with the same email (case-insensitively) already exists.
func (d *UserDirectory) Register(ctx context.Context, u domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.load(ctx)
	if err != nil {
		return err
	}
	key := domain.NormalizeEmail(u.Email)
	if _, exists := users[key]; exists {
		return ErrDuplicateEmail
	}
	u.Email = key
	u.Conversations = []string{}
	users[key] = u
	return d.save(ctx, users)
}

// Get returns the account registered under email, or ErrNotFound.
func (d *UserDirectory) Get(ctx context.Context, email string) (*domain.User, error) {
	users, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	u, ok := users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// AddConversationID appends id to the account's conversation list. An
// unknown email is a silent no-op, mirroring the membership semantics the
// conversation store relies on.
func (d *UserDirectory) AddConversationID(ctx context.Context, email, id string) error {
	return d.mutate(ctx, email, func(u *domain.User) {
		u.Conversations = append(u.Conversations, id)
	})
}

// RemoveConversationID drops id from the account's conversation list.
// Unknown emails and absent ids are silent no-ops.
func (d *UserDirectory) RemoveConversationID(ctx context.Context, email, id string) error {
	return d.mutate(ctx, email, func(u *domain.User) {
		kept := u.Conversations[:0]
		for _, cid := range u.Conversations {
			if cid != id {
				kept = append(kept, cid)
			}
		}
		u.Conversations = kept
	})
}

// mutate applies fn to the record registered under email and persists the
// directory. The cycle runs under the directory mutex.
func (d *UserDirectory) mutate(ctx context.Context, email string, fn func(*domain.User)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.load(ctx)
	if err != nil {
		return err
	}
	key := domain.NormalizeEmail(email)
	u, ok := users[key]
	if !ok {
		return nil
	}
	fn(&u)
	users[key] = u
	return d.save(ctx, users)
}
