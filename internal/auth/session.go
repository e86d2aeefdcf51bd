package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dpoulios/go-chat-companion/internal/domain"
	"github.com/dpoulios/go-chat-companion/internal/kvstore"
)

// ErrNoSession is returned by Restore and Current when nobody is signed in.
var ErrNoSession = errors.New("no active session")

// Directory is the slice of the user directory the session needs: resolving
// an email back to the full account record during Restore.
type Directory interface {
	Get(ctx context.Context, email string) (*domain.User, error)
}

// Session tracks the currently signed-in account. The durable marker (the
// "currentUser" key) survives process restarts; the in-memory snapshot
// drives auth gating and is guarded by an RWMutex.
//
// Exactly one session is active at a time; Login replaces any previous one.
type Session struct {
	store kvstore.Store
	dir   Directory

	mu      sync.RWMutex
	current *domain.User
}

// NewSession returns a session bound to the durable store and directory.
func NewSession(store kvstore.Store, dir Directory) *Session {
	return &Session{store: store, dir: dir}
}

// Login records u as the signed-in account and persists its email as the
// durable session marker.
func (s *Session) Login(ctx context.Context, u *domain.User) error {
	if err := s.store.Set(ctx, domain.SessionKey, domain.NormalizeEmail(u.Email)); err != nil {
		return fmt.Errorf("persist session marker: %w", err)
	}
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
	return nil
}

// Restore rehydrates the session from the durable marker on process start.
// The marker stores only the email, so the full record is re-fetched from
// the directory; if the account has vanished, a minimal snapshot carrying
// just the email is kept so the session still counts as signed in.
// Returns ErrNoSession when no marker exists.
func (s *Session) Restore(ctx context.Context) (*domain.User, error) {
	email, err := s.store.Get(ctx, domain.SessionKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session marker: %w", err)
	}

	u, err := s.dir.Get(ctx, email)
	if err != nil {
		u = &domain.User{Email: domain.NormalizeEmail(email)}
	}

	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
	return u, nil
}

// Logout clears the durable marker and the in-memory state. Logging out
// with no active session is a no-op.
func (s *Session) Logout(ctx context.Context) error {
	err := s.store.Delete(ctx, domain.SessionKey)
	if err != nil && !errors.Is(err, kvstore.ErrKeyNotFound) {
		return fmt.Errorf("clear session marker: %w", err)
	}
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return nil
}

// Current returns the signed-in account snapshot, or ErrNoSession.
func (s *Session) Current() (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSession
	}
	return s.current, nil
}

// LoggedIn reports whether an account is currently signed in.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}
