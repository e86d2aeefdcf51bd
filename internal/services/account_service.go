// Package services – AccountService
//
// This file implements AccountService, which owns registration and
// credential checking. Input bounds follow the sign-up form rules the mobile
// client enforced (name 2–25 characters, syntactic email, password 8–20
// characters); the service re-validates them because the HTTP surface is not
// the only caller. Passwords are hashed with bcrypt before they reach the
// directory.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dpoulios/go-chat-companion/internal/auth"
	"github.com/dpoulios/go-chat-companion/internal/domain"
	"github.com/dpoulios/go-chat-companion/internal/repo"
)

// UserDirectory is the directory contract required by AccountService.
type UserDirectory interface {
	Register(ctx context.Context, u domain.User) error
	Get(ctx context.Context, email string) (*domain.User, error)
}

// AccountService registers accounts and verifies credentials.
type AccountService struct {
	Dir UserDirectory
}

// NewAccountService constructs an AccountService over the given directory.
func NewAccountService(dir UserDirectory) *AccountService {
	return &AccountService{Dir: dir}
}

// RegisterInput carries the sign-up form fields.
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	DOB          string
	Phone        string
	ProfileImage string
}

// emailRE accepts the usual local@domain.tld shape. Deliberately loose;
// deliverability is not checked here.
var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Register validates the candidate, hashes the password, and appends the
// account to the directory with an empty conversation list. Fails with
// ErrDuplicateEmail when the email is already taken, case-insensitively.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < 2 || n > 25 {
		return nil, ErrInvalidUsername
	}
	email := domain.NormalizeEmail(in.Email)
	if !emailRE.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if n := len(in.Password); n < 8 || n > 20 {
		return nil, ErrWeakPassword
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DOB:          strings.TrimSpace(in.DOB),
		Phone:        strings.TrimSpace(in.Phone),
		ProfileImage: strings.TrimSpace(in.ProfileImage),
	}
	if err := s.Dir.Register(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	// Re-read so the caller sees what the directory stored.
	return s.Dir.Get(ctx, email)
}

// Authenticate matches email case-insensitively and compares the password
// against the stored bcrypt digest. A missing account and a wrong password
// both yield ErrInvalidCredentials so the response does not leak which one
// it was.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.Dir.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Profile returns the stored account for email, or ErrUserNotFound.
func (s *AccountService) Profile(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.Dir.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
