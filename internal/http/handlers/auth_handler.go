// Authentication HTTP handlers.
//
// This file exposes REST endpoints for the account and session lifecycle:
//   - POST /auth/register  (create account)
//   - POST /auth/login     (verify credentials, open the session)
//   - POST /auth/logout    (close the session)
//   - GET  /auth/session   (current session snapshot)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dpoulios/go-chat-companion/internal/auth"
	"github.com/dpoulios/go-chat-companion/internal/domain"
	"github.com/dpoulios/go-chat-companion/internal/services"
)

//
// Service contracts (context-aware)
//

// AccountService defines the account operations consumed by HTTP handlers.
type AccountService interface {
	// Register validates and stores a new account.
	Register(ctx context.Context, in services.RegisterInput) (*domain.User, error)
	// Authenticate returns the account matching the credential pair.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// SessionState defines the session transitions consumed by HTTP handlers.
type SessionState interface {
	Login(ctx context.Context, u *domain.User) error
	Logout(ctx context.Context) error
	Current() (*domain.User, error)
}

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Username     string `json:"username" binding:"required" example:"Maria Lamda"`
	Email        string `json:"email" binding:"required" example:"maria@example.com"`
	Password     string `json:"password" binding:"required" example:"s3cret-pass"`
	DOB          string `json:"dob" example:"1994-05-17"`
	Phone        string `json:"phone" example:"+30 694 000 0000"`
	ProfileImage string `json:"profile_image" example:"https://cdn.example.com/p/maria.png"`
}

// LoginRequest is the JSON payload for opening a session.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"maria@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// UserResponse is the account view returned to clients. The password digest
// never leaves the service.
type UserResponse struct {
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	DOB           string   `json:"dob,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	ProfileImage  string   `json:"profile_image,omitempty"`
	Conversations []string `json:"conversations"`
}

// userView converts a domain record into its client-facing shape.
func userView(u *domain.User) UserResponse {
	conversations := u.Conversations
	if conversations == nil {
		conversations = []string{}
	}
	return UserResponse{
		Username:      u.Username,
		Email:         u.Email,
		DOB:           u.DOB,
		Phone:         u.Phone,
		ProfileImage:  u.ProfileImage,
		Conversations: conversations,
	}
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Register a new account
// @Description Creates an account and returns its public view.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterRequest  true  "Sign-up payload"
// @Success     201  {object}  handlers.UserResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failure"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		DOB:          req.DOB,
		Phone:        req.Phone,
		ProfileImage: req.ProfileImage,
	})
	switch {
	case errors.Is(err, services.ErrDuplicateEmail):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrWeakPassword):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeRegisterFailed, "could not register account")
	default:
		ok(c, http.StatusCreated, userView(u))
	}
}

// Login godoc
// @ID          login
// @Summary     Sign in
// @Description Verifies credentials and opens the device session.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object}  handlers.UserResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Wrong credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeLoginFailed, "could not sign in")
		return
	}

	if err := h.session.Login(c.Request.Context(), u); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeLoginFailed, "could not persist session")
		return
	}
	ok(c, http.StatusOK, userView(u))
}

// Logout godoc
// @ID          logout
// @Summary     Sign out
// @Description Clears the durable session marker and the in-memory state.
// @Tags        Auth
// @Produce     json
// @Success     204  {string}  string  "No Content"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.session.Logout(c.Request.Context()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not sign out")
		return
	}
	noContent(c)
}

// CurrentSession godoc
// @ID          currentSession
// @Summary     Current session
// @Description Returns the signed-in account snapshot.
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  handlers.UserResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Router      /auth/session [get]
func (h *Handlers) CurrentSession(c *gin.Context) {
	u, err := h.session.Current()
	if errors.Is(err, auth.ErrNoSession) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	ok(c, http.StatusOK, userView(u))
}

// currentEmail resolves the acting user's email from the session, failing
// the request with 401 when nobody is signed in.
func (h *Handlers) currentEmail(c *gin.Context) (string, bool) {
	u, err := h.session.Current()
	if err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in first")
		return "", false
	}
	return u.Email, true
}
