// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - POST   /conversations                 (start)
//   - GET    /conversations                 (list summaries, paginated)
//   - GET    /conversations/{id}            (full message log)
//   - PUT    /conversations/{id}/title      (rename)
//   - DELETE /conversations/{id}            (delete)
//   - POST   /conversations/{id}/messages   (exchange with the assistant)
//
// All conversation routes act on behalf of the signed-in session.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dpoulios/go-chat-companion/internal/domain"
	"github.com/dpoulios/go-chat-companion/internal/services"
	"github.com/dpoulios/go-chat-companion/internal/utils"
)

// ConversationService defines the conversation operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type ConversationService interface {
	Start(ctx context.Context, email string) (*domain.Conversation, error)
	Get(ctx context.Context, email, id string) (*domain.Conversation, error)
	ListPage(ctx context.Context, email string, page, pageSize int) ([]services.Summary, int64, error)
	Send(ctx context.Context, email, id, prompt string) (*domain.Message, error)
	Rename(ctx context.Context, email, id, title string) error
	Delete(ctx context.Context, email, id string) error
}

// Handlers groups the HTTP endpoints for auth and conversations. It depends
// on abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	accounts AccountService
	session  SessionState
	convs    ConversationService
}

// New constructs a Handlers instance bound to the given services.
func New(accounts AccountService, session SessionState, convs ConversationService) *Handlers {
	return &Handlers{accounts: accounts, session: session, convs: convs}
}

//
// DTOs
//

// RenameRequest is the JSON payload for renaming a conversation.
type RenameRequest struct {
	// Title is the new conversation name (1–255 chars).
	Title string `json:"title" binding:"required,min=1,max=255" example:"Greeting"`
}

// SendMessageRequest is the JSON payload for one exchange.
type SendMessageRequest struct {
	Message string `json:"message" binding:"required" example:"hi"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListConversationsResponse wraps a page of summaries and pagination info.
type ListConversationsResponse struct {
	Conversations []services.Summary `json:"conversations"`
	Pagination    Pagination         `json:"pagination"`
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// StartConversation godoc
// @ID          startConversation
// @Summary     Start a new conversation
// @Description Creates an empty conversation owned by the signed-in user.
// @Tags        Conversations
// @Produce     json
// @Success     201  {object}  domain.Conversation
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations [post]
func (h *Handlers) StartConversation(c *gin.Context) {
	email, authed := h.currentEmail(c)
	if !authed {
		return
	}
	conv, err := h.convs.Start(c.Request.Context(), email)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not start conversation")
		return
	}
	ok(c, http.StatusCreated, conv)
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations (paginated)
// @Description Returns a page of the signed-in user's conversation summaries.
// @Tags        Conversations
// @Produce     json
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListConversationsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	email, authed := h.currentEmail(c)
	if !authed {
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.convs.ListPage(c.Request.Context(), email, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list conversations")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Load a conversation
// @Description Returns the full message log of one conversation.
// @Tags        Conversations
// @Produce     json
// @Param       id  path  string  true  "Conversation ID (UUID)"  format(uuid)
// @Success     200  {object}  domain.Conversation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /conversations/{id} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	email, authed := h.currentEmail(c)
	if !authed {
		return
	}
	id, valid := conversationID(c)
	if !valid {
		return
	}

	conv, err := h.convs.Get(c.Request.Context(), email, id)
	switch {
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load conversation")
	default:
		ok(c, http.StatusOK, conv)
	}
}

// RenameConversation godoc
// @ID          renameConversation
// @Summary     Rename a conversation
// @Description Updates the title of a conversation owned by the signed-in user.
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Conversation ID (UUID)"  format(uuid)
// @Param       body  body  handlers.RenameRequest  true  "New title"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /conversations/{id}/title [put]
func (h *Handlers) RenameConversation(c *gin.Context) {
	email, authed := h.currentEmail(c)
	if !authed {
		return
	}
	id, valid := conversationID(c)
	if !valid {
		return
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1-255 chars)")
		return
	}

	switch err := h.convs.Rename(c.Request.Context(), email, id, req.Title); {
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not rename conversation")
	default:
		noContent(c)
	}
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     Delete a conversation
// @Description Removes the conversation record and its membership entry.
// @Tags        Conversations
// @Produce     json
// @Param       id  path  string  true  "Conversation ID (UUID)"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /conversations/{id} [delete]
func (h *Handlers) DeleteConversation(c *gin.Context) {
	email, authed := h.currentEmail(c)
	if !authed {
		return
	}
	id, valid := conversationID(c)
	if !valid {
		return
	}

	switch err := h.convs.Delete(c.Request.Context(), email, id); {
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete conversation")
	default:
		noContent(c)
	}
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message
// @Description Forwards the prompt to the assistant and appends both sides of the exchange to the log.
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Conversation ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SendMessageRequest  true  "Prompt"
// @Success     200  {object}  domain.Message
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     502  {object}  handlers.ErrorResponse  "Assistant unavailable"
// @Router      /conversations/{id}/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	email, authed := h.currentEmail(c)
	if !authed {
		return
	}
	id, valid := conversationID(c)
	if !valid {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	reply, err := h.convs.Send(c.Request.Context(), email, id, req.Message)
	switch {
	case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
	case errors.Is(err, services.ErrAssistantUnavailable):
		fail(c, http.StatusBadGateway, ErrCodeAssistantFailed, "assistant unavailable")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeSendFailed, "could not send message")
	default:
		ok(c, http.StatusOK, reply)
	}
}

// conversationID validates the :id path parameter as a UUID.
func conversationID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return "", false
	}
	return id, true
}
