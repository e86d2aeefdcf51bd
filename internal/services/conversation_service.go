// Package services – ConversationService
//
// This file implements ConversationService, the application-level component
// that owns the conversation lifecycle: starting a log, exchanging messages
// with the remote assistant, renaming, listing, and deleting. It validates
// input, delegates persistence to the conversation repository, and keeps the
// owner's membership list consistent through it.
//
// Optional enhancement: a conversation still carrying a placeholder title is
// auto-titled from the first user prompt.
//
// Observability: the exchange and listing paths are OpenTelemetry
// instrumented; spans carry conversation/user identifiers.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dpoulios/go-chat-companion/internal/assistant"
	"github.com/dpoulios/go-chat-companion/internal/domain"
	"github.com/dpoulios/go-chat-companion/internal/repo"
)

const (
	// defaultTitle is the placeholder given to a freshly started
	// conversation; it marks the log as eligible for auto-titling.
	defaultTitle = "New conversation"
	// untitled replaces a blank title on rename.
	untitled = "Untitled"
)

// ConversationRepo is the repository contract required by the service.
type ConversationRepo interface {
	Create(ctx context.Context, email, title string) (*domain.Conversation, error)
	Get(ctx context.Context, email, id string) (*domain.Conversation, error)
	Append(ctx context.Context, email, id string, msgs ...domain.Message) (*domain.Conversation, error)
	Rename(ctx context.Context, email, id, title string) error
	Delete(ctx context.Context, email, id string) error
}

// MembershipDirectory resolves an owner to their conversation id list.
type MembershipDirectory interface {
	Get(ctx context.Context, email string) (*domain.User, error)
}

// ConversationService coordinates conversation persistence and the remote
// assistant exchange.
type ConversationService struct {
	Repo      ConversationRepo
	Dir       MembershipDirectory
	Assistant assistant.Client

	// MaxPromptRunes caps user prompts by rune length. Zero disables the cap.
	MaxPromptRunes int
	// TitleMaxLen caps stored and generated titles by rune length.
	TitleMaxLen int
	// TitleLocale selects the casing rules for generated titles.
	TitleLocale language.Tag
}

// NewConversationService constructs a service with sane title defaults.
func NewConversationService(r ConversationRepo, dir MembershipDirectory, client assistant.Client) *ConversationService {
	return &ConversationService{
		Repo:        r,
		Dir:         dir,
		Assistant:   client,
		TitleMaxLen: 60,
		TitleLocale: language.Und,
	}
}

// Summary is the drawer view of a conversation: id plus display title.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Start creates an empty conversation for email and registers it with the
// owner's directory record.
func (s *ConversationService) Start(ctx context.Context, email string) (*domain.Conversation, error) {
	return s.Repo.Create(ctx, email, defaultTitle)
}

// Get returns the stored conversation, or ErrConversationNotFound.
func (s *ConversationService) Get(ctx context.Context, email, id string) (*domain.Conversation, error) {
	c, err := s.Repo.Get(ctx, email, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListPage returns a page of the owner's conversation summaries in creation
// order, plus the total count. A membership id whose record has gone missing
// is skipped rather than failing the whole listing.
func (s *ConversationService) ListPage(ctx context.Context, email string, page, pageSize int) ([]Summary, int64, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.email", domain.NormalizeEmail(email)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	u, err := s.Dir.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, err
	}

	total := int64(len(u.Conversations))
	offset := (page - 1) * pageSize
	if offset >= len(u.Conversations) {
		return []Summary{}, total, nil
	}
	end := offset + pageSize
	if end > len(u.Conversations) {
		end = len(u.Conversations)
	}

	out := make([]Summary, 0, end-offset)
	for _, id := range u.Conversations[offset:end] {
		c, err := s.Repo.Get(ctx, email, id)
		if err != nil {
			continue
		}
		title := c.Title
		if strings.TrimSpace(title) == "" {
			title = defaultTitle
		}
		out = append(out, Summary{ID: c.ID, Title: title})
	}
	return out, total, nil
}

// Send appends a user prompt and the assistant's reply to the conversation.
// The remote call happens first; when it fails, nothing is persisted and
// ErrAssistantUnavailable is returned. Persistence of the pair is a single
// record write, but it is not atomic with the remote call itself.
//
// Send is deliberately not idempotent: repeating it with identical arguments
// appends another pair.
func (s *ConversationService) Send(ctx context.Context, email, id, prompt string) (*domain.Message, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("conversation.id", id),
			attribute.String("user.email", domain.NormalizeEmail(email)),
		),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrMessageTooLong
	}

	c, err := s.Get(ctx, email, id)
	if err != nil {
		return nil, err
	}

	userMsg := domain.Message{Role: domain.RoleUser, Message: prompt}
	// The upstream history includes the prompt being asked, matching the
	// payload the mobile client sent.
	history := append(append([]domain.Message{}, c.Messages...), userMsg)

	reply, err := s.Assistant.Reply(ctx, prompt, history)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}
	assistantMsg := domain.Message{Role: domain.RoleAssistant, Message: reply}

	if _, err := s.Repo.Append(ctx, email, id, userMsg, assistantMsg); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	// Auto-title while the conversation still carries a placeholder name.
	if shouldAutoTitle(c.Title) {
		if gen := s.generateTitle(prompt); gen != "" {
			_ = s.Repo.Rename(ctx, email, id, s.clip(gen))
		}
	}

	return &assistantMsg, nil
}

// Rename sets the conversation title, falling back to "Untitled" when the
// normalized title is blank.
func (s *ConversationService) Rename(ctx context.Context, email, id, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = untitled
	}
	if err := s.Repo.Rename(ctx, email, id, s.clip(title)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// Delete removes the conversation record and its membership id.
func (s *ConversationService) Delete(ctx context.Context, email, id string) error {
	if err := s.Repo.Delete(ctx, email, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// clip truncates a title to the configured maximum rune length.
func (s *ConversationService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// generateTitle derives a concise title from the first prompt.
func (s *ConversationService) generateTitle(prompt string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(strings.TrimSpace(prompt)), -1)
	if len(toks) == 0 {
		return ""
	}

	locale := s.TitleLocale
	if locale == language.Und {
		locale = language.English
	}
	titleCaser := cases.Title(locale)

	out := make([]string, 0, 6)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 6 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, " ")
}

// shouldAutoTitle reports whether the current title is a placeholder.
func shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(strings.ToLower(current))
	return t == "" || t == strings.ToLower(defaultTitle) || t == strings.ToLower(untitled)
}

// normalizeTitle trims whitespace and collapses runs of it to single spaces.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

var (
	// whitespaceRE collapses consecutive whitespace to a single space.
	whitespaceRE = regexp.MustCompile(`\s+`)
	// titleWordRE extracts Unicode letters with optional trailing numbers.
	titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)
)

// titleStopWords is a minimal English stop-word set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
}
