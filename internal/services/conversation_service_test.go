package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dpoulios/go-chat-companion/internal/domain"
	"github.com/dpoulios/go-chat-companion/internal/kvstore"
	"github.com/dpoulios/go-chat-companion/internal/repo"
)

// stubAssistant returns a canned reply or error and records call details.
type stubAssistant struct {
	reply   string
	err     error
	calls   int
	prompt  string
	history []domain.Message
}

func (s *stubAssistant) Reply(ctx context.Context, prompt string, history []domain.Message) (string, error) {
	s.calls++
	s.prompt = prompt
	s.history = history
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newChatService(t *testing.T, a *stubAssistant) (*ConversationService, string) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	dir := repo.NewUserDirectory(store)
	if err := dir.Register(context.Background(), domain.User{Username: "a", Email: "a@x.com"}); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	convs := repo.NewConversationRepo(store, dir)
	return NewConversationService(convs, dir, a), "a@x.com"
}

func TestConversationService_StartUsesPlaceholderTitle(t *testing.T) {
	s, email := newChatService(t, &stubAssistant{reply: "ok"})

	c, err := s.Start(context.Background(), email)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Title != "New conversation" || len(c.Messages) != 0 {
		t.Fatalf("unexpected conversation: %+v", c)
	}
}

func TestConversationService_Send_AppendsPair(t *testing.T) {
	a := &stubAssistant{reply: "hello"}
	s, email := newChatService(t, a)
	ctx := context.Background()

	c, _ := s.Start(ctx, email)
	msg, err := s.Send(ctx, email, c.ID, "  hi  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Role != domain.RoleAssistant || msg.Message != "hello" {
		t.Fatalf("unexpected reply message: %+v", msg)
	}

	got, err := s.Get(ctx, email, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected user+assistant pair, got %d messages", len(got.Messages))
	}
	if got.Messages[0].Role != domain.RoleUser || got.Messages[0].Message != "hi" {
		t.Fatalf("user message not trimmed/stored: %+v", got.Messages[0])
	}
	if got.Messages[1].Role != domain.RoleAssistant || got.Messages[1].Message != "hello" {
		t.Fatalf("assistant message wrong: %+v", got.Messages[1])
	}

	// upstream history ends with the prompt being asked
	if len(a.history) != 1 || a.history[0].Message != "hi" {
		t.Fatalf("unexpected upstream history: %+v", a.history)
	}
}

func TestConversationService_Send_NotIdempotent(t *testing.T) {
	s, email := newChatService(t, &stubAssistant{reply: "hello"})
	ctx := context.Background()

	c, _ := s.Start(ctx, email)
	if _, err := s.Send(ctx, email, c.ID, "hi"); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if _, err := s.Send(ctx, email, c.ID, "hi"); err != nil {
		t.Fatalf("second Send: %v", err)
	}

	got, _ := s.Get(ctx, email, c.ID)
	if len(got.Messages) != 4 {
		t.Fatalf("two identical sends must append two pairs, got %d messages", len(got.Messages))
	}
}

func TestConversationService_Send_PromptValidation(t *testing.T) {
	s, email := newChatService(t, &stubAssistant{reply: "x"})
	s.MaxPromptRunes = 10
	ctx := context.Background()

	c, _ := s.Start(ctx, email)

	if _, err := s.Send(ctx, email, c.ID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("blank prompt: got %v", err)
	}
	if _, err := s.Send(ctx, email, c.ID, strings.Repeat("x", 11)); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("long prompt: got %v", err)
	}
	// exactly at the cap passes
	if _, err := s.Send(ctx, email, c.ID, strings.Repeat("x", 10)); err != nil {
		t.Fatalf("prompt at cap: %v", err)
	}
}

func TestConversationService_Send_AssistantFailureLeavesNothing(t *testing.T) {
	a := &stubAssistant{err: errors.New("upstream 503")}
	s, email := newChatService(t, a)
	ctx := context.Background()

	c, _ := s.Start(ctx, email)
	_, err := s.Send(ctx, email, c.ID, "hi")
	if !errors.Is(err, ErrAssistantUnavailable) {
		t.Fatalf("expected ErrAssistantUnavailable, got %v", err)
	}

	got, _ := s.Get(ctx, email, c.ID)
	if len(got.Messages) != 0 {
		t.Fatalf("failed exchange must persist nothing, got %d messages", len(got.Messages))
	}
	if got.Title != "New conversation" {
		t.Fatalf("failed exchange must not retitle: %q", got.Title)
	}
}

func TestConversationService_Send_UnknownConversation(t *testing.T) {
	s, email := newChatService(t, &stubAssistant{reply: "x"})
	if _, err := s.Send(context.Background(), email, "missing", "hi"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestConversationService_AutoTitleFromFirstPrompt(t *testing.T) {
	s, email := newChatService(t, &stubAssistant{reply: "sure"})
	ctx := context.Background()

	c, _ := s.Start(ctx, email)
	if _, err := s.Send(ctx, email, c.ID, "tell me about the weather in Athens"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, _ := s.Get(ctx, email, c.ID)
	if got.Title == "New conversation" || got.Title == "" {
		t.Fatalf("placeholder title not replaced: %q", got.Title)
	}
	// stop words dropped, remaining words title-cased
	if strings.Contains(strings.ToLower(got.Title), "the ") {
		t.Fatalf("stop word survived: %q", got.Title)
	}
	if !strings.Contains(got.Title, "Weather") || !strings.Contains(got.Title, "Athens") {
		t.Fatalf("title should keep content words: %q", got.Title)
	}

	// a manually titled conversation is left alone
	if err := s.Rename(ctx, email, c.ID, "My Title"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := s.Send(ctx, email, c.ID, "completely different topic here"); err != nil {
		t.Fatalf("second Send: %v", err)
	}
	got, _ = s.Get(ctx, email, c.ID)
	if got.Title != "My Title" {
		t.Fatalf("custom title overwritten: %q", got.Title)
	}
}

func TestConversationService_Rename(t *testing.T) {
	s, email := newChatService(t, &stubAssistant{})
	ctx := context.Background()

	c, _ := s.Start(ctx, email)

	if err := s.Rename(ctx, email, c.ID, "  Greeting   log  "); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, _ := s.Get(ctx, email, c.ID)
	if got.Title != "Greeting log" {
		t.Fatalf("whitespace not normalized: %q", got.Title)
	}

	// blank falls back to Untitled
	if err := s.Rename(ctx, email, c.ID, "   "); err != nil {
		t.Fatalf("Rename blank: %v", err)
	}
	got, _ = s.Get(ctx, email, c.ID)
	if got.Title != "Untitled" {
		t.Fatalf("blank title fallback: %q", got.Title)
	}

	// overlong titles are clipped to the configured cap
	if err := s.Rename(ctx, email, c.ID, strings.Repeat("a", 100)); err != nil {
		t.Fatalf("Rename long: %v", err)
	}
	got, _ = s.Get(ctx, email, c.ID)
	if len([]rune(got.Title)) != s.TitleMaxLen {
		t.Fatalf("title not clipped: %d runes", len([]rune(got.Title)))
	}

	if err := s.Rename(ctx, email, "missing", "x"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestConversationService_Delete(t *testing.T) {
	s, email := newChatService(t, &stubAssistant{})
	ctx := context.Background()

	c, _ := s.Start(ctx, email)
	if err := s.Delete(ctx, email, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, email, c.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, email, c.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound on double delete, got %v", err)
	}
}

func TestConversationService_ListPage(t *testing.T) {
	s, email := newChatService(t, &stubAssistant{reply: "ok"})
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		c, err := s.Start(ctx, email)
		if err != nil {
			t.Fatalf("Start #%d: %v", i, err)
		}
		ids = append(ids, c.ID)
	}

	page1, total, err := s.ListPage(ctx, email, 1, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 5 || len(page1) != 2 {
		t.Fatalf("page1: total=%d len=%d", total, len(page1))
	}
	if page1[0].ID != ids[0] || page1[1].ID != ids[1] {
		t.Fatalf("creation order not preserved: %+v", page1)
	}
	if page1[0].Title != "New conversation" {
		t.Fatalf("summary title fallback: %q", page1[0].Title)
	}

	page3, total, err := s.ListPage(ctx, email, 3, 2)
	if err != nil || total != 5 || len(page3) != 1 {
		t.Fatalf("page3: total=%d len=%d err=%v", total, len(page3), err)
	}

	empty, total, err := s.ListPage(ctx, email, 9, 2)
	if err != nil || total != 5 || len(empty) != 0 {
		t.Fatalf("out of range page: total=%d len=%d err=%v", total, len(empty), err)
	}

	// a dangling membership id is skipped, not fatal
	if err := s.Delete(ctx, email, ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	rest, total, err := s.ListPage(ctx, email, 1, 10)
	if err != nil || total != 4 || len(rest) != 4 {
		t.Fatalf("after delete: total=%d len=%d err=%v", total, len(rest), err)
	}

	if _, _, err := s.ListPage(ctx, "ghost@x.com", 1, 10); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
