// Package assistant is the HTTP client for the remote chat-completion
// collaborator. The wire shape follows the Cohere v1 chat API: a single
// message plus role-tagged history in, a single reply string out. The call
// is best-effort: one attempt, bounded by the client timeout, no retry.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dpoulios/go-chat-companion/internal/domain"
)

// Client produces an assistant reply for a prompt given the prior exchange
// history. Implementations must honor ctx for cancellation and timeouts.
type Client interface {
	Reply(ctx context.Context, prompt string, history []domain.Message) (string, error)
}

// Config carries the remote endpoint settings.
type Config struct {
	BaseURL     string        // e.g. "https://api.cohere.ai"
	APIKey      string        // bearer credential
	Model       string        // e.g. "command-r-plus"
	Temperature float64       // sampling temperature
	Timeout     time.Duration // per-request deadline
}

// HTTPClient implements Client against a Cohere-style /v1/chat endpoint.
type HTTPClient struct {
	cfg  Config
	http *http.Client
}

// New constructs an HTTPClient with its own timeout-bounded http.Client.
func New(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// historyEntry is one prior turn in the upstream request payload.
type historyEntry struct {
	Role    string `json:"role"` // "USER" or "CHATBOT"
	Message string `json:"message"`
}

// chatRequest is the upstream request payload.
type chatRequest struct {
	Model       string         `json:"model"`
	Message     string         `json:"message"`
	ChatHistory []historyEntry `json:"chat_history"`
	Temperature float64        `json:"temperature"`
	Stream      bool           `json:"stream"`
}

// chatResponse is the slice of the upstream response we consume.
type chatResponse struct {
	Text string `json:"text"`
}

// Reply posts prompt and history upstream and returns the reply text.
func (c *HTTPClient) Reply(ctx context.Context, prompt string, history []domain.Message) (string, error) {
	payload := chatRequest{
		Model:       c.cfg.Model,
		Message:     prompt,
		ChatHistory: make([]historyEntry, 0, len(history)),
		Temperature: c.cfg.Temperature,
	}
	for _, m := range history {
		role := "CHATBOT"
		if m.Role == domain.RoleUser {
			role = "USER"
		}
		payload.ChatHistory = append(payload.ChatHistory, historyEntry{Role: role, Message: m.Message})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded slice of the body for the error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat request: upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", fmt.Errorf("chat response: empty reply")
	}
	return out.Text, nil
}
