package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"hrassist-backend/internal/models"
)

// upsertPayload is the conversation shape the history collaborator accepts.
// Upserts are keyed by conversation id, so repeating the same call never
// duplicates records.
type upsertPayload struct {
	ConversationID uuid.UUID        `json:"conversationId"`
	Title          string           `json:"title"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	Messages       []models.Message `json:"messages"`
}

type fetchResponse struct {
	Conversations []models.Conversation `json:"conversations"`
}

// HistoryClient talks to the remote chat-history persistence collaborator.
// The remote tier is strictly best-effort: callers swallow and log errors
// from this client, and the local tier stays authoritative.
type HistoryClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHistoryClient creates a client for the chat-history collaborator.
func NewHistoryClient(baseURL, token string) *HistoryClient {
	return &HistoryClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: http.DefaultClient,
	}
}

// Upsert pushes one conversation to the remote tier, keyed by id.
func (c *HistoryClient) Upsert(ctx context.Context, conv models.Conversation) error {
	payload := upsertPayload{
		ConversationID: conv.ID,
		Title:          conv.Title,
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
		Messages:       conv.Messages,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal history upsert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat-history", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build history upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("history upsert failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("history upsert returned status %d", resp.StatusCode)
	}
	return nil
}

// Fetch retrieves all remote conversations for a role scope.
func (c *HistoryClient) Fetch(ctx context.Context, scope string) ([]models.Conversation, error) {
	endpoint := c.baseURL + "/chat-history?role=" + url.QueryEscape(scope)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build history fetch request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("history fetch returned status %d", resp.StatusCode)
	}

	var fetched fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		return nil, fmt.Errorf("decode history response: %w", err)
	}

	for i := range fetched.Conversations {
		fetched.Conversations[i].Scope = scope
	}
	return fetched.Conversations, nil
}
