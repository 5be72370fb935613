package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"hrassist-backend/internal/models"
)

// HistoryWindow is how many trailing messages are sent to the agent as
// conversation context.
const HistoryWindow = 10

// QueryRequest is the payload sent to the agent query collaborator.
type QueryRequest struct {
	Query               string           `json:"query"`
	ConversationID      uuid.UUID        `json:"conversationId"`
	ConversationHistory []models.Message `json:"conversationHistory"`
	UserName            string           `json:"userName"`
	UserRole            string           `json:"userRole"`
}

// QueryResponse is the agent's answer plus opaque classification metadata.
// Only Answer is interpreted here; the rest is attached to the resulting
// message untouched.
type QueryResponse struct {
	Answer         string            `json:"answer"`
	AgentType      string            `json:"agentType,omitempty"`
	Confidence     float64           `json:"confidence,omitempty"`
	ReasoningTrace []string          `json:"reasoningTrace,omitempty"`
	Sources        []json.RawMessage `json:"sources,omitempty"`
}

// AgentClient calls the external agent query endpoint. Unlike the history
// client, its failures are a direct consequence of a user action and are
// surfaced to the caller.
type AgentClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewAgentClient creates a client for the agent query collaborator.
func NewAgentClient(baseURL, token string) *AgentClient {
	return &AgentClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: http.DefaultClient,
	}
}

// Query sends the user's question with recent conversation context and
// returns the agent's answer.
func (c *AgentClient) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if len(req.ConversationHistory) > HistoryWindow {
		req.ConversationHistory = req.ConversationHistory[len(req.ConversationHistory)-HistoryWindow:]
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal query request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("agent query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("agent query returned status %d", resp.StatusCode)
	}

	var queryResp QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decode agent response: %w", err)
	}

	return &queryResp, nil
}
