package models

import (
	"encoding/json"
	"html/template"
	"time"

	"github.com/google/uuid"

	"hrassist-backend/internal/blocks"
)

// --- Request Structs ---

// QueryChatRequest defines the body for sending a question to the agent.
type QueryChatRequest struct {
	Message string `json:"message"`
}

// --- Response Structs ---

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RenderedMessage is one transcript entry with its parsed block structure and
// the pre-rendered HTML fragment the widget injects. SessionNumber is
// non-zero when a session divider precedes this message.
type RenderedMessage struct {
	Role           string                `json:"role"`
	Content        string                `json:"content"`
	Timestamp      time.Time             `json:"timestamp"`
	Blocks         []blocks.ContentBlock `json:"blocks"`
	HTML           template.HTML         `json:"html"`
	SessionNumber  int                   `json:"session_number,omitempty"`
	AgentType      string                `json:"agent_type,omitempty"`
	Confidence     float64               `json:"confidence,omitempty"`
	ReasoningTrace []string              `json:"reasoning_trace,omitempty"`
	Sources        []json.RawMessage     `json:"sources,omitempty"`
}

// QueryChatResponse is returned from the query endpoint: the transcript delta
// for the exchange that just happened.
type QueryChatResponse struct {
	ConversationID uuid.UUID       `json:"conversation_id"`
	Title          string          `json:"title"`
	UserMessage    RenderedMessage `json:"user_message"`
	AgentMessage   RenderedMessage `json:"agent_message"`
}

// ConversationSummary is one sidebar row.
type ConversationSummary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Active       bool      `json:"active"`
}

// ListConversationsResponse wraps the sidebar listing.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// TranscriptResponse is a full conversation rendered for display.
type TranscriptResponse struct {
	ConversationID uuid.UUID         `json:"conversation_id"`
	Title          string            `json:"title"`
	Messages       []RenderedMessage `json:"messages"`
}
