package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message roles as produced by the chat widget and the agent collaborator.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Message represents a single turn in a conversation. For agent messages,
// Content holds the raw answer text before block parsing; the remaining
// agent fields are opaque metadata attached by the query collaborator and
// never interpreted here.
type Message struct {
	Role           string            `json:"role"`
	Content        string            `json:"content"`
	Timestamp      time.Time         `json:"timestamp"`
	AgentType      string            `json:"agentType,omitempty"`
	Confidence     float64           `json:"confidence,omitempty"`
	ReasoningTrace []string          `json:"reasoningTrace,omitempty"`
	Sources        []json.RawMessage `json:"sources,omitempty"`
}

// Conversation is one chat thread within a role scope. Messages are kept in
// chronological order with non-decreasing timestamps. UpdatedAt is touched on
// every mutation and drives both sidebar ordering and last-write-wins
// reconciliation against the remote history tier.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Scope     string    `json:"-"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers can hand conversations across
// goroutine boundaries (e.g. to the background synchronizer) without
// aliasing the live message slice.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}
