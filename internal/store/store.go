package store

import (
	"context"
	"errors"

	"hrassist-backend/internal/models"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// Store defines the local persistence tier for chat transcripts.
// This allows for mocking in tests and potential backend switching. Each role
// scope owns an isolated set of conversations; implementations must never let
// one scope read or overwrite another scope's rows.
type Store interface {
	// SaveScope upserts every conversation in the slice under the given
	// scope. It never deletes rows, so a partial in-memory view cannot
	// destroy previously persisted conversations.
	SaveScope(ctx context.Context, scope string, conversations []models.Conversation) error

	// LoadScope returns all conversations persisted for the scope, most
	// recently updated first. A scope with no data yields an empty slice,
	// not an error.
	LoadScope(ctx context.Context, scope string) ([]models.Conversation, error)

	Close() error
}
