package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrassist-backend/internal/models"
	"hrassist-backend/internal/store"
)

var (
	ErrScopeNotInitialized  = errors.New("role scope not initialized")
	ErrConversationNotFound = errors.New("conversation not found")
)

// PlaceholderTitle is the title a conversation carries until its first user
// message arrives.
const PlaceholderTitle = "New Conversation"

// titleMaxRunes bounds derived conversation titles; longer first messages are
// truncated with a continuation marker.
const titleMaxRunes = 40

// scopeState holds one role scope's conversations and its active pointer.
// Scopes never share state: switching the operating role leaves the other
// scope's conversations untouched.
type scopeState struct {
	conversations map[uuid.UUID]*models.Conversation
	activeID      uuid.UUID
}

// ConversationService owns the in-memory conversation state for every
// initialized role scope and mirrors each mutation to the local tier
// immediately. It replaces the ambient singleton state of the original chat
// widget with an explicit injected store object.
type ConversationService struct {
	mu     sync.RWMutex
	store  store.Store
	scopes map[string]*scopeState
}

// NewConversationService creates a ConversationService backed by the given
// local tier.
func NewConversationService(st store.Store) *ConversationService {
	return &ConversationService{
		store:  st,
		scopes: make(map[string]*scopeState),
	}
}

// HasScope reports whether the scope has already been initialized.
func (s *ConversationService) HasScope(scope string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.scopes[scope]
	return ok
}

// Scopes returns every initialized role scope.
func (s *ConversationService) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scopes := make([]string, 0, len(s.scopes))
	for scope := range s.scopes {
		scopes = append(scopes, scope)
	}
	return scopes
}

// Initialize loads the scope's conversations from the local tier, creating a
// fresh placeholder conversation when none exist. A corrupt or missing local
// tier is treated as "no conversations", never as a failure. Calling
// Initialize on an already-initialized scope is a no-op.
func (s *ConversationService) Initialize(ctx context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scopes[scope]; ok {
		return nil
	}

	state := &scopeState{conversations: make(map[uuid.UUID]*models.Conversation)}

	loaded, err := s.store.LoadScope(ctx, scope)
	if err != nil {
		log.Printf("WARN [ConversationService] Initialize: local load failed for scope %s, starting empty: %v", scope, err)
		loaded = nil
	}
	for i := range loaded {
		conv := loaded[i]
		state.conversations[conv.ID] = &conv
	}

	if len(state.conversations) == 0 {
		conv := newConversation(scope)
		state.conversations[conv.ID] = conv
		state.activeID = conv.ID
	} else {
		state.activeID = mostRecentID(state)
	}

	s.scopes[scope] = state
	s.persistLocked(ctx, scope)
	return nil
}

// ActiveConversation returns a copy of the scope's active conversation.
func (s *ConversationService) ActiveConversation(scope string) (models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.scopes[scope]
	if !ok {
		return models.Conversation{}, ErrScopeNotInitialized
	}
	conv, ok := state.conversations[state.activeID]
	if !ok {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv.Clone(), nil
}

// Conversation returns a copy of one conversation in the scope.
func (s *ConversationService) Conversation(scope string, id uuid.UUID) (models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.scopes[scope]
	if !ok {
		return models.Conversation{}, ErrScopeNotInitialized
	}
	conv, ok := state.conversations[id]
	if !ok {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv.Clone(), nil
}

// SwitchConversation changes the scope's active pointer. Switching to the
// already-active conversation is a no-op; otherwise the current state is
// persisted to the local tier before the pointer moves.
func (s *ConversationService) SwitchConversation(ctx context.Context, scope string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.scopes[scope]
	if !ok {
		return ErrScopeNotInitialized
	}
	if state.activeID == id {
		return nil
	}
	if _, ok := state.conversations[id]; !ok {
		return ErrConversationNotFound
	}

	s.persistLocked(ctx, scope)
	state.activeID = id
	return nil
}

// AppendMessage appends to the active conversation in timestamp order and
// immediately mirrors the scope to the local tier. The first user message
// appended while the title is still the placeholder becomes the derived
// title. Returns a copy of the updated conversation.
func (s *ConversationService) AppendMessage(ctx context.Context, scope string, msg models.Message) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.scopes[scope]
	if !ok {
		return models.Conversation{}, ErrScopeNotInitialized
	}
	conv, ok := state.conversations[state.activeID]
	if !ok {
		return models.Conversation{}, ErrConversationNotFound
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	// Keep timestamps non-decreasing within the conversation.
	if n := len(conv.Messages); n > 0 && msg.Timestamp.Before(conv.Messages[n-1].Timestamp) {
		msg.Timestamp = conv.Messages[n-1].Timestamp
	}

	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.Timestamp

	if conv.Title == PlaceholderTitle && msg.Role == models.RoleUser {
		conv.Title = deriveTitle(msg.Content)
	}

	s.persistLocked(ctx, scope)
	return conv.Clone(), nil
}

// StartNewConversation persists the current state, creates a conversation
// with the placeholder title and makes it active.
func (s *ConversationService) StartNewConversation(ctx context.Context, scope string) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.scopes[scope]
	if !ok {
		return models.Conversation{}, ErrScopeNotInitialized
	}

	s.persistLocked(ctx, scope)
	conv := newConversation(scope)
	state.conversations[conv.ID] = conv
	state.activeID = conv.ID
	s.persistLocked(ctx, scope)
	return conv.Clone(), nil
}

// ListConversations returns the scope's conversations most-recently-touched
// first, for the sidebar.
func (s *ConversationService) ListConversations(scope string) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.scopes[scope]
	if !ok {
		return nil, ErrScopeNotInitialized
	}

	conversations := make([]models.Conversation, 0, len(state.conversations))
	for _, conv := range state.conversations {
		conversations = append(conversations, conv.Clone())
	}
	sort.Slice(conversations, func(i, j int) bool {
		if !conversations[i].UpdatedAt.Equal(conversations[j].UpdatedAt) {
			return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
		}
		return conversations[i].CreatedAt.After(conversations[j].CreatedAt)
	})
	return conversations, nil
}

// ActiveID returns the scope's active conversation id.
func (s *ConversationService) ActiveID(scope string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.scopes[scope]
	if !ok {
		return uuid.Nil, ErrScopeNotInitialized
	}
	return state.activeID, nil
}

// MergeRemote reconciles remotely fetched conversations into the scope as an
// id-keyed union: unknown ids are adopted, and for known ids the copy with
// the later UpdatedAt wins. Purely-local conversations that never synced are
// therefore never lost to a remote load.
func (s *ConversationService) MergeRemote(ctx context.Context, scope string, remote []models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.scopes[scope]
	if !ok {
		return ErrScopeNotInitialized
	}

	for i := range remote {
		incoming := remote[i]
		incoming.Scope = scope
		existing, ok := state.conversations[incoming.ID]
		if !ok || incoming.UpdatedAt.After(existing.UpdatedAt) {
			adopted := incoming.Clone()
			state.conversations[incoming.ID] = &adopted
		}
	}

	s.persistLocked(ctx, scope)
	return nil
}

// PersistScope mirrors the scope's current state to the local tier.
// Best-effort: failures are logged, never surfaced.
func (s *ConversationService) PersistScope(ctx context.Context, scope string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.persistLocked(ctx, scope)
}

// persistLocked writes the scope to the local tier. Callers must hold mu.
func (s *ConversationService) persistLocked(ctx context.Context, scope string) {
	state, ok := s.scopes[scope]
	if !ok {
		return
	}
	conversations := make([]models.Conversation, 0, len(state.conversations))
	for _, conv := range state.conversations {
		conversations = append(conversations, conv.Clone())
	}
	if err := s.store.SaveScope(ctx, scope, conversations); err != nil {
		log.Printf("WARN [ConversationService] local save failed for scope %s: %v", scope, err)
	}
}

func newConversation(scope string) *models.Conversation {
	now := time.Now().UTC()
	return &models.Conversation{
		ID:        uuid.New(),
		Scope:     scope,
		Title:     PlaceholderTitle,
		Messages:  make([]models.Message, 0, 16),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func mostRecentID(state *scopeState) uuid.UUID {
	var best uuid.UUID
	var bestTime time.Time
	for id, conv := range state.conversations {
		if best == uuid.Nil || conv.UpdatedAt.After(bestTime) {
			best = id
			bestTime = conv.UpdatedAt
		}
	}
	return best
}

// deriveTitle builds a conversation title from the first user message,
// truncating on a rune boundary with a continuation marker.
func deriveTitle(content string) string {
	title := strings.TrimSpace(content)
	if title == "" {
		return PlaceholderTitle
	}
	runes := []rune(title)
	if len(runes) <= titleMaxRunes {
		return title
	}
	return strings.TrimRight(string(runes[:titleMaxRunes]), " ") + "..."
}
