package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrassist-backend/internal/integrations"
)

// SyncService mirrors conversation state to the remote history collaborator
// on a fixed interval. The local tier is written unconditionally every tick;
// the remote tier receives the active conversation of each scope, and only
// when it has messages. Remote failures are logged and swallowed: background
// sync never escalates into the user flow.
type SyncService struct {
	conversations *ConversationService
	history       *integrations.HistoryClient
	interval      time.Duration

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncService creates a synchronizer over the given conversation service
// and history collaborator.
func NewSyncService(conversations *ConversationService, history *integrations.HistoryClient, interval time.Duration) *SyncService {
	return &SyncService{
		conversations: conversations,
		history:       history,
		interval:      interval,
		inFlight:      make(map[uuid.UUID]struct{}),
	}
}

// Start launches the periodic sync loop. Stop cancels it.
func (s *SyncService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the sync loop and waits for it to finish. In-flight remote
// upserts are not aborted; a late upsert for its own conversation id is
// still valid.
func (s *SyncService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *SyncService) tick(ctx context.Context) {
	for _, scope := range s.conversations.Scopes() {
		s.conversations.PersistScope(ctx, scope)

		active, err := s.conversations.ActiveConversation(scope)
		if err != nil || len(active.Messages) == 0 {
			continue
		}
		s.SaveRemote(ctx, scope)
	}
}

// SaveRemote upserts the scope's active conversation to the remote tier in
// the background. If an upsert for the same conversation id is already in
// flight, the call is skipped rather than queued.
func (s *SyncService) SaveRemote(ctx context.Context, scope string) {
	conv, err := s.conversations.ActiveConversation(scope)
	if err != nil {
		return
	}
	if len(conv.Messages) == 0 {
		return
	}

	s.mu.Lock()
	if _, busy := s.inFlight[conv.ID]; busy {
		s.mu.Unlock()
		return
	}
	s.inFlight[conv.ID] = struct{}{}
	s.mu.Unlock()

	// The upsert must outlive the triggering request or tick; an in-flight
	// save is keyed by conversation id and stays valid after a switch.
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, conv.ID)
			s.mu.Unlock()
		}()
		if err := s.history.Upsert(ctx, conv); err != nil {
			log.Printf("WARN [SyncService] remote upsert failed for conversation %s: %v", conv.ID, err)
		}
	}()
}

// LoadRemote fetches the scope's remote conversations and reconciles them
// into the local state. On failure or an empty result the local data is
// retained unchanged; this is expected graceful-degradation behavior, so the
// error never reaches the caller.
func (s *SyncService) LoadRemote(ctx context.Context, scope string) {
	remote, err := s.history.Fetch(ctx, scope)
	if err != nil {
		log.Printf("WARN [SyncService] remote history load failed for scope %s: %v", scope, err)
		return
	}
	if len(remote) == 0 {
		return
	}
	if err := s.conversations.MergeRemote(ctx, scope, remote); err != nil {
		log.Printf("WARN [SyncService] remote merge failed for scope %s: %v", scope, err)
	}
}
