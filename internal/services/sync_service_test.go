package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrassist-backend/internal/integrations"
	"hrassist-backend/internal/models"
	"hrassist-backend/internal/services"
)

func TestLoadRemoteMergesFetchedConversations(t *testing.T) {
	remoteConv := models.Conversation{
		ID:        uuid.New(),
		Title:     "synced earlier",
		Messages:  []models.Message{{Role: models.RoleUser, Content: "hi", Timestamp: time.Now().UTC()}},
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		UpdatedAt: time.Now().UTC().Add(-time.Hour),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"conversations": []models.Conversation{remoteConv},
		})
	}))
	defer server.Close()

	svc := services.NewConversationService(newMemStore())
	ctx := context.Background()
	require.NoError(t, svc.Initialize(ctx, "hr_admin"))

	syncSvc := services.NewSyncService(svc, integrations.NewHistoryClient(server.URL, "token"), time.Second)
	syncSvc.LoadRemote(ctx, "hr_admin")

	merged, err := svc.Conversation("hr_admin", remoteConv.ID)
	require.NoError(t, err)
	assert.Equal(t, "synced earlier", merged.Title)
}

func TestLoadRemoteFailureRetainsLocalData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := services.NewConversationService(newMemStore())
	ctx := context.Background()
	require.NoError(t, svc.Initialize(ctx, "hr_admin"))
	local, err := svc.AppendMessage(ctx, "hr_admin", models.Message{Role: models.RoleUser, Content: "keep me"})
	require.NoError(t, err)

	syncSvc := services.NewSyncService(svc, integrations.NewHistoryClient(server.URL, "token"), time.Second)
	syncSvc.LoadRemote(ctx, "hr_admin")

	kept, err := svc.Conversation("hr_admin", local.ID)
	require.NoError(t, err)
	require.Len(t, kept.Messages, 1)
	assert.Equal(t, "keep me", kept.Messages[0].Content)
}

func TestSaveRemoteSkipsEmptyConversation(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	svc := services.NewConversationService(newMemStore())
	ctx := context.Background()
	require.NoError(t, svc.Initialize(ctx, "hr_admin"))

	syncSvc := services.NewSyncService(svc, integrations.NewHistoryClient(server.URL, "token"), time.Second)
	syncSvc.SaveRemote(ctx, "hr_admin")

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&calls), "empty conversations are never pushed")
}

func TestSaveRemoteOverlapSkip(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := services.NewConversationService(newMemStore())
	ctx := context.Background()
	require.NoError(t, svc.Initialize(ctx, "hr_admin"))
	_, err := svc.AppendMessage(ctx, "hr_admin", models.Message{Role: models.RoleUser, Content: "hello"})
	require.NoError(t, err)

	syncSvc := services.NewSyncService(svc, integrations.NewHistoryClient(server.URL, "token"), time.Second)

	syncSvc.SaveRemote(ctx, "hr_admin")
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 10*time.Millisecond)

	// A second save for the same conversation id while one is in flight is
	// skipped, not queued.
	syncSvc.SaveRemote(ctx, "hr_admin")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	close(release)

	// Once the first save finishes, new saves go through again.
	require.Eventually(t, func() bool {
		syncSvc.SaveRemote(ctx, "hr_admin")
		return atomic.LoadInt32(&calls) >= 2
	}, time.Second, 20*time.Millisecond)
}
