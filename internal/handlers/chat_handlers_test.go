package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrassist-backend/internal/api"
	"hrassist-backend/internal/auth"
	"hrassist-backend/internal/blocks"
	"hrassist-backend/internal/config"
	"hrassist-backend/internal/handlers"
	"hrassist-backend/internal/integrations"
	"hrassist-backend/internal/models"
	"hrassist-backend/internal/services"
	"hrassist-backend/internal/store/sqlite"
)

const testSecret = "test-secret"

type testEnv struct {
	router http.Handler
	token  string
}

// newTestEnv wires the full stack against stub collaborator servers.
func newTestEnv(t *testing.T, agentHandler http.HandlerFunc) *testEnv {
	t.Helper()

	agentServer := httptest.NewServer(agentHandler)
	t.Cleanup(agentServer.Close)

	historyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]interface{}{"conversations": []models.Conversation{}})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(historyServer.Close)

	localStore, err := sqlite.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { localStore.Close() })

	conversationService := services.NewConversationService(localStore)
	syncService := services.NewSyncService(conversationService, integrations.NewHistoryClient(historyServer.URL, "t"), time.Minute)
	chatHandler := handlers.NewChatHandlers(conversationService, integrations.NewAgentClient(agentServer.URL, "t"), syncService)

	router := api.NewRouter(api.RouterDependencies{
		ChatHandler: chatHandler,
		Config:      &config.Config{JWTSecret: testSecret},
	})

	token, err := auth.NewAccessToken("Dana", "employee", testSecret, time.Hour)
	require.NoError(t, err)

	return &testEnv{router: router, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestQueryEndToEndPTOScenario(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(integrations.QueryResponse{
			Answer:     "PTO Summary:\n- Vacation: 12 days\n- Sick: 8 days\nContact HR for adjustments.",
			AgentType:  "leave_agent",
			Confidence: 0.9,
		})
	})

	rec := env.do(t, http.MethodPost, "/v1/chat/query", models.QueryChatRequest{Message: "What is my PTO balance?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.QueryChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Title derives from the first user message.
	assert.Equal(t, "What is my PTO balance?", resp.Title)
	assert.Equal(t, "leave_agent", resp.AgentMessage.AgentType)
	assert.InDelta(t, 0.9, resp.AgentMessage.Confidence, 1e-9)

	agentBlocks := resp.AgentMessage.Blocks
	require.Len(t, agentBlocks, 3)
	assert.Equal(t, blocks.BlockSectionHeader, agentBlocks[0].Type)
	assert.Equal(t, "PTO Summary", agentBlocks[0].Text)

	require.Equal(t, blocks.BlockKeyValueGrid, agentBlocks[1].Type)
	require.Len(t, agentBlocks[1].Pairs, 2)
	assert.Equal(t, "Vacation", agentBlocks[1].Pairs[0].Key)
	assert.Equal(t, "12 days", agentBlocks[1].Pairs[0].Value)
	assert.Equal(t, "Sick", agentBlocks[1].Pairs[1].Key)
	assert.Equal(t, "8 days", agentBlocks[1].Pairs[1].Value)

	// "Contact HR for adjustments." lacks the literal colon after the
	// callout prefix, so it stays a paragraph.
	assert.Equal(t, blocks.BlockParagraph, agentBlocks[2].Type)
	assert.Equal(t, "Contact HR for adjustments.", agentBlocks[2].Text)
}

func TestQueryAgentFailureSurfacesInTranscript(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	rec := env.do(t, http.MethodPost, "/v1/chat/query", models.QueryChatRequest{Message: "hello?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.QueryChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.RoleAgent, resp.AgentMessage.Role)
	assert.Contains(t, resp.AgentMessage.Content, "try again")
}

func TestConversationLifecycle(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(integrations.QueryResponse{Answer: "ok"})
	})

	// Initial listing creates the default conversation.
	rec := env.do(t, http.MethodGet, "/v1/conversations/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.ListConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Conversations, 1)
	firstID := list.Conversations[0].ID
	assert.True(t, list.Conversations[0].Active)

	// Start a second conversation; it becomes active.
	rec = env.do(t, http.MethodPost, "/v1/conversations/", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.ConversationSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEqual(t, firstID, created.ID)

	// Switch back to the first.
	rec = env.do(t, http.MethodPost, "/v1/conversations/"+firstID.String()+"/activate", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/conversations/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Conversations, 2)
	for _, conv := range list.Conversations {
		assert.Equal(t, conv.ID == firstID, conv.Active)
	}
}

func TestTranscriptIncludesSessionDividers(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(integrations.QueryResponse{Answer: "ok"})
	})

	rec := env.do(t, http.MethodPost, "/v1/chat/query", models.QueryChatRequest{Message: "first"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.QueryChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = env.do(t, http.MethodGet, "/v1/conversations/"+resp.ConversationID.String()+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var transcript models.TranscriptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transcript))
	require.Len(t, transcript.Messages, 2)
	// Back-to-back messages share a session: no dividers.
	assert.Zero(t, transcript.Messages[0].SessionNumber)
	assert.Zero(t, transcript.Messages[1].SessionNumber)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
