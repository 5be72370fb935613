package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrassist-backend/internal/models"
)

func TestAgentClientQuery(t *testing.T) {
	var received QueryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(QueryResponse{
			Answer:     "PTO Summary:\n- Vacation: 12 days",
			AgentType:  "leave_agent",
			Confidence: 0.9,
		})
	}))
	defer server.Close()

	client := NewAgentClient(server.URL, "test-token")
	resp, err := client.Query(context.Background(), QueryRequest{
		Query:          "What is my PTO balance?",
		ConversationID: uuid.New(),
		UserName:       "Dana",
		UserRole:       "employee",
	})
	require.NoError(t, err)
	assert.Equal(t, "leave_agent", resp.AgentType)
	assert.InDelta(t, 0.9, resp.Confidence, 1e-9)
	assert.Contains(t, resp.Answer, "PTO Summary")
	assert.Equal(t, "What is my PTO balance?", received.Query)
	assert.Equal(t, "employee", received.UserRole)
}

func TestAgentClientQueryTrimsHistoryWindow(t *testing.T) {
	var received QueryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(QueryResponse{Answer: "ok"})
	}))
	defer server.Close()

	history := make([]models.Message, HistoryWindow+5)
	for i := range history {
		history[i] = models.Message{Role: models.RoleUser, Content: "m"}
	}

	client := NewAgentClient(server.URL, "test-token")
	_, err := client.Query(context.Background(), QueryRequest{
		Query:               "q",
		ConversationHistory: history,
	})
	require.NoError(t, err)
	assert.Len(t, received.ConversationHistory, HistoryWindow)
}

func TestAgentClientQueryErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewAgentClient(server.URL, "test-token")
	_, err := client.Query(context.Background(), QueryRequest{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
