package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"hrassist-backend/internal/blocks"
	"hrassist-backend/internal/integrations"
	"hrassist-backend/internal/models"
	"hrassist-backend/internal/services"
	"hrassist-backend/internal/session"
	"hrassist-backend/pkg/httputil"
)

// agentFailureMessage is shown in the transcript when the query collaborator
// fails; a failed question is a direct user action and must be surfaced,
// unlike background sync errors.
const agentFailureMessage = "Sorry, I couldn't reach the HR assistant right now. Please try again in a moment."

// ChatHandlers handles HTTP requests for the chat widget: querying the agent
// and conversation lifecycle.
type ChatHandlers struct {
	conversations *services.ConversationService
	agent         *integrations.AgentClient
	sync          *services.SyncService
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(conversations *services.ConversationService, agent *integrations.AgentClient, syncSvc *services.SyncService) *ChatHandlers {
	return &ChatHandlers{
		conversations: conversations,
		agent:         agent,
		sync:          syncSvc,
	}
}

// ensureScope lazily initializes the role scope on first touch: local tier
// load (with default conversation creation) followed by best-effort remote
// reconciliation.
func (h *ChatHandlers) ensureScope(ctx context.Context, scope string) error {
	if h.conversations.HasScope(scope) {
		return nil
	}
	if err := h.conversations.Initialize(ctx, scope); err != nil {
		return err
	}
	h.sync.LoadRemote(ctx, scope)
	return nil
}

// HandleQuery appends the user's question to the active conversation, asks
// the agent collaborator, appends the answer and returns the rendered
// transcript delta.
func (h *ChatHandlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	userName, role, err := identityFromContext(r.Context())
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.QueryChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		httputil.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	if err := h.ensureScope(r.Context(), role); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to initialize conversations: "+err.Error())
		return
	}

	before, err := h.conversations.ActiveConversation(role)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load active conversation: "+err.Error())
		return
	}

	userMsg := models.Message{
		Role:      models.RoleUser,
		Content:   req.Message,
		Timestamp: time.Now().UTC(),
	}
	conv, err := h.conversations.AppendMessage(r.Context(), role, userMsg)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to append message: "+err.Error())
		return
	}

	agentMsg := models.Message{
		Role:      models.RoleAgent,
		Timestamp: time.Now().UTC(),
	}
	answer, err := h.agent.Query(r.Context(), integrations.QueryRequest{
		Query:               req.Message,
		ConversationID:      conv.ID,
		ConversationHistory: before.Messages,
		UserName:            userName,
		UserRole:            role,
	})
	if err != nil {
		log.Printf("WARN [ChatHandlers] agent query failed for conversation %s: %v", conv.ID, err)
		agentMsg.Content = agentFailureMessage
	} else {
		agentMsg.Content = answer.Answer
		agentMsg.AgentType = answer.AgentType
		agentMsg.Confidence = answer.Confidence
		agentMsg.ReasoningTrace = answer.ReasoningTrace
		agentMsg.Sources = answer.Sources
	}

	conv, err = h.conversations.AppendMessage(r.Context(), role, agentMsg)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to append agent message: "+err.Error())
		return
	}

	// Kick a remote save for the freshly updated conversation.
	h.sync.SaveRemote(r.Context(), role)

	boundaries := session.Boundaries(conv.Messages)
	n := len(conv.Messages)
	resp := models.QueryChatResponse{
		ConversationID: conv.ID,
		Title:          conv.Title,
		UserMessage:    renderMessage(conv.Messages[n-2], boundaries[n-2]),
		AgentMessage:   renderMessage(conv.Messages[n-1], boundaries[n-1]),
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// renderMessage turns a stored message into its presentational form. Agent
// answers go through the block parser; user messages render as a single
// paragraph.
func renderMessage(msg models.Message, sessionNumber int) models.RenderedMessage {
	var parsed []blocks.ContentBlock
	if msg.Role == models.RoleAgent {
		parsed = blocks.Parse(msg.Content)
	} else {
		parsed = []blocks.ContentBlock{{Type: blocks.BlockParagraph, Text: msg.Content}}
	}

	return models.RenderedMessage{
		Role:           msg.Role,
		Content:        msg.Content,
		Timestamp:      msg.Timestamp,
		Blocks:         parsed,
		HTML:           blocks.Render(parsed),
		SessionNumber:  sessionNumber,
		AgentType:      msg.AgentType,
		Confidence:     msg.Confidence,
		ReasoningTrace: msg.ReasoningTrace,
		Sources:        msg.Sources,
	}
}
