package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hrassist-backend/internal/models"
	"hrassist-backend/internal/services"
	"hrassist-backend/internal/session"
	"hrassist-backend/pkg/httputil"
)

// HandleListConversations returns the sidebar listing for the caller's role
// scope, most recently touched first.
func (h *ChatHandlers) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	_, role, err := identityFromContext(r.Context())
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.ensureScope(r.Context(), role); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to initialize conversations: "+err.Error())
		return
	}

	conversations, err := h.conversations.ListConversations(role)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list conversations: "+err.Error())
		return
	}
	activeID, err := h.conversations.ActiveID(role)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to resolve active conversation: "+err.Error())
		return
	}

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summaries = append(summaries, models.ConversationSummary{
			ID:           conv.ID,
			Title:        conv.Title,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
			Active:       conv.ID == activeID,
		})
	}
	httputil.RespondJSON(w, http.StatusOK, models.ListConversationsResponse{Conversations: summaries})
}

// HandleStartConversation creates a fresh conversation and makes it active.
func (h *ChatHandlers) HandleStartConversation(w http.ResponseWriter, r *http.Request) {
	_, role, err := identityFromContext(r.Context())
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.ensureScope(r.Context(), role); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to initialize conversations: "+err.Error())
		return
	}

	conv, err := h.conversations.StartNewConversation(r.Context(), role)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to start conversation: "+err.Error())
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, models.ConversationSummary{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Active:    true,
	})
}

// HandleActivateConversation switches the active conversation pointer.
func (h *ChatHandlers) HandleActivateConversation(w http.ResponseWriter, r *http.Request) {
	_, role, err := identityFromContext(r.Context())
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	if err := h.ensureScope(r.Context(), role); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to initialize conversations: "+err.Error())
		return
	}

	if err := h.conversations.SwitchConversation(r.Context(), role, conversationID); err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to switch conversation: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleGetTranscript returns a conversation's messages rendered as blocks
// with session dividers.
func (h *ChatHandlers) HandleGetTranscript(w http.ResponseWriter, r *http.Request) {
	_, role, err := identityFromContext(r.Context())
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	if err := h.ensureScope(r.Context(), role); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to initialize conversations: "+err.Error())
		return
	}

	conv, err := h.conversations.Conversation(role, conversationID)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load conversation: "+err.Error())
		return
	}

	boundaries := session.Boundaries(conv.Messages)
	rendered := make([]models.RenderedMessage, 0, len(conv.Messages))
	for i, msg := range conv.Messages {
		rendered = append(rendered, renderMessage(msg, boundaries[i]))
	}

	httputil.RespondJSON(w, http.StatusOK, models.TranscriptResponse{
		ConversationID: conv.ID,
		Title:          conv.Title,
		Messages:       rendered,
	})
}
