// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/civic-ai/civic-backend/internal/middleware"
	"github.com/civic-ai/civic-backend/internal/model"
	"github.com/civic-ai/civic-backend/internal/service"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
	"github.com/civic-ai/civic-backend/pkg/logger"
)

// ConversationHandler handles chat endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/chats
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// Create handles POST /api/chats
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateChatRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, r, h.logger, apperrors.BadRequest(err.Error()))
		return
	}

	chat, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

// Messages handles GET /api/chats/{chat_id}/messages
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.service.Messages(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "chat_id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// Delete handles DELETE /api/chats/{chat_id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chat_id")
	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), chatID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, model.DeleteChatResponse{
		Message: "Chat deleted successfully",
		ID:      chatID,
	})
}
