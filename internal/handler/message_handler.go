package handler

import (
	"log/slog"
	"net/http"

	"github.com/ecoride/ecoride-core/internal/middleware"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/service"
	"github.com/ecoride/ecoride-core/pkg/utils"
	"github.com/go-chi/chi/v5"
)

type MessageHandler struct {
	messageService service.MessageService
	logger         *slog.Logger
}

func NewMessageHandler(messageService service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messageService: messageService, logger: logger}
}

func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/messages/conversations", h.Conversations)
	r.Get("/messages/{peerId}", h.Conversation)
	r.Post("/messages/{peerId}", h.Send)
}

// GET /messages/conversations
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.messageService.Conversations(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, convs)
}

// GET /messages/{peerId}
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	peerID, ok := peerID(w, r)
	if !ok {
		return
	}

	msgs, err := h.messageService.Conversation(r.Context(), middleware.UserID(r.Context()), peerID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, msgs)
}

// POST /messages/{peerId}
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	peerID, ok := peerID(w, r)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}

	msg, err := h.messageService.Send(r.Context(), middleware.UserID(r.Context()), peerID, req.Content)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Created(w, msg)
}

func peerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "peerId")
	if !utils.IsValidUUID(id) {
		utils.NotFound(w, "user")
		return "", false
	}
	return id, true
}
