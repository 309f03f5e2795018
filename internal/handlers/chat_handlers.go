package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"supportline-backend/internal/models"
	"supportline-backend/internal/services"
	"supportline-backend/internal/store"
	"supportline-backend/pkg/httputil"
)

// ConversationOrchestrator is the inbound-message entry point the chat
// endpoint calls into.
type ConversationOrchestrator interface {
	HandleInboundMessage(ctx context.Context, conversationID, text string, creator models.Creator) ([]models.OutboundMessage, error)
}

type ChatHandler struct {
	conversations ConversationOrchestrator
	log           zerolog.Logger
}

func NewChatHandler(conversations ConversationOrchestrator, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		log:           log.With().Str("handler", "chat").Logger(),
	}
}

// HandleChat handles the POST /chat request: one inbound message in, the
// ordered outbound assistant messages back.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.ConversationID == "" || strings.TrimSpace(req.Message) == "" {
		httputil.RespondError(w, http.StatusBadRequest, "conversation_id and message are required")
		return
	}
	creator := req.Creator
	if creator == "" {
		creator = models.CreatorContact
	}

	outbound, err := h.conversations.HandleInboundMessage(r.Context(), req.ConversationID, req.Message, creator)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
		case errors.Is(err, services.ErrInvalidCreator):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			// Run failures and persistence errors alike: the caller only
			// learns that the exchange did not happen.
			h.log.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("chat request failed")
			httputil.RespondError(w, http.StatusInternalServerError, "Something went wrong handling the message")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, outbound)
}
