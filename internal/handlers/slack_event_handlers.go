package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"supportline-backend/internal/models"
	"supportline-backend/pkg/httputil"
)

// SlackEventProcessor handles decoded Slack events. Processing errors are
// dealt with inside (apology posts, logging); they never surface as HTTP
// errors because Slack would retry the event.
type SlackEventProcessor interface {
	HandleSlashEvent(ctx context.Context, ev models.SlackSlashEvent)
	HandleBotEvent(ctx context.Context, ev models.SlackBotEvent)
}

type SlackEventHandler struct {
	slackService SlackEventProcessor
	log          zerolog.Logger
}

func NewSlackEventHandler(slackService SlackEventProcessor, log zerolog.Logger) *SlackEventHandler {
	return &SlackEventHandler{
		slackService: slackService,
		log:          log.With().Str("handler", "slack-events").Logger(),
	}
}

// HandleSlashEvent handles POST /events/slack.
func (h *SlackEventHandler) HandleSlashEvent(w http.ResponseWriter, r *http.Request) {
	var ev models.SlackSlashEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid event payload")
		return
	}
	defer r.Body.Close()

	if ev.OrganisationID == "" || ev.UserID == "" || ev.ResponseURL == "" {
		httputil.RespondError(w, http.StatusBadRequest, "organisation_id, user_id and response_url are required")
		return
	}

	h.slackService.HandleSlashEvent(r.Context(), ev)
	w.WriteHeader(http.StatusOK)
}

// HandleBotEvent handles POST /events/slack-bot.
func (h *SlackEventHandler) HandleBotEvent(w http.ResponseWriter, r *http.Request) {
	var ev models.SlackBotEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid event payload")
		return
	}
	defer r.Body.Close()

	if ev.OrganisationID == "" || ev.UserID == "" || ev.ChannelID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "organisation_id, user_id and channel_id are required")
		return
	}

	h.slackService.HandleBotEvent(r.Context(), ev)
	w.WriteHeader(http.StatusOK)
}
