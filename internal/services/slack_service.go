package services

import (
	"context"
	"crypto/cipher"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"supportline-backend/internal/assistant"
	"supportline-backend/internal/crypto"
	"supportline-backend/internal/ident"
	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

// ctaSuffix is appended to every assistant reply posted back into Slack.
const ctaSuffix = "_Need more help? Reply here and our team will jump in._"

// apologyText is posted when reply delivery is possible but processing
// failed. Internal detail never reaches the channel.
const apologyText = "Sorry, something went wrong on our side. Please try again in a moment."

// SlackSender is the outbound half of the Slack adapter; tests substitute a
// fake.
type SlackSender interface {
	PostMessage(ctx context.Context, botToken, channelID, threadTS, text string) error
	PostResponseURL(ctx context.Context, responseURL, text string) error
}

// SlackService adapts Slack events into orchestrator calls and posts the
// replies back. Errors are swallowed after an apology: Slack retries
// aggressively on non-200 responses and a duplicate exchange is worse than a
// dropped one.
type SlackService struct {
	store         store.Store
	conversations *ConversationService
	provider      assistant.Provider
	notifications *NotificationService
	sender        SlackSender
	aead          cipher.AEAD
	log           zerolog.Logger
}

func NewSlackService(
	st store.Store,
	conversations *ConversationService,
	provider assistant.Provider,
	notifications *NotificationService,
	sender SlackSender,
	aead cipher.AEAD,
	log zerolog.Logger,
) *SlackService {
	return &SlackService{
		store:         st,
		conversations: conversations,
		provider:      provider,
		notifications: notifications,
		sender:        sender,
		aead:          aead,
		log:           log.With().Str("component", "slack-events").Logger(),
	}
}

// HandleSlashEvent processes a Message.Slack event. The reply goes to the
// one-shot response URL.
func (s *SlackService) HandleSlashEvent(ctx context.Context, ev models.SlackSlashEvent) {
	// Slash invocations have no thread; key the conversation on the
	// channel/user pair so follow-up commands continue the same exchange.
	threadKey := fmt.Sprintf("slash:%s:%s", ev.ChannelID, ev.UserID)

	outbound, err := s.processInbound(ctx, ev.OrganisationID, ev.UserID, ev.Text, threadKey)
	if err != nil {
		s.log.Error().Err(err).Str("org_id", ev.OrganisationID).Msg("slash event failed")
		if postErr := s.sender.PostResponseURL(ctx, ev.ResponseURL, apologyText); postErr != nil {
			s.log.Error().Err(postErr).Msg("apology delivery failed")
		}
		return
	}

	for _, msg := range outbound {
		if err := s.sender.PostResponseURL(ctx, ev.ResponseURL, formatReply(msg)); err != nil {
			s.log.Error().Err(err).Str("conversation_id", msg.ConversationID).Msg("reply delivery failed")
			return
		}
	}
}

// HandleBotEvent processes a Message.SlackBot event: a message inside a
// threaded bot conversation.
func (s *SlackService) HandleBotEvent(ctx context.Context, ev models.SlackBotEvent) {
	threadTS := ev.ThreadTS
	if threadTS == "" {
		threadTS = ev.MessageTS
	}

	org, err := s.store.GetOrganisationByID(ctx, ev.OrganisationID)
	if err != nil {
		s.log.Error().Err(err).Str("org_id", ev.OrganisationID).Msg("bot event for unknown organisation")
		return
	}
	botToken, err := crypto.DecryptString(s.aead, org.SlackBotTokenEnc)
	if err != nil {
		s.log.Error().Err(err).Str("org_id", org.ID).Msg("decrypt bot token")
		return
	}

	outbound, err := s.processInbound(ctx, ev.OrganisationID, ev.UserID, ev.Text, threadTS)
	if err != nil {
		if errors.Is(err, errAdminWithoutConversation) {
			// Nothing to interrupt and admins never open conversations.
			return
		}
		s.log.Error().Err(err).Str("org_id", ev.OrganisationID).Msg("bot event failed")
		if postErr := s.sender.PostMessage(ctx, botToken, ev.ChannelID, threadTS, apologyText); postErr != nil {
			s.log.Error().Err(postErr).Msg("apology delivery failed")
		}
		return
	}

	for _, msg := range outbound {
		if err := s.sender.PostMessage(ctx, botToken, ev.ChannelID, threadTS, formatReply(msg)); err != nil {
			s.log.Error().Err(err).Str("conversation_id", msg.ConversationID).Msg("reply delivery failed")
			return
		}
	}
}

// errAdminWithoutConversation marks an admin message that matched no
// existing conversation; it is deliberately ignored rather than apologised
// for.
var errAdminWithoutConversation = errors.New("admin message without an existing conversation")

// processInbound resolves (or lazily creates) the contact and conversation
// for a Slack sender/thread pair and forwards the message to the
// orchestrator. Admin senders only ever mark existing conversations
// interrupted.
func (s *SlackService) processInbound(ctx context.Context, orgID, slackUserID, text, threadKey string) ([]models.OutboundMessage, error) {
	org, err := s.store.GetOrganisationByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	isAdmin := containsString(org.AdminSlackIDs, slackUserID)

	conv, err := s.store.GetConversationBySlackThread(ctx, orgID, threadKey)
	if errors.Is(err, store.ErrNotFound) {
		if isAdmin {
			return nil, errAdminWithoutConversation
		}
		conv, err = s.createConversation(ctx, org, slackUserID, threadKey)
	}
	if err != nil {
		return nil, err
	}

	creator := models.CreatorContact
	if isAdmin {
		creator = models.CreatorUser
	}
	return s.conversations.HandleInboundMessage(ctx, conv.ID, text, creator)
}

func (s *SlackService) createConversation(ctx context.Context, org *models.Organisation, slackUserID, threadKey string) (*models.Conversation, error) {
	contact, err := s.store.GetContactBySlackUser(ctx, org.ID, slackUserID)
	if errors.Is(err, store.ErrNotFound) {
		contact = &models.Contact{
			ID:             ident.New(ident.PrefixContact),
			OrganisationID: org.ID,
			SlackUserID:    &slackUserID,
		}
		err = s.store.CreateContact(ctx, contact)
	}
	if err != nil {
		return nil, err
	}

	threadID, err := s.provider.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("create assistant thread: %w", err)
	}

	now := time.Now().UnixMilli()
	conv := &models.Conversation{
		ID:             ident.New(ident.PrefixConversation),
		OrganisationID: org.ID,
		ContactID:      contact.ID,
		Status:         models.ConversationOpen,
		Channel:        models.ChannelSlack,
		ThreadID:       threadID,
		SlackThreadTS:  &threadKey,
		CreatedAt:      now,
		LastMessageAt:  now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	s.notifications.NotifyNewConversation(ctx, org, conv, contact)
	s.log.Info().Str("conversation_id", conv.ID).Str("contact_id", contact.ID).Msg("slack conversation created")
	return conv, nil
}

// formatReply renders one outbound message for Slack: body, citation
// sources, then the fixed call-to-action.
func formatReply(msg models.OutboundMessage) string {
	var b strings.Builder
	b.WriteString(msg.Message)
	for _, c := range msg.Citations {
		if c.Source != "" {
			b.WriteString("\n> ")
			b.WriteString(c.Source)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(ctaSuffix)
	return b.String()
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
