package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"supportline-backend/internal/assistant"
	"supportline-backend/internal/ident"
	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

// ErrInvalidCreator is returned when an inbound message claims a creator the
// channel may not use.
var ErrInvalidCreator = errors.New("inbound creator must be CONTACT or USER")

// ConversationService is the conversation orchestrator: it turns one inbound
// message into zero-or-more outbound assistant messages, enforcing the
// human-interruption policy and atomic persistence of the full exchange.
type ConversationService struct {
	store         store.Store
	runner        *assistant.Runner
	notifications *NotificationService
	locks         *convLocks
	log           zerolog.Logger
}

func NewConversationService(st store.Store, runner *assistant.Runner, notifications *NotificationService, log zerolog.Logger) *ConversationService {
	return &ConversationService{
		store:         st,
		runner:        runner,
		notifications: notifications,
		locks:         newConvLocks(),
		log:           log.With().Str("component", "conversations").Logger(),
	}
}

// HandleInboundMessage processes one inbound message on an existing
// conversation and returns the resulting outbound messages in order.
//
// When the conversation is interrupted, or the sender is a human operator,
// the assistant is never invoked: the inbound message is persisted (flipping
// the interrupted flag for operator messages) and the outbound sequence is
// empty. When the assistant run fails, nothing is persisted at all — the
// caller retries or surfaces the error, and no phantom half-exchange is
// recorded.
func (s *ConversationService) HandleInboundMessage(ctx context.Context, conversationID, text string, creator models.Creator) ([]models.OutboundMessage, error) {
	if creator != models.CreatorContact && creator != models.CreatorUser {
		return nil, ErrInvalidCreator
	}

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	conv, err := s.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	org, err := s.store.GetOrganisationByID(ctx, conv.OrganisationID)
	if err != nil {
		return nil, err
	}

	inbound := s.newInboundMessage(conv, text, creator)

	// Escalation gate: a human operator owns the conversation, either
	// already (interrupted) or as of this message (creator USER).
	if conv.Interrupted || creator == models.CreatorUser {
		var setInterrupted *bool
		takenOver := creator == models.CreatorUser && !conv.Interrupted
		if takenOver {
			t := true
			setInterrupted = &t
		}

		// An operator message (re)opens the conversation; a contact message
		// on an interrupted conversation leaves its status alone.
		status := conv.Status
		if creator == models.CreatorUser {
			status = models.ConversationOpen
		}

		err := s.store.SaveExchange(ctx, store.SaveExchangeParams{
			ConversationID: conv.ID,
			Messages:       []models.Message{inbound},
			LastMessageAt:  inbound.CreatedAt,
			Status:         status,
			SetInterrupted: setInterrupted,
		})
		if err != nil {
			return nil, fmt.Errorf("persist inbound message: %w", err)
		}

		if takenOver {
			s.notifications.NotifyTakeover(ctx, org, conv)
		}
		return []models.OutboundMessage{}, nil
	}

	replies, err := s.runner.Run(ctx, conv.ThreadID, org.AssistantID, text, assistant.ToolContext{
		OrganisationID: conv.OrganisationID,
		ContactID:      conv.ContactID,
	})
	if err != nil {
		// All-or-nothing: the inbound message is deliberately not saved so
		// a retry replays the full exchange.
		s.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("assistant run failed")
		return nil, err
	}

	batch := make([]models.Message, 0, len(replies)+1)
	batch = append(batch, inbound)
	outbound := make([]models.OutboundMessage, 0, len(replies))
	lastMessageAt := inbound.CreatedAt
	for i, reply := range replies {
		msg := models.Message{
			ID:             ident.New(ident.PrefixMessage),
			ConversationID: conv.ID,
			Text:           reply.Text,
			Creator:        models.CreatorAgent,
			CreatedAt:      inbound.CreatedAt + 1 + int64(i),
			Version:        models.MessageVersion,
			Citations:      reply.Citations,
		}
		batch = append(batch, msg)
		lastMessageAt = msg.CreatedAt
		outbound = append(outbound, models.OutboundMessage{
			ID:             msg.ID,
			ConversationID: msg.ConversationID,
			Message:        msg.Text,
			Creator:        msg.Creator,
			CreatedAt:      msg.CreatedAt,
			Citations:      msg.Citations,
		})
	}

	err = s.store.SaveExchange(ctx, store.SaveExchangeParams{
		ConversationID: conv.ID,
		Messages:       batch,
		LastMessageAt:  lastMessageAt,
		Status:         models.ConversationOpen,
	})
	if err != nil {
		return nil, fmt.Errorf("persist exchange: %w", err)
	}

	s.log.Info().
		Str("conversation_id", conv.ID).
		Int("outbound", len(outbound)).
		Msg("inbound message handled")
	return outbound, nil
}

// newInboundMessage stamps the inbound message with a logical timestamp that
// is strictly after everything already in the conversation, even when the
// wall clock has not advanced a millisecond.
func (s *ConversationService) newInboundMessage(conv *models.Conversation, text string, creator models.Creator) models.Message {
	ts := time.Now().UnixMilli()
	if ts <= conv.LastMessageAt {
		ts = conv.LastMessageAt + 1
	}
	return models.Message{
		ID:             ident.New(ident.PrefixMessage),
		ConversationID: conv.ID,
		Text:           text,
		Creator:        creator,
		CreatedAt:      ts,
		Version:        models.MessageVersion,
	}
}
