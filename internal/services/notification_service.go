package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"supportline-backend/internal/integrations/email"
	"supportline-backend/internal/models"
)

// Email template identifiers configured with the email provider.
const (
	templateNewConversation = "tx-new-conversation"
	templateTakeoverAlert   = "tx-conversation-interrupted"
)

const (
	notifyAttempts = 3
	notifyBackoff  = 2 * time.Second
)

// EmailSender is the slice of the email client the notification service
// needs; tests substitute a fake.
type EmailSender interface {
	SendTransactional(ctx context.Context, req email.TransactionalRequest) error
}

// NotificationService sends digest/alert emails. Notifications are strictly
// best-effort: failures are retried briefly, then logged and dropped. They
// never propagate to the message flow.
type NotificationService struct {
	email EmailSender // nil when the provider is not configured
	log   zerolog.Logger
}

func NewNotificationService(sender EmailSender, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		email: sender,
		log:   log.With().Str("component", "notifications").Logger(),
	}
}

// NotifyNewConversation emails the organisation that a new conversation has
// started.
func (s *NotificationService) NotifyNewConversation(ctx context.Context, org *models.Organisation, conv *models.Conversation, contact *models.Contact) {
	if org.NotificationEmail == nil {
		return
	}
	vars := map[string]string{
		"organisation":    org.Name,
		"conversation_id": conv.ID,
		"channel":         string(conv.Channel),
	}
	if contact != nil && contact.Name != nil {
		vars["contact_name"] = *contact.Name
	}
	s.send(ctx, email.TransactionalRequest{
		TransactionalID: templateNewConversation,
		Email:           *org.NotificationEmail,
		DataVariables:   vars,
	})
}

// NotifyTakeover emails the organisation that a human operator has taken
// over a conversation.
func (s *NotificationService) NotifyTakeover(ctx context.Context, org *models.Organisation, conv *models.Conversation) {
	if org.NotificationEmail == nil {
		return
	}
	s.send(ctx, email.TransactionalRequest{
		TransactionalID: templateTakeoverAlert,
		Email:           *org.NotificationEmail,
		DataVariables: map[string]string{
			"organisation":    org.Name,
			"conversation_id": conv.ID,
		},
	})
}

func (s *NotificationService) send(ctx context.Context, req email.TransactionalRequest) {
	if s.email == nil {
		return
	}

	var err error
	for attempt := 1; attempt <= notifyAttempts; attempt++ {
		if err = s.email.SendTransactional(ctx, req); err == nil {
			return
		}
		if attempt < notifyAttempts {
			select {
			case <-ctx.Done():
				s.log.Warn().Err(ctx.Err()).Str("template", req.TransactionalID).Msg("notification abandoned")
				return
			case <-time.After(time.Duration(attempt) * notifyBackoff):
			}
		}
	}
	s.log.Error().Err(err).Str("template", req.TransactionalID).Msg("notification dropped after retries")
}
