package services

import (
	"context"
	"crypto/cipher"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"supportline-backend/internal/assistant"
	"supportline-backend/internal/crypto"
	"supportline-backend/internal/ident"
	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

// ErrOrgValidation wraps organisation input validation failures.
var ErrOrgValidation = errors.New("organisation validation failed")

const defaultAssistantInstructions = "You are a friendly customer-support assistant. Answer using the " +
	"organisation's knowledge files when possible. When the customer shares their name, email " +
	"address or phone number, call the save_contact_details tool with exactly those fields."

// OrgService manages organisations: creation (including assistant
// provisioning), settings updates and the admin read APIs.
type OrgService struct {
	store    store.Store
	provider assistant.Provider
	aead     cipher.AEAD
	log      zerolog.Logger
}

func NewOrgService(st store.Store, provider assistant.Provider, aead cipher.AEAD, log zerolog.Logger) *OrgService {
	return &OrgService{
		store:    st,
		provider: provider,
		aead:     aead,
		log:      log.With().Str("component", "organisations").Logger(),
	}
}

// CreateOrganisation creates an organisation for the calling user, who
// becomes its admin. When no assistant id is supplied a new assistant is
// provisioned with the provider first.
func (s *OrgService) CreateOrganisation(ctx context.Context, userID string, req models.CreateOrganisationRequest) (*models.OrganisationResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrOrgValidation)
	}

	assistantID := ""
	if req.AssistantID != nil && *req.AssistantID != "" {
		assistantID = *req.AssistantID
	} else {
		instructions := defaultAssistantInstructions
		if req.Instructions != nil && *req.Instructions != "" {
			instructions = *req.Instructions
		}
		created, err := s.provider.CreateAssistant(ctx, name, instructions)
		if err != nil {
			return nil, fmt.Errorf("provision assistant: %w", err)
		}
		assistantID = created
	}

	org := &models.Organisation{
		ID:                ident.New(ident.PrefixOrganisation),
		Name:              name,
		AssistantID:       assistantID,
		LogoURL:           req.LogoURL,
		AccentColor:       req.AccentColor,
		NotificationEmail: req.NotificationEmail,
	}

	if req.Slack != nil {
		var err error
		org.SlackBotTokenEnc, org.SlackSigningEnc, err = s.encryptSlack(req.Slack)
		if err != nil {
			return nil, err
		}
		org.AdminSlackIDs = req.Slack.AdminSlackIDs
	}

	if err := s.store.CreateOrganisation(ctx, org); err != nil {
		return nil, err
	}
	if err := s.store.SetUserOrganisation(ctx, userID, org.ID, true); err != nil {
		return nil, fmt.Errorf("attach user to organisation: %w", err)
	}

	s.log.Info().Str("org_id", org.ID).Str("assistant_id", assistantID).Msg("organisation created")
	return mapOrganisationToResponse(org), nil
}

// UpdateSettings applies a partial settings update (branding, notification
// email, Slack credentials).
func (s *OrgService) UpdateSettings(ctx context.Context, orgID string, req models.UpdateOrganisationSettingsRequest) (*models.OrganisationResponse, error) {
	params := store.UpdateOrganisationSettingsParams{
		ID:                orgID,
		Name:              req.Name,
		LogoURL:           req.LogoURL,
		AccentColor:       req.AccentColor,
		NotificationEmail: req.NotificationEmail,
	}
	if req.Slack != nil {
		var err error
		params.SlackBotTokenEnc, params.SlackSigningEnc, err = s.encryptSlack(req.Slack)
		if err != nil {
			return nil, err
		}
		params.AdminSlackIDs = req.Slack.AdminSlackIDs
	}

	org, err := s.store.UpdateOrganisationSettings(ctx, params)
	if err != nil {
		return nil, err
	}
	return mapOrganisationToResponse(org), nil
}

// GetOrganisation returns the organisation without its credentials.
func (s *OrgService) GetOrganisation(ctx context.Context, orgID string) (*models.OrganisationResponse, error) {
	org, err := s.store.GetOrganisationByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return mapOrganisationToResponse(org), nil
}

// ListConversations returns the organisation's conversation summaries,
// newest first and excluding drafts.
func (s *OrgService) ListConversations(ctx context.Context, orgID string, limit, offset int) (*models.ListConversationsResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	conversations, err := s.store.ListConversationsByOrg(ctx, orgID, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summaries = append(summaries, models.ConversationSummary{
			ID:            conv.ID,
			ContactID:     conv.ContactID,
			Status:        conv.Status,
			Sentiment:     conv.Sentiment,
			Summary:       conv.Summary,
			Interrupted:   conv.Interrupted,
			Channel:       conv.Channel,
			CreatedAt:     conv.CreatedAt,
			LastMessageAt: conv.LastMessageAt,
		})
	}
	return &models.ListConversationsResponse{Conversations: summaries}, nil
}

// ListMessages returns a conversation's messages in chronological order. The
// conversation must belong to the organisation or the call fails NotFound.
func (s *OrgService) ListMessages(ctx context.Context, orgID, conversationID string, limit, offset int) (*models.ListMessagesResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	conv, err := s.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.OrganisationID != orgID {
		return nil, store.ErrNotFound
	}

	messages, err := s.store.ListMessagesByConversation(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &models.ListMessagesResponse{Messages: messages}, nil
}

func (s *OrgService) encryptSlack(settings *models.SlackSettings) (tokenEnc, signingEnc []byte, err error) {
	if settings.BotToken != "" {
		tokenEnc, err = crypto.EncryptString(s.aead, settings.BotToken)
		if err != nil {
			return nil, nil, fmt.Errorf("encrypt slack bot token: %w", err)
		}
	}
	if settings.SigningSecret != "" {
		signingEnc, err = crypto.EncryptString(s.aead, settings.SigningSecret)
		if err != nil {
			return nil, nil, fmt.Errorf("encrypt slack signing secret: %w", err)
		}
	}
	return tokenEnc, signingEnc, nil
}

func mapOrganisationToResponse(org *models.Organisation) *models.OrganisationResponse {
	return &models.OrganisationResponse{
		ID:                org.ID,
		Name:              org.Name,
		AssistantID:       org.AssistantID,
		LogoURL:           org.LogoURL,
		AccentColor:       org.AccentColor,
		NotificationEmail: org.NotificationEmail,
		SlackConfigured:   len(org.SlackBotTokenEnc) > 0,
		CreatedAt:         org.CreatedAt,
		UpdatedAt:         org.UpdatedAt,
	}
}
