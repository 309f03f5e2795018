package models

import "time"

// --- Auth DTOs ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse defines the user information returned by the API.
// Never include HashedPassword here.
type UserResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	OrganisationID string `json:"organisation_id"`
	IsAdmin        bool   `json:"is_admin"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Chat DTOs ---

// ChatRequest defines the body for the inbound HTTP chat endpoint.
type ChatRequest struct {
	ConversationID string  `json:"conversation_id"`
	Message        string  `json:"message"`
	Creator        Creator `json:"creator"`
}

// OutboundMessage is one assistant reply returned to the origin channel.
type OutboundMessage struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	Message        string     `json:"message"`
	Creator        Creator    `json:"creator"`
	CreatedAt      int64      `json:"created_at"`
	Citations      []Citation `json:"citations,omitempty"`
}

// --- Organisation DTOs ---

// SlackSettings carries the plaintext Slack credentials on create/update
// requests only. They are encrypted before storage and never returned.
type SlackSettings struct {
	BotToken      string   `json:"bot_token"`
	SigningSecret string   `json:"signing_secret"`
	AdminSlackIDs []string `json:"admin_slack_ids,omitempty"`
}

// CreateOrganisationRequest defines the body for creating an organisation.
// When AssistantID is empty a new assistant is provisioned with the provider.
type CreateOrganisationRequest struct {
	Name              string         `json:"name"`
	AssistantID       *string        `json:"assistant_id,omitempty"`
	Instructions      *string        `json:"instructions,omitempty"`
	LogoURL           *string        `json:"logo_url,omitempty"`
	AccentColor       *string        `json:"accent_color,omitempty"`
	NotificationEmail *string        `json:"notification_email,omitempty"`
	Slack             *SlackSettings `json:"slack,omitempty"`
}

// UpdateOrganisationSettingsRequest defines the body for partial settings
// updates. Only non-nil fields are applied.
type UpdateOrganisationSettingsRequest struct {
	Name              *string        `json:"name,omitempty"`
	LogoURL           *string        `json:"logo_url,omitempty"`
	AccentColor       *string        `json:"accent_color,omitempty"`
	NotificationEmail *string        `json:"notification_email,omitempty"`
	Slack             *SlackSettings `json:"slack,omitempty"`
}

// OrganisationResponse defines the data returned for an organisation.
// Credentials are excluded.
type OrganisationResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	AssistantID       string    `json:"assistant_id"`
	LogoURL           *string   `json:"logo_url,omitempty"`
	AccentColor       *string   `json:"accent_color,omitempty"`
	NotificationEmail *string   `json:"notification_email,omitempty"`
	SlackConfigured   bool      `json:"slack_configured"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ConversationSummary is the list representation of a conversation.
type ConversationSummary struct {
	ID            string             `json:"id"`
	ContactID     string             `json:"contact_id"`
	Status        ConversationStatus `json:"status"`
	Sentiment     *int               `json:"sentiment,omitempty"`
	Summary       *string            `json:"summary,omitempty"`
	Interrupted   bool               `json:"interrupted"`
	Channel       Channel            `json:"channel"`
	CreatedAt     int64              `json:"created_at"`
	LastMessageAt int64              `json:"last_message_at"`
}

// ListConversationsResponse defines the response for the conversation list.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// ListMessagesResponse defines the response for a conversation's messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

// KnowledgeFileResponse defines the data returned for an uploaded file.
type KnowledgeFileResponse struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	ProviderFileID string    `json:"provider_file_id"`
	CreatedAt      time.Time `json:"created_at"`
}
