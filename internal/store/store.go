package store

import (
	"context"
	"errors"

	"supportline-backend/internal/models"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// UpdateOrganisationSettingsParams contains the optional fields of a settings
// update. Nil pointers (and nil byte slices) leave the column untouched.
type UpdateOrganisationSettingsParams struct {
	ID                string
	Name              *string
	LogoURL           *string
	AccentColor       *string
	NotificationEmail *string
	SlackBotTokenEnc  []byte
	SlackSigningEnc   []byte
	AdminSlackIDs     []string
}

// UpdateContactDetailsParams contains the progressively-filled contact
// fields. Nil pointers leave the column untouched.
type UpdateContactDetailsParams struct {
	ID             string
	OrganisationID string
	Name           *string
	Email          *string
	Phone          *string
}

// SaveExchangeParams describes one atomic conversation write: the inbound
// message plus zero-or-more outbound messages, the conversation's new
// last-message timestamp and status, and an optional interrupted flip.
// Implementations must apply all of it in a single transaction.
type SaveExchangeParams struct {
	ConversationID string
	Messages       []models.Message
	LastMessageAt  int64
	Status         models.ConversationStatus
	SetInterrupted *bool
}

// Store defines the interface for database operations. It exists so services
// can be tested against fakes and the backend swapped out.
type Store interface {
	// Organisation operations
	CreateOrganisation(ctx context.Context, org *models.Organisation) error
	GetOrganisationByID(ctx context.Context, id string) (*models.Organisation, error)
	UpdateOrganisationSettings(ctx context.Context, arg UpdateOrganisationSettingsParams) (*models.Organisation, error)

	// User operations
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SetUserOrganisation(ctx context.Context, userID, orgID string, isAdmin bool) error

	// Contact operations
	CreateContact(ctx context.Context, contact *models.Contact) error
	GetContactByID(ctx context.Context, id, orgID string) (*models.Contact, error)
	GetContactBySlackUser(ctx context.Context, orgID, slackUserID string) (*models.Contact, error)
	UpdateContactDetails(ctx context.Context, arg UpdateContactDetailsParams) (*models.Contact, error)

	// Conversation operations
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	GetConversationBySlackThread(ctx context.Context, orgID, threadTS string) (*models.Conversation, error)
	ListConversationsByOrg(ctx context.Context, orgID string, limit, offset int) ([]models.Conversation, error)

	// Message operations
	SaveExchange(ctx context.Context, arg SaveExchangeParams) error
	ListMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error)

	// Knowledge file operations
	CreateKnowledgeFile(ctx context.Context, file *models.KnowledgeFile) error
	ListKnowledgeFilesByOrg(ctx context.Context, orgID string) ([]models.KnowledgeFile, error)
}
