package models

import (
	"encoding/json"
	"time"
)

// ConversationStatus is the closed set of conversation states.
type ConversationStatus string

const (
	ConversationOpen   ConversationStatus = "OPEN"
	ConversationClosed ConversationStatus = "CLOSED"
	ConversationDraft  ConversationStatus = "DRAFT"
)

// Channel identifies the origin channel of a conversation.
type Channel string

const (
	ChannelWeb   Channel = "WEB"
	ChannelSlack Channel = "SLACK"
)

// Creator identifies who authored a message.
type Creator string

const (
	CreatorContact Creator = "CONTACT" // the end customer
	CreatorUser    Creator = "USER"    // a human operator from the organisation
	CreatorAgent   Creator = "AGENT"   // the AI assistant
)

// MessageVersion is the current schema-evolution marker written on new messages.
const MessageVersion = 2

// Organisation represents a tenant. Slack credentials are stored encrypted
// (AES-GCM, nonce-prefixed) and must never leave the store decrypted except
// into the Slack sender.
type Organisation struct {
	ID                string    `db:"id"`
	Name              string    `db:"name"`
	AssistantID       string    `db:"assistant_id"`
	LogoURL           *string   `db:"logo_url"`
	AccentColor       *string   `db:"accent_color"`
	NotificationEmail *string   `db:"notification_email"`
	SlackBotTokenEnc  []byte    `db:"slack_bot_token_enc"`
	SlackSigningEnc   []byte    `db:"slack_signing_enc"`
	AdminSlackIDs     []string  `db:"admin_slack_ids"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// User represents an operator account belonging to an organisation.
type User struct {
	ID             string    `db:"id"`
	OrganisationID string    `db:"organisation_id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	IsAdmin        bool      `db:"is_admin"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Contact represents an end customer. Name, email and phone start out nil and
// are filled in progressively (usually by the assistant's
// save_contact_details tool).
type Contact struct {
	ID             string    `db:"id"`
	OrganisationID string    `db:"organisation_id"`
	Name           *string   `db:"name"`
	Email          *string   `db:"email"`
	Phone          *string   `db:"phone"`
	SlackUserID    *string   `db:"slack_user_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Conversation is one support thread between a contact and the organisation.
// CreatedAt and LastMessageAt are logical millisecond timestamps and
// LastMessageAt never decreases. Once Interrupted is true the assistant must
// not auto-respond until the flag is cleared.
type Conversation struct {
	ID             string             `db:"id"`
	OrganisationID string             `db:"organisation_id"`
	ContactID      string             `db:"contact_id"`
	Status         ConversationStatus `db:"status"`
	Sentiment      *int               `db:"sentiment"`
	Summary        *string            `db:"summary"`
	Interrupted    bool               `db:"interrupted"`
	Channel        Channel            `db:"channel"`
	ThreadID       string             `db:"thread_id"` // assistant-provider thread reference
	SlackThreadTS  *string            `db:"slack_thread_ts"`
	CreatedAt      int64              `db:"created_at"`
	LastMessageAt  int64              `db:"last_message_at"`
}

// Citation is a source reference carried alongside an assistant message after
// inline annotation markers have been stripped from the text.
type Citation struct {
	Excerpt string `json:"excerpt,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Message is one append-only entry in a conversation. Messages sharing a
// conversation are strictly ordered by CreatedAt; insertion order breaks ties.
type Message struct {
	ID             string     `db:"id" json:"id"`
	ConversationID string     `db:"conversation_id" json:"conversation_id"`
	Text           string     `db:"text" json:"message"`
	Creator        Creator    `db:"creator" json:"creator"`
	CreatedAt      int64      `db:"created_at" json:"created_at"`
	Version        int        `db:"version" json:"version"`
	Citations      []Citation `db:"citations" json:"citations,omitempty"`
}

// KnowledgeFile records a document uploaded to an organisation's assistant.
type KnowledgeFile struct {
	ID             string    `db:"id"`
	OrganisationID string    `db:"organisation_id"`
	Filename       string    `db:"filename"`
	ProviderFileID string    `db:"provider_file_id"`
	CreatedAt      time.Time `db:"created_at"`
}

// CitationsJSON marshals citations for JSONB storage; nil stays nil so the
// column remains NULL for citation-free messages.
func (m *Message) CitationsJSON() ([]byte, error) {
	if len(m.Citations) == 0 {
		return nil, nil
	}
	return json.Marshal(m.Citations)
}
