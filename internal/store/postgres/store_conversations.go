package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

const createConversation = `
INSERT INTO conversations (
    id, organisation_id, contact_id, status, sentiment, summary, interrupted,
    channel, thread_id, slack_thread_ts, created_at, last_message_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
`

func (s *PostgresStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	_, err := s.db.Exec(ctx, createConversation,
		conv.ID,
		conv.OrganisationID,
		conv.ContactID,
		conv.Status,
		conv.Sentiment,
		conv.Summary,
		conv.Interrupted,
		conv.Channel,
		conv.ThreadID,
		conv.SlackThreadTS,
		conv.CreatedAt,
		conv.LastMessageAt,
	)
	if err != nil {
		s.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("create conversation")
		return fmt.Errorf("database error creating conversation: %w", err)
	}
	return nil
}

const conversationColumns = `
id, organisation_id, contact_id, status, sentiment, summary, interrupted,
channel, thread_id, slack_thread_ts, created_at, last_message_at`

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := row.Scan(
		&conv.ID,
		&conv.OrganisationID,
		&conv.ContactID,
		&conv.Status,
		&conv.Sentiment,
		&conv.Summary,
		&conv.Interrupted,
		&conv.Channel,
		&conv.ThreadID,
		&conv.SlackThreadTS,
		&conv.CreatedAt,
		&conv.LastMessageAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning conversation: %w", err)
	}
	return conv, nil
}

func (s *PostgresStore) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1;`
	return scanConversation(s.db.QueryRow(ctx, query, id))
}

func (s *PostgresStore) GetConversationBySlackThread(ctx context.Context, orgID, threadTS string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE organisation_id = $1 AND slack_thread_ts = $2;`
	return scanConversation(s.db.QueryRow(ctx, query, orgID, threadTS))
}

const listConversationsByOrg = `
SELECT id, organisation_id, contact_id, status, sentiment, summary, interrupted,
       channel, thread_id, slack_thread_ts, created_at, last_message_at
FROM conversations
WHERE organisation_id = $1 AND status <> 'DRAFT'
ORDER BY last_message_at DESC
LIMIT $2 OFFSET $3;
`

// ListConversationsByOrg returns the organisation's conversations newest
// first, excluding drafts.
func (s *PostgresStore) ListConversationsByOrg(ctx context.Context, orgID string, limit, offset int) ([]models.Conversation, error) {
	rows, err := s.db.Query(ctx, listConversationsByOrg, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database error listing conversations: %w", err)
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating conversations: %w", err)
	}
	return conversations, nil
}
