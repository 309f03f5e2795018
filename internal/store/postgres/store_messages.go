package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

const insertMessage = `
INSERT INTO messages (id, conversation_id, text, creator, created_at, version, citations)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`

const bumpConversation = `
UPDATE conversations SET
    last_message_at = GREATEST(last_message_at, $2),
    status = $3,
    interrupted = COALESCE($4, interrupted)
WHERE id = $1;
`

// SaveExchange writes a full inbound/outbound exchange and the conversation
// row update as one transaction. Either everything commits or nothing does,
// so a failed insert never leaves a phantom half-exchange behind.
func (s *PostgresStore) SaveExchange(ctx context.Context, arg store.SaveExchangeParams) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database error starting exchange transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range arg.Messages {
		m := &arg.Messages[i]
		citations, err := m.CitationsJSON()
		if err != nil {
			return fmt.Errorf("marshal citations for message %s: %w", m.ID, err)
		}
		if _, err := tx.Exec(ctx, insertMessage,
			m.ID,
			m.ConversationID,
			m.Text,
			m.Creator,
			m.CreatedAt,
			m.Version,
			citations,
		); err != nil {
			s.log.Error().Err(err).Str("message_id", m.ID).Msg("insert message")
			return fmt.Errorf("database error inserting message: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, bumpConversation,
		arg.ConversationID,
		arg.LastMessageAt,
		arg.Status,
		arg.SetInterrupted,
	)
	if err != nil {
		return fmt.Errorf("database error updating conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database error committing exchange: %w", err)
	}
	return nil
}

const listMessagesByConversation = `
SELECT id, conversation_id, text, creator, created_at, version, citations
FROM messages
WHERE conversation_id = $1
ORDER BY created_at ASC, seq ASC
LIMIT $2 OFFSET $3;
`

// ListMessagesByConversation returns messages in chronological order; the
// insertion sequence breaks created_at ties.
func (s *PostgresStore) ListMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	rows, err := s.db.Query(ctx, listMessagesByConversation, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database error listing messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var citations []byte
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.Text,
			&m.Creator,
			&m.CreatedAt,
			&m.Version,
			&citations,
		); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		if len(citations) > 0 {
			if err := json.Unmarshal(citations, &m.Citations); err != nil {
				return nil, fmt.Errorf("unmarshal citations for message %s: %w", m.ID, err)
			}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating messages: %w", err)
	}
	return messages, nil
}
