package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

const createContact = `
INSERT INTO contacts (id, organisation_id, name, email, phone, slack_user_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at;
`

func (s *PostgresStore) CreateContact(ctx context.Context, contact *models.Contact) error {
	err := s.db.QueryRow(ctx, createContact,
		contact.ID,
		contact.OrganisationID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.SlackUserID,
	).Scan(&contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		s.log.Error().Err(err).Str("contact_id", contact.ID).Msg("create contact")
		return fmt.Errorf("database error creating contact: %w", err)
	}
	return nil
}

const getContactByID = `
SELECT id, organisation_id, name, email, phone, slack_user_id, created_at, updated_at
FROM contacts
WHERE id = $1 AND organisation_id = $2;
`

func (s *PostgresStore) GetContactByID(ctx context.Context, id, orgID string) (*models.Contact, error) {
	contact := &models.Contact{}
	err := s.db.QueryRow(ctx, getContactByID, id, orgID).Scan(
		&contact.ID,
		&contact.OrganisationID,
		&contact.Name,
		&contact.Email,
		&contact.Phone,
		&contact.SlackUserID,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching contact: %w", err)
	}
	return contact, nil
}

const getContactBySlackUser = `
SELECT id, organisation_id, name, email, phone, slack_user_id, created_at, updated_at
FROM contacts
WHERE organisation_id = $1 AND slack_user_id = $2;
`

func (s *PostgresStore) GetContactBySlackUser(ctx context.Context, orgID, slackUserID string) (*models.Contact, error) {
	contact := &models.Contact{}
	err := s.db.QueryRow(ctx, getContactBySlackUser, orgID, slackUserID).Scan(
		&contact.ID,
		&contact.OrganisationID,
		&contact.Name,
		&contact.Email,
		&contact.Phone,
		&contact.SlackUserID,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching contact by slack user: %w", err)
	}
	return contact, nil
}

const updateContactDetails = `
UPDATE contacts SET
    name = COALESCE($3, name),
    email = COALESCE($4, email),
    phone = COALESCE($5, phone),
    updated_at = NOW()
WHERE id = $1 AND organisation_id = $2
RETURNING id, organisation_id, name, email, phone, slack_user_id, created_at, updated_at;
`

func (s *PostgresStore) UpdateContactDetails(ctx context.Context, arg store.UpdateContactDetailsParams) (*models.Contact, error) {
	contact := &models.Contact{}
	err := s.db.QueryRow(ctx, updateContactDetails,
		arg.ID,
		arg.OrganisationID,
		arg.Name,
		arg.Email,
		arg.Phone,
	).Scan(
		&contact.ID,
		&contact.OrganisationID,
		&contact.Name,
		&contact.Email,
		&contact.Phone,
		&contact.SlackUserID,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error updating contact details: %w", err)
	}
	return contact, nil
}
