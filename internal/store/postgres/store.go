package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

// Compile-time check to ensure PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

func NewPostgresStore(db *pgxpool.Pool, log zerolog.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log.With().Str("component", "postgres").Logger()}
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const createOrganisation = `
INSERT INTO organisations (
    id, name, assistant_id, logo_url, accent_color, notification_email,
    slack_bot_token_enc, slack_signing_enc, admin_slack_ids
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at;
`

func (s *PostgresStore) CreateOrganisation(ctx context.Context, org *models.Organisation) error {
	err := s.db.QueryRow(ctx, createOrganisation,
		org.ID,
		org.Name,
		org.AssistantID,
		org.LogoURL,
		org.AccentColor,
		org.NotificationEmail,
		org.SlackBotTokenEnc,
		org.SlackSigningEnc,
		org.AdminSlackIDs,
	).Scan(&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		s.log.Error().Err(err).Str("org_id", org.ID).Msg("create organisation")
		return fmt.Errorf("database error creating organisation: %w", err)
	}
	return nil
}

const getOrganisationByID = `
SELECT id, name, assistant_id, logo_url, accent_color, notification_email,
       slack_bot_token_enc, slack_signing_enc, admin_slack_ids, created_at, updated_at
FROM organisations
WHERE id = $1;
`

func (s *PostgresStore) GetOrganisationByID(ctx context.Context, id string) (*models.Organisation, error) {
	org := &models.Organisation{}
	err := s.db.QueryRow(ctx, getOrganisationByID, id).Scan(
		&org.ID,
		&org.Name,
		&org.AssistantID,
		&org.LogoURL,
		&org.AccentColor,
		&org.NotificationEmail,
		&org.SlackBotTokenEnc,
		&org.SlackSigningEnc,
		&org.AdminSlackIDs,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching organisation: %w", err)
	}
	return org, nil
}

const updateOrganisationSettings = `
UPDATE organisations SET
    name = COALESCE($2, name),
    logo_url = COALESCE($3, logo_url),
    accent_color = COALESCE($4, accent_color),
    notification_email = COALESCE($5, notification_email),
    slack_bot_token_enc = COALESCE($6, slack_bot_token_enc),
    slack_signing_enc = COALESCE($7, slack_signing_enc),
    admin_slack_ids = COALESCE($8, admin_slack_ids),
    updated_at = NOW()
WHERE id = $1
RETURNING id, name, assistant_id, logo_url, accent_color, notification_email,
          slack_bot_token_enc, slack_signing_enc, admin_slack_ids, created_at, updated_at;
`

func (s *PostgresStore) UpdateOrganisationSettings(ctx context.Context, arg store.UpdateOrganisationSettingsParams) (*models.Organisation, error) {
	org := &models.Organisation{}
	err := s.db.QueryRow(ctx, updateOrganisationSettings,
		arg.ID,
		arg.Name,
		arg.LogoURL,
		arg.AccentColor,
		arg.NotificationEmail,
		arg.SlackBotTokenEnc,
		arg.SlackSigningEnc,
		arg.AdminSlackIDs,
	).Scan(
		&org.ID,
		&org.Name,
		&org.AssistantID,
		&org.LogoURL,
		&org.AccentColor,
		&org.NotificationEmail,
		&org.SlackBotTokenEnc,
		&org.SlackSigningEnc,
		&org.AdminSlackIDs,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error updating organisation settings: %w", err)
	}
	return org, nil
}

const getUserByEmail = `
SELECT id, organisation_id, email, hashed_password, is_admin, created_at, updated_at
FROM users
WHERE email = $1;
`

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx, getUserByEmail, email).Scan(
		&user.ID,
		&user.OrganisationID,
		&user.Email,
		&user.HashedPassword,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

const createUser = `
INSERT INTO users (id, organisation_id, email, hashed_password, is_admin)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at;
`

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.QueryRow(ctx, createUser,
		user.ID,
		user.OrganisationID,
		user.Email,
		user.HashedPassword,
		user.IsAdmin,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			s.log.Warn().Str("email", user.Email).Msg("create user: email already exists")
		} else {
			s.log.Error().Err(err).Str("email", user.Email).Msg("create user")
		}
		return fmt.Errorf("database error creating user: %w", err)
	}
	return nil
}

const setUserOrganisation = `
UPDATE users SET organisation_id = $2, is_admin = $3, updated_at = NOW()
WHERE id = $1;
`

func (s *PostgresStore) SetUserOrganisation(ctx context.Context, userID, orgID string, isAdmin bool) error {
	tag, err := s.db.Exec(ctx, setUserOrganisation, userID, orgID, isAdmin)
	if err != nil {
		return fmt.Errorf("database error updating user organisation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
