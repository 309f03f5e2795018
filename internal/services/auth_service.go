package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"supportline-backend/internal/auth"
	"supportline-backend/internal/config"
	"supportline-backend/internal/ident"
	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

// Custom errors for the auth service.
var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrHashingPassword    = errors.New("failed to hash password")
	ErrCreatingToken      = errors.New("failed to create access token")
	ErrValidation         = errors.New("input validation failed")
)

type AuthService struct {
	store store.Store
	cfg   *config.Config
	log   zerolog.Logger
}

func NewAuthService(s store.Store, cfg *config.Config, log zerolog.Logger) *AuthService {
	return &AuthService{
		store: s,
		cfg:   cfg,
		log:   log.With().Str("component", "auth").Logger(),
	}
}

// Signup creates a user together with a personal workspace organisation. A
// proper organisation (with a provisioned assistant) is created later through
// the organisations API, which repoints the user.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password cannot be empty", ErrValidation)
	}

	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("hash password")
		return nil, ErrHashingPassword
	}

	org := &models.Organisation{
		ID:   ident.New(ident.PrefixOrganisation),
		Name: fmt.Sprintf("%s's Workspace", email),
	}
	if err := s.store.CreateOrganisation(ctx, org); err != nil {
		return nil, fmt.Errorf("creating workspace organisation failed: %w", err)
	}

	user := &models.User{
		ID:             ident.New(ident.PrefixUser),
		OrganisationID: org.ID,
		Email:          email,
		HashedPassword: hashedPassword,
		IsAdmin:        true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user failed: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("org_id", org.ID).Msg("user signed up")
	return user, nil
}

// Login verifies credentials and returns an access token plus the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't reveal whether the user exists.
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.HashedPassword) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(user.ID, user.OrganisationID, user.IsAdmin, s.cfg.JWTSecret, s.cfg.TokenExpiration)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("sign access token")
		return "", nil, ErrCreatingToken
	}

	return token, user, nil
}
