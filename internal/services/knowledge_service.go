package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"supportline-backend/internal/assistant"
	"supportline-backend/internal/ident"
	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

// ErrEmptyFile is returned when a knowledge file upload carries no content.
var ErrEmptyFile = errors.New("knowledge file is empty")

// KnowledgeFileService uploads documents to an organisation's assistant and
// records them.
type KnowledgeFileService struct {
	store    store.Store
	provider assistant.Provider
	log      zerolog.Logger
}

func NewKnowledgeFileService(st store.Store, provider assistant.Provider, log zerolog.Logger) *KnowledgeFileService {
	return &KnowledgeFileService{
		store:    st,
		provider: provider,
		log:      log.With().Str("component", "knowledge").Logger(),
	}
}

// Upload pushes the file to the assistant provider and records the mapping.
func (s *KnowledgeFileService) Upload(ctx context.Context, orgID, filename string, content []byte) (*models.KnowledgeFileResponse, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "document"
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}

	// The organisation must exist before anything is sent to the provider.
	if _, err := s.store.GetOrganisationByID(ctx, orgID); err != nil {
		return nil, err
	}

	providerFileID, err := s.provider.UploadKnowledgeFile(ctx, filename, content)
	if err != nil {
		return nil, fmt.Errorf("upload file to provider: %w", err)
	}

	file := &models.KnowledgeFile{
		ID:             ident.New(ident.PrefixFile),
		OrganisationID: orgID,
		Filename:       filename,
		ProviderFileID: providerFileID,
	}
	if err := s.store.CreateKnowledgeFile(ctx, file); err != nil {
		return nil, err
	}

	s.log.Info().Str("org_id", orgID).Str("file_id", file.ID).Msg("knowledge file uploaded")
	return mapKnowledgeFileToResponse(file), nil
}

// List returns the organisation's uploaded knowledge files.
func (s *KnowledgeFileService) List(ctx context.Context, orgID string) ([]models.KnowledgeFileResponse, error) {
	files, err := s.store.ListKnowledgeFilesByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	responses := make([]models.KnowledgeFileResponse, 0, len(files))
	for i := range files {
		responses = append(responses, *mapKnowledgeFileToResponse(&files[i]))
	}
	return responses, nil
}

func mapKnowledgeFileToResponse(file *models.KnowledgeFile) *models.KnowledgeFileResponse {
	return &models.KnowledgeFileResponse{
		ID:             file.ID,
		Filename:       file.Filename,
		ProviderFileID: file.ProviderFileID,
		CreatedAt:      file.CreatedAt,
	}
}
