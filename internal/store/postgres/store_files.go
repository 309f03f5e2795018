package postgres

import (
	"context"
	"fmt"

	"supportline-backend/internal/models"
)

const createKnowledgeFile = `
INSERT INTO knowledge_files (id, organisation_id, filename, provider_file_id)
VALUES ($1, $2, $3, $4)
RETURNING created_at;
`

func (s *PostgresStore) CreateKnowledgeFile(ctx context.Context, file *models.KnowledgeFile) error {
	err := s.db.QueryRow(ctx, createKnowledgeFile,
		file.ID,
		file.OrganisationID,
		file.Filename,
		file.ProviderFileID,
	).Scan(&file.CreatedAt)
	if err != nil {
		s.log.Error().Err(err).Str("file_id", file.ID).Msg("create knowledge file")
		return fmt.Errorf("database error creating knowledge file: %w", err)
	}
	return nil
}

const listKnowledgeFilesByOrg = `
SELECT id, organisation_id, filename, provider_file_id, created_at
FROM knowledge_files
WHERE organisation_id = $1
ORDER BY created_at DESC;
`

func (s *PostgresStore) ListKnowledgeFilesByOrg(ctx context.Context, orgID string) ([]models.KnowledgeFile, error) {
	rows, err := s.db.Query(ctx, listKnowledgeFilesByOrg, orgID)
	if err != nil {
		return nil, fmt.Errorf("database error listing knowledge files: %w", err)
	}
	defer rows.Close()

	var files []models.KnowledgeFile
	for rows.Next() {
		var f models.KnowledgeFile
		if err := rows.Scan(&f.ID, &f.OrganisationID, &f.Filename, &f.ProviderFileID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning knowledge file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating knowledge files: %w", err)
	}
	return files, nil
}
