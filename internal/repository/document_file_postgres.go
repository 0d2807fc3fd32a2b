package repository

import (
	"context"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentFileRepository defines the interface for attachment metadata persistence
type DocumentFileRepository interface {
	Create(ctx context.Context, file entity.DocumentFile) (*entity.DocumentFile, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.DocumentFile, error)
}

var _ DocumentFileRepository = &DocumentFilePostgres{}

// DocumentFilePostgres implements DocumentFileRepository using PostgreSQL
type DocumentFilePostgres struct {
	db *pgxpool.Pool
}

func NewDocumentFilePostgres(db *pgxpool.Pool) *DocumentFilePostgres {
	return &DocumentFilePostgres{db: db}
}

func (r *DocumentFilePostgres) Create(ctx context.Context, file entity.DocumentFile) (*entity.DocumentFile, error) {
	fileID, err := parseUUID(file.ID)
	if err != nil {
		return nil, fmt.Errorf("parse file ID: %w", err)
	}

	docID, err := parseUUID(file.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row documentFileRow
	err = r.db.QueryRow(ctx, `
		INSERT INTO document_files (id, document_id, filename, size, content_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, document_id, filename, size, content_type, created_at`,
		fileID, docID, file.Filename, file.Size, file.ContentType,
	).Scan(&row.ID, &row.DocumentID, &row.Filename, &row.Size, &row.ContentType, &row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create document file: %w", err)
	}

	return toEntityDocumentFile(&row), nil
}

func (r *DocumentFilePostgres) ListByDocument(ctx context.Context, documentID string) ([]*entity.DocumentFile, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, document_id, filename, size, content_type, created_at
		FROM document_files
		WHERE document_id = $1
		ORDER BY created_at ASC`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("list document files: %w", err)
	}
	defer rows.Close()

	files := make([]*entity.DocumentFile, 0)
	for rows.Next() {
		var row documentFileRow
		if err := rows.Scan(&row.ID, &row.DocumentID, &row.Filename, &row.Size, &row.ContentType, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document file: %w", err)
		}
		files = append(files, toEntityDocumentFile(&row))
	}

	return files, rows.Err()
}
