package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CoverPageRepository defines the interface for cover page persistence
type CoverPageRepository interface {
	Get(ctx context.Context, documentID string) (*entity.CoverPage, error)
	Upsert(ctx context.Context, documentID string, data map[string]map[string]any) (*entity.CoverPage, error)
	Delete(ctx context.Context, documentID string) error
}

var _ CoverPageRepository = &CoverPagePostgres{}

// CoverPagePostgres implements CoverPageRepository using PostgreSQL.
// One JSONB blob per document, keyed category -> field.
type CoverPagePostgres struct {
	db *pgxpool.Pool
}

func NewCoverPagePostgres(db *pgxpool.Pool) *CoverPagePostgres {
	return &CoverPagePostgres{db: db}
}

// Get returns nil, nil when the document has no cover page data yet.
func (r *CoverPagePostgres) Get(ctx context.Context, documentID string) (*entity.CoverPage, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row coverPageRow
	err = r.db.QueryRow(ctx, `
		SELECT id, document_id, data, updated_at
		FROM cover_page_data
		WHERE document_id = $1`,
		docID,
	).Scan(&row.ID, &row.DocumentID, &row.Data, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cover page data: %w", err)
	}

	return toEntityCoverPage(&row), nil
}

func (r *CoverPagePostgres) Upsert(ctx context.Context, documentID string, data map[string]map[string]any) (*entity.CoverPage, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row coverPageRow
	err = r.db.QueryRow(ctx, `
		INSERT INTO cover_page_data (document_id, data)
		VALUES ($1, $2)
		ON CONFLICT (document_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		RETURNING id, document_id, data, updated_at`,
		docID, data,
	).Scan(&row.ID, &row.DocumentID, &row.Data, &row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert cover page data: %w", err)
	}

	return toEntityCoverPage(&row), nil
}

func (r *CoverPagePostgres) Delete(ctx context.Context, documentID string) error {
	docID, err := parseUUID(documentID)
	if err != nil {
		return fmt.Errorf("parse document ID: %w", err)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM cover_page_data WHERE document_id = $1`, docID); err != nil {
		return fmt.Errorf("delete cover page data: %w", err)
	}
	return nil
}
