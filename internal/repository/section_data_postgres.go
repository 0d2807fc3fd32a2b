package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SectionDataRepository defines the interface for section draft persistence
type SectionDataRepository interface {
	Get(ctx context.Context, documentID, section string) (*entity.SectionDraft, error)
	Upsert(ctx context.Context, documentID, section string, data map[string]any) (*entity.SectionDraft, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.SectionDraft, error)
}

var _ SectionDataRepository = &SectionDataPostgres{}

// SectionDataPostgres implements SectionDataRepository using PostgreSQL.
// Draft data is stored as one JSONB blob per (document, section) row.
type SectionDataPostgres struct {
	db *pgxpool.Pool
}

func NewSectionDataPostgres(db *pgxpool.Pool) *SectionDataPostgres {
	return &SectionDataPostgres{db: db}
}

func (r *SectionDataPostgres) Get(ctx context.Context, documentID, section string) (*entity.SectionDraft, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row sectionDataRow
	err = r.db.QueryRow(ctx, `
		SELECT id, document_id, section, data
		FROM section_data
		WHERE document_id = $1 AND section = $2`,
		docID, section,
	).Scan(&row.ID, &row.DocumentID, &row.Section, &row.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get section data: %w", err)
	}

	return toEntitySectionDraft(&row), nil
}

func (r *SectionDataPostgres) Upsert(ctx context.Context, documentID, section string, data map[string]any) (*entity.SectionDraft, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row sectionDataRow
	err = r.db.QueryRow(ctx, `
		INSERT INTO section_data (document_id, section, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, section) DO UPDATE SET data = EXCLUDED.data
		RETURNING id, document_id, section, data`,
		docID, section, data,
	).Scan(&row.ID, &row.DocumentID, &row.Section, &row.Data)
	if err != nil {
		return nil, fmt.Errorf("upsert section data: %w", err)
	}

	return toEntitySectionDraft(&row), nil
}

func (r *SectionDataPostgres) ListByDocument(ctx context.Context, documentID string) ([]*entity.SectionDraft, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, document_id, section, data
		FROM section_data
		WHERE document_id = $1`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("list section data: %w", err)
	}
	defer rows.Close()

	drafts := make([]*entity.SectionDraft, 0)
	for rows.Next() {
		var row sectionDataRow
		if err := rows.Scan(&row.ID, &row.DocumentID, &row.Section, &row.Data); err != nil {
			return nil, fmt.Errorf("scan section data: %w", err)
		}
		drafts = append(drafts, toEntitySectionDraft(&row))
	}

	return drafts, rows.Err()
}
