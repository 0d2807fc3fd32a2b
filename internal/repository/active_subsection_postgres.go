package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActiveSubsectionRepository defines the interface for working-position persistence
type ActiveSubsectionRepository interface {
	Touch(ctx context.Context, documentID, section, subsection string) (*entity.ActiveSubsection, error)
	Current(ctx context.Context, documentID string) (*entity.ActiveSubsection, error)
}

var _ ActiveSubsectionRepository = &ActiveSubsectionPostgres{}

// ActiveSubsectionPostgres implements ActiveSubsectionRepository using
// PostgreSQL. The row with the newest last_accessed is the current
// working position for the document.
type ActiveSubsectionPostgres struct {
	db *pgxpool.Pool
}

func NewActiveSubsectionPostgres(db *pgxpool.Pool) *ActiveSubsectionPostgres {
	return &ActiveSubsectionPostgres{db: db}
}

func (r *ActiveSubsectionPostgres) Touch(ctx context.Context, documentID, section, subsection string) (*entity.ActiveSubsection, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row activeSubsectionRow
	err = r.db.QueryRow(ctx, `
		INSERT INTO active_subsections (document_id, section, subsection)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, section, subsection)
		DO UPDATE SET last_accessed = now()
		RETURNING id, document_id, section, subsection, last_accessed`,
		docID, section, subsection,
	).Scan(&row.ID, &row.DocumentID, &row.Section, &row.Subsection, &row.LastAccessed)
	if err != nil {
		return nil, fmt.Errorf("touch active subsection: %w", err)
	}

	return toEntityActiveSubsection(&row), nil
}

func (r *ActiveSubsectionPostgres) Current(ctx context.Context, documentID string) (*entity.ActiveSubsection, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row activeSubsectionRow
	err = r.db.QueryRow(ctx, `
		SELECT id, document_id, section, subsection, last_accessed
		FROM active_subsections
		WHERE document_id = $1
		ORDER BY last_accessed DESC
		LIMIT 1`,
		docID,
	).Scan(&row.ID, &row.DocumentID, &row.Section, &row.Subsection, &row.LastAccessed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNoActiveSubsection
		}
		return nil, fmt.Errorf("get active subsection: %w", err)
	}

	return toEntityActiveSubsection(&row), nil
}
