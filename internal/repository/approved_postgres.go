package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApprovedRepository defines the interface for approved subsection persistence
type ApprovedRepository interface {
	Upsert(ctx context.Context, documentID, section, subsection, value string) (*entity.ApprovedSubsection, error)
	Get(ctx context.Context, documentID, section, subsection string) (*entity.ApprovedSubsection, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.ApprovedSubsection, error)
}

var _ ApprovedRepository = &ApprovedPostgres{}

// ApprovedPostgres implements ApprovedRepository using PostgreSQL.
// Re-approving replaces the stored value; there is never more than one
// approved value per (document, section, subsection).
type ApprovedPostgres struct {
	db *pgxpool.Pool
}

func NewApprovedPostgres(db *pgxpool.Pool) *ApprovedPostgres {
	return &ApprovedPostgres{db: db}
}

func (r *ApprovedPostgres) Upsert(ctx context.Context, documentID, section, subsection, value string) (*entity.ApprovedSubsection, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row approvedRow
	err = r.db.QueryRow(ctx, `
		INSERT INTO approved_subsections (document_id, section, subsection, approved_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id, section, subsection)
		DO UPDATE SET approved_value = EXCLUDED.approved_value, approved_at = now()
		RETURNING id, document_id, section, subsection, approved_value, approved_at`,
		docID, section, subsection, value,
	).Scan(&row.ID, &row.DocumentID, &row.Section, &row.Subsection, &row.ApprovedValue, &row.ApprovedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert approved subsection: %w", err)
	}

	return toEntityApproved(&row), nil
}

func (r *ApprovedPostgres) Get(ctx context.Context, documentID, section, subsection string) (*entity.ApprovedSubsection, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row approvedRow
	err = r.db.QueryRow(ctx, `
		SELECT id, document_id, section, subsection, approved_value, approved_at
		FROM approved_subsections
		WHERE document_id = $1 AND section = $2 AND subsection = $3`,
		docID, section, subsection,
	).Scan(&row.ID, &row.DocumentID, &row.Section, &row.Subsection, &row.ApprovedValue, &row.ApprovedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get approved subsection: %w", err)
	}

	return toEntityApproved(&row), nil
}

func (r *ApprovedPostgres) ListByDocument(ctx context.Context, documentID string) ([]*entity.ApprovedSubsection, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, document_id, section, subsection, approved_value, approved_at
		FROM approved_subsections
		WHERE document_id = $1
		ORDER BY section, subsection`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("list approved subsections: %w", err)
	}
	defer rows.Close()

	approved := make([]*entity.ApprovedSubsection, 0)
	for rows.Next() {
		var row approvedRow
		if err := rows.Scan(&row.ID, &row.DocumentID, &row.Section, &row.Subsection, &row.ApprovedValue, &row.ApprovedAt); err != nil {
			return nil, fmt.Errorf("scan approved subsection: %w", err)
		}
		approved = append(approved, toEntityApproved(&row))
	}

	return approved, rows.Err()
}
