package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	Create(ctx context.Context, document entity.Document) (*entity.Document, error)
	Get(ctx context.Context, id string) (*entity.Document, error)
	SetThreadID(ctx context.Context, id, threadID string) error
	SetPDF(ctx context.Context, id string, pdf []byte) error
	Delete(ctx context.Context, id string) error
}

var _ DocumentRepository = &DocumentPostgres{}

// DocumentPostgres implements DocumentRepository using PostgreSQL
type DocumentPostgres struct {
	db *pgxpool.Pool
}

func NewDocumentPostgres(db *pgxpool.Pool) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

func (r *DocumentPostgres) Create(ctx context.Context, document entity.Document) (*entity.Document, error) {
	documentID, err := parseUUID(document.ID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row documentRow
	err = r.db.QueryRow(ctx, `
		INSERT INTO documents (id, topic)
		VALUES ($1, $2)
		RETURNING id, topic, thread_id, pdf_data, created_at`,
		documentID, document.Topic,
	).Scan(&row.ID, &row.Topic, &row.ThreadID, &row.PDFData, &row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	return toEntityDocument(&row), nil
}

func (r *DocumentPostgres) Get(ctx context.Context, id string) (*entity.Document, error) {
	documentID, err := parseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row documentRow
	err = r.db.QueryRow(ctx, `
		SELECT id, topic, thread_id, pdf_data, created_at
		FROM documents
		WHERE id = $1`,
		documentID,
	).Scan(&row.ID, &row.Topic, &row.ThreadID, &row.PDFData, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return toEntityDocument(&row), nil
}

func (r *DocumentPostgres) SetThreadID(ctx context.Context, id, threadID string) error {
	documentID, err := parseUUID(id)
	if err != nil {
		return fmt.Errorf("parse document ID: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE documents SET thread_id = $2 WHERE id = $1`,
		documentID, threadID,
	)
	if err != nil {
		return fmt.Errorf("set thread ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrDocumentNotFound
	}

	return nil
}

func (r *DocumentPostgres) SetPDF(ctx context.Context, id string, pdf []byte) error {
	documentID, err := parseUUID(id)
	if err != nil {
		return fmt.Errorf("parse document ID: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE documents SET pdf_data = $2 WHERE id = $1`,
		documentID, pdf,
	)
	if err != nil {
		return fmt.Errorf("set PDF data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrDocumentNotFound
	}

	return nil
}

func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	documentID, err := parseUUID(id)
	if err != nil {
		return fmt.Errorf("parse document ID: %w", err)
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrDocumentNotFound
	}

	return nil
}
