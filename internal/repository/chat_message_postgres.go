package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatMessageRepository defines the interface for conversation turn persistence
type ChatMessageRepository interface {
	Append(ctx context.Context, message entity.ChatMessage) (*entity.ChatMessage, error)
	ListBySubsection(ctx context.Context, documentID, section, subsection string, limit, offset int) ([]*entity.ChatMessage, error)
	LatestAssistant(ctx context.Context, documentID, section, subsection string) (*entity.ChatMessage, error)
	CountByDocument(ctx context.Context, documentID string) (int, error)
}

var _ ChatMessageRepository = &ChatMessagePostgres{}

// ChatMessagePostgres implements ChatMessageRepository using PostgreSQL.
// The table is append-only; turns are never updated or deleted.
type ChatMessagePostgres struct {
	db *pgxpool.Pool
}

func NewChatMessagePostgres(db *pgxpool.Pool) *ChatMessagePostgres {
	return &ChatMessagePostgres{db: db}
}

func (r *ChatMessagePostgres) Append(ctx context.Context, message entity.ChatMessage) (*entity.ChatMessage, error) {
	docID, err := parseUUID(message.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	section := pgtype.Text{}
	if message.Section != nil {
		section = pgtype.Text{String: *message.Section, Valid: true}
	}
	subsection := pgtype.Text{}
	if message.Subsection != nil {
		subsection = pgtype.Text{String: *message.Subsection, Valid: true}
	}

	var row chatMessageRow
	err = r.db.QueryRow(ctx, `
		INSERT INTO chat_messages (document_id, role, content, section, subsection)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, document_id, role, content, section, subsection, created_at`,
		docID, string(message.Role), message.Content, section, subsection,
	).Scan(&row.ID, &row.DocumentID, &row.Role, &row.Content, &row.Section, &row.Subsection, &row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}

	return toEntityChatMessage(&row), nil
}

func (r *ChatMessagePostgres) CountByDocument(ctx context.Context, documentID string) (int, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return 0, fmt.Errorf("parse document ID: %w", err)
	}

	var count int
	err = r.db.QueryRow(ctx, `
		SELECT count(*) FROM chat_messages WHERE document_id = $1`,
		docID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count chat messages: %w", err)
	}

	return count, nil
}

func (r *ChatMessagePostgres) ListBySubsection(ctx context.Context, documentID, section, subsection string, limit, offset int) ([]*entity.ChatMessage, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, document_id, role, content, section, subsection, created_at
		FROM chat_messages
		WHERE document_id = $1 AND section = $2 AND subsection = $3
		ORDER BY created_at ASC, id ASC
		LIMIT $4 OFFSET $5`,
		docID, section, subsection, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*entity.ChatMessage, 0)
	for rows.Next() {
		var row chatMessageRow
		if err := rows.Scan(&row.ID, &row.DocumentID, &row.Role, &row.Content, &row.Section, &row.Subsection, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, toEntityChatMessage(&row))
	}

	return messages, rows.Err()
}

func (r *ChatMessagePostgres) LatestAssistant(ctx context.Context, documentID, section, subsection string) (*entity.ChatMessage, error) {
	docID, err := parseUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row chatMessageRow
	err = r.db.QueryRow(ctx, `
		SELECT id, document_id, role, content, section, subsection, created_at
		FROM chat_messages
		WHERE document_id = $1 AND section = $2 AND subsection = $3 AND role = $4
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		docID, section, subsection, string(entity.RoleAssistant),
	).Scan(&row.ID, &row.DocumentID, &row.Role, &row.Content, &row.Section, &row.Subsection, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest assistant message: %w", err)
	}

	return toEntityChatMessage(&row), nil
}
