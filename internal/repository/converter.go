package repository

import (
	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Row structs mirror the table columns so scanning and conversion stay
// in one place per model.

type documentRow struct {
	ID        pgtype.UUID
	Topic     string
	ThreadID  pgtype.Text
	PDFData   []byte
	CreatedAt pgtype.Timestamptz
}

type projectRow struct {
	ID         pgtype.UUID
	Name       string
	DocumentID pgtype.UUID
	CreatedAt  pgtype.Timestamptz
}

type sectionDataRow struct {
	ID         int32
	DocumentID pgtype.UUID
	Section    string
	Data       map[string]any
}

type approvedRow struct {
	ID            int32
	DocumentID    pgtype.UUID
	Section       string
	Subsection    string
	ApprovedValue string
	ApprovedAt    pgtype.Timestamptz
}

type activeSubsectionRow struct {
	ID           int32
	DocumentID   pgtype.UUID
	Section      string
	Subsection   string
	LastAccessed pgtype.Timestamptz
}

type chatMessageRow struct {
	ID         int32
	DocumentID pgtype.UUID
	Role       string
	Content    string
	Section    pgtype.Text
	Subsection pgtype.Text
	CreatedAt  pgtype.Timestamptz
}

type documentFileRow struct {
	ID          pgtype.UUID
	DocumentID  pgtype.UUID
	Filename    string
	Size        int64
	ContentType string
	CreatedAt   pgtype.Timestamptz
}

type coverPageRow struct {
	ID         int32
	DocumentID pgtype.UUID
	Data       map[string]map[string]any
	UpdatedAt  pgtype.Timestamptz
}

func toEntityDocument(row *documentRow) *entity.Document {
	documentUUID := uuid.UUID(row.ID.Bytes)

	doc := &entity.Document{
		ID:        documentUUID.String(),
		Topic:     row.Topic,
		PDFData:   row.PDFData,
		CreatedAt: row.CreatedAt.Time,
	}

	if row.ThreadID.Valid {
		threadID := row.ThreadID.String
		doc.ThreadID = &threadID
	}

	return doc
}

func toEntityProject(row *projectRow) *entity.Project {
	projectUUID := uuid.UUID(row.ID.Bytes)
	documentUUID := uuid.UUID(row.DocumentID.Bytes)

	return &entity.Project{
		ID:         projectUUID.String(),
		Name:       row.Name,
		DocumentID: documentUUID.String(),
		CreatedAt:  row.CreatedAt.Time,
	}
}

func toEntitySectionDraft(row *sectionDataRow) *entity.SectionDraft {
	documentUUID := uuid.UUID(row.DocumentID.Bytes)

	return &entity.SectionDraft{
		ID:         int(row.ID),
		DocumentID: documentUUID.String(),
		Section:    row.Section,
		Data:       row.Data,
	}
}

func toEntityApproved(row *approvedRow) *entity.ApprovedSubsection {
	documentUUID := uuid.UUID(row.DocumentID.Bytes)

	return &entity.ApprovedSubsection{
		ID:            int(row.ID),
		DocumentID:    documentUUID.String(),
		Section:       row.Section,
		Subsection:    row.Subsection,
		ApprovedValue: row.ApprovedValue,
		ApprovedAt:    row.ApprovedAt.Time,
	}
}

func toEntityActiveSubsection(row *activeSubsectionRow) *entity.ActiveSubsection {
	documentUUID := uuid.UUID(row.DocumentID.Bytes)

	return &entity.ActiveSubsection{
		ID:           int(row.ID),
		DocumentID:   documentUUID.String(),
		Section:      row.Section,
		Subsection:   row.Subsection,
		LastAccessed: row.LastAccessed.Time,
	}
}

func toEntityChatMessage(row *chatMessageRow) *entity.ChatMessage {
	documentUUID := uuid.UUID(row.DocumentID.Bytes)

	msg := &entity.ChatMessage{
		ID:         int(row.ID),
		DocumentID: documentUUID.String(),
		Role:       entity.MessageRole(row.Role),
		Content:    row.Content,
		CreatedAt:  row.CreatedAt.Time,
	}

	if row.Section.Valid {
		section := row.Section.String
		msg.Section = &section
	}

	if row.Subsection.Valid {
		subsection := row.Subsection.String
		msg.Subsection = &subsection
	}

	return msg
}

func toEntityDocumentFile(row *documentFileRow) *entity.DocumentFile {
	fileUUID := uuid.UUID(row.ID.Bytes)
	documentUUID := uuid.UUID(row.DocumentID.Bytes)

	return &entity.DocumentFile{
		ID:          fileUUID.String(),
		DocumentID:  documentUUID.String(),
		Filename:    row.Filename,
		Size:        row.Size,
		ContentType: row.ContentType,
		CreatedAt:   row.CreatedAt.Time,
	}
}

func toEntityCoverPage(row *coverPageRow) *entity.CoverPage {
	documentUUID := uuid.UUID(row.DocumentID.Bytes)

	cover := &entity.CoverPage{
		DocumentID: documentUUID.String(),
		Data:       row.Data,
	}

	if row.UpdatedAt.Valid {
		updatedAt := row.UpdatedAt.Time
		cover.UpdatedAt = &updatedAt
	}

	return cover
}

func parseUUID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
