package entity

import (
	"time"
)

// MessageRole identifies the author of a conversation turn.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Document represents one report instance. ThreadID stays nil until the
// first conversation is started; it is only ever replaced by an explicit
// new-thread operation so that conversations of different documents never
// share context.
type Document struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	ThreadID  *string   `json:"thread_id,omitempty"`
	PDFData   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a named handle over a document.
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	DocumentID string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// SectionDraft holds extracted-but-unapproved values for one section,
// keyed by subsection name. Values may be strings or nested structures
// pending normalization at approval time.
type SectionDraft struct {
	ID         int            `json:"id"`
	DocumentID string         `json:"document_id"`
	Section    string         `json:"section"`
	Data       map[string]any `json:"data"`
}

// ApprovedSubsection is the single user-confirmed value for a
// (document, section, subsection) triple. Approval always replaces the
// whole value, it is never merged.
type ApprovedSubsection struct {
	ID            int       `json:"id"`
	DocumentID    string    `json:"document_id"`
	Section       string    `json:"section"`
	Subsection    string    `json:"subsection"`
	ApprovedValue string    `json:"approved_value"`
	ApprovedAt    time.Time `json:"approved_at"`
}

// ActiveSubsection tracks which (section, subsection) pair the user is
// currently working on for a document. The most recently accessed row is
// the current one.
type ActiveSubsection struct {
	ID           int       `json:"id"`
	DocumentID   string    `json:"document_id"`
	Section      string    `json:"section"`
	Subsection   string    `json:"subsection"`
	LastAccessed time.Time `json:"last_accessed"`
}

// ChatMessage is one turn of the document conversation, tagged with the
// subsection context that was active when it was produced. Append-only.
type ChatMessage struct {
	ID         int         `json:"id"`
	DocumentID string      `json:"document_id"`
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	Section    *string     `json:"section,omitempty"`
	Subsection *string     `json:"subsection,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// DocumentFile records an attachment uploaded into a document.
type DocumentFile struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Filename    string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatPDF      ResultFormat = "pdf"
	FormatDOCX     ResultFormat = "docx"
)
