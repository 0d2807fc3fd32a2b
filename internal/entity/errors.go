package entity

import "errors"

// Domain errors
var (
	// Taxonomy / selection errors
	ErrUnknownTopic      = errors.New("unknown topic")
	ErrUnknownSection    = errors.New("unknown section")
	ErrUnknownSubsection = errors.New("unknown subsection")

	// Conversation errors
	ErrNotInitialized     = errors.New("conversation not initialized")
	ErrNoActiveSubsection = errors.New("no active subsection selected")
	ErrGenerationFailed   = errors.New("assistant generation failed")
	ErrNoDraftValue       = errors.New("no draft value for subsection")

	// Document / project errors
	ErrDocumentNotFound = errors.New("document not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrDocumentLinked   = errors.New("document is already linked to a project")
	ErrNoPDF            = errors.New("document has no rendered PDF")
	ErrNotApproved      = errors.New("subsection has no approved value")

	// Cover page errors
	ErrNoCoverStructure     = errors.New("no cover page structure for topic")
	ErrUnknownCoverCategory = errors.New("unknown cover page category")

	// File errors
	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrInvalidExtension  = errors.New("invalid file extension")
	ErrTotalSizeTooLarge = errors.New("total file size too large")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
