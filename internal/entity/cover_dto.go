package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CoverField describes one editable cover page field.
type CoverField struct {
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
}

// CoverPageStructure is the form layout for a topic's cover page,
// categories of named fields.
type CoverPageStructure struct {
	Topic      string                           `json:"topic"`
	Categories map[string]map[string]CoverField `json:"categories"`
}

// CoverPage holds the entered cover page values of one document,
// keyed category -> field.
type CoverPage struct {
	DocumentID string                    `json:"document_id"`
	Topic      string                    `json:"topic"`
	Data       map[string]map[string]any `json:"data"`
	UpdatedAt  *time.Time                `json:"updated_at,omitempty"`
}

// CoverPageUpdateRequest replaces the cover page data wholesale.
type CoverPageUpdateRequest struct {
	Data map[string]map[string]any `json:"data"`
}

// CoverPagePreview is the template-facing projection of the cover
// values: all fields flattened into one map next to the raw structure.
type CoverPagePreview struct {
	DocumentID     string                    `json:"document_id"`
	Topic          string                    `json:"topic"`
	PreviewData    map[string]any            `json:"preview_data"`
	StructuredData map[string]map[string]any `json:"structured_data,omitempty"`
}

// CoverPageValidationError carries per-field validation failures,
// keyed "category.field".
type CoverPageValidationError struct {
	Fields map[string]string
}

func (e *CoverPageValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("cover page validation failed: %s", strings.Join(keys, ", "))
}
