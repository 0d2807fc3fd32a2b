package entity

import "time"

// CreateProjectRequest creates a project together with its document.
type CreateProjectRequest struct {
	Name  string `json:"name"`
	Topic string `json:"topic"`
}

// UpdateProjectRequest renames a project.
type UpdateProjectRequest struct {
	Name string `json:"name"`
}

// ProjectSummary is the list view of a project.
type ProjectSummary struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Topic        string     `json:"topic"`
	DocumentID   string     `json:"document_id"`
	ThreadID     *string    `json:"thread_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	HasPDF       bool       `json:"has_pdf"`
}

// ProjectStatus carries completion metrics for a project.
type ProjectStatus struct {
	ProjectSummary
	SectionsCompleted    int     `json:"sections_completed"`
	TotalSections        int     `json:"total_sections"`
	CompletionPercentage float64 `json:"completion_percentage"`
	MessagesCount        int     `json:"messages_count"`
}

// ApproveRequest approves the current draft value of a subsection.
type ApproveRequest struct {
	Section    string `json:"section"`
	Subsection string `json:"subsection"`
}

// ApproveValueRequest approves an explicit, possibly user-edited value.
type ApproveValueRequest struct {
	Section    string `json:"section"`
	Subsection string `json:"subsection"`
	Value      any    `json:"value"`
}

// SubsectionStatus is the per-subsection view joined across the draft and
// approval stores.
type SubsectionStatus struct {
	Section       string `json:"section"`
	Subsection    string `json:"subsection"`
	HasData       bool   `json:"has_data"`
	IsApproved    bool   `json:"is_approved"`
	ApprovedValue string `json:"approved_value,omitempty"`
}

// AssemblyData is the renderer-facing projection of a document. Sections
// has the same shape whether it was built from drafts or from approved
// values only, so the renderer is agnostic to the mode.
type AssemblyData struct {
	DocumentID        string                    `json:"document_id"`
	Topic             string                    `json:"topic"`
	Sections          map[string]map[string]any `json:"sections"`
	CoverPage         map[string]map[string]any `json:"cover_page,omitempty"`
	SectionOrder      []string                  `json:"-"`
	PopulatedSections int                       `json:"populated_sections"`
}
