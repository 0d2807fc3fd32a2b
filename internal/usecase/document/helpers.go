package document

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"unicode/utf8"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/taxonomy"
)

func toProjectSummary(project *entity.Project, doc *entity.Document) *entity.ProjectSummary {
	return &entity.ProjectSummary{
		ID:         project.ID,
		Name:       project.Name,
		Topic:      doc.Topic,
		DocumentID: doc.ID,
		ThreadID:   doc.ThreadID,
		CreatedAt:  project.CreatedAt,
		HasPDF:     len(doc.PDFData) > 0,
	}
}

// completedSectionCount counts outline sections whose every subsection
// has an approved value.
func completedSectionCount(outline []taxonomy.Section, approved []*entity.ApprovedSubsection) int {
	approvedByPair := make(map[string]map[string]bool)
	for _, a := range approved {
		if approvedByPair[a.Section] == nil {
			approvedByPair[a.Section] = make(map[string]bool)
		}
		approvedByPair[a.Section][a.Subsection] = true
	}

	completed := 0
	for _, section := range outline {
		if len(section.Subsections) == 0 {
			continue
		}
		done := true
		for _, subsection := range section.Subsections {
			if !approvedByPair[section.Name][subsection] {
				done = false
				break
			}
		}
		if done {
			completed++
		}
	}

	return completed
}

// readAttachment reads the uploaded file and returns a textual
// representation for the attachments section. Binary content is
// summarized instead of embedded.
func readAttachment(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	if utf8.Valid(raw) && isTextContent(fh.Header.Get("Content-Type"), fh.Filename) {
		return strings.TrimSpace(string(raw)), nil
	}

	return fmt.Sprintf("(Datei %s, %d Bytes)", fh.Filename, fh.Size), nil
}

func isTextContent(contentType, filename string) bool {
	if strings.HasPrefix(contentType, "text/") ||
		contentType == "application/json" {
		return true
	}

	lower := strings.ToLower(filename)
	for _, ext := range []string{".txt", ".csv", ".json", ".md"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}
