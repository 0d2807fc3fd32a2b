package formatter

import (
	"bytes"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(data *entity.AssemblyData) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", data.Topic)

	for _, section := range orderedSections(data) {
		subsections := data.Sections[section]
		if len(subsections) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "## %s\n\n", section)
		for _, subsection := range orderedSubsections(subsections) {
			fmt.Fprintf(&buf, "### %s\n\n%s\n\n", subsection, fmt.Sprint(subsections[subsection]))
		}
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
