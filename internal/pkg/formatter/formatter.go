// Package formatter renders assembled document data into the supported
// output formats.
package formatter

import (
	"fmt"
	"sort"

	"github.com/geoscribe/report-backend/internal/entity"
)

type Formatter interface {
	Format(data *entity.AssemblyData) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// orderedSections returns the section names in outline order when the
// assembly carries one, sorted otherwise. Assembly maps themselves have
// no order.
func orderedSections(data *entity.AssemblyData) []string {
	if len(data.SectionOrder) > 0 {
		names := make([]string, 0, len(data.SectionOrder))
		for _, name := range data.SectionOrder {
			if _, ok := data.Sections[name]; ok {
				names = append(names, name)
			}
		}
		return names
	}

	names := make([]string, 0, len(data.Sections))
	for name := range data.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func orderedSubsections(section map[string]any) []string {
	names := make([]string, 0, len(section))
	for name := range section {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
