package formatter

import (
	"bytes"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(data *entity.AssemblyData) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Heading1")
	titleRun := titlePar.AddRun()
	titleRun.AddText(data.Topic)

	for _, section := range orderedSections(data) {
		subsections := data.Sections[section]
		if len(subsections) == 0 {
			continue
		}

		sectionPar := doc.AddParagraph()
		sectionPar.SetStyle("Heading2")
		sectionPar.AddRun().AddText(section)

		for _, subsection := range orderedSubsections(subsections) {
			subPar := doc.AddParagraph()
			subPar.SetStyle("Heading3")
			subPar.AddRun().AddText(subsection)

			bodyPar := doc.AddParagraph()
			bodyPar.AddRun().AddText(fmt.Sprint(subsections[subsection]))
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
