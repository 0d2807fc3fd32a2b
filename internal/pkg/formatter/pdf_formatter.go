package formatter

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the internal name used by gofpdf
	// for the UTF-8 capable font.
	pdfFontName = "DejaVuSans"

	// Relative paths where the TTF font may live.
	// In Docker runtime we copy fonts to /app/ttf,
	// so for the compiled binary the path is ./ttf/DejaVuSans.ttf.
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"

	// Source-relative path (useful when running from repo root with `go run`).
	pdfFontSourcePath = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

// resolveFontPath tries to find the DejaVuSans font in
// runtime layout (next to the binary) or source layout.
func resolveFontPath() string {
	if _, err := os.Stat(pdfFontRuntimePath); err == nil {
		return pdfFontRuntimePath
	}

	if _, err := os.Stat(pdfFontSourcePath); err == nil {
		return pdfFontSourcePath
	}

	return ""
}

func (mf *PDFFormatter) Format(data *entity.AssemblyData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// German umlauts need the UTF-8 capable DejaVuSans font bundled with
	// the project; Arial covers the fallback.
	fontName := "Arial"
	if fontPath := resolveFontPath(); fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		fontName = pdfFontName
	}

	if len(data.CoverPage) > 0 {
		writeCoverPage(pdf, fontName, data)
		pdf.AddPage()
	}

	pdf.SetFont(fontName, "B", 20)
	pdf.Cell(0, 10, data.Topic)
	pdf.Ln(16)

	_, lineHeight := pdf.GetFontSize()

	for _, section := range orderedSections(data) {
		subsections := data.Sections[section]
		if len(subsections) == 0 {
			continue
		}

		pdf.SetFont(fontName, "B", 16)
		pdf.Cell(0, 10, section)
		pdf.Ln(12)

		for _, subsection := range orderedSubsections(subsections) {
			pdf.SetFont(fontName, "B", 12)
			pdf.Cell(0, 8, subsection)
			pdf.Ln(8)

			pdf.SetFont(fontName, "", 12)
			pdf.MultiCell(0, lineHeight*1.5, fmt.Sprint(subsections[subsection]), "", "", false)
			pdf.Ln(4)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeCoverPage renders the title page from the stored cover values.
// Categories print in sorted order so output stays stable across runs.
func writeCoverPage(pdf *gofpdf.Fpdf, fontName string, data *entity.AssemblyData) {
	pdf.SetFont(fontName, "B", 24)
	pdf.Ln(30)
	pdf.CellFormat(0, 12, data.Topic, "", 1, "C", false, 0, "")
	pdf.Ln(10)

	categories := make([]string, 0, len(data.CoverPage))
	for category := range data.CoverPage {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		values := data.CoverPage[category]
		if len(values) == 0 {
			continue
		}

		pdf.SetFont(fontName, "B", 14)
		pdf.Cell(0, 10, category)
		pdf.Ln(10)

		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)

		pdf.SetFont(fontName, "", 12)
		for _, name := range names {
			value := values[name]
			if value == nil || fmt.Sprint(value) == "" {
				continue
			}
			pdf.CellFormat(0, 8, fmt.Sprint(value), "", 1, "C", false, 0, "")
		}
		pdf.Ln(4)
	}
}

func (mf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (mf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
