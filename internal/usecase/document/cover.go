package document

import (
	"context"
	"fmt"
	"time"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// coverDateFormats lists the accepted layouts for date-typed cover
// fields, ISO first.
var coverDateFormats = []string{"2006-01-02", "02.01.2006", "01/02/2006"}

// CoverPageStructure returns the cover layout for the document's topic:
// the categories, field labels, types and defaults the frontend renders
// the cover form from.
func (uc *Usecase) CoverPageStructure(ctx context.Context, documentID string) (*entity.CoverPageStructure, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	categories, err := uc.taxonomy.CoverStructure(doc.Topic)
	if err != nil {
		return nil, err
	}

	return &entity.CoverPageStructure{
		Topic:      doc.Topic,
		Categories: categories,
	}, nil
}

// CoverPageData returns the stored cover values of a document. When no
// row exists yet every field of the topic's layout comes back with its
// default, so callers always see the full shape.
func (uc *Usecase) CoverPageData(ctx context.Context, documentID string) (*entity.CoverPage, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	categories, err := uc.taxonomy.CoverStructure(doc.Topic)
	if err != nil {
		return nil, err
	}

	page, err := uc.coverRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = &entity.CoverPage{
			DocumentID: documentID,
			Data:       make(map[string]map[string]any),
		}
	}
	page.Topic = doc.Topic

	// fill gaps with defaults so a fresh document still returns the
	// complete layout
	for category, fields := range categories {
		if page.Data[category] == nil {
			page.Data[category] = make(map[string]any)
		}
		for name, field := range fields {
			if _, ok := page.Data[category][name]; !ok {
				page.Data[category][name] = field.Default
			}
		}
	}

	return page, nil
}

// UpdateCoverPage replaces the document's cover values after validating
// them against the topic's layout and queues a re-render.
func (uc *Usecase) UpdateCoverPage(ctx context.Context, documentID string, req *entity.CoverPageUpdateRequest) (*entity.CoverPage, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	categories, err := uc.taxonomy.CoverStructure(doc.Topic)
	if err != nil {
		return nil, err
	}

	if err := validateCoverData(ctx, categories, req.Data); err != nil {
		return nil, err
	}

	page, err := uc.coverRepo.Upsert(ctx, documentID, req.Data)
	if err != nil {
		return nil, err
	}
	page.Topic = doc.Topic

	ctxzap.Info(ctx, "cover page updated",
		zap.String("document_id", documentID),
		zap.Int("categories", len(req.Data)),
	)

	uc.notifyRender(ctx, documentID)
	return page, nil
}

// UpdateCoverPageCategory merges the given fields into one category of
// the cover, leaving the others untouched.
func (uc *Usecase) UpdateCoverPageCategory(ctx context.Context, documentID, category string, fields map[string]any) (*entity.CoverPage, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	categories, err := uc.taxonomy.CoverStructure(doc.Topic)
	if err != nil {
		return nil, err
	}
	if _, ok := categories[category]; !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownCoverCategory, category)
	}

	existing, err := uc.coverRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	data := make(map[string]map[string]any)
	if existing != nil {
		for cat, values := range existing.Data {
			inner := make(map[string]any, len(values))
			for k, v := range values {
				inner[k] = v
			}
			data[cat] = inner
		}
	}
	if data[category] == nil {
		data[category] = make(map[string]any)
	}
	for name, value := range fields {
		data[category][name] = value
	}

	if err := validateCoverData(ctx, categories, data); err != nil {
		return nil, err
	}

	page, err := uc.coverRepo.Upsert(ctx, documentID, data)
	if err != nil {
		return nil, err
	}
	page.Topic = doc.Topic

	uc.notifyRender(ctx, documentID)
	return page, nil
}

// CoverPagePreview flattens the stored cover values into one field map
// for template rendering, alongside the raw structure.
func (uc *Usecase) CoverPagePreview(ctx context.Context, documentID string) (*entity.CoverPagePreview, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	preview := &entity.CoverPagePreview{
		DocumentID:  documentID,
		Topic:       doc.Topic,
		PreviewData: make(map[string]any),
	}

	page, err := uc.coverRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return preview, nil
	}

	for _, fields := range page.Data {
		for name, value := range fields {
			preview.PreviewData[name] = value
		}
	}
	preview.StructuredData = page.Data

	return preview, nil
}

// ResetCoverPage drops the stored cover values of a document.
func (uc *Usecase) ResetCoverPage(ctx context.Context, documentID string) error {
	if _, err := uc.documentRepo.Get(ctx, documentID); err != nil {
		return err
	}

	if err := uc.coverRepo.Delete(ctx, documentID); err != nil {
		return err
	}

	uc.notifyRender(ctx, documentID)
	return nil
}

// validateCoverData checks submitted values against the full layout.
// Required fields fail when absent or null; empty strings pass. Date
// fields must parse in one of the accepted formats. Unknown categories
// and fields are logged and pass through so older clients keep working.
func validateCoverData(ctx context.Context, categories map[string]map[string]entity.CoverField, data map[string]map[string]any) error {
	problems := make(map[string]string)

	for category := range data {
		if _, ok := categories[category]; !ok {
			ctxzap.Warn(ctx, "cover data carries unknown category",
				zap.String("category", category),
			)
		}
	}

	for category, fields := range categories {
		values := data[category]

		for name := range values {
			if _, ok := fields[name]; !ok {
				ctxzap.Warn(ctx, "cover data carries unknown field",
					zap.String("category", category),
					zap.String("field", name),
				)
			}
		}

		for name, field := range fields {
			value, present := values[name]
			key := category + "." + name

			if field.Required && (!present || value == nil) {
				problems[key] = fmt.Sprintf("%s is required", field.Label)
				continue
			}

			if field.Type == "date" {
				s, ok := value.(string)
				if ok && s != "" && !parsesAsCoverDate(s) {
					problems[key] = fmt.Sprintf("%s must be a valid date (YYYY-MM-DD, DD.MM.YYYY or MM/DD/YYYY)", field.Label)
				}
			}
		}
	}

	if len(problems) > 0 {
		return &entity.CoverPageValidationError{Fields: problems}
	}
	return nil
}

func parsesAsCoverDate(s string) bool {
	for _, layout := range coverDateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
