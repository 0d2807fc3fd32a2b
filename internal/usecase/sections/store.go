// Package sections holds the two persistence-facing stores of the
// extraction pipeline: unapproved per-section drafts and the approved
// subsection values that make it into the final document.
package sections

import (
	"context"
	"fmt"

	"github.com/geoscribe/report-backend/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// DraftStore implements draft accumulation business logic
type DraftStore struct {
	sectionRepo repository.SectionDataRepository
	logger      *zap.Logger
}

// NewDraftStore creates a new draft store
func NewDraftStore(sectionRepo repository.SectionDataRepository, logger *zap.Logger) *DraftStore {
	return &DraftStore{
		sectionRepo: sectionRepo,
		logger:      logger,
	}
}

// MergeSectionData folds freshly extracted data into the stored drafts.
// Existing subsection keys are overwritten, untouched keys survive; the
// section map itself is never replaced wholesale. A section whose payload
// is not a mapping is logged and skipped rather than failing the whole
// merge.
func (s *DraftStore) MergeSectionData(ctx context.Context, documentID string, data map[string]any) error {
	for section, payload := range data {
		subsections, ok := payload.(map[string]any)
		if !ok {
			ctxzap.Warn(ctx, "skipping non-mapping section payload",
				zap.String("document_id", documentID),
				zap.String("section", section),
			)
			continue
		}

		if len(subsections) == 0 {
			continue
		}

		existing, err := s.sectionRepo.Get(ctx, documentID, section)
		if err != nil {
			return fmt.Errorf("load section draft: %w", err)
		}

		merged := make(map[string]any)
		if existing != nil {
			for k, v := range existing.Data {
				merged[k] = v
			}
		}
		for k, v := range subsections {
			merged[k] = v
		}

		if _, err := s.sectionRepo.Upsert(ctx, documentID, section, merged); err != nil {
			return fmt.Errorf("store section draft: %w", err)
		}

		ctxzap.Info(ctx, "section draft merged",
			zap.String("document_id", documentID),
			zap.String("section", section),
			zap.Int("subsections", len(subsections)),
		)
	}

	return nil
}

// SectionData returns the draft map for one section. A section without a
// draft yields an empty map, not an error.
func (s *DraftStore) SectionData(ctx context.Context, documentID, section string) (map[string]any, error) {
	draft, err := s.sectionRepo.Get(ctx, documentID, section)
	if err != nil {
		return nil, fmt.Errorf("load section draft: %w", err)
	}
	if draft == nil {
		return map[string]any{}, nil
	}

	return draft.Data, nil
}

// SubsectionValue returns the draft value for one subsection and whether
// it exists.
func (s *DraftStore) SubsectionValue(ctx context.Context, documentID, section, subsection string) (any, bool, error) {
	data, err := s.SectionData(ctx, documentID, section)
	if err != nil {
		return nil, false, err
	}

	value, ok := data[subsection]
	return value, ok, nil
}

// AppendToSubsection appends text to the existing draft value of a
// subsection, separated by a blank line. Used for attachment content.
func (s *DraftStore) AppendToSubsection(ctx context.Context, documentID, section, subsection, text string) error {
	data, err := s.SectionData(ctx, documentID, section)
	if err != nil {
		return err
	}

	current, ok := data[subsection].(string)
	if ok && current != "" {
		text = current + "\n\n" + text
	}

	return s.MergeSectionData(ctx, documentID, map[string]any{
		section: map[string]any{subsection: text},
	})
}
