package sections

import (
	"context"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/repository"
	"github.com/geoscribe/report-backend/internal/taxonomy"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ApprovalStore implements explicit approval business logic
type ApprovalStore struct {
	drafts       *DraftStore
	approvedRepo repository.ApprovedRepository
	taxonomy     *taxonomy.Taxonomy
	logger       *zap.Logger
}

// NewApprovalStore creates a new approval store
func NewApprovalStore(
	drafts *DraftStore,
	approvedRepo repository.ApprovedRepository,
	tax *taxonomy.Taxonomy,
	logger *zap.Logger,
) *ApprovalStore {
	return &ApprovalStore{
		drafts:       drafts,
		approvedRepo: approvedRepo,
		taxonomy:     tax,
		logger:       logger,
	}
}

// ApproveFromDraft promotes the current draft value of a subsection to
// its approved value. Approval replaces any earlier approved value
// wholesale; it never merges. Fails with ErrNoDraftValue when the draft
// has nothing for the subsection.
func (s *ApprovalStore) ApproveFromDraft(ctx context.Context, documentID, section, subsection string) (*entity.ApprovedSubsection, error) {
	value, ok, err := s.drafts.SubsectionValue(ctx, documentID, section, subsection)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entity.ErrNoDraftValue
	}

	return s.approve(ctx, documentID, section, subsection, value)
}

// ApproveValue approves a caller-supplied value, covering the
// edit-then-approve flow. The value goes through the same one-time
// normalization as draft approval.
func (s *ApprovalStore) ApproveValue(ctx context.Context, documentID, section, subsection string, value any) (*entity.ApprovedSubsection, error) {
	return s.approve(ctx, documentID, section, subsection, value)
}

func (s *ApprovalStore) approve(ctx context.Context, documentID, section, subsection string, value any) (*entity.ApprovedSubsection, error) {
	normalized := Normalize(value)

	approved, err := s.approvedRepo.Upsert(ctx, documentID, section, subsection, normalized)
	if err != nil {
		return nil, fmt.Errorf("store approval: %w", err)
	}

	ctxzap.Info(ctx, "subsection approved",
		zap.String("document_id", documentID),
		zap.String("section", section),
		zap.String("subsection", subsection),
	)

	return approved, nil
}

// Approved returns the approved value of one subsection, or
// ErrNotApproved when none is recorded.
func (s *ApprovalStore) Approved(ctx context.Context, documentID, section, subsection string) (*entity.ApprovedSubsection, error) {
	approved, err := s.approvedRepo.Get(ctx, documentID, section, subsection)
	if err != nil {
		return nil, fmt.Errorf("read approval: %w", err)
	}
	if approved == nil {
		return nil, entity.ErrNotApproved
	}

	return approved, nil
}

// ListApproved returns every approved subsection of the document.
func (s *ApprovalStore) ListApproved(ctx context.Context, documentID string) ([]*entity.ApprovedSubsection, error) {
	approved, err := s.approvedRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}

	return approved, nil
}

// Status reports, for every subsection the topic's outline defines,
// whether draft data exists and whether an approved value is recorded.
func (s *ApprovalStore) Status(ctx context.Context, documentID, topic string) (map[string]map[string]entity.SubsectionStatus, error) {
	outline, err := s.taxonomy.Sections(topic)
	if err != nil {
		return nil, err
	}

	approved, err := s.approvedRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}

	approvedByPair := make(map[string]map[string]string)
	for _, a := range approved {
		if approvedByPair[a.Section] == nil {
			approvedByPair[a.Section] = make(map[string]string)
		}
		approvedByPair[a.Section][a.Subsection] = a.ApprovedValue
	}

	status := make(map[string]map[string]entity.SubsectionStatus, len(outline))
	for _, section := range outline {
		draft, err := s.drafts.SectionData(ctx, documentID, section.Name)
		if err != nil {
			return nil, err
		}

		sectionStatus := make(map[string]entity.SubsectionStatus, len(section.Subsections))
		for _, subsection := range section.Subsections {
			_, hasData := draft[subsection]

			st := entity.SubsectionStatus{
				Section:    section.Name,
				Subsection: subsection,
				HasData:    hasData,
			}
			if value, ok := approvedByPair[section.Name][subsection]; ok {
				st.IsApproved = true
				st.ApprovedValue = value
			}
			sectionStatus[subsection] = st
		}
		status[section.Name] = sectionStatus
	}

	return status, nil
}
