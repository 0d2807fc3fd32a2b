// Package document owns the outer document lifecycle: projects, approval
// endpoints, attachment uploads, assembly and export.
package document

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/pkg/formatter"
	"github.com/geoscribe/report-backend/internal/pkg/validator"
	"github.com/geoscribe/report-backend/internal/repository"
	"github.com/geoscribe/report-backend/internal/taxonomy"
	"github.com/geoscribe/report-backend/internal/usecase/sections"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Usecase implements document and project business logic
type Usecase struct {
	projectRepo  repository.ProjectRepository
	documentRepo repository.DocumentRepository
	fileRepo     repository.DocumentFileRepository
	chatRepo     repository.ChatMessageRepository
	sectionRepo  repository.SectionDataRepository
	coverRepo    repository.CoverPageRepository
	drafts       *sections.DraftStore
	approvals    *sections.ApprovalStore
	taxonomy     *taxonomy.Taxonomy
	validator    *validator.Validator
	renderer     RenderNotifier
	formatters   *formatter.Factory
	logger       *zap.Logger
}

// NewUsecase creates a new document use case
func NewUsecase(
	projectRepo repository.ProjectRepository,
	documentRepo repository.DocumentRepository,
	fileRepo repository.DocumentFileRepository,
	chatRepo repository.ChatMessageRepository,
	sectionRepo repository.SectionDataRepository,
	coverRepo repository.CoverPageRepository,
	drafts *sections.DraftStore,
	approvals *sections.ApprovalStore,
	tax *taxonomy.Taxonomy,
	v *validator.Validator,
	renderer RenderNotifier,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		projectRepo:  projectRepo,
		documentRepo: documentRepo,
		fileRepo:     fileRepo,
		chatRepo:     chatRepo,
		sectionRepo:  sectionRepo,
		coverRepo:    coverRepo,
		drafts:       drafts,
		approvals:    approvals,
		taxonomy:     tax,
		validator:    v,
		renderer:     renderer,
		formatters:   formatter.NewFactory(),
		logger:       logger,
	}
}

// CreateProject creates a project together with its backing document.
func (uc *Usecase) CreateProject(ctx context.Context, req *entity.CreateProjectRequest) (*entity.ProjectSummary, error) {
	if err := uc.validator.ValidateCreateProject(req); err != nil {
		return nil, err
	}

	if _, err := uc.taxonomy.Sections(req.Topic); err != nil {
		return nil, err
	}

	doc, err := uc.documentRepo.Create(ctx, entity.Document{
		ID:    uuid.New().String(),
		Topic: req.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	project, err := uc.projectRepo.Create(ctx, entity.Project{
		ID:         uuid.New().String(),
		Name:       req.Name,
		DocumentID: doc.ID,
	})
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "project created",
		zap.String("project_id", project.ID),
		zap.String("document_id", doc.ID),
		zap.String("topic", doc.Topic),
	)

	return toProjectSummary(project, doc), nil
}

// GetProject returns one project with its document view.
func (uc *Usecase) GetProject(ctx context.Context, id string) (*entity.ProjectSummary, error) {
	project, err := uc.projectRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := uc.documentRepo.Get(ctx, project.DocumentID)
	if err != nil {
		return nil, err
	}

	return toProjectSummary(project, doc), nil
}

// ListProjects lists projects newest first.
func (uc *Usecase) ListProjects(ctx context.Context, skip, limit int) ([]*entity.ProjectSummary, error) {
	projects, err := uc.projectRepo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]*entity.ProjectSummary, 0, len(projects))
	for _, project := range projects {
		doc, err := uc.documentRepo.Get(ctx, project.DocumentID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, toProjectSummary(project, doc))
	}

	return summaries, nil
}

// UpdateProject renames a project.
func (uc *Usecase) UpdateProject(ctx context.Context, id string, req *entity.UpdateProjectRequest) (*entity.ProjectSummary, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name", entity.ErrMissingField)
	}

	project, err := uc.projectRepo.Rename(ctx, id, req.Name)
	if err != nil {
		return nil, err
	}

	doc, err := uc.documentRepo.Get(ctx, project.DocumentID)
	if err != nil {
		return nil, err
	}

	return toProjectSummary(project, doc), nil
}

// DeleteProject removes the project and its document with all dependent
// rows.
func (uc *Usecase) DeleteProject(ctx context.Context, id string) error {
	project, err := uc.projectRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	// deleting the document cascades to the project row and all
	// per-document tables
	if err := uc.documentRepo.Delete(ctx, project.DocumentID); err != nil {
		return err
	}

	ctxzap.Info(ctx, "project deleted",
		zap.String("project_id", id),
		zap.String("document_id", project.DocumentID),
	)

	return nil
}

// ProjectStatus reports completion metrics for a project.
func (uc *Usecase) ProjectStatus(ctx context.Context, id string) (*entity.ProjectStatus, error) {
	project, err := uc.projectRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := uc.documentRepo.Get(ctx, project.DocumentID)
	if err != nil {
		return nil, err
	}

	outline, err := uc.taxonomy.Sections(doc.Topic)
	if err != nil {
		return nil, err
	}

	approved, err := uc.approvals.ListApproved(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	totalSubsections := 0
	for _, section := range outline {
		totalSubsections += len(section.Subsections)
	}

	completion := 0.0
	if totalSubsections > 0 {
		completion = float64(len(approved)) / float64(totalSubsections) * 100
	}

	messages, err := uc.chatRepo.CountByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	completedSections := completedSectionCount(outline, approved)

	return &entity.ProjectStatus{
		ProjectSummary:       *toProjectSummary(project, doc),
		SectionsCompleted:    completedSections,
		TotalSections:        len(outline),
		CompletionPercentage: completion,
		MessagesCount:        messages,
	}, nil
}

// Approve promotes the draft value of a subsection to approved state and
// queues a re-render.
func (uc *Usecase) Approve(ctx context.Context, documentID string, req *entity.ApproveRequest) (*entity.ApprovedSubsection, error) {
	if err := uc.validator.ValidateApprove(req); err != nil {
		return nil, err
	}

	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := uc.taxonomy.Validate(doc.Topic, req.Section, req.Subsection); err != nil {
		return nil, err
	}

	approved, err := uc.approvals.ApproveFromDraft(ctx, documentID, req.Section, req.Subsection)
	if err != nil {
		return nil, err
	}

	uc.notifyRender(ctx, documentID)
	return approved, nil
}

// ApproveValue approves a caller-supplied value, covering the
// edit-then-approve flow.
func (uc *Usecase) ApproveValue(ctx context.Context, documentID string, req *entity.ApproveValueRequest) (*entity.ApprovedSubsection, error) {
	if req.Section == "" {
		return nil, fmt.Errorf("%w: section", entity.ErrMissingField)
	}
	if req.Subsection == "" {
		return nil, fmt.Errorf("%w: subsection", entity.ErrMissingField)
	}

	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := uc.taxonomy.Validate(doc.Topic, req.Section, req.Subsection); err != nil {
		return nil, err
	}

	approved, err := uc.approvals.ApproveValue(ctx, documentID, req.Section, req.Subsection, req.Value)
	if err != nil {
		return nil, err
	}

	uc.notifyRender(ctx, documentID)
	return approved, nil
}

// ListApproved returns every approved subsection of a document.
func (uc *Usecase) ListApproved(ctx context.Context, documentID string) ([]*entity.ApprovedSubsection, error) {
	if _, err := uc.documentRepo.Get(ctx, documentID); err != nil {
		return nil, err
	}

	return uc.approvals.ListApproved(ctx, documentID)
}

// ApprovedSubsection returns the approved value of a single
// subsection. ErrNotApproved when the pair has no approval yet.
func (uc *Usecase) ApprovedSubsection(ctx context.Context, documentID, section, subsection string) (*entity.ApprovedSubsection, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := uc.taxonomy.Validate(doc.Topic, section, subsection); err != nil {
		return nil, err
	}

	return uc.approvals.Approved(ctx, documentID, section, subsection)
}

// DocumentFiles lists the metadata of every attachment uploaded to a
// document, in upload order.
func (uc *Usecase) DocumentFiles(ctx context.Context, documentID string) ([]*entity.DocumentFile, error) {
	if _, err := uc.documentRepo.Get(ctx, documentID); err != nil {
		return nil, err
	}

	return uc.fileRepo.ListByDocument(ctx, documentID)
}

// SubsectionStatuses reports the per-subsection draft/approval flags for
// the whole outline of the document's topic.
func (uc *Usecase) SubsectionStatuses(ctx context.Context, documentID string) (map[string]map[string]entity.SubsectionStatus, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return uc.approvals.Status(ctx, documentID, doc.Topic)
}

// AssemblyData builds the renderer-facing projection of the document,
// from all drafts or from approved values only. Both modes produce the
// same shape.
func (uc *Usecase) AssemblyData(ctx context.Context, documentID string, approvedOnly bool) (*entity.AssemblyData, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	data := &entity.AssemblyData{
		DocumentID: doc.ID,
		Topic:      doc.Topic,
		Sections:   make(map[string]map[string]any),
	}

	if outline, err := uc.taxonomy.Sections(doc.Topic); err == nil {
		for _, section := range outline {
			data.SectionOrder = append(data.SectionOrder, section.Name)
		}
	}

	if approvedOnly {
		approved, err := uc.approvals.ListApproved(ctx, documentID)
		if err != nil {
			return nil, err
		}
		for _, a := range approved {
			if data.Sections[a.Section] == nil {
				data.Sections[a.Section] = make(map[string]any)
			}
			data.Sections[a.Section][a.Subsection] = a.ApprovedValue
		}
	} else {
		drafts, err := uc.sectionRepo.ListByDocument(ctx, documentID)
		if err != nil {
			return nil, err
		}
		for _, draft := range drafts {
			if len(draft.Data) == 0 {
				continue
			}
			data.Sections[draft.Section] = draft.Data
		}
	}

	for _, subsections := range data.Sections {
		if len(subsections) > 0 {
			data.PopulatedSections++
		}
	}

	if uc.coverRepo != nil {
		cover, err := uc.coverRepo.Get(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if cover != nil {
			data.CoverPage = cover.Data
		}
	}

	return data, nil
}

// UploadAttachments validates and stores the files, appends their
// content to the topic's attachments section and queues a re-render.
func (uc *Usecase) UploadAttachments(ctx context.Context, documentID string, files []*multipart.FileHeader) ([]*entity.DocumentFile, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := uc.validator.ValidateUpload(files); err != nil {
		return nil, err
	}

	section, subsection := uc.attachmentTarget(doc.Topic)

	stored := make([]*entity.DocumentFile, 0, len(files))
	for _, fh := range files {
		content, err := readAttachment(fh)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", entity.ErrInvalidFile, fh.Filename)
		}

		filename := validator.SanitizeFilename(fh.Filename)

		file, err := uc.fileRepo.Create(ctx, entity.DocumentFile{
			ID:          uuid.New().String(),
			DocumentID:  documentID,
			Filename:    filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		})
		if err != nil {
			return nil, fmt.Errorf("store file metadata: %w", err)
		}

		entry := fmt.Sprintf("--- %s ---\n\n%s", filename, content)
		if err := uc.drafts.AppendToSubsection(ctx, documentID, section, subsection, entry); err != nil {
			return nil, err
		}

		stored = append(stored, file)
	}

	ctxzap.Info(ctx, "attachments uploaded",
		zap.String("document_id", documentID),
		zap.Int("files", len(stored)),
		zap.String("section", section),
	)

	uc.notifyRender(ctx, documentID)
	return stored, nil
}

// PDF returns the last rendered PDF bytes of the document.
func (uc *Usecase) PDF(ctx context.Context, documentID string) ([]byte, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if len(doc.PDFData) == 0 {
		return nil, entity.ErrNoPDF
	}

	return doc.PDFData, nil
}

// Export renders the document on demand in the requested format.
func (uc *Usecase) Export(ctx context.Context, documentID string, format entity.ResultFormat, approvedOnly bool) ([]byte, string, string, error) {
	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
	}

	data, err := uc.AssemblyData(ctx, documentID, approvedOnly)
	if err != nil {
		return nil, "", "", err
	}

	rendered, err := f.Format(data)
	if err != nil {
		return nil, "", "", fmt.Errorf("render document: %w", err)
	}

	filename := fmt.Sprintf("%s%s", documentID, f.FileExtension())
	return rendered, f.ContentType(), filename, nil
}

// attachmentTarget resolves where uploaded file content lands for a
// topic. Topics without an attachments section fall back to a generic
// pair so uploads never vanish.
func (uc *Usecase) attachmentTarget(topic string) (string, string) {
	if section, ok := uc.taxonomy.AttachmentSection(topic); ok {
		if len(section.Subsections) > 0 {
			return section.Name, section.Subsections[0]
		}
		return section.Name, "Dokumente"
	}
	return "Anlagen", "Dokumente"
}

// notifyRender is fire-and-forget: a failed enqueue is logged, never
// surfaced to the caller.
func (uc *Usecase) notifyRender(ctx context.Context, documentID string) {
	if uc.renderer == nil {
		return
	}
	if err := uc.renderer.NotifyRender(ctx, documentID); err != nil {
		ctxzap.Warn(ctx, "render notification failed",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
	}
}
