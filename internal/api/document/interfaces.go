package document

import (
	"context"
	"mime/multipart"

	"github.com/geoscribe/report-backend/internal/entity"
)

type DocumentUsecase interface {
	CreateProject(ctx context.Context, req *entity.CreateProjectRequest) (*entity.ProjectSummary, error)
	GetProject(ctx context.Context, id string) (*entity.ProjectSummary, error)
	ListProjects(ctx context.Context, skip, limit int) ([]*entity.ProjectSummary, error)
	UpdateProject(ctx context.Context, id string, req *entity.UpdateProjectRequest) (*entity.ProjectSummary, error)
	DeleteProject(ctx context.Context, id string) error
	ProjectStatus(ctx context.Context, id string) (*entity.ProjectStatus, error)

	Approve(ctx context.Context, documentID string, req *entity.ApproveRequest) (*entity.ApprovedSubsection, error)
	ApproveValue(ctx context.Context, documentID string, req *entity.ApproveValueRequest) (*entity.ApprovedSubsection, error)
	ListApproved(ctx context.Context, documentID string) ([]*entity.ApprovedSubsection, error)
	ApprovedSubsection(ctx context.Context, documentID, section, subsection string) (*entity.ApprovedSubsection, error)
	SubsectionStatuses(ctx context.Context, documentID string) (map[string]map[string]entity.SubsectionStatus, error)

	CoverPageStructure(ctx context.Context, documentID string) (*entity.CoverPageStructure, error)
	CoverPageData(ctx context.Context, documentID string) (*entity.CoverPage, error)
	UpdateCoverPage(ctx context.Context, documentID string, req *entity.CoverPageUpdateRequest) (*entity.CoverPage, error)
	UpdateCoverPageCategory(ctx context.Context, documentID, category string, fields map[string]any) (*entity.CoverPage, error)
	CoverPagePreview(ctx context.Context, documentID string) (*entity.CoverPagePreview, error)
	ResetCoverPage(ctx context.Context, documentID string) error

	AssemblyData(ctx context.Context, documentID string, approvedOnly bool) (*entity.AssemblyData, error)
	UploadAttachments(ctx context.Context, documentID string, files []*multipart.FileHeader) ([]*entity.DocumentFile, error)
	DocumentFiles(ctx context.Context, documentID string) ([]*entity.DocumentFile, error)
	PDF(ctx context.Context, documentID string) ([]byte, error)
	Export(ctx context.Context, documentID string, format entity.ResultFormat, approvedOnly bool) ([]byte, string, string, error)
}
