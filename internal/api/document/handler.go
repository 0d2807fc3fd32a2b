package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/geoscribe/report-backend/internal/config"
	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/pkg/logger"
	"github.com/geoscribe/report-backend/internal/pkg/response"
	"github.com/geoscribe/report-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const defaultListLimit = 50

type Handler struct {
	usecase   DocumentUsecase
	cfg       config.FileUploadConfig
	validator *validator.Validator
}

func NewHandler(usecase DocumentUsecase, cfg config.FileUploadConfig, v *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		cfg:       cfg,
		validator: v,
	}
}

// CreateProject handles POST /projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateProject")

	var req entity.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	summary, err := h.usecase.CreateProject(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Created(w, summary)
}

// ListProjects handles GET /projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListProjects")

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	projects, err := h.usecase.ListProjects(ctx, skip, limit)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, map[string]any{"projects": projects})
}

// GetProject handles GET /projects/{project_id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("project_id", projectID),
		zap.String("action", "GetProject"),
	)

	summary, err := h.usecase.GetProject(ctx, projectID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, summary)
}

// UpdateProject handles PUT /projects/{project_id}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("project_id", projectID),
		zap.String("action", "UpdateProject"),
	)

	var req entity.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	summary, err := h.usecase.UpdateProject(ctx, projectID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, summary)
}

// DeleteProject handles DELETE /projects/{project_id}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("project_id", projectID),
		zap.String("action", "DeleteProject"),
	)

	if err := h.usecase.DeleteProject(ctx, projectID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, map[string]string{"status": "deleted"})
}

// ProjectStatus handles GET /projects/{project_id}/status
func (h *Handler) ProjectStatus(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("project_id", projectID),
		zap.String("action", "ProjectStatus"),
	)

	status, err := h.usecase.ProjectStatus(ctx, projectID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, status)
}

// Approve handles POST /documents/{document_id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "Approve"),
	)

	var req entity.ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	approved, err := h.usecase.Approve(ctx, documentID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, approved)
}

// ApproveValue handles POST /documents/{document_id}/approve/value
func (h *Handler) ApproveValue(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "ApproveValue"),
	)

	var req entity.ApproveValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	approved, err := h.usecase.ApproveValue(ctx, documentID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, approved)
}

// ListApproved handles GET /documents/{document_id}/approved. With both
// section and subsection query parameters it returns that single
// approved value instead of the full list.
func (h *Handler) ListApproved(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "ListApproved"),
	)

	section := r.URL.Query().Get("section")
	subsection := r.URL.Query().Get("subsection")
	if section != "" && subsection != "" {
		approved, err := h.usecase.ApprovedSubsection(ctx, documentID, section, subsection)
		if err != nil {
			h.handleUsecaseError(ctx, w, err)
			return
		}
		response.Success(w, approved)
		return
	}

	approved, err := h.usecase.ListApproved(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, map[string]any{"approved": approved})
}

// Status handles GET /documents/{document_id}/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "Status"),
	)

	status, err := h.usecase.SubsectionStatuses(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, map[string]any{"sections": status})
}

// Data handles GET /documents/{document_id}/data
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "Data"),
	)

	approvedOnly, _ := strconv.ParseBool(r.URL.Query().Get("approved_only"))

	data, err := h.usecase.AssemblyData(ctx, documentID, approvedOnly)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, data)
}

// UploadFiles handles POST /documents/{document_id}/files
func (h *Handler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "UploadFiles"),
	)

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	files := r.MultipartForm.File["files"]
	stored, err := h.usecase.UploadAttachments(ctx, documentID, files)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "files uploaded", zap.Int("count", len(stored)))
	response.Created(w, map[string]any{"files": stored})
}

// ListFiles handles GET /documents/{document_id}/files
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "ListFiles"),
	)

	files, err := h.usecase.DocumentFiles(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, map[string]any{"files": files})
}

// CoverStructure handles GET /documents/{document_id}/cover/structure
func (h *Handler) CoverStructure(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "CoverStructure"),
	)

	structure, err := h.usecase.CoverPageStructure(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, structure)
}

// GetCover handles GET /documents/{document_id}/cover
func (h *Handler) GetCover(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "GetCover"),
	)

	page, err := h.usecase.CoverPageData(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, page)
}

// UpdateCover handles PUT /documents/{document_id}/cover
func (h *Handler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "UpdateCover"),
	)

	var req entity.CoverPageUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	page, err := h.usecase.UpdateCoverPage(ctx, documentID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, page)
}

// UpdateCoverCategory handles PATCH /documents/{document_id}/cover/{category}
func (h *Handler) UpdateCoverCategory(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	category := chi.URLParam(r, "category")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("category", category),
		zap.String("action", "UpdateCoverCategory"),
	)

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	page, err := h.usecase.UpdateCoverPageCategory(ctx, documentID, category, fields)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, page)
}

// CoverPreview handles GET /documents/{document_id}/cover/preview
func (h *Handler) CoverPreview(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "CoverPreview"),
	)

	preview, err := h.usecase.CoverPagePreview(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, preview)
}

// ResetCover handles DELETE /documents/{document_id}/cover
func (h *Handler) ResetCover(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "ResetCover"),
	)

	if err := h.usecase.ResetCoverPage(ctx, documentID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, map[string]string{"status": "reset"})
}

// PDF handles GET /documents/{document_id}/pdf
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "PDF"),
	)

	pdf, err := h.usecase.PDF(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, documentID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// Export handles GET /documents/{document_id}/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "Export"),
	)

	format := entity.ResultFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatPDF
	}
	approvedOnly, _ := strconv.ParseBool(r.URL.Query().Get("approved_only"))

	rendered, contentType, filename, err := h.usecase.Export(ctx, documentID, format, approvedOnly)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(rendered)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	var coverErr *entity.CoverPageValidationError
	if errors.As(err, &coverErr) {
		ctxzap.Error(ctx, "cover page validation failed", zap.Error(err))
		response.ErrorWithDetails(w, http.StatusBadRequest, "cover page validation failed", coverErr.Fields)
		return
	}

	switch {
	case errors.Is(err, entity.ErrProjectNotFound),
		errors.Is(err, entity.ErrDocumentNotFound),
		errors.Is(err, entity.ErrNotApproved),
		errors.Is(err, entity.ErrNoCoverStructure),
		errors.Is(err, entity.ErrUnknownCoverCategory),
		errors.Is(err, entity.ErrNoPDF):
		h.respondError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, entity.ErrUnknownTopic),
		errors.Is(err, entity.ErrUnknownSection),
		errors.Is(err, entity.ErrUnknownSubsection),
		errors.Is(err, entity.ErrNoDraftValue),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrDocumentLinked):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, entity.ErrInvalidFile),
		errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrTooManyFiles),
		errors.Is(err, entity.ErrInvalidExtension),
		errors.Is(err, entity.ErrTotalSizeTooLarge):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
