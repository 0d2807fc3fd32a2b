package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/pkg/logger"
	"github.com/geoscribe/report-backend/internal/pkg/response"
	"github.com/geoscribe/report-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const defaultMessagesLimit = 100

type Handler struct {
	usecase   ConversationUsecase
	validator *validator.Validator
}

func NewHandler(usecase ConversationUsecase, v *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: v,
	}
}

// SelectSubsection handles POST /documents/{document_id}/subsection
func (h *Handler) SelectSubsection(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "SelectSubsection"),
	)

	var req entity.SelectSubsectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateSelectSubsection(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	active, err := h.usecase.SelectSubsection(ctx, documentID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, active)
}

// StartConversation handles POST /documents/{document_id}/start
func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "StartConversation"),
	)

	var req entity.StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateStartConversation(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	resp, err := h.usecase.StartConversation(ctx, documentID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// Reply handles POST /documents/{document_id}/reply
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "Reply"),
	)

	var req entity.ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateReply(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	resp, err := h.usecase.Reply(ctx, documentID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// Messages handles GET /documents/{document_id}/messages
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "Messages"),
	)

	section := r.URL.Query().Get("section")
	subsection := r.URL.Query().Get("subsection")
	if section == "" || subsection == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "section and subsection query parameters are required", nil)
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > defaultMessagesLimit {
		limit = defaultMessagesLimit
	}

	messages, err := h.usecase.SubsectionMessages(ctx, documentID, section, subsection, limit, offset)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, map[string]any{"messages": messages})
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
	switch {
	case errors.Is(err, entity.ErrDocumentNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "document not found", err)
	case errors.Is(err, entity.ErrUnknownTopic),
		errors.Is(err, entity.ErrUnknownSection),
		errors.Is(err, entity.ErrUnknownSubsection),
		errors.Is(err, entity.ErrNotInitialized),
		errors.Is(err, entity.ErrNoActiveSubsection),
		errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, entity.ErrGenerationFailed):
		h.respondError(ctx, w, http.StatusBadGateway, "assistant generation failed", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
