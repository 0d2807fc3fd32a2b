package document

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers project and document routes. Document routes
// are flat because the conversation API shares the /documents prefix.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.CreateProject)
		r.Get("/", h.ListProjects)

		r.Route("/{project_id}", func(r chi.Router) {
			r.Get("/", h.GetProject)
			r.Put("/", h.UpdateProject)
			r.Delete("/", h.DeleteProject)
			r.Get("/status", h.ProjectStatus)
		})
	})

	r.Post("/documents/{document_id}/approve", h.Approve)
	r.Post("/documents/{document_id}/approve/value", h.ApproveValue)
	r.Get("/documents/{document_id}/approved", h.ListApproved)
	r.Get("/documents/{document_id}/status", h.Status)
	r.Get("/documents/{document_id}/data", h.Data)
	r.Post("/documents/{document_id}/files", h.UploadFiles)
	r.Get("/documents/{document_id}/files", h.ListFiles)
	r.Get("/documents/{document_id}/cover", h.GetCover)
	r.Put("/documents/{document_id}/cover", h.UpdateCover)
	r.Delete("/documents/{document_id}/cover", h.ResetCover)
	r.Get("/documents/{document_id}/cover/structure", h.CoverStructure)
	r.Get("/documents/{document_id}/cover/preview", h.CoverPreview)
	r.Patch("/documents/{document_id}/cover/{category}", h.UpdateCoverCategory)
	r.Get("/documents/{document_id}/pdf", h.PDF)
	r.Get("/documents/{document_id}/export", h.Export)
}
