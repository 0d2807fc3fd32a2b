package conversation

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers conversation routes. Registration is flat
// because the document API mounts under the same /documents prefix.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/documents/{document_id}/subsection", h.SelectSubsection)
	r.Post("/documents/{document_id}/start", h.StartConversation)
	r.Post("/documents/{document_id}/reply", h.Reply)
	r.Get("/documents/{document_id}/messages", h.Messages)
}
