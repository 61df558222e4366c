package adminhttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/hydrospark/hydrodash/internal/admin"
)

// MountRoutes registers the admin panel page. Callers must restrict the
// router to admin credentials.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/admin", h.handleDashboard)
}

// MountActions registers the long running action triggers. They run under
// the action timeout rather than the page timeout.
func (h *Handler) MountActions(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/admin/import", h.handleAction(admin.ActionImport))
	r.Post("/admin/detect", h.handleAction(admin.ActionDetect))
	r.Post("/admin/bills", h.handleAction(admin.ActionBills))
}
