package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hydrospark/hydrodash/internal/platform/httpx"
	"github.com/hydrospark/hydrodash/internal/shared"
)

// PermissionsHandler reports the signed-in user's role and permissions.
type PermissionsHandler struct {
	rbac Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireCredential).Get("/", h.me)
}

type meResponse struct {
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Admin       bool     `json:"admin"`
	Permissions []string `json:"permissions"`
}

func (h *PermissionsHandler) me(w http.ResponseWriter, r *http.Request) {
	cred, ok := shared.CredentialFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{
		Email:       cred.Email,
		Role:        string(cred.Role),
		Admin:       cred.IsAdmin(),
		Permissions: PermissionsFor(cred.Role),
	})
}
