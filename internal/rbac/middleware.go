package rbac

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/hydrospark/hydrodash/internal/platform/httpx"
	"github.com/hydrospark/hydrodash/internal/shared"
)

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/auth/login"

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireCredential loads the backend credential from the session into the
// request context. Page requests without one are redirected to the login page;
// fragment and JSON requests receive 401.
func (m Middleware) RequireCredential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred, ok := shared.CredentialFromSession(shared.SessionFromContext(r.Context()))
		if !ok {
			if wantsPage(r) {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrUnauthenticated.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithCredential(r.Context(), cred)))
	})
}

// RequireAny ensures the current credential has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			cred, ok := shared.CredentialFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrUnauthenticated.Error())
				return
			}
			if hasAnyPermission(PermissionsFor(cred.Role), normalized) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied", slog.String("role", string(cred.Role)), slog.String("path", r.URL.Path))
			}
			if wantsPage(r) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", shared.ErrForbidden.Error())
		})
	}
}

// RequireAdmin allows only credentials that may use the admin views.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAny(PermUsageAll)(next)
}

// wantsPage reports whether r is a full page navigation rather than a
// fragment or API call.
func wantsPage(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.Header.Get("X-Requested-With") != "" {
		return false
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}

func hasAnyPermission(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}
