package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	adminhttp "github.com/hydrospark/hydrodash/internal/admin/http"
	"github.com/hydrospark/hydrodash/internal/auth"
	"github.com/hydrospark/hydrodash/internal/observability"
	"github.com/hydrospark/hydrodash/internal/rbac"
	"github.com/hydrospark/hydrodash/internal/shared"
	usagehttp "github.com/hydrospark/hydrodash/internal/usage/http"
	"github.com/hydrospark/hydrodash/internal/view"
	"github.com/hydrospark/hydrodash/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Templates          *view.Engine
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	AuthHandler        *auth.Handler
	AdminHandler       *adminhttp.Handler
	UsageHandler       *usagehttp.Handler
	PermissionsHandler *rbac.PermissionsHandler
	RBACMiddleware     rbac.Middleware
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	pageTimeout, actionTimeout := 30*time.Second, 15*time.Minute
	if params.Config != nil {
		if params.Config.AppRequestTimeout > 0 {
			pageTimeout = params.Config.AppRequestTimeout
		}
		if params.Config.ActionTimeout > 0 {
			actionTimeout = params.Config.ActionTimeout
		}
	}
	guard := params.RBACMiddleware

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(pageTimeout))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			cred, ok := shared.CredentialFromSession(shared.SessionFromContext(r.Context()))
			if !ok {
				http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
				return
			}
			http.Redirect(w, r, auth.HomePath(cred), http.StatusSeeOther)
		})

		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
			if params.PermissionsHandler != nil {
				r.Route("/me", params.PermissionsHandler.MountRoutes)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireCredential)
			params.UsageHandler.MountRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireCredential, guard.RequireAdmin)
			params.AdminHandler.MountRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(actionTimeout))
		r.Use(guard.RequireCredential, guard.RequireAny(rbac.PermAdminActions))
		params.AdminHandler.MountActions(r)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
