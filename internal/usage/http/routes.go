package usagehttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/hydrospark/hydrodash/internal/shared"
)

// MountRoutes registers usage analytics endpoints onto the router. Callers
// must load the credential into the request context first.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/usage", h.handleUsage)
	r.Get("/usage/customers/{customerID}", h.handleCustomerDetail)
	r.With(limiter).Get("/usage/export.csv", h.handleCSV)
}

func rateLimitKey(r *http.Request) (string, error) {
	if cred, ok := shared.CredentialFromContext(r.Context()); ok {
		if email := strings.TrimSpace(cred.Email); email != "" {
			return "user:" + strings.ToLower(email), nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
