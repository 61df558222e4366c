package view

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/shared"
	"github.com/hydrospark/hydrodash/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// Viewer describes the signed-in user for the navigation bar.
type Viewer struct {
	SignedIn bool
	Email    string
	Role     string
	IsAdmin  bool
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Viewer      Viewer
	Data        any
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(FuncMap()).ParseFS(web.Templates,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
		"templates/pages/*/*.html",
	)
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return e.templates.ExecuteTemplate(w, name, data)
}

// Has reports whether a template with name was parsed.
func (e *Engine) Has(name string) bool {
	return e != nil && e.templates.Lookup(name) != nil
}

// ViewerFor describes cred for the navigation bar.
func ViewerFor(cred hydro.Credential) Viewer {
	if !cred.Valid() {
		return Viewer{}
	}
	return Viewer{
		SignedIn: true,
		Email:    cred.Email,
		Role:     string(cred.Role),
		IsAdmin:  cred.IsAdmin(),
	}
}
