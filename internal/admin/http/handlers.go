package adminhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hydrospark/hydrodash/internal/admin"
	"github.com/hydrospark/hydrodash/internal/charges"
	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/shared"
	"github.com/hydrospark/hydrodash/internal/view"
)

// MsgChargesFailed is shown when the charges table cannot be loaded.
const MsgChargesFailed = "Failed to load charges"

// AcceptedExtensions is the file picker hint; the backend validates contents.
const AcceptedExtensions = ".xlsx,.xls,.csv"

const multipartMemory = 32 << 20

// DefaultUploadTimeout bounds reading an import request body.
const DefaultUploadTimeout = 15 * time.Minute

// ChargesReader loads the per-customer charges rollup.
type ChargesReader interface {
	AdminCharges(ctx context.Context, cred hydro.Credential) ([]hydro.ChargeSummary, error)
}

// ActionObserver records settled admin actions.
type ActionObserver interface {
	ObserveAction(action string, ok bool)
}

// Handler serves the admin action panel and charges table.
type Handler struct {
	logger        *slog.Logger
	panel         *admin.Panel
	tracker       *admin.Tracker
	charges       ChargesReader
	templates     *view.Engine
	csrf          *shared.CSRFManager
	observer      ActionObserver
	validator     *validator.Validate
	maxUpload     int64
	uploadTimeout time.Duration
}

// NewHandler constructs the admin HTTP handler.
func NewHandler(logger *slog.Logger, panel *admin.Panel, tracker *admin.Tracker, chargesReader ChargesReader, templates *view.Engine, csrf *shared.CSRFManager, observer ActionObserver, maxUpload int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:        logger,
		panel:         panel,
		tracker:       tracker,
		charges:       chargesReader,
		templates:     templates,
		csrf:          csrf,
		observer:      observer,
		validator:     validator.New(),
		maxUpload:     maxUpload,
		uploadTimeout: DefaultUploadTimeout,
	}
}

// WithUploadTimeout overrides how long reading an import upload may take.
func (h *Handler) WithUploadTimeout(d time.Duration) *Handler {
	h.uploadTimeout = d
	return h
}

// ActionView is one trigger of the action panel.
type ActionView struct {
	Action      admin.Action
	Title       string
	Description string
	Button      string
	Path        string
	State       admin.State
	Outcome     *admin.Outcome
}

// Busy reports whether the trigger must render disabled.
func (a ActionView) Busy() bool {
	return a.State == admin.StateInFlight
}

// ChargeRow is one customer of the charges table.
type ChargeRow struct {
	Summary    hydro.ChargeSummary
	Badges     []charges.Badge
	Expanded   bool
	ToggleHref string
}

// DashboardData backs pages/admin/dashboard.html.
type DashboardData struct {
	Actions        []ActionView
	UploadHint     string
	Accept         string
	Search         string
	Charges        []ChargeRow
	TotalCustomers int
	ChargesError   string
}

var actionCopy = map[admin.Action]ActionView{
	admin.ActionImport: {
		Title:       "Import usage data",
		Description: "Upload a meter reading export. New customers are created automatically.",
		Button:      "Import",
		Path:        "/admin/import",
	},
	admin.ActionDetect: {
		Title:       "Anomaly detection",
		Description: "Scan all customers for unusual consumption.",
		Button:      "Run detection",
		Path:        "/admin/detect",
	},
	admin.ActionBills: {
		Title:       "Historical bills",
		Description: "Generate bills for every past billing period.",
		Button:      "Generate bills",
		Path:        "/admin/bills",
	},
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	cred, ok := shared.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	sessionID := ""
	if sess != nil {
		sessionID = sess.ID
	}

	data := DashboardData{
		UploadHint: fmt.Sprintf("Excel or CSV, up to %s", view.FormatBytes(h.maxUpload)),
		Accept:     AcceptedExtensions,
		Search:     r.URL.Query().Get("q"),
	}

	states := h.tracker.States(r.Context(), sessionID)
	for _, action := range admin.Actions {
		av := actionCopy[action]
		av.Action = action
		av.State = states[action]
		if sessionID != "" && av.State != admin.StateInFlight {
			outcome, ok, err := h.tracker.TakeOutcome(r.Context(), sessionID, action)
			if err != nil {
				h.logger.Warn("admin take outcome", slog.String("action", string(action)), slog.Any("error", err))
			}
			if ok {
				av.State = admin.StateSettled
				av.Outcome = &outcome
			}
		}
		data.Actions = append(data.Actions, av)
	}

	list, err := h.charges.AdminCharges(r.Context(), cred)
	if err != nil {
		h.logger.Error("admin charges", slog.Any("error", err))
		data.ChargesError = hydro.Message(err, MsgChargesFailed)
	} else {
		data.TotalCustomers = len(list)
		data.Charges = chargeRows(charges.Filter(list, data.Search), data.Search, charges.ParseExpanded(r.URL.Query().Get("expanded")))
	}

	h.render(w, r, "Admin", "pages/admin/dashboard.html", data)
}

func chargeRows(list []hydro.ChargeSummary, search string, expanded int64) []ChargeRow {
	rows := make([]ChargeRow, 0, len(list))
	for _, summary := range list {
		rows = append(rows, ChargeRow{
			Summary:    summary,
			Badges:     charges.Badges(summary.StatusCounts),
			Expanded:   summary.CustomerID == expanded,
			ToggleHref: toggleHref(search, charges.ToggleExpanded(expanded, summary.CustomerID)),
		})
	}
	return rows
}

func toggleHref(search string, expanded int64) string {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	if expanded != 0 {
		q.Set("expanded", strconv.FormatInt(expanded, 10))
	}
	if len(q) == 0 {
		return "/admin#charges"
	}
	return "/admin?" + q.Encode() + "#charges"
}

func (h *Handler) handleAction(action admin.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cred, ok := shared.CredentialFromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var upload *admin.Upload
		if action == admin.ActionImport {
			h.extendReadDeadline(w)
			up, err := h.readUpload(r)
			if err != nil {
				h.settle(w, r, sess.ID, admin.Outcome{Action: action, State: admin.StateSettled, Err: err.Error()})
				return
			}
			upload = up
		}

		started, err := h.tracker.Begin(r.Context(), sess.ID, action)
		if err != nil {
			h.logger.Warn("admin tracker begin", slog.String("action", string(action)), slog.Any("error", err))
			started = true
		}
		if !started {
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: admin.MsgAlreadyRunning})
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		defer func() {
			if err := h.tracker.End(context.WithoutCancel(r.Context()), sess.ID, action); err != nil {
				h.logger.Warn("admin tracker end", slog.String("action", string(action)), slog.Any("error", err))
			}
		}()

		outcome := h.panel.Run(r.Context(), cred, action, upload)
		h.settle(w, r, sess.ID, outcome)
	}
}

// settle stores outcome for the next render and redirects back to the panel.
// The session is left untouched: it was loaded before a possibly long action
// and may have been signed out or changed since.
func (h *Handler) settle(w http.ResponseWriter, r *http.Request, sessionID string, outcome admin.Outcome) {
	if h.observer != nil {
		h.observer.ObserveAction(string(outcome.Action), !outcome.Failed())
	}
	if err := h.tracker.Settle(context.WithoutCancel(r.Context()), sessionID, outcome); err != nil {
		h.logger.Error("admin settle outcome", slog.String("action", string(outcome.Action)), slog.Any("error", err))
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// extendReadDeadline lets an upload outlive the server wide read timeout,
// which is sized for ordinary form posts.
func (h *Handler) extendReadDeadline(w http.ResponseWriter) {
	if h.uploadTimeout <= 0 {
		return
	}
	err := http.NewResponseController(w).SetReadDeadline(time.Now().Add(h.uploadTimeout))
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("admin upload read deadline", slog.Any("error", err))
	}
}

type uploadForm struct {
	Filename string `validate:"required"`
	Size     int64  `validate:"gte=0"`
}

// readUpload returns the chosen file, or nil when none was chosen so the panel
// reports the missing file itself.
func (h *Handler) readUpload(r *http.Request) (*admin.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, h.errTooLarge()
		}
		h.logger.Warn("admin read upload", slog.Any("error", err))
		return nil, errors.New(admin.MsgImportFailed)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", admin.MsgImportFailed, err)
	}
	form := uploadForm{Filename: strings.TrimSpace(header.Filename), Size: header.Size}
	if err := h.validator.Struct(form); err != nil {
		_ = file.Close()
		return nil, nil
	}
	if h.maxUpload > 0 && form.Size > h.maxUpload {
		_ = file.Close()
		return nil, h.errTooLarge()
	}
	// The multipart reader owns the file; it is released with the request.
	return &admin.Upload{Filename: form.Filename, Size: form.Size, Content: file}, nil
}

func (h *Handler) errTooLarge() error {
	return fmt.Errorf("%s: file exceeds the %s limit", admin.MsgImportFailed, view.FormatBytes(h.maxUpload))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, title, name string, data any) {
	sess := shared.SessionFromContext(r.Context())
	cred, _ := shared.CredentialFromContext(r.Context())
	var (
		flash     *shared.FlashMessage
		csrfToken string
	)
	if sess != nil {
		flash = sess.PopFlash()
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      view.ViewerFor(cred),
		Data:        data,
	}
	if err := h.templates.Render(w, name, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

// HandleDashboardForTest exposes the dashboard handler for tests.
func (h *Handler) HandleDashboardForTest(w http.ResponseWriter, r *http.Request) {
	h.handleDashboard(w, r)
}
