package usagehttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hydrospark/hydrodash/internal/charges"
	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/platform/httpx"
	"github.com/hydrospark/hydrodash/internal/shared"
	"github.com/hydrospark/hydrodash/internal/usage"
	"github.com/hydrospark/hydrodash/internal/usage/export"
	"github.com/hydrospark/hydrodash/internal/usage/svg"
	"github.com/hydrospark/hydrodash/internal/usage/ui"
	"github.com/hydrospark/hydrodash/internal/view"
)

// Generation views tracked per session.
const (
	viewPage   = "usage"
	viewDetail = "usage-detail"
)

var errInvalidCustomer = errors.New("usage: invalid customer id")

// StaleObserver counts responses discarded because a newer request superseded them.
type StaleObserver interface {
	ObserveStale(view string)
}

// Renderers groups the SVG renderers used by the usage pages.
type Renderers struct {
	Line ui.LineRenderer
	Bar  ui.BarRenderer
	HBar ui.HBarRenderer
}

// Handler serves the usage analytics pages.
type Handler struct {
	logger      *slog.Logger
	api         usage.API
	templates   *view.Engine
	charts      Renderers
	csrf        *shared.CSRFManager
	generations *shared.Generations
	stale       StaleObserver
	csvPool     sync.Pool
	now         func() time.Time
}

// NewHandler constructs the usage HTTP handler.
func NewHandler(logger *slog.Logger, api usage.API, templates *view.Engine, charts Renderers, csrf *shared.CSRFManager, generations *shared.Generations, stale StaleObserver) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:      logger,
		api:         api,
		templates:   templates,
		charts:      charts,
		csrf:        csrf,
		generations: generations,
		stale:       stale,
		now:         time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) controller(r *http.Request) (*usage.Controller, bool) {
	cred, ok := shared.CredentialFromContext(r.Context())
	if !ok {
		return nil, false
	}
	window := usage.ParseWindow(r.URL.Query().Get("days"))
	return usage.NewController(h.api, cred, window, h.now()), true
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	gen := h.begin(r, viewPage)

	if ctrl.IsAdmin() {
		vm, err := h.buildAdminViewModel(r, ctrl)
		if err != nil {
			h.handleServerError(w, "build admin usage", err)
			return
		}
		if h.superseded(r.Context(), gen, viewPage) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.render(w, r, "Usage Analytics", "pages/usage/overview.html", vm)
		return
	}

	vm, err := h.buildCustomerViewModel(r.Context(), ctrl)
	if err != nil {
		h.handleServerError(w, "build customer usage", err)
		return
	}
	if h.superseded(r.Context(), gen, viewPage) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.render(w, r, "My Usage", "pages/usage/mine.html", vm)
}

func (h *Handler) handleCustomerDetail(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	customerID, err := parseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil || customerID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", errInvalidCustomer.Error())
		return
	}
	gen := h.begin(r, viewDetail)

	detail, err := h.buildDetail(r.Context(), ctrl, hydro.Customer{CustomerID: customerID})
	if err != nil {
		if errors.Is(err, usage.ErrNotAdmin) {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		h.handleServerError(w, "build customer detail", err)
		return
	}
	if h.superseded(r.Context(), gen, viewDetail) {
		httpx.Problem(w, http.StatusConflict, "Stale Request", shared.ErrStaleRequest.Error())
		return
	}
	if err := h.templates.Render(w, "partials/customer_detail.html", view.TemplateData{Data: detail}); err != nil {
		h.logError("render customer detail", err)
	}
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	customerID, err := parseCustomerID(r.URL.Query().Get("customer"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var (
		records  []hydro.UsageRecord
		rate     *float64
		exportID int64
	)
	switch {
	case ctrl.IsAdmin() && customerID == 0:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "select a customer to export")
		return
	case ctrl.IsAdmin():
		exportID = customerID
		records, err = ctrl.LoadCustomerDetail(r.Context(), customerID)
		if err != nil {
			httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", hydro.Message(err, usage.MsgLoadFailed))
			return
		}
	default:
		data, _ := ctrl.LoadCustomer(r.Context())
		if data.Error != "" {
			httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", data.Error)
			return
		}
		records = data.Records
		rate = ui.NewSummaryCards(usage.Stats{}, data.Summary).Rate
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	rng := ctrl.Range()
	if err := export.WriteSummaryCSV(buf, rng, usage.SummaryStats(records)); err != nil {
		h.handleServerError(w, "write summary csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteDailyCSV(buf, usage.DailySeries(records)); err != nil {
		h.handleServerError(w, "write daily csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteMonthlyCSV(buf, usage.MonthlySeries(records), rate); err != nil {
		h.handleServerError(w, "write monthly csv", err)
		return
	}

	filename := fmt.Sprintf("usage-%s-%s.csv", rng.Start, rng.End)
	if exportID != 0 {
		filename = fmt.Sprintf("usage-%d-%s-%s.csv", exportID, rng.Start, rng.End)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) buildAdminViewModel(r *http.Request, ctrl *usage.Controller) (ui.AdminViewModel, error) {
	ctx := r.Context()
	data, err := ctrl.LoadAdmin(ctx)
	if err != nil {
		return ui.AdminViewModel{}, err
	}
	vm := ui.AdminViewModel{
		Filters:        ui.NewFilters(ctrl.Window(), ctrl.Range()),
		Error:          data.Error,
		TopCustomers:   ui.NewTopCustomerRows(data.TopCustomers),
		Search:         strings.TrimSpace(r.URL.Query().Get("q")),
		DirectoryError: data.DirectoryError,
	}
	if vm.Search != "" {
		vm.Suggestions = ui.NewSuggestions(charges.Suggest(data.Customers, vm.Search, ui.MaxSuggestions))
	}

	if len(vm.TopCustomers) > 0 {
		values := make([]float64, 0, len(vm.TopCustomers))
		labels := make([]string, 0, len(vm.TopCustomers))
		for _, row := range vm.TopCustomers {
			values = append(values, row.Usage)
			labels = append(labels, row.ChartLabel)
		}
		chart, err := h.charts.HBar.HBars(svg.DefaultWidth, values, labels, svg.HBarOpts{
			Title:       "Top customers",
			Description: "Total usage per customer for the selected range",
			Unit:        " CCF",
		})
		if err != nil {
			return ui.AdminViewModel{}, err
		}
		vm.TopSVG = chart
	}

	customerID, err := parseCustomerID(r.URL.Query().Get("customer"))
	if err == nil && customerID != 0 {
		customer := hydro.Customer{CustomerID: customerID}
		if summary, ok := charges.Find(data.Customers, customerID); ok {
			customer = summary.Customer()
		}
		detail, err := h.buildDetail(ctx, ctrl, customer)
		if err != nil {
			return ui.AdminViewModel{}, err
		}
		vm.Selected = &detail
	}
	return vm, nil
}

// buildDetail loads one customer's usage. Backend failures are reported on the
// detail itself; only rendering failures are returned.
func (h *Handler) buildDetail(ctx context.Context, ctrl *usage.Controller, customer hydro.Customer) (ui.CustomerDetail, error) {
	records, err := ctrl.LoadCustomerDetail(ctx, customer.CustomerID)
	if errors.Is(err, usage.ErrNotAdmin) {
		return ui.CustomerDetail{}, err
	}
	detail := ui.CustomerDetail{
		Customer:   customer,
		ExportHref: fmt.Sprintf("/usage/export.csv?days=%d&customer=%d", ctrl.Window().Days(), customer.CustomerID),
	}
	if err != nil {
		detail.Error = hydro.Message(err, usage.MsgLoadFailed)
	}
	if customer.CustomerName == "" && len(records) > 0 {
		detail.Customer.CustomerName = records[0].CustomerName
		detail.Customer.Email = records[0].CustomerEmail
	}

	stats := usage.SummaryStats(records)
	detail.Cards = ui.NewSummaryCards(stats, nil)
	detail.Records = ui.NewRecordTable(records, stats.Average)
	detail.Empty = len(records) == 0 && detail.Error == ""

	daily, err := h.dailyChart(usage.DailySeries(records))
	if err != nil {
		return ui.CustomerDetail{}, err
	}
	detail.DailySVG = daily
	if daily != "" {
		detail.Legend = ui.Legend()
	}

	months := usage.MonthlySeries(records)
	detail.ShowMonthly = len(months) > 1
	if detail.ShowMonthly {
		detail.Monthly = ui.NewMonthlyRows(months, nil)
		detail.MonthlySVG, err = h.monthlyChart(months)
		if err != nil {
			return ui.CustomerDetail{}, err
		}
	}
	return detail, nil
}

func (h *Handler) buildCustomerViewModel(ctx context.Context, ctrl *usage.Controller) (ui.CustomerViewModel, error) {
	data, err := ctrl.LoadCustomer(ctx)
	if err != nil {
		return ui.CustomerViewModel{}, err
	}
	stats := usage.SummaryStats(data.Records)
	vm := ui.CustomerViewModel{
		Filters: ui.NewFilters(ctrl.Window(), ctrl.Range()),
		Error:   data.Error,
		Cards:   ui.NewSummaryCards(stats, data.Summary),
		Records: ui.NewRecordTable(data.Records, stats.Average),
		Empty:   len(data.Records) == 0 && data.Error == "",
	}

	vm.DailySVG, err = h.dailyChart(usage.DailySeries(data.Records))
	if err != nil {
		return ui.CustomerViewModel{}, err
	}
	if vm.DailySVG != "" {
		vm.Legend = ui.Legend()
	}

	months := usage.MonthlySeries(data.Records)
	vm.ShowMonthly = len(months) > 0
	vm.Monthly = ui.NewMonthlyRows(months, vm.Cards.Rate)
	if len(months) > 1 {
		vm.MonthlySVG, err = h.monthlyChart(months)
		if err != nil {
			return ui.CustomerViewModel{}, err
		}
	}
	return vm, nil
}

func (h *Handler) dailyChart(points []usage.DailyPoint) (template.HTML, error) {
	if len(points) == 0 {
		return "", nil
	}
	values, labels, colors := ui.DailyChartData(points)
	return h.charts.Bar.Bars(svg.DefaultWidth, svg.DefaultHeight, values, labels, colors, svg.BarOpts{
		Title:       "Daily usage",
		Description: "Daily water usage in CCF, coloured against the period average",
		LabelEvery:  ui.LabelEvery(len(points)),
		Unit:        " CCF",
	})
}

func (h *Handler) monthlyChart(points []usage.MonthlyPoint) (template.HTML, error) {
	values := make([]float64, 0, len(points))
	labels := make([]string, 0, len(points))
	for _, p := range points {
		values = append(values, p.Total)
		labels = append(labels, p.Month)
	}
	return h.charts.Line.Line(svg.DefaultWidth, svg.DefaultHeight, values, labels, svg.LineOpts{
		Title:       "Monthly usage",
		Description: "Total usage per month in CCF",
		ShowDots:    true,
	})
}

// begin starts a generation for view. Without a session the request always
// counts as current.
func (h *Handler) begin(r *http.Request, viewName string) shared.Generation {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return shared.Generation{}
	}
	gen, err := h.generations.Begin(r.Context(), sess.ID, viewName)
	if err != nil {
		h.logError("begin generation", err)
	}
	return gen
}

func (h *Handler) superseded(ctx context.Context, gen shared.Generation, viewName string) bool {
	if h.generations.IsCurrent(ctx, gen) {
		return false
	}
	h.logger.Debug("discarding stale response", slog.String("view", viewName), slog.Int64("generation", gen.Value()))
	if h.stale != nil {
		h.stale.ObserveStale(viewName)
	}
	return true
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
		h.logError("render template", err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

func parseCustomerID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, errInvalidCustomer
	}
	return id, nil
}

// HandleUsageForTest exposes the usage page handler for tests.
func (h *Handler) HandleUsageForTest(w http.ResponseWriter, r *http.Request) { h.handleUsage(w, r) }

// HandleCSVForTest exposes the CSV handler for tests.
func (h *Handler) HandleCSVForTest(w http.ResponseWriter, r *http.Request) { h.handleCSV(w, r) }
