// Package admin runs the long running backend operations behind the admin
// action panel.
package admin

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

// API is the slice of the backend the panel drives.
type API interface {
	ImportData(ctx context.Context, cred hydro.Credential, filename string, content io.Reader) (hydro.ImportResult, error)
	DetectAnomalies(ctx context.Context, cred hydro.Credential) (hydro.DetectionResult, error)
	GenerateHistoricalBills(ctx context.Context, cred hydro.Credential) (hydro.BillGenerationResult, error)
}

// Invalidator drops cached reads after the backend data changed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Upload is a usage data file chosen in the import form.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Panel issues one request per action and reports a settled Outcome. Actions
// are never retried.
type Panel struct {
	api    API
	cache  Invalidator
	logger *slog.Logger
}

// NewPanel constructs a Panel. cache may be nil.
func NewPanel(api API, cache Invalidator, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{api: api, cache: cache, logger: logger}
}

// Import uploads a usage file. A missing file fails before any request.
func (p *Panel) Import(ctx context.Context, cred hydro.Credential, up *Upload) Outcome {
	if up == nil || up.Content == nil || strings.TrimSpace(up.Filename) == "" {
		return Outcome{Action: ActionImport, State: StateSettled, Err: MsgFileRequired}
	}
	res, err := p.api.ImportData(ctx, cred, up.Filename, up.Content)
	if err != nil {
		p.logger.Error("admin import", slog.String("file", up.Filename), slog.Any("error", err))
		return failed(ActionImport, err, MsgImportFailed)
	}
	p.logger.Info("admin import",
		slog.String("file", up.Filename),
		slog.Int("records", res.ImportedRecords),
		slog.Int("customers", res.CustomersCreated),
		slog.Int("errors", len(res.Errors)),
	)
	p.invalidate(ctx, ActionImport)
	return importOutcome(res)
}

// Detect runs anomaly detection across all customers.
func (p *Panel) Detect(ctx context.Context, cred hydro.Credential) Outcome {
	res, err := p.api.DetectAnomalies(ctx, cred)
	if err != nil {
		p.logger.Error("admin detect", slog.Any("error", err))
		return failed(ActionDetect, err, MsgDetectFailed)
	}
	p.logger.Info("admin detect", slog.Int("anomalies", len(res.Anomalies)))
	return detectOutcome(res)
}

// GenerateBills generates historical bills for all customers.
func (p *Panel) GenerateBills(ctx context.Context, cred hydro.Credential) Outcome {
	res, err := p.api.GenerateHistoricalBills(ctx, cred)
	if err != nil {
		p.logger.Error("admin generate bills", slog.Any("error", err))
		return failed(ActionBills, err, MsgBillsFailed)
	}
	p.logger.Info("admin generate bills", slog.Int("bills", res.TotalBills))
	p.invalidate(ctx, ActionBills)
	return billsOutcome(res)
}

// Run dispatches action. up is only used by ActionImport.
func (p *Panel) Run(ctx context.Context, cred hydro.Credential, action Action, up *Upload) Outcome {
	switch action {
	case ActionImport:
		return p.Import(ctx, cred, up)
	case ActionDetect:
		return p.Detect(ctx, cred)
	default:
		return p.GenerateBills(ctx, cred)
	}
}

func (p *Panel) invalidate(ctx context.Context, action Action) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx); err != nil {
		p.logger.Warn("admin cache invalidate", slog.String("action", string(action)), slog.Any("error", err))
	}
}
