package hydro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operation names reported to observers and used in errors.
const (
	OpLogin         = "login"
	OpImport        = "import"
	OpDetect        = "detect"
	OpGenerateBills = "generate_bills"
	OpAdminCharges  = "admin_charges"
	OpUsage         = "usage"
	OpUsageSummary  = "usage_summary"
	OpTopCustomers  = "top_customers"
)

// Observer receives one callback per backend round trip. Status is 0 when the
// request never produced a response.
type Observer interface {
	ObserveBackendCall(operation string, status int, elapsed time.Duration)
}

// Client talks to the billing backend over its JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver installs a call observer (metrics).
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger installs a logger for transport diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient constructs a new client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges user credentials for a backend access token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResult{}, err
	}
	var out LoginResult
	err = c.do(ctx, nil, OpLogin, http.MethodPost, "/auth/login", nil, strings.NewReader(string(payload)), "application/json", &out)
	if err != nil {
		return LoginResult{}, err
	}
	if out.AccessToken == "" {
		return LoginResult{}, &APIError{Operation: OpLogin, Status: http.StatusUnauthorized, Message: "no access token issued"}
	}
	return out, nil
}

// ImportData uploads a CSV/XLSX usage file as the multipart field "file".
// The body is streamed; size and extension checks are the backend's concern.
func (c *Client) ImportData(ctx context.Context, cred Credential, filename string, content io.Reader) (ImportResult, error) {
	if !cred.Valid() {
		return ImportResult{}, ErrMissingCredential
	}
	pr, pw := io.Pipe()
	defer func() { _ = pr.Close() }()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(writer.Close())
	}()

	var out ImportResult
	if err := c.do(ctx, &cred, OpImport, http.MethodPost, "/admin/import", nil, pr, writer.FormDataContentType(), &out); err != nil {
		return ImportResult{}, err
	}
	return out, nil
}

// DetectAnomalies triggers a backend anomaly detection pass.
func (c *Client) DetectAnomalies(ctx context.Context, cred Credential) (DetectionResult, error) {
	var out DetectionResult
	if err := c.postEmpty(ctx, cred, OpDetect, "/admin/detect", &out); err != nil {
		return DetectionResult{}, err
	}
	return out, nil
}

// GenerateHistoricalBills triggers the backend historical billing pass.
func (c *Client) GenerateHistoricalBills(ctx context.Context, cred Credential) (BillGenerationResult, error) {
	var out BillGenerationResult
	if err := c.postEmpty(ctx, cred, OpGenerateBills, "/admin/generate-historical-bills", &out); err != nil {
		return BillGenerationResult{}, err
	}
	return out, nil
}

// AdminCharges fetches the per-customer charge rollup.
func (c *Client) AdminCharges(ctx context.Context, cred Credential) ([]ChargeSummary, error) {
	var out chargesEnvelope
	if err := c.do(ctx, &cred, OpAdminCharges, http.MethodGet, "/admin/charges", nil, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Customers, nil
}

// Usage fetches raw usage records for the caller, or for q.CustomerID when set.
func (c *Client) Usage(ctx context.Context, cred Credential, q UsageQuery) ([]UsageRecord, error) {
	params := rangeParams(q.Range)
	if q.CustomerID > 0 {
		params.Set("customer_id", strconv.FormatInt(q.CustomerID, 10))
	}
	var out usageEnvelope
	if err := c.do(ctx, &cred, OpUsage, http.MethodGet, "/usage/", params, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Usage, nil
}

// UsageSummary fetches the caller's own cost summary. A nil summary means the
// backend returned none.
func (c *Client) UsageSummary(ctx context.Context, cred Credential, r DateRange) (*UsageSummary, error) {
	var out summaryEnvelope
	if err := c.do(ctx, &cred, OpUsageSummary, http.MethodGet, "/usage/summary", rangeParams(r), nil, "", &out); err != nil {
		return nil, err
	}
	return out.Summary, nil
}

// TopCustomers fetches the usage leaderboard for the range.
func (c *Client) TopCustomers(ctx context.Context, cred Credential, r DateRange) ([]TopCustomer, error) {
	var out topCustomersEnvelope
	if err := c.do(ctx, &cred, OpTopCustomers, http.MethodGet, "/usage/top-customers", rangeParams(r), nil, "", &out); err != nil {
		return nil, err
	}
	return out.TopCustomers, nil
}

func (c *Client) postEmpty(ctx context.Context, cred Credential, op, path string, out any) error {
	return c.do(ctx, &cred, op, http.MethodPost, path, nil, strings.NewReader("{}"), "application/json", out)
}

func (c *Client) do(ctx context.Context, cred *Credential, op, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	if cred != nil && !cred.Valid() {
		return ErrMissingCredential
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("hydro: %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cred != nil {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, 0, time.Since(start))
		if c.logger != nil {
			c.logger.Warn("backend request failed", slog.String("operation", op), slog.Any("error", err))
		}
		return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(op, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 400 {
		return decodeAPIError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("hydro: %s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) observe(op string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(op, status, elapsed)
	}
}

func rangeParams(r DateRange) url.Values {
	params := url.Values{}
	if r.Start != "" {
		params.Set("start_date", r.Start)
	}
	if r.End != "" {
		params.Set("end_date", r.End)
	}
	return params
}
