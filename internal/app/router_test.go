package app_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrospark/hydrodash/internal/admin"
	adminhttp "github.com/hydrospark/hydrodash/internal/admin/http"
	"github.com/hydrospark/hydrodash/internal/app"
	"github.com/hydrospark/hydrodash/internal/auth"
	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/observability"
	"github.com/hydrospark/hydrodash/internal/rbac"
	"github.com/hydrospark/hydrodash/internal/shared"
	usagehttp "github.com/hydrospark/hydrodash/internal/usage/http"
	"github.com/hydrospark/hydrodash/internal/view"
)

type fakeBackend struct {
	role hydro.Role
}

func (f fakeBackend) Login(ctx context.Context, email, password string) (hydro.LoginResult, error) {
	if password != "secret" {
		return hydro.LoginResult{}, &hydro.APIError{Operation: hydro.OpLogin, Status: http.StatusUnauthorized}
	}
	var res hydro.LoginResult
	res.AccessToken = "tok"
	res.User.ID = "1"
	res.User.Email = email
	res.User.Role = f.role
	return res, nil
}

func (fakeBackend) Usage(ctx context.Context, cred hydro.Credential, q hydro.UsageQuery) ([]hydro.UsageRecord, error) {
	return nil, nil
}

func (fakeBackend) UsageSummary(ctx context.Context, cred hydro.Credential, r hydro.DateRange) (*hydro.UsageSummary, error) {
	return nil, nil
}

func (fakeBackend) TopCustomers(ctx context.Context, cred hydro.Credential, r hydro.DateRange) ([]hydro.TopCustomer, error) {
	return nil, nil
}

func (fakeBackend) AdminCharges(ctx context.Context, cred hydro.Credential) ([]hydro.ChargeSummary, error) {
	return nil, nil
}

func (fakeBackend) ImportData(ctx context.Context, cred hydro.Credential, filename string, content io.Reader) (hydro.ImportResult, error) {
	if _, err := io.Copy(io.Discard, content); err != nil {
		return hydro.ImportResult{}, err
	}
	return hydro.ImportResult{Message: "Imported " + filename}, nil
}

func (fakeBackend) DetectAnomalies(ctx context.Context, cred hydro.Credential) (hydro.DetectionResult, error) {
	return hydro.DetectionResult{Message: "Detection complete"}, nil
}

func (fakeBackend) GenerateHistoricalBills(ctx context.Context, cred hydro.Credential) (hydro.BillGenerationResult, error) {
	return hydro.BillGenerationResult{Message: "ok"}, nil
}

var csrfField = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func newTestServer(t *testing.T, backend fakeBackend) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(t, backend))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, backend fakeBackend) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	templates, err := view.NewEngine()
	require.NoError(t, err)

	cfg := &app.Config{
		AppEnv:            "development",
		AppRequestTimeout: 5 * time.Second,
		ActionTimeout:     time.Minute,
		MaxUploadBytes:    1 << 20,
		RateLimit:         1000,
	}
	sessions := shared.NewSessionManager(client, "hydrodash_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	metrics := observability.NewMetrics()
	guard := rbac.Middleware{}

	router := app.NewRouter(app.RouterParams{
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessions,
		CSRFManager:        csrf,
		AuthHandler:        auth.NewHandler(nil, auth.NewService(backend), templates, sessions, csrf),
		AdminHandler:       adminhttp.NewHandler(nil, admin.NewPanel(backend, nil, nil), admin.NewTracker(client, time.Minute), backend, templates, csrf, metrics, cfg.MaxUploadBytes),
		UsageHandler:       usagehttp.NewHandler(nil, backend, templates, usagehttp.Renderers{}, csrf, shared.NewGenerations(client, time.Hour), metrics),
		PermissionsHandler: rbac.NewPermissionsHandler(guard),
		RBACMiddleware:     guard,
		Metrics:            metrics,
	})
	return router
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, c *http.Client, u string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func postForm(t *testing.T, c *http.Client, u string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(u, form)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp
}

func signIn(t *testing.T, srv *httptest.Server, c *http.Client) *http.Response {
	t.Helper()
	_, body := get(t, c, srv.URL+"/auth/login")
	match := csrfField.FindStringSubmatch(body)
	require.Len(t, match, 2, "login form carries a csrf token")
	return postForm(t, c, srv.URL+"/auth/login", url.Values{
		"csrf_token": {match[1]},
		"email":      {"ops@example.com"},
		"password":   {"secret"},
	})
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, fakeBackend{role: hydro.RoleAdmin})
	resp, body := get(t, newBrowser(t), srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestAnonymousRequestsRedirectToLogin(t *testing.T) {
	srv := newTestServer(t, fakeBackend{role: hydro.RoleAdmin})
	c := newBrowser(t)
	for _, path := range []string{"/", "/usage", "/admin"} {
		resp, _ := get(t, c, srv.URL+path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/auth/login", resp.Header.Get("Location"), path)
	}
}

func TestPostWithoutCSRFTokenIsForbidden(t *testing.T) {
	srv := newTestServer(t, fakeBackend{role: hydro.RoleAdmin})
	resp := postForm(t, newBrowser(t), srv.URL+"/admin/detect", url.Values{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminSignInReachesDashboardAndRunsAction(t *testing.T) {
	srv := newTestServer(t, fakeBackend{role: hydro.RoleAdmin})
	c := newBrowser(t)

	resp := signIn(t, srv, c)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))

	resp, body := get(t, c, srv.URL+"/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Anomaly detection")

	match := csrfField.FindStringSubmatch(body)
	require.Len(t, match, 2)
	resp = postForm(t, c, srv.URL+"/admin/detect", url.Values{"csrf_token": {match[1]}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = get(t, c, srv.URL+"/admin")
	assert.Contains(t, body, "Detection complete")

	resp, body = get(t, c, srv.URL+"/auth/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"role":"admin"`)
}

func TestCustomerCannotOpenAdminPages(t *testing.T) {
	srv := newTestServer(t, fakeBackend{role: hydro.RoleCustomer})
	c := newBrowser(t)

	resp := signIn(t, srv, c)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/usage", resp.Header.Get("Location"))

	resp, _ = get(t, c, srv.URL+"/admin")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := get(t, c, srv.URL+"/usage")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No usage recorded in the selected range.")
}

func TestStaticAssetsAreCached(t *testing.T) {
	srv := newTestServer(t, fakeBackend{role: hydro.RoleAdmin})
	resp, _ := get(t, newBrowser(t), srv.URL+"/static/css/app.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
}

func TestSlowUploadPassesCSRFCheckPastReadTimeout(t *testing.T) {
	srv := httptest.NewUnstartedServer(newTestRouter(t, fakeBackend{role: hydro.RoleAdmin}))
	srv.Config.ReadTimeout = 300 * time.Millisecond
	srv.Start()
	t.Cleanup(srv.Close)

	c := newBrowser(t)
	resp := signIn(t, srv, c)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, page := get(t, c, srv.URL+"/admin")
	match := csrfField.FindStringSubmatch(page)
	require.Len(t, match, 2)

	var payload bytes.Buffer
	writer := multipart.NewWriter(&payload)
	require.NoError(t, writer.WriteField("csrf_token", match[1]))
	part, err := writer.CreateFormFile("file", "meters.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(strings.Repeat("2024-06-01,4.2\n", 80)))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	body, pw := io.Pipe()
	go func() {
		data := payload.Bytes()
		chunk := len(data)/5 + 1
		for len(data) > 0 {
			n := min(chunk, len(data))
			if _, err := pw.Write(data[:n]); err != nil {
				return
			}
			data = data[n:]
			time.Sleep(100 * time.Millisecond)
		}
		_ = pw.Close()
	}()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/admin/import", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err = c.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, page = get(t, c, srv.URL+"/admin")
	assert.Contains(t, page, "Imported meters.csv")
}
