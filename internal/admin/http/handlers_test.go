package adminhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrospark/hydrodash/internal/admin"
	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/shared"
	"github.com/hydrospark/hydrodash/internal/view"
)

type stubBackend struct {
	mu          sync.Mutex
	imported    []string
	content     string
	importRes   hydro.ImportResult
	detectRes   hydro.DetectionResult
	detectErr   error
	detectCalls int
	onDetect    func()
	charges     []hydro.ChargeSummary
	chargesErr  error
	invalidated int
}

func (s *stubBackend) ImportData(ctx context.Context, cred hydro.Credential, filename string, content io.Reader) (hydro.ImportResult, error) {
	data, _ := io.ReadAll(content)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imported = append(s.imported, filename)
	s.content = string(data)
	return s.importRes, nil
}

func (s *stubBackend) DetectAnomalies(ctx context.Context, cred hydro.Credential) (hydro.DetectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectCalls++
	hook := s.onDetect
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	s.mu.Lock()
	return s.detectRes, s.detectErr
}

func (s *stubBackend) GenerateHistoricalBills(ctx context.Context, cred hydro.Credential) (hydro.BillGenerationResult, error) {
	return hydro.BillGenerationResult{TotalBills: 4}, nil
}

func (s *stubBackend) AdminCharges(ctx context.Context, cred hydro.Credential) ([]hydro.ChargeSummary, error) {
	return s.charges, s.chargesErr
}

func (s *stubBackend) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated++
	return nil
}

type actionCounter struct {
	results []string
}

func (a *actionCounter) ObserveAction(action string, ok bool) {
	a.results = append(a.results, fmt.Sprintf("%s:%t", action, ok))
}

var adminCred = hydro.Credential{Token: "admin-token", Role: hydro.RoleAdmin, Email: "ops@hydrospark.test"}

type harness struct {
	mr       *miniredis.Miniredis
	backend  *stubBackend
	tracker  *admin.Tracker
	sessions *shared.SessionManager
	actions  *actionCounter
	router   chi.Router
	cookie   string
}

func newHarness(t *testing.T, backend *stubBackend) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	templates, err := view.NewEngine()
	require.NoError(t, err)

	h := &harness{
		mr:       mr,
		backend:  backend,
		tracker:  admin.NewTracker(client, time.Minute),
		sessions: shared.NewSessionManager(client, "sid", "secret", time.Hour, false),
		actions:  &actionCounter{},
	}
	handler := NewHandler(nil, admin.NewPanel(backend, backend, nil), h.tracker, backend, templates, shared.NewCSRFManager("csrf"), h.actions, 1<<20)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	handler.MountActions(r)
	h.router = r
	return h
}

// do serves req inside the harness session, like the session middleware.
func (h *harness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if h.cookie != "" {
		req.AddCookie(&http.Cookie{Name: h.sessions.CookieName(), Value: h.cookie})
	}
	sess, err := h.sessions.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	ctx = shared.ContextWithCredential(ctx, adminCred)
	req = req.WithContext(ctx)
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	require.NoError(t, h.sessions.Commit(ctx, rr, req, sess))
	h.cookie = sess.ID
	return rr
}

func (h *harness) sessionID(t *testing.T) string {
	t.Helper()
	if h.cookie == "" {
		h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil))
	}
	return h.cookie
}

func multipartRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/admin/import", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestDashboardChargesTable(t *testing.T) {
	backend := &stubBackend{charges: []hydro.ChargeSummary{
		{
			CustomerID: 1, CustomerName: "Alice Rivers", Email: "alice@home.test", BillCount: 3, TotalAmount: 125.5,
			StatusCounts: map[string]int{"paid": 2, "overdue": 1},
			Bills:        []hydro.Bill{{ID: 10, BillingPeriodStart: "2024-01-01", BillingPeriodEnd: "2024-01-31", Status: "paid"}},
		},
		{CustomerID: 2, CustomerName: "Bob Stone", Email: "bob@home.test"},
	}}
	h := newHarness(t, backend)

	rr := h.do(t, httptest.NewRequest(http.MethodGet, "/admin?expanded=1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "$125.50")
	assert.Contains(t, body, `<span class="badge badge-success">2 paid</span>`)
	assert.Contains(t, body, `<span class="badge badge-danger">1 overdue</span>`)
	assert.NotContains(t, body, " sent</span>")
	assert.Contains(t, body, "2024-01-01 to 2024-01-31")
	assert.Contains(t, body, "Bob Stone")
	assert.Contains(t, body, "up to 1.0 MiB")
}

func TestDashboardSearch(t *testing.T) {
	backend := &stubBackend{charges: []hydro.ChargeSummary{
		{CustomerID: 1, CustomerName: "Alice Rivers", Email: "alice@home.test"},
		{CustomerID: 2, CustomerName: "Bob Stone", Email: "bob@home.test"},
	}}
	h := newHarness(t, backend)

	rr := h.do(t, httptest.NewRequest(http.MethodGet, "/admin?q=BOB", nil))

	body := rr.Body.String()
	assert.Contains(t, body, "Bob Stone")
	assert.NotContains(t, body, "Alice Rivers")
}

func TestDashboardChargesFailure(t *testing.T) {
	h := newHarness(t, &stubBackend{chargesErr: hydro.ErrTransport})

	rr := h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), MsgChargesFailed)
	assert.Contains(t, rr.Body.String(), "Run detection")
}

func TestDetectOutcomeSurvivesRedirect(t *testing.T) {
	backend := &stubBackend{detectRes: hydro.DetectionResult{Anomalies: []json.RawMessage{[]byte(`{}`), []byte(`{}`), []byte(`{}`)}}}
	h := newHarness(t, backend)

	rr := h.do(t, httptest.NewRequest(http.MethodPost, "/admin/detect", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin", rr.Header().Get("Location"))
	assert.Equal(t, []string{"detect:true"}, h.actions.results)

	rr = h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Contains(t, rr.Body.String(), "Detected 3 anomalies across all customers")

	// The outcome is shown once.
	rr = h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.NotContains(t, rr.Body.String(), "Detected 3 anomalies")
}

func TestDetectFailureUsesBackendMessage(t *testing.T) {
	backend := &stubBackend{detectErr: &hydro.APIError{Operation: "detect", Status: http.StatusInternalServerError, Message: "Model not trained"}}
	h := newHarness(t, backend)

	h.do(t, httptest.NewRequest(http.MethodPost, "/admin/detect", nil))
	rr := h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Contains(t, rr.Body.String(), "Model not trained")
	assert.Equal(t, []string{"detect:false"}, h.actions.results)
}

func TestImportWithoutFile(t *testing.T) {
	backend := &stubBackend{}
	h := newHarness(t, backend)

	h.do(t, multipartRequest(t, "file", "", ""))
	rr := h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Contains(t, rr.Body.String(), admin.MsgFileRequired)
	assert.Empty(t, backend.imported)
}

func TestImportUploadsFile(t *testing.T) {
	rowErrors := make([]string, 12)
	for i := range rowErrors {
		rowErrors[i] = fmt.Sprintf("Row %d: missing meter id", i+2)
	}
	backend := &stubBackend{importRes: hydro.ImportResult{Message: "Import complete", ImportedRecords: 5, CustomersCreated: 2, Errors: rowErrors}}
	h := newHarness(t, backend)

	rr := h.do(t, multipartRequest(t, "file", "readings.csv", "date,usage\n2024-06-01,4.2\n"))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, []string{"readings.csv"}, backend.imported)
	assert.Equal(t, "date,usage\n2024-06-01,4.2\n", backend.content)
	assert.Equal(t, 1, backend.invalidated)

	body := h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil)).Body.String()
	assert.Contains(t, body, "Records imported: 5")
	assert.Contains(t, body, "Customers created: 2")
	assert.Contains(t, body, "12 rows could not be imported; showing the first 10.")
	assert.Contains(t, body, "Row 11: missing meter id")
	assert.NotContains(t, body, "Row 12: missing meter id")
}

func TestImportRejectsOversizedFile(t *testing.T) {
	backend := &stubBackend{}
	h := newHarness(t, backend)

	h.do(t, multipartRequest(t, "file", "big.csv", strings.Repeat("x", 2<<20)))
	rr := h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Contains(t, rr.Body.String(), "file exceeds the 1.0 MiB limit")
	assert.Empty(t, backend.imported)
}

func TestDuplicateActionIsRejected(t *testing.T) {
	backend := &stubBackend{}
	h := newHarness(t, backend)
	sid := h.sessionID(t)
	started, err := h.tracker.Begin(context.Background(), sid, admin.ActionDetect)
	require.NoError(t, err)
	require.True(t, started)

	rr := h.do(t, httptest.NewRequest(http.MethodPost, "/admin/detect", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Zero(t, backend.detectCalls)

	body := h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil)).Body.String()
	assert.Contains(t, body, admin.MsgAlreadyRunning)
	assert.Contains(t, body, "Working…")
}

func TestActionReleasesTracker(t *testing.T) {
	h := newHarness(t, &stubBackend{})

	h.do(t, httptest.NewRequest(http.MethodPost, "/admin/bills", nil))

	states := h.tracker.States(context.Background(), h.cookie)
	assert.Equal(t, admin.StateIdle, states[admin.ActionBills])
}

func TestToggleHref(t *testing.T) {
	assert.Equal(t, "/admin#charges", toggleHref("", 0))
	assert.Equal(t, "/admin?expanded=4#charges", toggleHref("", 4))
	assert.Equal(t, "/admin?expanded=4&q=al+ice#charges", toggleHref("al ice", 4))
}

func TestLogoutDuringActionStaysSignedOut(t *testing.T) {
	backend := &stubBackend{detectRes: hydro.DetectionResult{Message: "Detection complete"}}
	h := newHarness(t, backend)
	sid := h.sessionID(t)

	cookieReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: h.sessions.CookieName(), Value: sid})
		return req
	}
	ctx := context.Background()
	sess, err := h.sessions.Load(ctx, cookieReq())
	require.NoError(t, err)
	shared.StoreCredential(sess, adminCred)
	require.NoError(t, h.sessions.Commit(ctx, httptest.NewRecorder(), cookieReq(), sess))

	// Another tab signs out while detection is running.
	backend.onDetect = func() {
		other, err := h.sessions.Load(ctx, cookieReq())
		if assert.NoError(t, err) {
			shared.ClearCredential(other)
			h.sessions.Destroy(other)
			assert.NoError(t, h.sessions.Commit(ctx, httptest.NewRecorder(), cookieReq(), other))
		}
	}

	rr := h.do(t, httptest.NewRequest(http.MethodPost, "/admin/detect", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	assert.False(t, h.mr.Exists("session:"+sid))
	after, err := h.sessions.Load(ctx, cookieReq())
	require.NoError(t, err)
	_, signedIn := shared.CredentialFromSession(after)
	assert.False(t, signedIn)
	assert.NotEqual(t, sid, after.ID)
}

// serve runs the admin routes behind a real listener with the harness
// session and credential attached.
func (h *harness) serve() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Load(r.Context(), r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		ctx := shared.ContextWithSession(r.Context(), sess)
		ctx = shared.ContextWithCredential(ctx, adminCred)
		h.router.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TestSlowImportOutlivesServerReadTimeout(t *testing.T) {
	backend := &stubBackend{importRes: hydro.ImportResult{Message: "Import complete", ImportedRecords: 2}}
	h := newHarness(t, backend)
	sid := h.sessionID(t)

	srv := httptest.NewUnstartedServer(h.serve())
	srv.Config.ReadTimeout = 300 * time.Millisecond
	srv.Start()
	defer srv.Close()

	var payload bytes.Buffer
	writer := multipart.NewWriter(&payload)
	part, err := writer.CreateFormFile("file", "slow.csv")
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
	req.AddCookie(&http.Cookie{Name: h.sessions.CookieName(), Value: sid})
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	assert.Equal(t, []string{"slow.csv"}, backend.imported)
	outcome, ok, err := h.tracker.TakeOutcome(context.Background(), sid, admin.ActionImport)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, outcome.Failed(), outcome.Err)
}

func TestImportReadErrorIsNotReportedAsOversized(t *testing.T) {
	backend := &stubBackend{}
	h := newHarness(t, backend)

	body := "--xyz\r\nContent-Disposition: form-data; name=\"file\"; filename=\"cut.csv\"\r\nContent-Type: text/csv\r\n\r\n2024-06-01,4.2"
	req := httptest.NewRequest(http.MethodPost, "/admin/import", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	h.do(t, req)

	page := h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil)).Body.String()
	assert.Contains(t, page, admin.MsgImportFailed)
	assert.NotContains(t, page, "file exceeds")
	assert.Empty(t, backend.imported)
}

func TestImportBodyOverRequestLimitIsReportedAsOversized(t *testing.T) {
	backend := &stubBackend{}
	h := newHarness(t, backend)

	req := multipartRequest(t, "file", "big.csv", strings.Repeat("x", 4096))
	req.Body = http.MaxBytesReader(nil, req.Body, 1024)
	h.do(t, req)

	page := h.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil)).Body.String()
	assert.Contains(t, page, "file exceeds the 1.0 MiB limit")
	assert.Empty(t, backend.imported)
}
