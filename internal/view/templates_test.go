package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err, "Templates should parse without error")
	require.NotNil(t, engine)
	for _, name := range []string{
		"pages/login.html",
		"pages/admin/dashboard.html",
		"pages/usage/overview.html",
		"pages/usage/mine.html",
		"partials/customer_detail.html",
	} {
		assert.True(t, engine.Has(name), name)
	}
}

func TestRenderLogin(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, engine.Render(rec, "pages/login.html", TemplateData{Title: "Sign in", CSRFToken: "tok"}))
	assert.Contains(t, rec.Body.String(), `name="csrf_token" value="tok"`)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1,234.50", FormatCCF(1234.5))
	assert.Equal(t, "0.00", FormatCCF(0))
	assert.Equal(t, "$12,000.10", FormatMoney(12000.1))
	assert.Equal(t, "-$3.00", FormatMoney(-3))
	assert.Equal(t, "1,035,131", FormatCount(1035131))
	assert.Equal(t, "100 MiB", FormatBytes(100<<20))
	assert.Equal(t, "Paid", titleCase("paid"))
	assert.Equal(t, "bill", pluralize(1, "bill", "bills"))
	assert.Equal(t, 2.5, deref(func() *float64 { v := 2.5; return &v }()))
	assert.Zero(t, deref(nil))
}
