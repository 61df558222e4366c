package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrospark/hydrodash/internal/app"
	_ "github.com/hydrospark/hydrodash/testing"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("CSRF_SECRET", "csrf-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setSecrets(t)
	t.Setenv("BACKEND_URL", "http://backend:5001/api/")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://backend:5001/api", cfg.BackendURL)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 15*time.Minute, cfg.ActionTimeout)
	assert.Equal(t, int64(100<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Greater(t, cfg.AppWriteTimeout, cfg.ActionTimeout)
	assert.Equal(t, 10*time.Second, cfg.AppReadHeaderTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	setSecrets(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("ACTION_TIMEOUT", "5m")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("REDIS_DB", "3")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5*time.Minute, cfg.ActionTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing session secret": {"SESSION_SECRET": "", "CSRF_SECRET": "x"},
		"missing csrf secret":    {"SESSION_SECRET": "x", "CSRF_SECRET": ""},
		"relative backend url":   {"SESSION_SECRET": "x", "CSRF_SECRET": "x", "BACKEND_URL": "backend/api"},
		"zero upload limit":      {"SESSION_SECRET": "x", "CSRF_SECRET": "x", "MAX_UPLOAD_BYTES": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := app.LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestNilConfigIsNotProduction(t *testing.T) {
	var cfg *app.Config
	assert.False(t, cfg.IsProduction())
}
