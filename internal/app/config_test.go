package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "Registry", cfg.DiaryDefaultOffice)
	assert.Equal(t, 25, cfg.DiaryPageSize)
	assert.Equal(t, "X-Remote-User", cfg.AuthUserHeader)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyRetention)
	assert.Equal(t, "Asia/Karachi", cfg.Location().String())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DIARY_TIME_ZONE", "UTC")
	t.Setenv("DIARY_PAGE_SIZE", "50")
	t.Setenv("DASHBOARD_CACHE_TTL", "90s")
	t.Setenv("AUTH_USER_HEADER", "X-Forwarded-User")
	t.Setenv("IDEMPOTENCY_RETENTION", "30m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 50, cfg.DiaryPageSize)
	assert.Equal(t, 90*time.Second, cfg.DashboardCacheTTL)
	assert.Equal(t, "X-Forwarded-User", cfg.AuthUserHeader)
	assert.Equal(t, 30*time.Minute, cfg.IdempotencyRetention)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown zone":    {"DIARY_TIME_ZONE": "Mars/Olympus"},
		"zero page":       {"DIARY_PAGE_SIZE": "0"},
		"bad duration":    {"DASHBOARD_CACHE_TTL": "soon"},
		"blank header":    {"AUTH_USER_HEADER": " "},
		"short retention": {"IDEMPOTENCY_RETENTION": "30s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestNilConfigLocation(t *testing.T) {
	var cfg *Config
	assert.Equal(t, time.UTC, cfg.Location())
}
