package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()

	for key := range defaults {
		t.Setenv(key, "")
	}
	for key, val := range env {
		t.Setenv(key, val)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{"DATABASE_URL": "postgres://localhost/submissions"})

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/submissions", c.DatabaseURL)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, slog.LevelDebug, c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, ":8080", c.BindAddr)
	assert.False(t, c.DebugMode)
	assert.Equal(t, []string{"en"}, c.Locales)
	assert.Equal(t, "en", c.PrimaryLocale)
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":   "file:test.db",
		"DB_DRIVER":      "SQLite",
		"LOG_LEVEL":      "warn",
		"LOG_FORMAT":     "json",
		"DEBUG_MODE":     "yes",
		"LOCALES":        "en_US, fr_CA,,en-us",
		"PRIMARY_LOCALE": "fr_CA",
		"REGISTRY_DIR":   "/etc/submissions/registry",
	})

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, slog.LevelWarn, c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
	assert.True(t, c.DebugMode)
	assert.Equal(t, []string{"fr-CA", "en-US"}, c.Locales)
	assert.Equal(t, "fr-CA", c.PrimaryLocale)
	assert.Equal(t, "/etc/submissions/registry", c.RegistryDir)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "no database url", env: map[string]string{}},
		{name: "unknown driver", env: map[string]string{"DATABASE_URL": "x", "DB_DRIVER": "mysql"}},
		{name: "unknown level", env: map[string]string{"DATABASE_URL": "x", "LOG_LEVEL": "chatty"}},
		{name: "unknown format", env: map[string]string{"DATABASE_URL": "x", "LOG_FORMAT": "xml"}},
		{name: "bad locale", env: map[string]string{"DATABASE_URL": "x", "LOCALES": "en,??"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
