package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/linguamem/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_TYPE", "SQLITE_PATH", "NOTIFICATION_START_HOUR", "NOTIFICATION_END_HOUR", "REMINDER_INTERVAL", "CONTEXT_DUE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, config.DefaultSQLitePath, cfg.SQLitePath)
	assert.Equal(t, 8, cfg.NotificationStartHour)
	assert.Equal(t, 22, cfg.NotificationEndHour)
	assert.Equal(t, time.Hour, cfg.ReminderInterval)
	assert.Equal(t, config.DefaultContextLimits(), cfg.Limits)
}

func TestLoadEnvFileAndInvalidValuesFallBack(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "LINGUAMEM_TEST_MARKER=loaded\nNOTIFICATION_START_HOUR=31\nCONTEXT_DUE_LIMIT=-4\nREMINDER_INTERVAL=15m\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("LINGUAMEM_TEST_MARKER", "")
	t.Setenv("NOTIFICATION_START_HOUR", "")
	t.Setenv("CONTEXT_DUE_LIMIT", "")
	t.Setenv("REMINDER_INTERVAL", "")
	// godotenv does not override variables that are already set, so clear them first
	os.Unsetenv("LINGUAMEM_TEST_MARKER")
	os.Unsetenv("NOTIFICATION_START_HOUR")
	os.Unsetenv("CONTEXT_DUE_LIMIT")
	os.Unsetenv("REMINDER_INTERVAL")

	cfg, err := config.Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "loaded", os.Getenv("LINGUAMEM_TEST_MARKER"))
	assert.Equal(t, config.DefaultNotificationStartHour, cfg.NotificationStartHour)
	assert.Equal(t, 20, cfg.Limits.Due)
	assert.Equal(t, 15*time.Minute, cfg.ReminderInterval)
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidateRejectsPostgresWithoutURL(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load("")
	assert.Error(t, err)
}
