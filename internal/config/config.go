package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Default values used when the environment leaves a setting unset
const (
	DefaultDBType                = "sqlite"
	DefaultSQLitePath            = "data/linguamem.db"
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
	DefaultReminderInterval      = time.Hour
)

// ContextLimits bounds the lists fetched while building a lesson context
type ContextLimits struct {
	Mastered       int
	Due            int
	Struggling     int
	RecentSessions int
	Highlights     int
}

// DefaultContextLimits returns the limits used when none are configured
func DefaultContextLimits() ContextLimits {
	return ContextLimits{
		Mastered:       20,
		Due:            20,
		Struggling:     10,
		RecentSessions: 5,
		Highlights:     5,
	}
}

// Config represents the configuration of the application
type Config struct {
	// Database driver: "sqlite" or "postgres"
	DBType      string
	SQLitePath  string
	DatabaseURL string

	// Telegram token for reminders; reminders are only logged when empty
	TelegramToken string
	// Reminders are sent only between these hours (inclusive)
	NotificationStartHour int
	NotificationEndHour   int
	ReminderInterval      time.Duration

	// Optional YAML file overriding the built-in language families
	LanguageFamiliesFile string

	LogLevel    string
	LogFormat   string
	TraceStdout bool

	Limits ContextLimits
}

// Load reads envFile (if it exists) into the process environment and builds the configuration
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	defaults := DefaultContextLimits()
	cfg := &Config{
		DBType:                strings.ToLower(getString("DB_TYPE", DefaultDBType)),
		SQLitePath:            getString("SQLITE_PATH", DefaultSQLitePath),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		TelegramToken:         os.Getenv("TELEGRAM_BOT_TOKEN"),
		NotificationStartHour: getHour("NOTIFICATION_START_HOUR", DefaultNotificationStartHour),
		NotificationEndHour:   getHour("NOTIFICATION_END_HOUR", DefaultNotificationEndHour),
		ReminderInterval:      getDuration("REMINDER_INTERVAL", DefaultReminderInterval),
		LanguageFamiliesFile:  os.Getenv("LANGUAGE_FAMILIES_FILE"),
		LogLevel:              getString("LOG_LEVEL", "info"),
		LogFormat:             getString("LOG_FORMAT", "text"),
		TraceStdout:           getBool("TRACE_STDOUT", false),
		Limits: ContextLimits{
			Mastered:       getPositiveInt("CONTEXT_MASTERED_LIMIT", defaults.Mastered),
			Due:            getPositiveInt("CONTEXT_DUE_LIMIT", defaults.Due),
			Struggling:     getPositiveInt("CONTEXT_STRUGGLING_LIMIT", defaults.Struggling),
			RecentSessions: getPositiveInt("CONTEXT_RECENT_SESSIONS", defaults.RecentSessions),
			Highlights:     getPositiveInt("CONTEXT_HIGHLIGHTS_LIMIT", defaults.Highlights),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no sensible fallback
func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.NotificationStartHour > c.NotificationEndHour {
		return fmt.Errorf("notification window %d-%d is empty", c.NotificationStartHour, c.NotificationEndHour)
	}
	return nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getHour(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		logrus.Warnf("ignoring invalid %s=%q, using %d", key, v, def)
		return def
	}
	return h
}

func getPositiveInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logrus.Warnf("ignoring invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logrus.Warnf("ignoring invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.Warnf("ignoring invalid %s=%q, using %t", key, v, def)
		return def
	}
	return b
}
