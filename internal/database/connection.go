package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/linguamem/internal/config"
	"github.com/example/linguamem/internal/logger"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// Connect establishes a connection to the configured database and makes sure
// the schema exists
func Connect(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.DBType {
	case "postgres":
		return Open(ctx, driverPostgres, cfg.DatabaseURL)
	default:
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return Open(ctx, driverSQLite, cfg.SQLitePath)
	}
}

// Open connects with an explicit driver and DSN. Tests use ("sqlite3", ":memory:").
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == driverSQLite {
		// Enable foreign keys
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers; one connection also
		// serializes every read-modify-write transaction
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debugf(ctx, "database ready (driver=%s)", driver)
	return db, nil
}

func isPostgres(db sqlx.ExtContext) bool {
	return db.DriverName() == driverPostgres
}

var schema = []struct {
	name string
	ddl  string
}{
	{"learners", `
		CREATE TABLE IF NOT EXISTS learners (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			native_language TEXT NOT NULL DEFAULT '',
			lesson_minutes INTEGER NOT NULL DEFAULT 0,
			correction_style TEXT NOT NULL DEFAULT '',
			interests TEXT NOT NULL DEFAULT '[]',
			notifications_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			telegram_chat_id BIGINT NOT NULL DEFAULT 0,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`},
	{"language_progress", `
		CREATE TABLE IF NOT EXISTS language_progress (
			learner_id TEXT NOT NULL,
			language_code TEXT NOT NULL,
			proficiency_level TEXT NOT NULL DEFAULT 'beginner',
			proficiency_score {{real}} NOT NULL DEFAULT 0,
			total_sessions INTEGER NOT NULL DEFAULT 0,
			total_minutes INTEGER NOT NULL DEFAULT 0,
			vocabulary_count INTEGER NOT NULL DEFAULT 0,
			grammar_count INTEGER NOT NULL DEFAULT 0,
			streak_days INTEGER NOT NULL DEFAULT 0,
			last_session_at {{ts}},
			updated_at {{ts}} NOT NULL,
			PRIMARY KEY (learner_id, language_code)
		)`},
	{"concepts", `
		CREATE TABLE IF NOT EXISTS concepts (
			learner_id TEXT NOT NULL,
			language_code TEXT NOT NULL,
			concept_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			easiness_factor {{real}} NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 1,
			repetitions INTEGER NOT NULL DEFAULT 0,
			next_review_at {{ts}},
			mastery_level {{real}} NOT NULL DEFAULT 0,
			times_seen INTEGER NOT NULL DEFAULT 0,
			times_practiced INTEGER NOT NULL DEFAULT 0,
			times_correct INTEGER NOT NULL DEFAULT 0,
			times_incorrect INTEGER NOT NULL DEFAULT 0,
			times_struggled INTEGER NOT NULL DEFAULT 0,
			error_log TEXT NOT NULL DEFAULT '[]',
			last_reviewed_at {{ts}},
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL,
			PRIMARY KEY (learner_id, language_code, concept_id)
		)`},
	{"concepts_due_idx", `
		CREATE INDEX IF NOT EXISTS concepts_due_idx
			ON concepts (learner_id, language_code, kind, next_review_at)`},
	{"review_events", `
		CREATE TABLE IF NOT EXISTS review_events (
			id TEXT PRIMARY KEY,
			learner_id TEXT NOT NULL,
			language_code TEXT NOT NULL,
			concept_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			event_type TEXT NOT NULL,
			quality INTEGER NOT NULL,
			response_latency_ms BIGINT NOT NULL DEFAULT 0,
			self_corrected BOOLEAN NOT NULL DEFAULT FALSE,
			close_attempt BOOLEAN NOT NULL DEFAULT FALSE,
			error_description TEXT NOT NULL DEFAULT '',
			occurred_at {{ts}} NOT NULL,
			FOREIGN KEY (learner_id, language_code, concept_id)
				REFERENCES concepts (learner_id, language_code, concept_id)
		)`},
	{"review_events_concept_idx", `
		CREATE INDEX IF NOT EXISTS review_events_concept_idx
			ON review_events (learner_id, language_code, concept_id, occurred_at)`},
	{"session_summaries", `
		CREATE TABLE IF NOT EXISTS session_summaries (
			id TEXT PRIMARY KEY,
			learner_id TEXT NOT NULL,
			language_code TEXT NOT NULL,
			started_at {{ts}} NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			summary TEXT NOT NULL DEFAULT '',
			concepts_covered TEXT NOT NULL DEFAULT '[]',
			highlights TEXT NOT NULL DEFAULT '[]'
		)`},
	{"session_summaries_recent_idx", `
		CREATE INDEX IF NOT EXISTS session_summaries_recent_idx
			ON session_summaries (learner_id, language_code, started_at)`},
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(ctx context.Context, db *sqlx.DB) error {
	types := strings.NewReplacer("{{ts}}", "TIMESTAMP", "{{real}}", "REAL")
	if isPostgres(db) {
		types = strings.NewReplacer("{{ts}}", "TIMESTAMPTZ", "{{real}}", "DOUBLE PRECISION")
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, types.Replace(stmt.ddl)); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}
