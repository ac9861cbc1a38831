package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/linguamem/internal/clock"
	"github.com/example/linguamem/pkg/models"
)

// LearnerRepository handles database operations for learners
type LearnerRepository struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository(db *sqlx.DB, clk clock.Clock) *LearnerRepository {
	return &LearnerRepository{db: db, clock: clk}
}

// UpsertLearner creates the learner or replaces its profile
func (r *LearnerRepository) UpsertLearner(ctx context.Context, p models.LearnerProfile) error {
	interests, err := encodeStrings(p.Preferences.Interests)
	if err != nil {
		return err
	}
	now := r.clock.Now().UTC()
	createdAt := p.CreatedAt.UTC()
	if p.CreatedAt.IsZero() {
		createdAt = now
	}

	query := `
		INSERT INTO learners (
			id, display_name, native_language, lesson_minutes, correction_style, interests,
			notifications_enabled, notification_hour, telegram_chat_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			native_language = excluded.native_language,
			lesson_minutes = excluded.lesson_minutes,
			correction_style = excluded.correction_style,
			interests = excluded.interests,
			notifications_enabled = excluded.notifications_enabled,
			notification_hour = excluded.notification_hour,
			telegram_chat_id = excluded.telegram_chat_id,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, r.db.Rebind(query),
		p.ID,
		p.DisplayName,
		p.NativeLanguage,
		p.Preferences.LessonMinutes,
		p.Preferences.CorrectionStyle,
		interests,
		p.NotificationsEnabled,
		p.NotificationHour,
		p.TelegramChatID,
		createdAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert learner: %w", err)
	}
	return nil
}

// GetLearnerProfile returns a learner by ID, or nil when there is none
func (r *LearnerRepository) GetLearnerProfile(ctx context.Context, learnerID string) (*models.LearnerProfile, error) {
	var row learnerRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT * FROM learners WHERE id = ?"), learnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}
	return row.toModel()
}

// ListReminderTargets returns learner/language pairs that want a reminder at hour
func (r *LearnerRepository) ListReminderTargets(ctx context.Context, hour int) ([]models.ReminderTarget, error) {
	query := `
		SELECT l.id, l.display_name, l.telegram_chat_id, lp.language_code
		FROM learners l
		JOIN language_progress lp ON lp.learner_id = l.id
		WHERE l.notifications_enabled = ? AND l.notification_hour = ?
		ORDER BY l.id, lp.language_code
	`
	var rows []struct {
		ID             string `db:"id"`
		DisplayName    string `db:"display_name"`
		TelegramChatID int64  `db:"telegram_chat_id"`
		LanguageCode   string `db:"language_code"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), true, hour); err != nil {
		return nil, fmt.Errorf("failed to get reminder targets: %w", err)
	}

	targets := make([]models.ReminderTarget, 0, len(rows))
	for _, row := range rows {
		targets = append(targets, models.ReminderTarget{
			LearnerID:      row.ID,
			DisplayName:    row.DisplayName,
			LanguageCode:   row.LanguageCode,
			TelegramChatID: row.TelegramChatID,
		})
	}
	return targets, nil
}
