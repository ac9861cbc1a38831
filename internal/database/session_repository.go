package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/linguamem/internal/clock"
	"github.com/example/linguamem/pkg/models"
)

// SessionRepository handles lesson session summaries
type SessionRepository struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db *sqlx.DB, clk clock.Clock) *SessionRepository {
	return &SessionRepository{db: db, clock: clk}
}

// GetRecentSessions returns the latest session summaries, newest first
func (r *SessionRepository) GetRecentSessions(ctx context.Context, learnerID, languageCode string, limit int) ([]models.SessionSummary, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query := `
		SELECT * FROM session_summaries
		WHERE learner_id = ? AND language_code = ?
		ORDER BY started_at DESC, id
		LIMIT ?
	`
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), learnerID, languageCode, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent sessions: %w", err)
	}

	sessions := make([]models.SessionSummary, 0, len(rows))
	for _, row := range rows {
		s, err := row.toModel()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// SaveSessionSummary stores a finished session and folds it into the
// language counters (sessions, minutes, streak, last session).
func (r *SessionRepository) SaveSessionSummary(ctx context.Context, s models.SessionSummary) (models.SessionSummary, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = r.clock.Now()
	}
	s.StartedAt = s.StartedAt.UTC()

	covered, err := encodeStrings(s.ConceptsCovered)
	if err != nil {
		return s, err
	}
	highlights, err := encodeStrings(s.Highlights)
	if err != nil {
		return s, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return s, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = sqlx.NamedExecContext(ctx, tx, `
		INSERT INTO session_summaries (
			id, learner_id, language_code, started_at, duration_minutes, summary, concepts_covered, highlights
		) VALUES (
			:id, :learner_id, :language_code, :started_at, :duration_minutes, :summary, :concepts_covered, :highlights
		)`, sessionRow{
		ID:              s.ID,
		LearnerID:       s.LearnerID,
		LanguageCode:    s.LanguageCode,
		StartedAt:       s.StartedAt,
		DurationMinutes: s.DurationMinutes,
		Summary:         s.Summary,
		ConceptsCovered: covered,
		Highlights:      highlights,
	})
	if err != nil {
		return s, fmt.Errorf("failed to insert session summary: %w", err)
	}

	prev, err := getProgressRow(ctx, tx, s.LearnerID, s.LanguageCode)
	if err != nil {
		return s, err
	}
	var lastSession *time.Time
	totalSessions, totalMinutes, streak := 0, 0, 0
	if prev != nil {
		lastSession = fromNullTime(prev.LastSessionAt)
		totalSessions, totalMinutes, streak = prev.TotalSessions, prev.TotalMinutes, prev.StreakDays
	}
	newLast := s.StartedAt
	if lastSession != nil && lastSession.After(newLast) {
		newLast = *lastSession
	}

	query := `
		INSERT INTO language_progress (
			learner_id, language_code, proficiency_level, total_sessions, total_minutes,
			streak_days, last_session_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, language_code) DO UPDATE SET
			total_sessions = excluded.total_sessions,
			total_minutes = excluded.total_minutes,
			streak_days = excluded.streak_days,
			last_session_at = excluded.last_session_at,
			updated_at = excluded.updated_at
	`
	_, err = tx.ExecContext(ctx, tx.Rebind(query),
		s.LearnerID,
		s.LanguageCode,
		models.ProficiencyBeginner,
		totalSessions+1,
		totalMinutes+s.DurationMinutes,
		nextStreak(lastSession, streak, s.StartedAt),
		newLast,
		r.clock.Now().UTC(),
	)
	if err != nil {
		return s, fmt.Errorf("failed to update session counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return s, fmt.Errorf("failed to commit session summary: %w", err)
	}
	return s, nil
}

// nextStreak counts consecutive UTC calendar days with at least one session
func nextStreak(last *time.Time, streak int, started time.Time) int {
	if last == nil {
		return 1
	}
	days := int(dayOf(started).Sub(dayOf(*last)).Hours() / 24)
	switch {
	case days == 1:
		return streak + 1
	case days <= 0:
		// same day, or a late upload of an older session
		if streak < 1 {
			return 1
		}
		return streak
	default:
		return 1
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
