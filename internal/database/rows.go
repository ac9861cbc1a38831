package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/linguamem/pkg/models"
)

// Row structs mirror the tables column for column. They never leave this
// package: every query maps them to pkg/models at the boundary.

type learnerRow struct {
	ID                   string    `db:"id"`
	DisplayName          string    `db:"display_name"`
	NativeLanguage       string    `db:"native_language"`
	LessonMinutes        int       `db:"lesson_minutes"`
	CorrectionStyle      string    `db:"correction_style"`
	Interests            string    `db:"interests"`
	NotificationsEnabled bool      `db:"notifications_enabled"`
	NotificationHour     int       `db:"notification_hour"`
	TelegramChatID       int64     `db:"telegram_chat_id"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func (r learnerRow) toModel() (*models.LearnerProfile, error) {
	interests, err := decodeStrings(r.Interests)
	if err != nil {
		return nil, fmt.Errorf("failed to parse interests of learner %s: %w", r.ID, err)
	}
	return &models.LearnerProfile{
		ID:             r.ID,
		DisplayName:    r.DisplayName,
		NativeLanguage: r.NativeLanguage,
		Preferences: models.LearnerPreferences{
			LessonMinutes:   r.LessonMinutes,
			CorrectionStyle: r.CorrectionStyle,
			Interests:       interests,
		},
		NotificationsEnabled: r.NotificationsEnabled,
		NotificationHour:     r.NotificationHour,
		TelegramChatID:       r.TelegramChatID,
		CreatedAt:            r.CreatedAt.UTC(),
	}, nil
}

type progressRow struct {
	LearnerID        string       `db:"learner_id"`
	LanguageCode     string       `db:"language_code"`
	ProficiencyLevel string       `db:"proficiency_level"`
	ProficiencyScore float64      `db:"proficiency_score"`
	TotalSessions    int          `db:"total_sessions"`
	TotalMinutes     int          `db:"total_minutes"`
	VocabularyCount  int          `db:"vocabulary_count"`
	GrammarCount     int          `db:"grammar_count"`
	StreakDays       int          `db:"streak_days"`
	LastSessionAt    sql.NullTime `db:"last_session_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

func (r progressRow) toModel() *models.LanguageProgress {
	return &models.LanguageProgress{
		LanguageCode:     r.LanguageCode,
		ProficiencyLevel: r.ProficiencyLevel,
		ProficiencyScore: r.ProficiencyScore,
		TotalSessions:    r.TotalSessions,
		TotalMinutes:     r.TotalMinutes,
		VocabularyCount:  r.VocabularyCount,
		GrammarCount:     r.GrammarCount,
		StreakDays:       r.StreakDays,
		LastSessionAt:    fromNullTime(r.LastSessionAt),
	}
}

const conceptColumns = `learner_id, language_code, concept_id, kind, display_name,
	easiness_factor, interval_days, repetitions, next_review_at, mastery_level,
	times_seen, times_practiced, times_correct, times_incorrect, times_struggled,
	error_log, last_reviewed_at, created_at, updated_at`

type conceptRow struct {
	LearnerID      string       `db:"learner_id"`
	LanguageCode   string       `db:"language_code"`
	ConceptID      string       `db:"concept_id"`
	Kind           string       `db:"kind"`
	DisplayName    string       `db:"display_name"`
	EasinessFactor float64      `db:"easiness_factor"`
	IntervalDays   int          `db:"interval_days"`
	Repetitions    int          `db:"repetitions"`
	NextReviewAt   sql.NullTime `db:"next_review_at"`
	MasteryLevel   float64      `db:"mastery_level"`
	TimesSeen      int          `db:"times_seen"`
	TimesPracticed int          `db:"times_practiced"`
	TimesCorrect   int          `db:"times_correct"`
	TimesIncorrect int          `db:"times_incorrect"`
	TimesStruggled int          `db:"times_struggled"`
	ErrorLog       string       `db:"error_log"`
	LastReviewedAt sql.NullTime `db:"last_reviewed_at"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (r conceptRow) toModel() (*models.ConceptRecord, error) {
	errs, err := decodeStrings(r.ErrorLog)
	if err != nil {
		return nil, fmt.Errorf("failed to parse error log of concept %s: %w", r.ConceptID, err)
	}
	rec := &models.ConceptRecord{
		ConceptKey: models.ConceptKey{
			LearnerID:    r.LearnerID,
			LanguageCode: r.LanguageCode,
			ConceptID:    r.ConceptID,
		},
		Kind:        models.ConceptKind(r.Kind),
		DisplayName: r.DisplayName,
		Retention: models.RetentionState{
			EasinessFactor: r.EasinessFactor,
			IntervalDays:   r.IntervalDays,
			Repetitions:    r.Repetitions,
			MasteryLevel:   r.MasteryLevel,
		},
		Exposure: models.ConceptExposure{
			TimesSeen:      r.TimesSeen,
			TimesPracticed: r.TimesPracticed,
			TimesCorrect:   r.TimesCorrect,
			TimesIncorrect: r.TimesIncorrect,
			TimesStruggled: r.TimesStruggled,
			RecentErrors:   errs,
		},
		LastReviewedAt: fromNullTime(r.LastReviewedAt),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if r.NextReviewAt.Valid {
		rec.Scheduled = true
		rec.Retention.NextReviewAt = r.NextReviewAt.Time.UTC()
	}
	return rec, nil
}

// conceptRowFrom flattens a record for writing
func conceptRowFrom(rec models.ConceptRecord) (conceptRow, error) {
	errLog, err := encodeStrings(rec.Exposure.RecentErrors)
	if err != nil {
		return conceptRow{}, err
	}
	row := conceptRow{
		LearnerID:      rec.LearnerID,
		LanguageCode:   rec.LanguageCode,
		ConceptID:      rec.ConceptID,
		Kind:           string(rec.Kind),
		DisplayName:    rec.DisplayName,
		EasinessFactor: rec.Retention.EasinessFactor,
		IntervalDays:   rec.Retention.IntervalDays,
		Repetitions:    rec.Retention.Repetitions,
		MasteryLevel:   rec.Retention.MasteryLevel,
		TimesSeen:      rec.Exposure.TimesSeen,
		TimesPracticed: rec.Exposure.TimesPracticed,
		TimesCorrect:   rec.Exposure.TimesCorrect,
		TimesIncorrect: rec.Exposure.TimesIncorrect,
		TimesStruggled: rec.Exposure.TimesStruggled,
		ErrorLog:       errLog,
		LastReviewedAt: toNullTime(rec.LastReviewedAt),
		CreatedAt:      rec.CreatedAt.UTC(),
		UpdatedAt:      rec.UpdatedAt.UTC(),
	}
	if rec.Scheduled {
		row.NextReviewAt = sql.NullTime{Time: rec.Retention.NextReviewAt.UTC(), Valid: true}
	}
	return row, nil
}

const summaryColumns = `concept_id, language_code, kind, display_name, mastery_level,
	next_review_at, times_seen, times_correct, times_incorrect, last_reviewed_at`

type summaryRow struct {
	ConceptID      string       `db:"concept_id"`
	LanguageCode   string       `db:"language_code"`
	Kind           string       `db:"kind"`
	DisplayName    string       `db:"display_name"`
	MasteryLevel   float64      `db:"mastery_level"`
	NextReviewAt   sql.NullTime `db:"next_review_at"`
	TimesSeen      int          `db:"times_seen"`
	TimesCorrect   int          `db:"times_correct"`
	TimesIncorrect int          `db:"times_incorrect"`
	LastReviewedAt sql.NullTime `db:"last_reviewed_at"`
}

func summariesFrom(rows []summaryRow) []models.ConceptSummary {
	out := make([]models.ConceptSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ConceptSummary{
			ConceptID:      r.ConceptID,
			LanguageCode:   r.LanguageCode,
			Kind:           models.ConceptKind(r.Kind),
			DisplayName:    r.DisplayName,
			MasteryLevel:   r.MasteryLevel,
			NextReviewAt:   fromNullTime(r.NextReviewAt),
			TimesSeen:      r.TimesSeen,
			TimesCorrect:   r.TimesCorrect,
			TimesIncorrect: r.TimesIncorrect,
			LastReviewedAt: fromNullTime(r.LastReviewedAt),
		})
	}
	return out
}

type reviewEventRow struct {
	ID                string    `db:"id"`
	LearnerID         string    `db:"learner_id"`
	LanguageCode      string    `db:"language_code"`
	ConceptID         string    `db:"concept_id"`
	Kind              string    `db:"kind"`
	EventType         string    `db:"event_type"`
	Quality           int       `db:"quality"`
	ResponseLatencyMS int64     `db:"response_latency_ms"`
	SelfCorrected     bool      `db:"self_corrected"`
	CloseAttempt      bool      `db:"close_attempt"`
	ErrorDescription  string    `db:"error_description"`
	OccurredAt        time.Time `db:"occurred_at"`
}

func (r reviewEventRow) toModel() models.ReviewEvent {
	return models.ReviewEvent{
		ID: r.ID,
		ConceptKey: models.ConceptKey{
			LearnerID:    r.LearnerID,
			LanguageCode: r.LanguageCode,
			ConceptID:    r.ConceptID,
		},
		Kind: models.ConceptKind(r.Kind),
		Type: models.EventType(r.EventType),
		Context: models.EventContext{
			ResponseLatency:  time.Duration(r.ResponseLatencyMS) * time.Millisecond,
			SelfCorrected:    r.SelfCorrected,
			CloseAttempt:     r.CloseAttempt,
			ErrorDescription: r.ErrorDescription,
		},
		Quality:    r.Quality,
		OccurredAt: r.OccurredAt.UTC(),
	}
}

type sessionRow struct {
	ID              string    `db:"id"`
	LearnerID       string    `db:"learner_id"`
	LanguageCode    string    `db:"language_code"`
	StartedAt       time.Time `db:"started_at"`
	DurationMinutes int       `db:"duration_minutes"`
	Summary         string    `db:"summary"`
	ConceptsCovered string    `db:"concepts_covered"`
	Highlights      string    `db:"highlights"`
}

func (r sessionRow) toModel() (models.SessionSummary, error) {
	covered, err := decodeStrings(r.ConceptsCovered)
	if err != nil {
		return models.SessionSummary{}, fmt.Errorf("failed to parse concepts of session %s: %w", r.ID, err)
	}
	highlights, err := decodeStrings(r.Highlights)
	if err != nil {
		return models.SessionSummary{}, fmt.Errorf("failed to parse highlights of session %s: %w", r.ID, err)
	}
	return models.SessionSummary{
		ID:              r.ID,
		LearnerID:       r.LearnerID,
		LanguageCode:    r.LanguageCode,
		StartedAt:       r.StartedAt.UTC(),
		DurationMinutes: r.DurationMinutes,
		Summary:         r.Summary,
		ConceptsCovered: covered,
		Highlights:      highlights,
	}, nil
}

func decodeStrings(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(raw), nil
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
