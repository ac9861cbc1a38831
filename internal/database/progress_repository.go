package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/linguamem/internal/clock"
	"github.com/example/linguamem/pkg/models"
)

// ProgressRepository handles per-language aggregate counters
type ProgressRepository struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB, clk clock.Clock) *ProgressRepository {
	return &ProgressRepository{db: db, clock: clk}
}

// GetLanguageProgress returns the counters of one language, or nil for a language never studied
func (r *ProgressRepository) GetLanguageProgress(ctx context.Context, learnerID, languageCode string) (*models.LanguageProgress, error) {
	row, err := getProgressRow(ctx, r.db, learnerID, languageCode)
	if err != nil || row == nil {
		return nil, err
	}
	return row.toModel(), nil
}

// UpsertLanguageProgress writes proficiency and counters for a language
func (r *ProgressRepository) UpsertLanguageProgress(ctx context.Context, learnerID string, p models.LanguageProgress) error {
	level := p.ProficiencyLevel
	if level == "" {
		level = models.ProficiencyBeginner
	}
	query := `
		INSERT INTO language_progress (
			learner_id, language_code, proficiency_level, proficiency_score, total_sessions,
			total_minutes, vocabulary_count, grammar_count, streak_days, last_session_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, language_code) DO UPDATE SET
			proficiency_level = excluded.proficiency_level,
			proficiency_score = excluded.proficiency_score,
			total_sessions = excluded.total_sessions,
			total_minutes = excluded.total_minutes,
			vocabulary_count = excluded.vocabulary_count,
			grammar_count = excluded.grammar_count,
			streak_days = excluded.streak_days,
			last_session_at = excluded.last_session_at,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		learnerID,
		p.LanguageCode,
		level,
		p.ProficiencyScore,
		p.TotalSessions,
		p.TotalMinutes,
		p.VocabularyCount,
		p.GrammarCount,
		p.StreakDays,
		toNullTime(p.LastSessionAt),
		r.clock.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert language progress: %w", err)
	}
	return nil
}

// GetSiblingProficiency returns the learner's proficiency in the given
// languages where the score is strictly above minScore, strongest first
func (r *ProgressRepository) GetSiblingProficiency(ctx context.Context, learnerID string, languageCodes []string, minScore float64) ([]models.LanguageProficiency, error) {
	if len(languageCodes) == 0 {
		return []models.LanguageProficiency{}, nil
	}
	filter, filterArgs, err := inFilter(r.db, "language_code", languageCodes)
	if err != nil {
		return nil, fmt.Errorf("failed to build language filter: %w", err)
	}

	query := `
		SELECT language_code, proficiency_score, proficiency_level
		FROM language_progress
		WHERE learner_id = ? AND ` + filter + ` AND proficiency_score > ?
		ORDER BY proficiency_score DESC, language_code
	`
	args := append([]interface{}{learnerID}, filterArgs...)
	args = append(args, minScore)

	var rows []struct {
		LanguageCode     string  `db:"language_code"`
		ProficiencyScore float64 `db:"proficiency_score"`
		ProficiencyLevel string  `db:"proficiency_level"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get sibling proficiency: %w", err)
	}

	out := make([]models.LanguageProficiency, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.LanguageProficiency{
			LanguageCode:     row.LanguageCode,
			ProficiencyScore: row.ProficiencyScore,
			ProficiencyLevel: row.ProficiencyLevel,
		})
	}
	return out, nil
}

func getProgressRow(ctx context.Context, q sqlx.ExtContext, learnerID, languageCode string) (*progressRow, error) {
	var row progressRow
	query := "SELECT * FROM language_progress WHERE learner_id = ? AND language_code = ?"
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(query), learnerID, languageCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get language progress: %w", err)
	}
	return &row, nil
}

// bumpConceptCount adds a newly created concept to the language counters
func bumpConceptCount(ctx context.Context, tx *sqlx.Tx, key models.ConceptKey, kind models.ConceptKind, now time.Time) error {
	vocab, grammar := 0, 0
	if kind == models.ConceptGrammar {
		grammar = 1
	} else {
		vocab = 1
	}
	query := `
		INSERT INTO language_progress (learner_id, language_code, proficiency_level, vocabulary_count, grammar_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, language_code) DO UPDATE SET
			vocabulary_count = language_progress.vocabulary_count + excluded.vocabulary_count,
			grammar_count = language_progress.grammar_count + excluded.grammar_count,
			updated_at = excluded.updated_at
	`
	_, err := tx.ExecContext(ctx, tx.Rebind(query), key.LearnerID, key.LanguageCode, models.ProficiencyBeginner, vocab, grammar, now)
	if err != nil {
		return fmt.Errorf("failed to update concept counts: %w", err)
	}
	return nil
}
