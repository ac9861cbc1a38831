package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/linguamem/internal/clock"
	"github.com/example/linguamem/internal/spaced_repetition"
	"github.com/example/linguamem/pkg/models"
)

// ConceptRepository handles retention and exposure state per concept
type ConceptRepository struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewConceptRepository creates a new repository instance
func NewConceptRepository(db *sqlx.DB, clk clock.Clock) *ConceptRepository {
	return &ConceptRepository{db: db, clock: clk}
}

// GetConcept returns the full record of one concept, or nil when it does not exist
func (r *ConceptRepository) GetConcept(ctx context.Context, key models.ConceptKey) (*models.ConceptRecord, error) {
	return getConcept(ctx, r.db, key, false)
}

// GetMasteredConcepts returns concepts with mastery >= 0.8, strongest first
func (r *ConceptRepository) GetMasteredConcepts(ctx context.Context, learnerID, languageCode string, kind models.ConceptKind, limit int) ([]models.ConceptSummary, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query := `
		SELECT ` + summaryColumns + `
		FROM concepts
		WHERE learner_id = ? AND language_code = ? AND kind = ? AND mastery_level >= ?
		ORDER BY mastery_level DESC, concept_id
		LIMIT ?
	`
	return r.selectSummaries(ctx, "mastered concepts", query,
		learnerID, languageCode, string(kind), spaced_repetition.MasteredThreshold, limit)
}

// GetDueConcepts returns concepts of one kind due at asOf. Never-scheduled
// concepts come first, then the earliest due.
func (r *ConceptRepository) GetDueConcepts(ctx context.Context, learnerID, languageCode string, kind models.ConceptKind, asOf time.Time, limit int) ([]models.ConceptSummary, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query := `
		SELECT ` + summaryColumns + `
		FROM concepts
		WHERE learner_id = ? AND language_code = ? AND kind = ?
			AND (next_review_at IS NULL OR next_review_at <= ?)
		ORDER BY CASE WHEN next_review_at IS NULL THEN 0 ELSE 1 END, next_review_at, concept_id
		LIMIT ?
	`
	return r.selectSummaries(ctx, "due concepts", query,
		learnerID, languageCode, string(kind), asOf.UTC(), limit)
}

// ListDueConcepts is GetDueConcepts across both kinds
func (r *ConceptRepository) ListDueConcepts(ctx context.Context, learnerID, languageCode string, asOf time.Time, limit int) ([]models.ConceptSummary, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query := `
		SELECT ` + summaryColumns + `
		FROM concepts
		WHERE learner_id = ? AND language_code = ?
			AND (next_review_at IS NULL OR next_review_at <= ?)
		ORDER BY CASE WHEN next_review_at IS NULL THEN 0 ELSE 1 END, next_review_at, concept_id
		LIMIT ?
	`
	return r.selectSummaries(ctx, "due concepts", query,
		learnerID, languageCode, asOf.UTC(), limit)
}

// GetStrugglingConcepts returns concepts with mastery < 0.5 seen more than once, weakest first
func (r *ConceptRepository) GetStrugglingConcepts(ctx context.Context, learnerID, languageCode string, kind models.ConceptKind, limit int) ([]models.ConceptSummary, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query := `
		SELECT ` + summaryColumns + `
		FROM concepts
		WHERE learner_id = ? AND language_code = ? AND kind = ?
			AND mastery_level < ? AND times_seen > 1
		ORDER BY mastery_level ASC, times_incorrect DESC, concept_id
		LIMIT ?
	`
	return r.selectSummaries(ctx, "struggling concepts", query,
		learnerID, languageCode, string(kind), spaced_repetition.StrugglingThreshold, limit)
}

// GetMasteredConceptsAcrossLanguages returns grammar concepts from conceptIDs
// with mastery strictly above minMastery in any of languageCodes
func (r *ConceptRepository) GetMasteredConceptsAcrossLanguages(ctx context.Context, learnerID string, languageCodes []string, conceptIDs []string, minMastery float64) ([]models.ConceptSummary, error) {
	if len(languageCodes) == 0 || len(conceptIDs) == 0 {
		return []models.ConceptSummary{}, nil
	}
	langFilter, langArgs, err := inFilter(r.db, "language_code", languageCodes)
	if err != nil {
		return nil, fmt.Errorf("failed to build language filter: %w", err)
	}
	conceptFilter, conceptArgs, err := inFilter(r.db, "concept_id", conceptIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build concept filter: %w", err)
	}

	query := `
		SELECT ` + summaryColumns + `
		FROM concepts
		WHERE learner_id = ? AND kind = ? AND ` + langFilter + ` AND ` + conceptFilter + `
			AND mastery_level > ?
		ORDER BY mastery_level DESC, language_code, concept_id
	`
	args := []interface{}{learnerID, string(models.ConceptGrammar)}
	args = append(args, langArgs...)
	args = append(args, conceptArgs...)
	args = append(args, minMastery)
	return r.selectSummaries(ctx, "mastered concepts across languages", query, args...)
}

// ImportConcept creates a concept in its never-reviewed state. It reports
// false and leaves the row untouched when the concept already exists.
func (r *ConceptRepository) ImportConcept(ctx context.Context, key models.ConceptKey, kind models.ConceptKind, displayName string) (bool, error) {
	now := r.clock.Now().UTC()
	initial := spaced_repetition.NewRetentionState(now)
	rec := models.ConceptRecord{
		ConceptKey:  key,
		Kind:        kind,
		DisplayName: displayName,
		Retention:   initial,
		Scheduled:   false,
		Exposure:    models.ConceptExposure{RecentErrors: []string{}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	row, err := conceptRowFrom(rec)
	if err != nil {
		return false, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := sqlx.NamedExecContext(ctx, tx, insertConceptQuery+onConceptConflict, row)
	if err != nil {
		return false, fmt.Errorf("failed to import concept: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to import concept: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	if err := bumpConceptCount(ctx, tx, key, kind, now); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit import: %w", err)
	}
	return true, nil
}

func (r *ConceptRepository) selectSummaries(ctx context.Context, what, query string, args ...interface{}) ([]models.ConceptSummary, error) {
	var rows []summaryRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return summariesFrom(rows), nil
}

const insertConceptQuery = `
	INSERT INTO concepts (` + conceptColumns + `) VALUES (
		:learner_id, :language_code, :concept_id, :kind, :display_name,
		:easiness_factor, :interval_days, :repetitions, :next_review_at, :mastery_level,
		:times_seen, :times_practiced, :times_correct, :times_incorrect, :times_struggled,
		:error_log, :last_reviewed_at, :created_at, :updated_at
	)`

const onConceptConflict = " ON CONFLICT (learner_id, language_code, concept_id) DO NOTHING"

const updateConceptQuery = `
	UPDATE concepts SET
		kind = :kind,
		display_name = :display_name,
		easiness_factor = :easiness_factor,
		interval_days = :interval_days,
		repetitions = :repetitions,
		next_review_at = :next_review_at,
		mastery_level = :mastery_level,
		times_seen = :times_seen,
		times_practiced = :times_practiced,
		times_correct = :times_correct,
		times_incorrect = :times_incorrect,
		times_struggled = :times_struggled,
		error_log = :error_log,
		last_reviewed_at = :last_reviewed_at,
		updated_at = :updated_at
	WHERE learner_id = :learner_id AND language_code = :language_code AND concept_id = :concept_id`

// getConcept loads one concept. forUpdate locks the row on PostgreSQL; SQLite
// transactions are already serialized by the single connection.
func getConcept(ctx context.Context, q sqlx.ExtContext, key models.ConceptKey, forUpdate bool) (*models.ConceptRecord, error) {
	query := "SELECT " + conceptColumns + " FROM concepts WHERE learner_id = ? AND language_code = ? AND concept_id = ?"
	if forUpdate && isPostgres(q) {
		query += " FOR UPDATE"
	}

	var row conceptRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(query), key.LearnerID, key.LanguageCode, key.ConceptID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get concept: %w", err)
	}
	return row.toModel()
}
