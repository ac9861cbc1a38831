package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/linguamem/pkg/models"
)

// ReviewEventRepository reads the append-only review log
type ReviewEventRepository struct {
	db *sqlx.DB
}

// NewReviewEventRepository creates a new repository instance
func NewReviewEventRepository(db *sqlx.DB) *ReviewEventRepository {
	return &ReviewEventRepository{db: db}
}

// GetReviewHistory returns the most recent events of one concept, newest first
func (r *ReviewEventRepository) GetReviewHistory(ctx context.Context, key models.ConceptKey, limit int) ([]models.ReviewEvent, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query := `
		SELECT * FROM review_events
		WHERE learner_id = ? AND language_code = ? AND concept_id = ?
		ORDER BY occurred_at DESC, id
		LIMIT ?
	`
	var rows []reviewEventRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), key.LearnerID, key.LanguageCode, key.ConceptID, limit); err != nil {
		return nil, fmt.Errorf("failed to get review history: %w", err)
	}

	events := make([]models.ReviewEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toModel())
	}
	return events, nil
}

func insertReviewEvent(ctx context.Context, tx *sqlx.Tx, e models.ReviewEvent) error {
	row := reviewEventRow{
		ID:                e.ID,
		LearnerID:         e.LearnerID,
		LanguageCode:      e.LanguageCode,
		ConceptID:         e.ConceptID,
		Kind:              string(e.Kind),
		EventType:         string(e.Type),
		Quality:           e.Quality,
		ResponseLatencyMS: e.Context.ResponseLatency.Milliseconds(),
		SelfCorrected:     e.Context.SelfCorrected,
		CloseAttempt:      e.Context.CloseAttempt,
		ErrorDescription:  e.Context.ErrorDescription,
		OccurredAt:        e.OccurredAt.UTC(),
	}
	query := `
		INSERT INTO review_events (
			id, learner_id, language_code, concept_id, kind, event_type, quality,
			response_latency_ms, self_corrected, close_attempt, error_description, occurred_at
		) VALUES (
			:id, :learner_id, :language_code, :concept_id, :kind, :event_type, :quality,
			:response_latency_ms, :self_corrected, :close_attempt, :error_description, :occurred_at
		)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, row); err != nil {
		return fmt.Errorf("failed to insert review event: %w", err)
	}
	return nil
}
