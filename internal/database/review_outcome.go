package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/linguamem/pkg/models"
)

// ReviewUpdate derives the next concept record from the current one.
// current is nil on the first exposure of the concept.
type ReviewUpdate func(current *models.ConceptRecord) (models.ConceptRecord, error)

// reviewAttempts bounds how often a first exposure is re-read after losing
// the insert to a concurrent review of the same concept
const reviewAttempts = 2

// errConceptCreated means another transaction created the concept between
// our read and our insert
var errConceptCreated = errors.New("concept created concurrently")

// ApplyReviewOutcome performs one atomic read-modify-write of a concept and
// appends the review event in the same transaction. The row is read under
// lock so two reviews of the same concept never lose an update.
func (r *ConceptRepository) ApplyReviewOutcome(ctx context.Context, event models.ReviewEvent, update ReviewUpdate) (*models.ConceptRecord, error) {
	var err error
	for attempt := 0; attempt < reviewAttempts; attempt++ {
		var rec *models.ConceptRecord
		rec, err = r.applyReviewOutcome(ctx, event, update)
		if !errors.Is(err, errConceptCreated) {
			return rec, err
		}
	}
	return nil, fmt.Errorf("failed to apply review of %s: %w", event.ConceptID, err)
}

func (r *ConceptRepository) applyReviewOutcome(ctx context.Context, event models.ReviewEvent, update ReviewUpdate) (*models.ConceptRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getConcept(ctx, tx, event.ConceptKey, true)
	if err != nil {
		return nil, err
	}

	next, err := update(current)
	if err != nil {
		return nil, err
	}
	next.ConceptKey = event.ConceptKey

	now := r.clock.Now().UTC()
	next.UpdatedAt = now
	if current == nil && next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}

	row, err := conceptRowFrom(next)
	if err != nil {
		return nil, err
	}
	if current == nil {
		created, err := createConcept(ctx, tx, row)
		if err != nil {
			return nil, err
		}
		if !created {
			return nil, errConceptCreated
		}
		if err := bumpConceptCount(ctx, tx, next.ConceptKey, next.Kind, now); err != nil {
			return nil, err
		}
	} else {
		if _, err := sqlx.NamedExecContext(ctx, tx, updateConceptQuery, row); err != nil {
			return nil, fmt.Errorf("failed to update concept: %w", err)
		}
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Kind == "" {
		event.Kind = next.Kind
	}
	if err := insertReviewEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit review outcome: %w", err)
	}
	return &next, nil
}

// createConcept inserts a concept row unless one exists for the key and
// reports whether it did
func createConcept(ctx context.Context, tx *sqlx.Tx, row conceptRow) (bool, error) {
	res, err := sqlx.NamedExecContext(ctx, tx, insertConceptQuery+onConceptConflict, row)
	if err != nil {
		return false, fmt.Errorf("failed to create concept: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to create concept: %w", err)
	}
	return affected > 0, nil
}
