package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/internal/clock"
)

// Store bundles every repository over one connection. It satisfies the
// lesson-context read ports, the transfer engine's fetcher and the
// recorder's write port.
type Store struct {
	*LearnerRepository
	*ProgressRepository
	*ConceptRepository
	*SessionRepository
	*ReviewEventRepository

	db *sqlx.DB
}

// NewStore creates a new Store. A nil clock means the system clock.
func NewStore(db *sqlx.DB, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Store{
		LearnerRepository:     NewLearnerRepository(db, clk),
		ProgressRepository:    NewProgressRepository(db, clk),
		ConceptRepository:     NewConceptRepository(db, clk),
		SessionRepository:     NewSessionRepository(db, clk),
		ReviewEventRepository: NewReviewEventRepository(db),
		db:                    db,
	}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// inFilter renders "column IN (...)" for SQLite and "column = ANY(?)" for
// PostgreSQL. values must not be empty.
func inFilter(db sqlx.ExtContext, column string, values []string) (string, []interface{}, error) {
	if isPostgres(db) {
		return column + " = ANY(?)", []interface{}{pq.Array(values)}, nil
	}
	return sqlx.In(column+" IN (?)", values)
}

// checkLimit rejects negative row limits before they reach the driver
func checkLimit(limit int) error {
	if limit < 0 {
		return apperrors.Invalid("limit", limit, "must not be negative")
	}
	return nil
}
