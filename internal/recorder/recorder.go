package recorder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/internal/clock"
	"github.com/example/linguamem/internal/database"
	"github.com/example/linguamem/internal/lessoncontext"
	"github.com/example/linguamem/internal/logger"
	"github.com/example/linguamem/internal/spaced_repetition"
	"github.com/example/linguamem/pkg/models"
)

// MaxRecentErrors bounds the error descriptions kept per concept
const MaxRecentErrors = 10

// Store applies one review outcome atomically
type Store interface {
	ApplyReviewOutcome(ctx context.Context, event models.ReviewEvent, update database.ReviewUpdate) (*models.ConceptRecord, error)
}

// ReviewInput is one interaction reported by the tutor
type ReviewInput struct {
	LearnerID    string
	LanguageCode string
	ConceptID    string
	Kind         models.ConceptKind
	DisplayName  string
	EventType    string
	Context      models.EventContext
	// OccurredAt defaults to the clock's now
	OccurredAt time.Time
}

// RecordResult is what a recorded review changed
type RecordResult struct {
	Event   models.ReviewEvent
	Concept models.ConceptRecord
	Created bool
}

// Recorder turns review events into retention updates
type Recorder struct {
	store Store
	clock clock.Clock
}

// New creates a Recorder. A nil clock means the system clock.
func New(store Store, clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Recorder{store: store, clock: clk}
}

// Record validates the event, scores it and applies the next retention state
// together with the exposure counters in one transaction.
func (r *Recorder) Record(ctx context.Context, in ReviewInput) (RecordResult, error) {
	event, err := r.validate(in)
	if err != nil {
		return RecordResult{}, err
	}

	quality := spaced_repetition.AssessQuality(event.Type, event.Context)
	event.Quality = int(quality)

	created := false
	update := func(current *models.ConceptRecord) (models.ConceptRecord, error) {
		var next models.ConceptRecord
		params := spaced_repetition.DefaultRetentionParams()
		if current == nil {
			created = true
			next = models.ConceptRecord{
				Kind:        event.Kind,
				DisplayName: in.DisplayName,
				CreatedAt:   event.OccurredAt,
			}
		} else {
			if current.Kind != event.Kind {
				return models.ConceptRecord{}, apperrors.Invalid("kind", event.Kind,
					fmt.Sprintf("concept %s is recorded as %s", current.ConceptID, current.Kind))
			}
			next = *current
			next.Exposure.RecentErrors = append([]string(nil), current.Exposure.RecentErrors...)
			params = current.Retention.Params()
			if in.DisplayName != "" {
				next.DisplayName = in.DisplayName
			}
		}

		retention, err := spaced_repetition.ScheduleNext(params, quality, event.OccurredAt)
		if err != nil {
			return models.ConceptRecord{}, err
		}
		next.Retention = retention
		next.Scheduled = true
		next.Exposure = applyExposure(next.Exposure, event.Type, event.Context.ErrorDescription)
		reviewed := event.OccurredAt
		next.LastReviewedAt = &reviewed
		return next, nil
	}

	rec, err := r.store.ApplyReviewOutcome(ctx, event, update)
	if err != nil {
		return RecordResult{}, fmt.Errorf("failed to record review of %s: %w", event.ConceptID, err)
	}

	logger.GetLogger(ctx).WithFields(logrus.Fields{
		"learner_id": event.LearnerID,
		"language":   event.LanguageCode,
		"concept_id": event.ConceptID,
		"event":      event.Type,
		"quality":    event.Quality,
	}).Debugf("review recorded, next review in %d days", rec.Retention.IntervalDays)

	return RecordResult{Event: event, Concept: *rec, Created: created}, nil
}

func (r *Recorder) validate(in ReviewInput) (models.ReviewEvent, error) {
	learnerID := strings.TrimSpace(in.LearnerID)
	if learnerID == "" {
		return models.ReviewEvent{}, apperrors.Invalid("learner_id", in.LearnerID, "must not be empty")
	}
	code, err := lessoncontext.NormalizeLanguageCode(in.LanguageCode)
	if err != nil {
		return models.ReviewEvent{}, err
	}
	conceptID := strings.TrimSpace(in.ConceptID)
	if conceptID == "" {
		return models.ReviewEvent{}, apperrors.Invalid("concept_id", in.ConceptID, "must not be empty")
	}
	if !in.Kind.Valid() {
		return models.ReviewEvent{}, apperrors.Invalid("kind", in.Kind, "must be vocabulary or grammar")
	}
	eventType, err := spaced_repetition.ParseEventType(in.EventType)
	if err != nil {
		return models.ReviewEvent{}, err
	}
	if in.Context.ResponseLatency < 0 {
		return models.ReviewEvent{}, apperrors.Invalid("response_latency", in.Context.ResponseLatency, "must not be negative")
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = r.clock.Now()
	}
	return models.ReviewEvent{
		ID: uuid.New().String(),
		ConceptKey: models.ConceptKey{
			LearnerID:    learnerID,
			LanguageCode: code,
			ConceptID:    conceptID,
		},
		Kind:       in.Kind,
		Type:       eventType,
		Context:    in.Context,
		OccurredAt: occurredAt.UTC(),
	}, nil
}

// applyExposure updates the additive counters for one event
func applyExposure(e models.ConceptExposure, eventType models.EventType, errorDescription string) models.ConceptExposure {
	e.TimesSeen++
	if eventType != models.EventIntroduced {
		e.TimesPracticed++
	}
	switch eventType {
	case models.EventCorrect, models.EventSelfCorrected, models.EventMastered, models.EventReviewed:
		e.TimesCorrect++
	case models.EventIncorrect, models.EventForgot:
		e.TimesIncorrect++
	case models.EventStruggled:
		e.TimesStruggled++
		e.TimesIncorrect++
	}

	if desc := strings.TrimSpace(errorDescription); desc != "" {
		e.RecentErrors = append(e.RecentErrors, desc)
		if len(e.RecentErrors) > MaxRecentErrors {
			e.RecentErrors = e.RecentErrors[len(e.RecentErrors)-MaxRecentErrors:]
		}
	}
	if e.RecentErrors == nil {
		e.RecentErrors = []string{}
	}
	return e
}
