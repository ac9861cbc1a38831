package recorder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/internal/clock"
	"github.com/example/linguamem/internal/database"
	"github.com/example/linguamem/pkg/models"
)

var now = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

// memoryStore applies updates to an in-memory map the way the SQL store does
type memoryStore struct {
	concepts map[models.ConceptKey]models.ConceptRecord
	events   []models.ReviewEvent
	err      error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{concepts: map[models.ConceptKey]models.ConceptRecord{}}
}

func (m *memoryStore) ApplyReviewOutcome(_ context.Context, event models.ReviewEvent, update database.ReviewUpdate) (*models.ConceptRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var current *models.ConceptRecord
	if rec, ok := m.concepts[event.ConceptKey]; ok {
		current = &rec
	}
	next, err := update(current)
	if err != nil {
		return nil, err
	}
	next.ConceptKey = event.ConceptKey
	m.concepts[event.ConceptKey] = next
	m.events = append(m.events, event)
	return &next, nil
}

func input(eventType string) ReviewInput {
	return ReviewInput{
		LearnerID:    "u1",
		LanguageCode: "SPA",
		ConceptID:    "gustar",
		Kind:         models.ConceptVocabulary,
		DisplayName:  "gustar",
		EventType:    eventType,
	}
}

func TestRecord_FirstExposureCreatesConcept(t *testing.T) {
	store := newMemoryStore()
	r := New(store, clock.Fixed(now))

	res, err := r.Record(context.Background(), input("correct"))
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, 5, res.Event.Quality)
	assert.Equal(t, "spa", res.Event.LanguageCode)
	assert.NotEmpty(t, res.Event.ID)
	assert.True(t, now.Equal(res.Event.OccurredAt))

	c := res.Concept
	assert.True(t, c.Scheduled)
	assert.Equal(t, 1, c.Retention.Repetitions)
	assert.Equal(t, 1, c.Retention.IntervalDays)
	assert.InDelta(t, 2.6, c.Retention.EasinessFactor, 1e-9)
	assert.True(t, now.Add(24*time.Hour).Equal(c.Retention.NextReviewAt))
	assert.Equal(t, 1, c.Exposure.TimesSeen)
	assert.Equal(t, 1, c.Exposure.TimesPracticed)
	assert.Equal(t, 1, c.Exposure.TimesCorrect)
	require.NotNil(t, c.LastReviewedAt)
	assert.True(t, now.Equal(*c.LastReviewedAt))
	assert.Len(t, store.events, 1)
}

func TestRecord_SequenceFollowsSchedule(t *testing.T) {
	store := newMemoryStore()
	r := New(store, clock.Fixed(now))
	ctx := context.Background()

	var intervals []int
	for i := 0; i < 3; i++ {
		res, err := r.Record(ctx, input("mastered"))
		require.NoError(t, err)
		assert.Equal(t, i == 0, res.Created)
		intervals = append(intervals, res.Concept.Retention.IntervalDays)
	}
	assert.Equal(t, []int{1, 3, 8}, intervals)

	res, err := r.Record(ctx, input("forgot"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Concept.Retention.Repetitions)
	assert.Equal(t, 1, res.Concept.Retention.IntervalDays)
	assert.Equal(t, 4, res.Concept.Exposure.TimesSeen)
	assert.Equal(t, 3, res.Concept.Exposure.TimesCorrect)
	assert.Equal(t, 1, res.Concept.Exposure.TimesIncorrect)
}

func TestRecord_ExposureCounters(t *testing.T) {
	tests := []struct {
		event                                    string
		practiced, correct, incorrect, struggled int
	}{
		{"introduced", 0, 0, 0, 0},
		{"correct", 1, 1, 0, 0},
		{"self_corrected", 1, 1, 0, 0},
		{"mastered", 1, 1, 0, 0},
		{"reviewed", 1, 1, 0, 0},
		{"incorrect", 1, 0, 1, 0},
		{"forgot", 1, 0, 1, 0},
		{"struggled", 1, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			r := New(newMemoryStore(), clock.Fixed(now))
			res, err := r.Record(context.Background(), input(tt.event))
			require.NoError(t, err)

			e := res.Concept.Exposure
			assert.Equal(t, 1, e.TimesSeen)
			assert.Equal(t, tt.practiced, e.TimesPracticed)
			assert.Equal(t, tt.correct, e.TimesCorrect)
			assert.Equal(t, tt.incorrect, e.TimesIncorrect)
			assert.Equal(t, tt.struggled, e.TimesStruggled)
		})
	}
}

func TestRecord_ErrorLogIsBounded(t *testing.T) {
	store := newMemoryStore()
	r := New(store, clock.Fixed(now))

	var last RecordResult
	for i := 0; i < MaxRecentErrors+3; i++ {
		in := input("incorrect")
		in.Context.ErrorDescription = fmt.Sprintf("error %d", i)
		res, err := r.Record(context.Background(), in)
		require.NoError(t, err)
		last = res
	}

	errs := last.Concept.Exposure.RecentErrors
	require.Len(t, errs, MaxRecentErrors)
	assert.Equal(t, "error 3", errs[0])
	assert.Equal(t, fmt.Sprintf("error %d", MaxRecentErrors+2), errs[len(errs)-1])
}

func TestRecord_QualityUsesContext(t *testing.T) {
	r := New(newMemoryStore(), clock.Fixed(now))

	in := input("correct")
	in.Context.ResponseLatency = 6 * time.Second
	res, err := r.Record(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Event.Quality)

	in = input("incorrect")
	in.ConceptID = "comer"
	in.Context.CloseAttempt = true
	res, err = r.Record(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Event.Quality)
}

func TestRecord_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReviewInput)
	}{
		{"empty learner", func(in *ReviewInput) { in.LearnerID = " " }},
		{"bad language", func(in *ReviewInput) { in.LanguageCode = "spanish!" }},
		{"empty concept", func(in *ReviewInput) { in.ConceptID = "" }},
		{"unknown kind", func(in *ReviewInput) { in.Kind = "idiom" }},
		{"unknown event", func(in *ReviewInput) { in.EventType = "guessed" }},
		{"negative latency", func(in *ReviewInput) { in.Context.ResponseLatency = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			in := input("correct")
			tt.mutate(&in)

			_, err := New(store, clock.Fixed(now)).Record(context.Background(), in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Empty(t, store.events)
		})
	}
}

func TestRecord_KindMismatch(t *testing.T) {
	store := newMemoryStore()
	r := New(store, clock.Fixed(now))
	_, err := r.Record(context.Background(), input("correct"))
	require.NoError(t, err)

	in := input("correct")
	in.Kind = models.ConceptGrammar
	_, err = r.Record(context.Background(), in)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Len(t, store.events, 1)
}

func TestRecord_StoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("disk full")

	_, err := New(store, clock.Fixed(now)).Record(context.Background(), input("correct"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.err)
}
