package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/pkg/models"
)

func due(id string, next *time.Time, mastery float64, seen int) models.ConceptSummary {
	return models.ConceptSummary{
		ConceptID:    id,
		Kind:         models.ConceptVocabulary,
		NextReviewAt: next,
		MasteryLevel: mastery,
		TimesSeen:    seen,
	}
}

func at(offset time.Duration) *time.Time {
	t := epoch.Add(offset)
	return &t
}

func ids(items []models.ConceptSummary) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ConceptID)
	}
	return out
}

func TestPrioritize_FiltersFutureItems(t *testing.T) {
	items := []models.ConceptSummary{
		due("future", at(time.Hour), 0.6, 3),
		due("now", at(0), 0.6, 3),
		due("past", at(-time.Hour), 0.6, 3),
	}

	got, err := Prioritize(items, epoch, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"past", "now"}, ids(got))
}

func TestPrioritize_StrugglingFirstThenMostOverdue(t *testing.T) {
	items := []models.ConceptSummary{
		due("a", at(-1*time.Hour), 0.6, 3),
		due("b", at(-48*time.Hour), 0.6, 3),
		due("struggling", at(-time.Minute), 0.2, 4),
		due("never", nil, 0.6, 3),
	}

	got, err := Prioritize(items, epoch, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"struggling", "never", "b", "a"}, ids(got))
}

func TestPrioritize_StableOnTies(t *testing.T) {
	items := []models.ConceptSummary{
		due("first", nil, 0.6, 0),
		due("second", nil, 0.6, 0),
		due("third", nil, 0.6, 0),
	}

	got, err := Prioritize(items, epoch, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, ids(got))
}

func TestPrioritize_Truncates(t *testing.T) {
	items := []models.ConceptSummary{
		due("a", at(-3*time.Hour), 0.6, 1),
		due("b", at(-2*time.Hour), 0.6, 1),
		due("c", at(-1*time.Hour), 0.6, 1),
	}

	got, err := Prioritize(items, epoch, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(got))

	none, err := Prioritize(items, epoch, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPrioritize_DoesNotMutateInput(t *testing.T) {
	items := []models.ConceptSummary{
		due("a", at(-time.Hour), 0.6, 1),
		due("b", nil, 0.6, 1),
	}

	_, err := Prioritize(items, epoch, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(items))
}

func TestPrioritize_NegativeLimit(t *testing.T) {
	_, err := Prioritize([]models.ConceptSummary{}, epoch, -1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPrioritize_EmptyInput(t *testing.T) {
	got, err := Prioritize[models.ConceptSummary](nil, epoch, DefaultMaxReviewItems)
	require.NoError(t, err)
	assert.Empty(t, got)
}
