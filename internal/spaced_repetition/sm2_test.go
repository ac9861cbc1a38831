package spaced_repetition

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/pkg/models"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestScheduleNext_PerfectSequence(t *testing.T) {
	params := DefaultRetentionParams()
	wantIntervals := []int{1, 3, 8}
	wantEF := []float64{2.6, 2.7, 2.8}

	for i := range wantIntervals {
		state, err := ScheduleNext(params, QualityPerfect, epoch)
		require.NoError(t, err)
		assert.Equal(t, wantIntervals[i], state.IntervalDays, "review %d", i+1)
		assert.InDelta(t, wantEF[i], state.EasinessFactor, 1e-9, "review %d", i+1)
		assert.Equal(t, i+1, state.Repetitions)
		params = state.Params()
	}
}

func TestScheduleNext_FailureResets(t *testing.T) {
	current := models.RetentionParams{EasinessFactor: 2.5, IntervalDays: 20, Repetitions: 6}

	state, err := ScheduleNext(current, QualityIncorrectFamiliar, epoch)
	require.NoError(t, err)

	assert.Equal(t, 0, state.Repetitions)
	assert.Equal(t, 1, state.IntervalDays)
	assert.InDelta(t, 2.18, state.EasinessFactor, 1e-9)
	assert.Equal(t, epoch.Add(24*time.Hour), state.NextReviewAt)
}

func TestScheduleNext_NextReviewAtFollowsInterval(t *testing.T) {
	current := models.RetentionParams{EasinessFactor: 2.5, IntervalDays: 10, Repetitions: 4}

	state, err := ScheduleNext(current, QualityCorrectHesitation, epoch)
	require.NoError(t, err)

	// q=4 leaves EF unchanged: 10 * 2.5 = 25
	assert.InDelta(t, 2.5, state.EasinessFactor, 1e-9)
	assert.Equal(t, 25, state.IntervalDays)
	assert.Equal(t, epoch.AddDate(0, 0, 25), state.NextReviewAt)
}

func TestScheduleNext_EasinessFloor(t *testing.T) {
	params := DefaultRetentionParams()
	for i := 0; i < 20; i++ {
		state, err := ScheduleNext(params, QualityBlackout, epoch)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, state.EasinessFactor, MinEasinessFactor)
		params = state.Params()
	}
	assert.Equal(t, MinEasinessFactor, params.EasinessFactor)
}

func TestScheduleNext_RandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		params := DefaultRetentionParams()
		for step := 0; step < 30; step++ {
			q := QualityResponse(rng.Intn(6))
			state, err := ScheduleNext(params, q, epoch)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, state.EasinessFactor, MinEasinessFactor)
			assert.GreaterOrEqual(t, state.IntervalDays, 1)
			assert.GreaterOrEqual(t, state.MasteryLevel, 0.0)
			assert.LessOrEqual(t, state.MasteryLevel, 1.0)
			if q < PassThreshold {
				assert.Equal(t, 0, state.Repetitions)
				assert.Equal(t, 1, state.IntervalDays)
			} else {
				assert.Equal(t, params.Repetitions+1, state.Repetitions)
			}
			params = state.Params()
		}
	}
}

func TestScheduleNext_InvalidQuality(t *testing.T) {
	for _, q := range []QualityResponse{-1, 6, 42} {
		_, err := ScheduleNext(DefaultRetentionParams(), q, epoch)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}
}

func TestScheduleNext_InvalidParams(t *testing.T) {
	cases := map[string]models.RetentionParams{
		"low ef":           {EasinessFactor: 1.0, IntervalDays: 1},
		"zero interval":    {EasinessFactor: 2.5, IntervalDays: 0},
		"negative repeats": {EasinessFactor: 2.5, IntervalDays: 1, Repetitions: -1},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ScheduleNext(params, QualityPerfect, epoch)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestMasteryLevel(t *testing.T) {
	assert.InDelta(t, 0.25, MasteryLevel(0, 2.5), 1e-9)
	assert.InDelta(t, 0.0, MasteryLevel(0, 1.3), 1e-9)
	// three perfect reviews: 0.45 + 1.5/1.2*0.25
	assert.InDelta(t, 0.7625, MasteryLevel(3, 2.8), 1e-9)
	assert.Equal(t, 1.0, MasteryLevel(10, 3.0))
}

func TestMasteryLevelNonDecreasingInRepetitions(t *testing.T) {
	for step := 0; step <= 22; step++ {
		ef := MinEasinessFactor + float64(step)*0.1
		for reps := 0; reps < 20; reps++ {
			lower, higher := MasteryLevel(reps, ef), MasteryLevel(reps+1, ef)
			require.GreaterOrEqualf(t, higher, lower, "ef=%.1f reps=%d", ef, reps)
			require.True(t, higher >= 0 && higher <= 1, "ef=%.1f reps=%d mastery=%f", ef, reps+1, higher)
		}
	}
}

func TestNewRetentionState(t *testing.T) {
	state := NewRetentionState(epoch)

	assert.Equal(t, DefaultEasinessFactor, state.EasinessFactor)
	assert.Equal(t, 1, state.IntervalDays)
	assert.Equal(t, 0, state.Repetitions)
	assert.Equal(t, epoch.Add(24*time.Hour), state.NextReviewAt)
	assert.Zero(t, state.MasteryLevel)
}
