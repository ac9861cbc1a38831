package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/pkg/models"
)

const (
	// DefaultEasinessFactor is the EF of a concept that has never been reviewed
	DefaultEasinessFactor = 2.5
	// MinEasinessFactor is the floor the EF never drops below
	MinEasinessFactor = 1.3
	// PassThreshold is the lowest quality counted as a successful recall
	PassThreshold = QualityCorrectDifficult

	day = 24 * time.Hour
)

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// Validate rejects qualities outside 0..5
func (q QualityResponse) Validate() error {
	if q < QualityBlackout || q > QualityPerfect {
		return apperrors.Invalid("quality", int(q), "must be between 0 and 5")
	}
	return nil
}

// NewRetentionState returns the state of a concept on first exposure.
// Nothing is learned yet, so mastery starts at zero rather than the formula value.
func NewRetentionState(now time.Time) models.RetentionState {
	return models.RetentionState{
		EasinessFactor: DefaultEasinessFactor,
		IntervalDays:   1,
		Repetitions:    0,
		NextReviewAt:   now.Add(day),
		MasteryLevel:   0,
	}
}

// DefaultRetentionParams are the scheduler inputs of an unseen concept
func DefaultRetentionParams() models.RetentionParams {
	return models.RetentionParams{EasinessFactor: DefaultEasinessFactor, IntervalDays: 1}
}

// ScheduleNext applies one review of the given quality to the current
// retention parameters and returns the resulting state.
func ScheduleNext(current models.RetentionParams, quality QualityResponse, now time.Time) (models.RetentionState, error) {
	if err := quality.Validate(); err != nil {
		return models.RetentionState{}, err
	}
	if err := validateParams(current); err != nil {
		return models.RetentionState{}, err
	}

	// Calculate the easiness factor (EF)
	q := float64(quality)
	newEF := current.EasinessFactor + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if newEF < MinEasinessFactor {
		newEF = MinEasinessFactor
	}

	repetitions := current.Repetitions
	interval := current.IntervalDays

	if quality >= PassThreshold {
		repetitions++
		switch repetitions {
		case 1:
			interval = 1
		case 2:
			interval = 3
		default:
			interval = int(math.Round(float64(interval) * newEF))
		}
	} else {
		// Failed recall restarts the learning sequence
		repetitions = 0
		interval = 1
	}

	return models.RetentionState{
		EasinessFactor: newEF,
		IntervalDays:   interval,
		Repetitions:    repetitions,
		NextReviewAt:   now.Add(time.Duration(interval) * day),
		MasteryLevel:   MasteryLevel(repetitions, newEF),
	}, nil
}

// MasteryLevel derives a 0..1 mastery score from repetitions and EF.
// Repetitions dominate; EF contributes at most 0.25.
func MasteryLevel(repetitions int, easinessFactor float64) float64 {
	m := float64(repetitions)*0.15 + (easinessFactor-MinEasinessFactor)/1.2*0.25
	return math.Max(0, math.Min(1, m))
}

func validateParams(p models.RetentionParams) error {
	if p.EasinessFactor < MinEasinessFactor {
		return apperrors.Invalid("easiness_factor", p.EasinessFactor, "must be at least 1.3")
	}
	if p.IntervalDays < 1 {
		return apperrors.Invalid("interval_days", p.IntervalDays, "must be at least 1")
	}
	if p.Repetitions < 0 {
		return apperrors.Invalid("repetitions", p.Repetitions, "must not be negative")
	}
	return nil
}
