package models

import "time"

// RetentionParams are the SM-2 inputs of a concept
type RetentionParams struct {
	EasinessFactor float64 `json:"easiness_factor"` // never below 1.3
	IntervalDays   int     `json:"interval_days"`   // at least 1
	Repetitions    int     `json:"repetitions"`     // consecutive successful reviews
}

// RetentionState is the SM-2 state of a concept after scheduling
type RetentionState struct {
	EasinessFactor float64   `json:"easiness_factor"`
	IntervalDays   int       `json:"interval_days"`
	Repetitions    int       `json:"repetitions"`
	NextReviewAt   time.Time `json:"next_review_at"`
	MasteryLevel   float64   `json:"mastery_level"` // derived, in [0,1]
}

// Params returns the scheduler inputs carried by the state
func (s RetentionState) Params() RetentionParams {
	return RetentionParams{
		EasinessFactor: s.EasinessFactor,
		IntervalDays:   s.IntervalDays,
		Repetitions:    s.Repetitions,
	}
}
