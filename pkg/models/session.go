package models

import "time"

// SessionSummary is the condensed record of a finished lesson
type SessionSummary struct {
	ID              string    `json:"id"`
	LearnerID       string    `json:"learner_id"`
	LanguageCode    string    `json:"language_code"`
	StartedAt       time.Time `json:"started_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Summary         string    `json:"summary"`
	ConceptsCovered []string  `json:"concepts_covered"`
	Highlights      []string  `json:"highlights"`
}
