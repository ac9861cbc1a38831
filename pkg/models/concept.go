package models

import "time"

// ConceptKind distinguishes vocabulary items from grammar concepts
type ConceptKind string

const (
	ConceptVocabulary ConceptKind = "vocabulary"
	ConceptGrammar    ConceptKind = "grammar"
)

// Valid reports whether the kind is one of the known concept kinds
func (k ConceptKind) Valid() bool {
	return k == ConceptVocabulary || k == ConceptGrammar
}

// ConceptKey identifies a concept for a learner in a language
type ConceptKey struct {
	LearnerID    string `json:"learner_id" db:"learner_id"`
	LanguageCode string `json:"language_code" db:"language_code"`
	ConceptID    string `json:"concept_id" db:"concept_id"`
}

// ConceptExposure holds the additive counters attached to a concept
type ConceptExposure struct {
	TimesSeen      int      `json:"times_seen"`
	TimesPracticed int      `json:"times_practiced"`
	TimesCorrect   int      `json:"times_correct"`
	TimesIncorrect int      `json:"times_incorrect"`
	TimesStruggled int      `json:"times_struggled"`
	RecentErrors   []string `json:"recent_errors"` // most recent last
}

// ConceptRecord is the full stored state of one concept: retention plus exposure
type ConceptRecord struct {
	ConceptKey
	Kind           ConceptKind     `json:"kind"`
	DisplayName    string          `json:"display_name"`
	Retention      RetentionState  `json:"retention"`
	Scheduled      bool            `json:"scheduled"` // false until the first review sets NextReviewAt
	Exposure       ConceptExposure `json:"exposure"`
	LastReviewedAt *time.Time      `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ConceptSummary is the read shape returned by concept queries
type ConceptSummary struct {
	ConceptID      string      `json:"concept_id"`
	LanguageCode   string      `json:"language_code"`
	Kind           ConceptKind `json:"kind"`
	DisplayName    string      `json:"display_name"`
	MasteryLevel   float64     `json:"mastery_level"`
	NextReviewAt   *time.Time  `json:"next_review_at,omitempty"` // nil means never scheduled
	TimesSeen      int         `json:"times_seen"`
	TimesCorrect   int         `json:"times_correct"`
	TimesIncorrect int         `json:"times_incorrect"`
	LastReviewedAt *time.Time  `json:"last_reviewed_at,omitempty"`
}

// ReviewDueAt returns the scheduled review time, nil when never scheduled
func (c ConceptSummary) ReviewDueAt() *time.Time { return c.NextReviewAt }

// Mastery returns the derived mastery level
func (c ConceptSummary) Mastery() float64 { return c.MasteryLevel }

// Seen returns how many times the concept has been encountered
func (c ConceptSummary) Seen() int { return c.TimesSeen }

// Incorrect returns how many attempts were wrong
func (c ConceptSummary) Incorrect() int { return c.TimesIncorrect }

// Summary converts a stored record into its read shape
func (r ConceptRecord) Summary() ConceptSummary {
	s := ConceptSummary{
		ConceptID:      r.ConceptID,
		LanguageCode:   r.LanguageCode,
		Kind:           r.Kind,
		DisplayName:    r.DisplayName,
		MasteryLevel:   r.Retention.MasteryLevel,
		TimesSeen:      r.Exposure.TimesSeen,
		TimesCorrect:   r.Exposure.TimesCorrect,
		TimesIncorrect: r.Exposure.TimesIncorrect,
		LastReviewedAt: r.LastReviewedAt,
	}
	if r.Scheduled {
		next := r.Retention.NextReviewAt
		s.NextReviewAt = &next
	}
	return s
}
