package models

import "time"

// ProficiencyBeginner is the level of a learner new to a language
const ProficiencyBeginner = "beginner"

// LanguageProgress tracks aggregate counters for a learner in one language
type LanguageProgress struct {
	LanguageCode     string     `json:"language_code"`
	ProficiencyLevel string     `json:"proficiency_level"`
	ProficiencyScore float64    `json:"proficiency_score"` // 0-100
	TotalSessions    int        `json:"total_sessions"`
	TotalMinutes     int        `json:"total_minutes"`
	VocabularyCount  int        `json:"vocabulary_count"`
	GrammarCount     int        `json:"grammar_count"`
	StreakDays       int        `json:"streak_days"`
	LastSessionAt    *time.Time `json:"last_session_at,omitempty"`
}

// DefaultLanguageProgress returns zeroed counters for a language the learner has not started
func DefaultLanguageProgress(languageCode string) LanguageProgress {
	return LanguageProgress{
		LanguageCode:     languageCode,
		ProficiencyLevel: ProficiencyBeginner,
	}
}

// LanguageProficiency is a learner's proficiency in one language
type LanguageProficiency struct {
	LanguageCode     string  `json:"language_code"`
	ProficiencyScore float64 `json:"proficiency_score"`
	ProficiencyLevel string  `json:"proficiency_level"`
}
