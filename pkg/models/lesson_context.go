package models

import "time"

// ConceptLists groups concept summaries by kind
type ConceptLists struct {
	Vocabulary []ConceptSummary `json:"vocabulary"`
	Grammar    []ConceptSummary `json:"grammar"`
}

// NewConceptLists returns lists that serialize as empty arrays
func NewConceptLists() ConceptLists {
	return ConceptLists{
		Vocabulary: []ConceptSummary{},
		Grammar:    []ConceptSummary{},
	}
}

// RecentContext is what recent sessions covered
type RecentContext struct {
	CoveredConcepts []string   `json:"covered_concepts"`
	Highlights      []string   `json:"highlights"`
	SessionCount    int        `json:"session_count"`
	LastSessionAt   *time.Time `json:"last_session_at,omitempty"`
}

// RelatedLanguage is a sibling language the learner is proficient in
type RelatedLanguage struct {
	Code             string  `json:"code"`
	Name             string  `json:"name"`
	ProficiencyScore float64 `json:"proficiency_score"`
	ProficiencyLevel string  `json:"proficiency_level"`
}

// TransferEvidence records where a transferable concept was mastered
type TransferEvidence struct {
	ConceptID    string  `json:"concept_id"`
	LanguageCode string  `json:"language_code"`
	MasteryLevel float64 `json:"mastery_level"`
}

// TransferableKnowledge describes what a learner can carry over from sibling languages
type TransferableKnowledge struct {
	TargetLanguage            string             `json:"target_language"`
	Family                    string             `json:"family"`
	RelatedLanguages          []RelatedLanguage  `json:"related_languages"`
	AccelerationOpportunities []string           `json:"acceleration_opportunities"`
	Evidence                  []TransferEvidence `json:"evidence"`
}

// FocusItem is one entry of the recommended review order
type FocusItem struct {
	ConceptID   string      `json:"concept_id"`
	Kind        ConceptKind `json:"kind"`
	DisplayName string      `json:"display_name"`
	Reason      string      `json:"reason"`
}

// RecommendedFocus is the ranked guidance handed to the tutor
type RecommendedFocus struct {
	ReviewPriority []FocusItem `json:"review_priority"`
	SuggestedTopic string      `json:"suggested_topic,omitempty"`
}

// LessonContext is the read-only snapshot assembled at lesson start
type LessonContext struct {
	LearnerID        string                 `json:"learner_id"`
	LanguageCode     string                 `json:"language_code"`
	GeneratedAt      time.Time              `json:"generated_at"`
	Profile          *LearnerProfile        `json:"profile"`
	LanguageProgress LanguageProgress       `json:"language_progress"`
	MasteredContent  ConceptLists           `json:"mastered_content"`
	DueForReview     ConceptLists           `json:"due_for_review"`
	StrugglingAreas  ConceptLists           `json:"struggling_areas"`
	RecentContext    RecentContext          `json:"recent_context"`
	CrossLanguage    *TransferableKnowledge `json:"cross_language,omitempty"`
	RecommendedFocus RecommendedFocus       `json:"recommended_focus"`
	DegradedSources  []string               `json:"degraded_sources,omitempty"` // branches that fell back after a fetch failure
}
