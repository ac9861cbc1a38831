package lessoncontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/linguamem/pkg/models"
)

func TestRenderPrompt(t *testing.T) {
	last := time.Date(2024, 5, 9, 18, 0, 0, 0, time.UTC)
	lc := models.LessonContext{
		LearnerID:    "learner-1",
		LanguageCode: "ita",
		Profile: &models.LearnerProfile{
			DisplayName:    "Ana",
			NativeLanguage: "eng",
			Preferences: models.LearnerPreferences{
				LessonMinutes:   20,
				CorrectionStyle: "gentle",
				Interests:       []string{"cooking", "football"},
			},
		},
		LanguageProgress: models.LanguageProgress{ProficiencyLevel: "elementary", ProficiencyScore: 22, TotalSessions: 4, StreakDays: 3},
		MasteredContent: models.ConceptLists{
			Vocabulary: []models.ConceptSummary{{ConceptID: "ciao", DisplayName: "ciao"}},
			Grammar:    []models.ConceptSummary{{ConceptID: "definite_articles"}},
		},
		RecentContext: models.RecentContext{
			CoveredConcepts: []string{"food_vocabulary"},
			Highlights:      []string{"ordered a coffee"},
			SessionCount:    1,
			LastSessionAt:   &last,
		},
		RecommendedFocus: models.RecommendedFocus{
			ReviewPriority: []models.FocusItem{
				{ConceptID: "passato_prossimo", Kind: models.ConceptGrammar, Reason: ReasonStrugglingGrammar},
			},
			SuggestedTopic: "restaurants",
		},
		CrossLanguage: &models.TransferableKnowledge{
			Family:                    "Romance",
			RelatedLanguages:          []models.RelatedLanguage{{Code: "spa", Name: "Spanish", ProficiencyScore: 70}},
			AccelerationOpportunities: []string{"gendered_nouns"},
		},
		DegradedSources: []string{"recent_sessions"},
	}

	out := RenderPrompt(lc)

	assert.Contains(t, out, "Tutor briefing for Ana (ita)")
	assert.Contains(t, out, "prefers 20-minute lessons")
	assert.Contains(t, out, "interested in cooking, football")
	assert.Contains(t, out, "Level: elementary (score 22/100), 4 sessions, 3-day streak.")
	assert.Contains(t, out, "Mastered (1 vocabulary, 1 grammar): ciao, Definite Articles.")
	assert.Contains(t, out, "1. Passato Prossimo ("+ReasonStrugglingGrammar+")")
	assert.Contains(t, out, "Recently covered: Food Vocabulary.")
	assert.Contains(t, out, "- ordered a coffee")
	assert.Contains(t, out, "Suggested topic: restaurants")
	assert.Contains(t, out, "- Gendered Nouns")
	assert.Contains(t, out, "unavailable (recent_sessions)")
}

func TestRenderPrompt_NewLearner(t *testing.T) {
	lc := models.LessonContext{
		LearnerID:        "learner-1",
		LanguageCode:     "spa",
		LanguageProgress: models.DefaultLanguageProgress("spa"),
		MasteredContent:  models.NewConceptLists(),
	}

	out := RenderPrompt(lc)

	assert.Contains(t, out, "Tutor briefing for learner-1 (spa)")
	assert.Contains(t, out, "Level: beginner (score 0/100)")
	assert.Contains(t, out, "Mastered: nothing yet.")
	assert.NotContains(t, out, "Review first")
	assert.NotContains(t, out, "Cross-language")
}
