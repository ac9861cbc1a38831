package lessoncontext

import (
	"sort"

	"github.com/example/linguamem/pkg/models"
)

// Reason strings attached to review-priority entries
const (
	ReasonStrugglingVocabulary = "struggling vocabulary: repeated low recall"
	ReasonStrugglingGrammar    = "struggling grammar: repeated errors"
	ReasonDueVocabulary        = "vocabulary due for spaced review"
	ReasonDueGrammar           = "grammar due for spaced review"
)

// How many entries each source contributes to the review priority
const (
	focusStrugglingVocabulary = 5
	focusStrugglingGrammar    = 3
	focusDueVocabulary        = 5
	focusDueGrammar           = 2
)

// recommendFocus merges struggling and due concepts into one ranked list.
// Struggling entries are added first, so a concept in both lists keeps its
// struggling reason.
func recommendFocus(struggling, due models.ConceptLists, topic string) models.RecommendedFocus {
	seen := NewOrderedSet[string]()
	priority := []models.FocusItem{}

	add := func(items []models.ConceptSummary, limit int, reason string) {
		for i, c := range items {
			if i == limit {
				break
			}
			if !seen.Add(c.ConceptID) {
				continue
			}
			priority = append(priority, models.FocusItem{
				ConceptID:   c.ConceptID,
				Kind:        c.Kind,
				DisplayName: c.DisplayName,
				Reason:      reason,
			})
		}
	}

	add(struggling.Vocabulary, focusStrugglingVocabulary, ReasonStrugglingVocabulary)
	add(struggling.Grammar, focusStrugglingGrammar, ReasonStrugglingGrammar)
	add(due.Vocabulary, focusDueVocabulary, ReasonDueVocabulary)
	add(due.Grammar, focusDueGrammar, ReasonDueGrammar)

	return models.RecommendedFocus{
		ReviewPriority: priority,
		SuggestedTopic: topic,
	}
}

// summarizeSessions flattens recent sessions, newest first, into covered
// concepts and a capped list of highlights
func summarizeSessions(sessions []models.SessionSummary, highlightsLimit int) models.RecentContext {
	ordered := append([]models.SessionSummary(nil), sessions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartedAt.After(ordered[j].StartedAt)
	})

	covered := NewOrderedSet[string]()
	highlights := NewOrderedSet[string]()
	for _, s := range ordered {
		for _, c := range s.ConceptsCovered {
			if c != "" {
				covered.Add(c)
			}
		}
		for _, h := range s.Highlights {
			if h != "" && highlights.Len() < highlightsLimit {
				highlights.Add(h)
			}
		}
	}

	rc := models.RecentContext{
		CoveredConcepts: covered.Items(),
		Highlights:      highlights.Items(),
		SessionCount:    len(ordered),
	}
	if len(ordered) > 0 {
		last := ordered[0].StartedAt
		rc.LastSessionAt = &last
	}
	return rc
}
