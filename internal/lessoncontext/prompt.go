package lessoncontext

import (
	"fmt"
	"strings"

	"github.com/example/linguamem/internal/transfer"
	"github.com/example/linguamem/pkg/models"
)

const maxListedMastered = 8

func displayName(c models.ConceptSummary) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return transfer.DisplayConceptName(c.ConceptID)
}

func focusName(f models.FocusItem) string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return transfer.DisplayConceptName(f.ConceptID)
}

// RenderPrompt renders a lesson context as a plain-text tutor briefing
func RenderPrompt(lc models.LessonContext) string {
	var b strings.Builder

	name := lc.LearnerID
	if lc.Profile != nil && lc.Profile.DisplayName != "" {
		name = lc.Profile.DisplayName
	}
	fmt.Fprintf(&b, "Tutor briefing for %s (%s)\n", name, lc.LanguageCode)

	if p := lc.Profile; p != nil {
		var prefs []string
		if p.NativeLanguage != "" {
			prefs = append(prefs, "native language "+p.NativeLanguage)
		}
		if p.Preferences.LessonMinutes > 0 {
			prefs = append(prefs, fmt.Sprintf("prefers %d-minute lessons", p.Preferences.LessonMinutes))
		}
		if p.Preferences.CorrectionStyle != "" {
			prefs = append(prefs, p.Preferences.CorrectionStyle+" corrections")
		}
		if len(p.Preferences.Interests) > 0 {
			prefs = append(prefs, "interested in "+strings.Join(p.Preferences.Interests, ", "))
		}
		if len(prefs) > 0 {
			b.WriteString("Learner: " + strings.Join(prefs, "; ") + ".\n")
		}
	}

	prog := lc.LanguageProgress
	fmt.Fprintf(&b, "Level: %s (score %.0f/100), %d sessions, %d-day streak.\n",
		prog.ProficiencyLevel, prog.ProficiencyScore, prog.TotalSessions, prog.StreakDays)

	mastered := append(append([]models.ConceptSummary{}, lc.MasteredContent.Vocabulary...), lc.MasteredContent.Grammar...)
	if len(mastered) == 0 {
		b.WriteString("Mastered: nothing yet.\n")
	} else {
		names := make([]string, 0, maxListedMastered)
		for i, c := range mastered {
			if i == maxListedMastered {
				break
			}
			names = append(names, displayName(c))
		}
		fmt.Fprintf(&b, "Mastered (%d vocabulary, %d grammar): %s.\n",
			len(lc.MasteredContent.Vocabulary), len(lc.MasteredContent.Grammar), strings.Join(names, ", "))
	}

	if len(lc.RecommendedFocus.ReviewPriority) > 0 {
		b.WriteString("Review first:\n")
		for i, f := range lc.RecommendedFocus.ReviewPriority {
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, focusName(f), f.Reason)
		}
	}

	if rc := lc.RecentContext; rc.SessionCount > 0 {
		if len(rc.CoveredConcepts) > 0 {
			covered := make([]string, 0, len(rc.CoveredConcepts))
			for _, id := range rc.CoveredConcepts {
				covered = append(covered, transfer.DisplayConceptName(id))
			}
			b.WriteString("Recently covered: " + strings.Join(covered, ", ") + ".\n")
		}
		for _, h := range rc.Highlights {
			b.WriteString("- " + h + "\n")
		}
	}

	if lc.RecommendedFocus.SuggestedTopic != "" {
		b.WriteString("Suggested topic: " + lc.RecommendedFocus.SuggestedTopic + "\n")
	}

	if t := transfer.RenderTransferPrompt(lc.CrossLanguage); t != "" {
		b.WriteString(t + "\n")
	}

	if len(lc.DegradedSources) > 0 {
		fmt.Fprintf(&b, "Note: some learner data was unavailable (%s); treat gaps as unknown, not as a new learner.\n",
			strings.Join(lc.DegradedSources, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}
