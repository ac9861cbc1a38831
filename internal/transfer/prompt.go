package transfer

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/example/linguamem/pkg/models"
)

// MaxPromptOpportunities caps the concepts listed in a transfer briefing
const MaxPromptOpportunities = 5

// DisplayConceptName turns a concept id like "gendered_nouns" into "Gendered Nouns"
func DisplayConceptName(conceptID string) string {
	words := strings.ReplaceAll(strings.TrimSpace(conceptID), "_", " ")
	return cases.Title(language.English).String(words)
}

// RenderTransferPrompt describes what the learner can carry over from related
// languages. It returns "" when there is nothing concrete to claim.
func RenderTransferPrompt(k *models.TransferableKnowledge) string {
	if k == nil || len(k.AccelerationOpportunities) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cross-language transfer (%s family):\n", k.Family)

	if len(k.RelatedLanguages) > 0 {
		names := make([]string, 0, len(k.RelatedLanguages))
		for _, l := range k.RelatedLanguages {
			names = append(names, fmt.Sprintf("%s (%.0f/100)", l.Name, l.ProficiencyScore))
		}
		fmt.Fprintf(&b, "The learner already studies %s.\n", strings.Join(names, ", "))
	}

	evidence := make(map[string]string, len(k.Evidence))
	for _, ev := range k.Evidence {
		evidence[ev.ConceptID] = ev.LanguageCode
	}
	langName := make(map[string]string, len(k.RelatedLanguages))
	for _, l := range k.RelatedLanguages {
		langName[l.Code] = l.Name
	}

	b.WriteString("Concepts they have already mastered in a related language:\n")
	for i, id := range k.AccelerationOpportunities {
		if i == MaxPromptOpportunities {
			break
		}
		line := "- " + DisplayConceptName(id)
		if code, ok := evidence[id]; ok {
			if name, ok := langName[code]; ok {
				line += " (from " + name + ")"
			}
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("Build on these instead of introducing them from scratch.")
	return b.String()
}
