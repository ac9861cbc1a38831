package transfer

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/linguamem/pkg/models"
)

const (
	// MinSiblingProficiency is the score a sibling language must exceed to count
	MinSiblingProficiency = 30.0
	// MinTransferMastery is the mastery a shared concept must exceed to transfer
	MinTransferMastery = 0.7
)

// ProficiencyFetcher is the read side the engine needs from the store
type ProficiencyFetcher interface {
	GetSiblingProficiency(ctx context.Context, learnerID string, languageCodes []string, minScore float64) ([]models.LanguageProficiency, error)
	GetMasteredConceptsAcrossLanguages(ctx context.Context, learnerID string, languageCodes []string, conceptIDs []string, minMastery float64) ([]models.ConceptSummary, error)
}

// Relation is the answer to whether two languages share a family
type Relation struct {
	Related bool   `json:"related"`
	Family  string `json:"family,omitempty"`
}

// Engine answers family questions over an immutable family table
type Engine struct {
	families  []models.LanguageFamily
	familyIdx map[string]int    // code or alias -> index into families
	canonical map[string]string // code or alias -> ISO 639-3 code
	languages map[string]models.Language
}

// NewEngine indexes the given family table. Pass DefaultFamilies() for the built-in one.
func NewEngine(families []models.LanguageFamily) (*Engine, error) {
	for i := range families {
		normalizeFamily(&families[i])
	}
	if err := validateFamilies(families); err != nil {
		return nil, err
	}

	e := &Engine{
		families:  families,
		familyIdx: make(map[string]int),
		canonical: make(map[string]string),
		languages: make(map[string]models.Language),
	}
	for i, f := range families {
		for _, l := range f.Languages {
			e.languages[l.Code] = l
			for _, code := range append([]string{l.Code}, l.Aliases...) {
				e.familyIdx[code] = i
				e.canonical[code] = l.Code
			}
		}
	}
	return e, nil
}

// Families returns the loaded table
func (e *Engine) Families() []models.LanguageFamily {
	return e.families
}

// Canonical maps a code, alias or regional tag to its ISO 639-3 code.
// Unknown codes come back normalized but otherwise unchanged.
func (e *Engine) Canonical(code string) string {
	code = normalizeCode(code)
	if c, ok := e.canonical[code]; ok {
		return c
	}
	return code
}

// LanguageName returns the display name of a code, or the code itself when unknown
func (e *Engine) LanguageName(code string) string {
	if l, ok := e.languages[e.Canonical(code)]; ok {
		return l.Name
	}
	return code
}

// FamilyOf returns the family containing code
func (e *Engine) FamilyOf(code string) (models.LanguageFamily, bool) {
	idx, ok := e.familyIdx[normalizeCode(code)]
	if !ok {
		return models.LanguageFamily{}, false
	}
	return e.families[idx], true
}

// Related reports whether a and b belong to the same family
func (e *Engine) Related(a, b string) Relation {
	fa, okA := e.FamilyOf(a)
	fb, okB := e.FamilyOf(b)
	if !okA || !okB || fa.Name != fb.Name {
		return Relation{}
	}
	return Relation{Related: true, Family: fa.Name}
}

// SharedConcepts returns the concepts that transfer between a and b, empty when unrelated
func (e *Engine) SharedConcepts(a, b string) []string {
	rel := e.Related(a, b)
	if !rel.Related {
		return []string{}
	}
	f, _ := e.FamilyOf(a)
	return append([]string(nil), f.SharedConcepts...)
}

// siblingCodes lists every code and alias of the target's family except the target itself
func (e *Engine) siblingCodes(family models.LanguageFamily, target string) []string {
	var codes []string
	for _, l := range family.Languages {
		if l.Code == target {
			continue
		}
		codes = append(codes, l.Code)
		codes = append(codes, l.Aliases...)
	}
	return codes
}

// TransferableKnowledge finds shared grammar concepts the learner has already
// mastered in a sibling language of target. It returns nil when target has no
// known family or the learner is not proficient in any sibling.
func (e *Engine) TransferableKnowledge(ctx context.Context, fetcher ProficiencyFetcher, learnerID, target string) (*models.TransferableKnowledge, error) {
	family, ok := e.FamilyOf(target)
	if !ok {
		return nil, nil
	}
	targetCode := e.Canonical(target)

	siblings := e.siblingCodes(family, targetCode)
	if len(siblings) == 0 {
		return nil, nil
	}

	profs, err := fetcher.GetSiblingProficiency(ctx, learnerID, siblings, MinSiblingProficiency)
	if err != nil {
		return nil, fmt.Errorf("failed to get sibling proficiency: %w", err)
	}

	// Several stored codes may name the same language; keep the strongest
	best := make(map[string]models.LanguageProficiency)
	var qualifying []string
	for _, p := range profs {
		code := e.Canonical(p.LanguageCode)
		if code == targetCode || p.ProficiencyScore <= MinSiblingProficiency {
			continue
		}
		if _, ok := e.familyIdx[code]; !ok || e.families[e.familyIdx[code]].Name != family.Name {
			continue
		}
		qualifying = append(qualifying, p.LanguageCode)
		if prev, seen := best[code]; !seen || p.ProficiencyScore > prev.ProficiencyScore {
			best[code] = p
		}
	}
	if len(best) == 0 {
		return nil, nil
	}

	related := make([]models.RelatedLanguage, 0, len(best))
	for code, p := range best {
		related = append(related, models.RelatedLanguage{
			Code:             code,
			Name:             e.LanguageName(code),
			ProficiencyScore: p.ProficiencyScore,
			ProficiencyLevel: p.ProficiencyLevel,
		})
	}
	sort.Slice(related, func(i, j int) bool {
		if related[i].ProficiencyScore != related[j].ProficiencyScore {
			return related[i].ProficiencyScore > related[j].ProficiencyScore
		}
		return related[i].Code < related[j].Code
	})

	mastered, err := fetcher.GetMasteredConceptsAcrossLanguages(ctx, learnerID, qualifying, family.SharedConcepts, MinTransferMastery)
	if err != nil {
		return nil, fmt.Errorf("failed to get mastered concepts across languages: %w", err)
	}

	evidence := make(map[string]models.TransferEvidence)
	for _, c := range mastered {
		if c.Kind != models.ConceptGrammar || c.MasteryLevel <= MinTransferMastery || !family.HasConcept(c.ConceptID) {
			continue
		}
		if _, ok := best[e.Canonical(c.LanguageCode)]; !ok {
			continue
		}
		if prev, seen := evidence[c.ConceptID]; !seen || c.MasteryLevel > prev.MasteryLevel {
			evidence[c.ConceptID] = models.TransferEvidence{
				ConceptID:    c.ConceptID,
				LanguageCode: e.Canonical(c.LanguageCode),
				MasteryLevel: c.MasteryLevel,
			}
		}
	}

	knowledge := &models.TransferableKnowledge{
		TargetLanguage:            targetCode,
		Family:                    family.Name,
		RelatedLanguages:          related,
		AccelerationOpportunities: []string{},
		Evidence:                  []models.TransferEvidence{},
	}
	for _, id := range family.SharedConcepts {
		if ev, ok := evidence[id]; ok {
			knowledge.AccelerationOpportunities = append(knowledge.AccelerationOpportunities, id)
			knowledge.Evidence = append(knowledge.Evidence, ev)
		}
	}
	return knowledge, nil
}
